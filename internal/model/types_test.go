package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageRankOrder(t *testing.T) {
	assert.Equal(t, 0, StageAwaitingActivation.Rank())
	assert.Equal(t, 1, StageActivated.Rank())
	assert.Equal(t, 7, StageSold.Rank())

	// The closing stages sit after Venda feita in the vocabulary, so they
	// outrank every active funnel stage. Cumulative counters depend on this.
	assert.Greater(t, StageLost.Rank(), StageSold.Rank())
	assert.Greater(t, StageDoNotContact.Rank(), StageLost.Rank())
}

func TestStageRankUnknown(t *testing.T) {
	assert.Equal(t, 0, Stage("Inexistente").Rank())
}

func TestStageValid(t *testing.T) {
	for _, s := range Stages {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Stage("").Valid())
	assert.False(t, Stage("interessado").Valid(), "stage match is case-sensitive")
}

func TestApprovalStatusValid(t *testing.T) {
	assert.True(t, ApprovalStatus("").Valid(), "empty means the lead never reached the gate")
	assert.True(t, ApprovalPending.Valid())
	assert.False(t, ApprovalStatus("aprovado").Valid())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StageSold, StageSold), "self transition always allowed")
	assert.True(t, CanTransition(StageInterestedPending, StageInterestedApproved))
	assert.True(t, CanTransition(StageReplied, StageLost))
	assert.True(t, CanTransition(StageLost, StageAwaitingActivation), "lost leads can be recycled")

	assert.False(t, CanTransition(StageSold, StageAwaitingActivation))
	assert.False(t, CanTransition(StageDoNotContact, StageActivated))
	assert.False(t, CanTransition(StageAwaitingActivation, StageSold))
}

func TestImportKind(t *testing.T) {
	assert.True(t, ImportKindBase.Valid())
	assert.True(t, ImportKindAtivados.Valid())
	assert.False(t, ImportKind("full").Valid())

	assert.Equal(t, StageAwaitingActivation, ImportKindBase.InitialStage())
	assert.Equal(t, StageActivated, ImportKindAtivados.InitialStage())
}

func TestImportStatusTerminal(t *testing.T) {
	assert.False(t, ImportPending.Terminal())
	assert.False(t, ImportRunning.Terminal())
	assert.True(t, ImportDone.Terminal())
	assert.True(t, ImportError.Terminal())
}
