package model

// Stage represents a lead's position in the outreach funnel.
// The order of the Stages slice is the ordinal rank used by funnel math.
type Stage string

const (
	StageAwaitingActivation Stage = "Aguardando ativação"
	StageActivated          Stage = "Contato ativado"
	StageDelivered          Stage = "Entregue"
	StageRead               Stage = "Lido"
	StageReplied            Stage = "Respondeu"
	StageInterestedPending  Stage = "Interessado (pendente aprovação)"
	StageInterestedApproved Stage = "Interessado (aprovado)"
	StageSold               Stage = "Venda feita"
	StageLost               Stage = "Perdido"
	StageDoNotContact       Stage = "Não contatar"
)

// Stages is the full funnel vocabulary in rank order. Perdido and Não contatar
// are appended after Venda feita, so they rank above every active stage; the
// cumulative KPI counters depend on this exact order.
var Stages = []Stage{
	StageAwaitingActivation,
	StageActivated,
	StageDelivered,
	StageRead,
	StageReplied,
	StageInterestedPending,
	StageInterestedApproved,
	StageSold,
	StageLost,
	StageDoNotContact,
}

// Rank returns the ordinal position of s in the funnel. Unknown stages rank 0.
func (s Stage) Rank() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return 0
}

// Valid reports whether s is part of the closed vocabulary.
func (s Stage) Valid() bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

// ApprovalStatus is the manual approval gate, independent of Stage.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pendente"
	ApprovalApproved ApprovalStatus = "Aprovado"
	ApprovalRejected ApprovalStatus = "Reprovado"
)

var ApprovalStatuses = []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected}

// Valid reports whether a is a known approval status. Empty is allowed: most
// leads never reach the gate.
func (a ApprovalStatus) Valid() bool {
	if a == "" {
		return true
	}
	for _, st := range ApprovalStatuses {
		if st == a {
			return true
		}
	}
	return false
}

// Source records how a lead entered the store.
type Source string

const (
	SourceCSVImport Source = "CSV import"
	SourceWebhook   Source = "webhook"
	SourceManual    Source = "manual"
)

// ImportKind selects the import template: a cold base or already-activated contacts.
type ImportKind string

const (
	ImportKindBase     ImportKind = "base"
	ImportKindAtivados ImportKind = "ativados"
)

func (k ImportKind) Valid() bool {
	return k == ImportKindBase || k == ImportKindAtivados
}

// InitialStage returns the stage an imported row starts in.
func (k ImportKind) InitialStage() Stage {
	if k == ImportKindAtivados {
		return StageActivated
	}
	return StageAwaitingActivation
}

// ImportStatus is the lifecycle of a background CSV import job.
type ImportStatus string

const (
	ImportPending ImportStatus = "pending"
	ImportRunning ImportStatus = "running"
	ImportDone    ImportStatus = "done"
	ImportError   ImportStatus = "error"
)

// Terminal reports whether the job reached a final state.
func (s ImportStatus) Terminal() bool {
	return s == ImportDone || s == ImportError
}

// transitions is the explicit stage transition table. Each stage may advance to
// any later funnel stage, fall back one step (operator corrections), or be
// closed out as Perdido / Não contatar. Enforcement is opt-in; the stock
// behavior keeps the historical any-to-any freedom.
var transitions = map[Stage][]Stage{
	StageAwaitingActivation: {StageActivated, StageLost, StageDoNotContact},
	StageActivated:          {StageAwaitingActivation, StageDelivered, StageRead, StageReplied, StageLost, StageDoNotContact},
	StageDelivered:          {StageActivated, StageRead, StageReplied, StageLost, StageDoNotContact},
	StageRead:               {StageDelivered, StageReplied, StageLost, StageDoNotContact},
	StageReplied:            {StageRead, StageInterestedPending, StageLost, StageDoNotContact},
	StageInterestedPending:  {StageReplied, StageInterestedApproved, StageLost, StageDoNotContact},
	StageInterestedApproved: {StageInterestedPending, StageSold, StageLost, StageDoNotContact},
	StageSold:               {},
	StageLost:               {StageAwaitingActivation},
	StageDoNotContact:       {},
}

// CanTransition reports whether the transition table allows from -> to.
// Setting a stage to itself is always allowed.
func CanTransition(from, to Stage) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
