package service

import (
	"context"
	"errors"
	"testing"

	"leadflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPct(t *testing.T) {
	assert.Equal(t, 0.0, Pct(0, 0))
	assert.Equal(t, 0.0, Pct(5, 0))
	assert.Equal(t, 33.3, Pct(1, 3))
	assert.Equal(t, 66.7, Pct(2, 3))
	assert.Equal(t, 50.0, Pct(1, 2))
	assert.Equal(t, 100.0, Pct(3, 3))
}

func lead(cohort, variant string, stage model.Stage) model.Lead {
	return model.Lead{Cohort: cohort, MessageVariant: variant, Stage: stage}
}

func TestBuildCohortSummaryGrouping(t *testing.T) {
	leads := []model.Lead{
		lead("1", "A", model.StageActivated),
		lead("1", "A", model.StageReplied),
		lead("1", "B", model.StageSold),
		lead("2", "A", model.StageAwaitingActivation),
		lead("", "", model.StageActivated),
	}

	summary := BuildCohortSummary(leads)
	require.Len(t, summary, 4)

	// Sorted by cohort then variant; the blank group renders as an em dash.
	assert.Equal(t, "1", summary[0].Cohort)
	assert.Equal(t, "A", summary[0].Variant)
	assert.Equal(t, 2, summary[0].Total)
	assert.Equal(t, 1, summary[0].Counts[model.StageActivated])
	assert.Equal(t, 1, summary[0].Counts[model.StageReplied])

	assert.Equal(t, "1", summary[1].Cohort)
	assert.Equal(t, "B", summary[1].Variant)
	assert.Equal(t, 1, summary[1].Counts[model.StageSold])

	assert.Equal(t, "2", summary[2].Cohort)
	assert.Equal(t, "—", summary[3].Cohort)
	assert.Equal(t, "—", summary[3].Variant)
}

func TestBuildCohortSummaryTerminalStagesNotBucketed(t *testing.T) {
	leads := []model.Lead{
		lead("1", "A", model.StageLost),
		lead("1", "A", model.StageDoNotContact),
	}

	summary := BuildCohortSummary(leads)
	require.Len(t, summary, 1)

	// Lost leads count toward the total but land in no funnel bucket.
	assert.Equal(t, 2, summary[0].Total)
	for stage, n := range summary[0].Counts {
		assert.Zero(t, n, string(stage))
	}
}

func TestBuildCohortSummaryConversionCascade(t *testing.T) {
	leads := []model.Lead{
		lead("1", "A", model.StageActivated),
		lead("1", "A", model.StageActivated),
		lead("1", "A", model.StageReplied),
		lead("1", "A", model.StageSold),
	}

	summary := BuildCohortSummary(leads)
	require.Len(t, summary, 1)
	conv := summary[0].Conversion

	assert.Equal(t, 50.0, conv.ActivatedPct) // 2 of 4
	// No delivered bucket, so replied falls back to the activated denominator.
	assert.Equal(t, 50.0, conv.RepliedPct) // 1 of 2
	// Sold cascades past the empty approved/interested buckets to replied.
	assert.Equal(t, 100.0, conv.SoldPct) // 1 of 1
}

type stubSummaryStore struct {
	leads []model.Lead
	calls int
	err   error
}

func (s *stubSummaryStore) ListLeads(ctx context.Context, f model.LeadFilter) ([]model.Lead, error) {
	s.calls++
	return s.leads, s.err
}

func TestSummaryServiceCachesAndInvalidates(t *testing.T) {
	store := &stubSummaryStore{leads: []model.Lead{lead("1", "A", model.StageActivated)}}
	svc := NewSummaryService(store)

	_, err := svc.CohortSummary(context.Background())
	require.NoError(t, err)
	_, err = svc.CohortSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls, "second read must come from cache")

	svc.Invalidate()
	_, err = svc.CohortSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestSummaryServicePropagatesStoreError(t *testing.T) {
	store := &stubSummaryStore{err: errors.New("boom")}
	svc := NewSummaryService(store)

	_, err := svc.CohortSummary(context.Background())
	assert.Error(t, err)
}
