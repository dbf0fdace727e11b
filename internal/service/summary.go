package service

import (
	"context"
	"math"
	"sort"
	"time"

	"leadflow/internal/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// funnelStages are the buckets reported per (cohort, variant); terminal stages
// are excluded from the count map.
var funnelStages = model.Stages[:8]

// Pct returns num/den as a percentage with one decimal place, 0 when den is 0.
// A zero denominator is indistinguishable from no data.
func Pct(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*1000) / 10
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

// BuildCohortSummary groups leads by (cohort, variant), counts the funnel
// buckets and derives the conversion chain. Denominators cascade to the
// nearest non-empty upstream bucket so sparse cohorts still produce rates.
func BuildCohortSummary(leads []model.Lead) []model.CohortSummary {
	groups := make(map[string]*model.CohortSummary)
	order := make([]string, 0)

	for _, lead := range leads {
		cohort := lead.Cohort
		if cohort == "" {
			cohort = "—"
		}
		variant := lead.MessageVariant
		if variant == "" {
			variant = "—"
		}
		key := cohort + "||" + variant

		g, ok := groups[key]
		if !ok {
			g = &model.CohortSummary{
				Cohort:  cohort,
				Variant: variant,
				Counts:  make(map[model.Stage]int, len(funnelStages)),
			}
			for _, st := range funnelStages {
				g.Counts[st] = 0
			}
			groups[key] = g
			order = append(order, key)
		}

		g.Total++
		stage := lead.Stage
		if stage == "" {
			stage = model.StageAwaitingActivation
		}
		if _, counted := g.Counts[stage]; counted {
			g.Counts[stage]++
		}
	}

	summary := make([]model.CohortSummary, 0, len(order))
	for _, key := range order {
		g := groups[key]

		activated := g.Counts[model.StageActivated]
		delivered := g.Counts[model.StageDelivered]
		replied := g.Counts[model.StageReplied]
		interested := g.Counts[model.StageInterestedPending] + g.Counts[model.StageInterestedApproved]
		approved := g.Counts[model.StageInterestedApproved]
		sold := g.Counts[model.StageSold]

		g.Conversion = model.ConversionRate{
			ActivatedPct:  Pct(activated, g.Total),
			DeliveredPct:  Pct(delivered, firstNonZero(activated, g.Total)),
			RepliedPct:    Pct(replied, firstNonZero(delivered, activated, g.Total)),
			InterestedPct: Pct(interested, firstNonZero(replied, delivered, activated, g.Total)),
			ApprovedPct:   Pct(approved, firstNonZero(interested, replied, delivered, activated, g.Total)),
			SoldPct:       Pct(sold, firstNonZero(approved, interested, replied, delivered, activated, g.Total)),
		}
		summary = append(summary, *g)
	}

	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Cohort+summary[i].Variant < summary[j].Cohort+summary[j].Variant
	})
	return summary
}

// SummaryStore is the slice of the query layer the aggregator needs.
type SummaryStore interface {
	ListLeads(ctx context.Context, f model.LeadFilter) ([]model.Lead, error)
}

const summaryCacheKey = "cohorts"

// SummaryService serves the cohort summary table with a short-lived cache so
// dashboard refresh storms do not re-scan the store. Mutating endpoints call
// Invalidate to keep post-update reads fresh.
type SummaryService struct {
	store SummaryStore
	cache *expirable.LRU[string, []model.CohortSummary]
}

func NewSummaryService(store SummaryStore) *SummaryService {
	return &SummaryService{
		store: store,
		cache: expirable.NewLRU[string, []model.CohortSummary](4, nil, 15*time.Second),
	}
}

// CohortSummary returns the aggregate for all leads, cached briefly.
func (s *SummaryService) CohortSummary(ctx context.Context) ([]model.CohortSummary, error) {
	if cached, ok := s.cache.Get(summaryCacheKey); ok {
		return cached, nil
	}

	leads, err := s.store.ListLeads(ctx, model.LeadFilter{Limit: -1})
	if err != nil {
		return nil, err
	}

	summary := BuildCohortSummary(leads)
	s.cache.Add(summaryCacheKey, summary)
	return summary, nil
}

// Invalidate drops the cached summary after a mutation.
func (s *SummaryService) Invalidate() {
	s.cache.Purge()
}
