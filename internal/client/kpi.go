package client

import (
	"fmt"
	"strconv"
	"strings"

	"leadflow/internal/model"
	"leadflow/internal/service"
)

// KPIs are the dashboard funnel counters, computed from the in-memory lead
// list. They are only as fresh as the last ListLeads call.
type KPIs struct {
	Total      int `json:"total"`
	Activated  int `json:"activated"`
	Delivered  int `json:"delivered"`
	Read       int `json:"read"`
	Replied    int `json:"replied"`
	Interested int `json:"interested"`
	Approved   int `json:"approved"`
	Sold       int `json:"sold"`

	PendingApproval int `json:"pendingApproval"`
	Lost            int `json:"lost"`
	DoNotContact    int `json:"doNotContact"`

	ActivationPct string `json:"activationPct"`
	ReplyPct      string `json:"replyPct"`
	InterestPct   string `json:"interestPct"`
	SalePct       string `json:"salePct"`
}

// CountAtOrAbove counts leads whose stage ranks at or above the target in the
// fixed funnel order. "Perdido" and "Não contatar" rank after "Venda feita",
// so they count toward every lower threshold; KPI consumers rely on that
// behavior today.
func CountAtOrAbove(leads []model.Lead, stage model.Stage) int {
	threshold := stage.Rank()
	n := 0
	for _, l := range leads {
		if l.Stage.Rank() >= threshold {
			n++
		}
	}
	return n
}

func countStage(leads []model.Lead, stages ...model.Stage) int {
	n := 0
	for _, l := range leads {
		for _, s := range stages {
			if l.Stage == s {
				n++
				break
			}
		}
	}
	return n
}

// FormatPct renders pct(num, den) with one decimal place, trimming a trailing
// ".0". A zero denominator yields "0%".
func FormatPct(num, den int) string {
	v := service.Pct(num, den)
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + "%"
}

// ComputeKPIs recomputes all funnel counters from scratch. No caching; the
// input list is the state.
func ComputeKPIs(leads []model.Lead) KPIs {
	k := KPIs{
		Total:      len(leads),
		Activated:  CountAtOrAbove(leads, model.StageActivated),
		Delivered:  CountAtOrAbove(leads, model.StageDelivered),
		Read:       CountAtOrAbove(leads, model.StageRead),
		Replied:    CountAtOrAbove(leads, model.StageReplied),
		Interested: CountAtOrAbove(leads, model.StageInterestedPending),
		Approved:   CountAtOrAbove(leads, model.StageInterestedApproved),
		Sold:       CountAtOrAbove(leads, model.StageSold),

		Lost:         countStage(leads, model.StageLost),
		DoNotContact: countStage(leads, model.StageDoNotContact),
	}
	for _, l := range leads {
		if l.ApprovalStatus == model.ApprovalPending {
			k.PendingApproval++
		}
	}

	k.ActivationPct = FormatPct(k.Activated, k.Total)
	k.ReplyPct = FormatPct(k.Replied, k.Activated)
	k.InterestPct = FormatPct(k.Interested, k.Replied)
	k.SalePct = FormatPct(k.Sold, k.Interested)
	return k
}

// ChartRow is one bar of the cohort comparison chart: all variants of a
// cohort collapsed into a single row.
type ChartRow struct {
	Cohort     string `json:"cohort"`
	Total      int    `json:"total"`
	Activated  int    `json:"activated"`
	Replied    int    `json:"replied"`
	Interested int    `json:"interested"`
	Sold       int    `json:"sold"`
}

// CollapseByCohort groups summary rows by cohort, summing total and the four
// chart buckets across variants. Interested merges both interested sub-stages.
func CollapseByCohort(rows []model.CohortSummary) []ChartRow {
	byCohort := make(map[string]*ChartRow)
	var order []string

	for _, row := range rows {
		cr, ok := byCohort[row.Cohort]
		if !ok {
			cr = &ChartRow{Cohort: row.Cohort}
			byCohort[row.Cohort] = cr
			order = append(order, row.Cohort)
		}
		cr.Total += row.Total
		cr.Activated += row.Counts[model.StageActivated]
		cr.Replied += row.Counts[model.StageReplied]
		cr.Interested += row.Counts[model.StageInterestedPending] + row.Counts[model.StageInterestedApproved]
		cr.Sold += row.Counts[model.StageSold]
	}

	out := make([]ChartRow, 0, len(order))
	for _, cohort := range order {
		out = append(out, *byCohort[cohort])
	}
	return out
}

// FormatKPILine renders a single-line funnel summary for CLI output.
func FormatKPILine(k KPIs) string {
	return fmt.Sprintf("total=%d ativados=%d (%s) respostas=%d (%s) interessados=%d (%s) vendas=%d (%s)",
		k.Total, k.Activated, k.ActivationPct, k.Replied, k.ReplyPct,
		k.Interested, k.InterestPct, k.Sold, k.SalePct)
}
