package client

import (
	"context"
	"sync"

	"leadflow/internal/model"
)

// Result is the outcome of one independent data-source fetch.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) Ok() bool { return r.Err == nil }

// LoadReport is the all-settled outcome of a full dashboard load. Each source
// fails independently; callers decide severity per source instead of string-
// matching error text.
type LoadReport struct {
	Leads     Result[[]model.Lead]
	Summaries Result[[]model.CohortSummary]
	KPIs      Result[KPIs]
}

// Critical returns the error that should block the page, if any. Leads (and
// the KPIs derived from them) are the critical source; a summary failure only
// degrades the cohort table.
func (r LoadReport) Critical() error {
	return r.Leads.Err
}

// Degraded lists the names of non-critical sources that failed.
func (r LoadReport) Degraded() []string {
	var out []string
	if !r.Summaries.Ok() {
		out = append(out, "summaries")
	}
	return out
}

// LoadAll fetches every dashboard source concurrently and reports each
// outcome separately. A failed source never hides a successful one.
func (c *Client) LoadAll(ctx context.Context, filter model.LeadFilter) LoadReport {
	var report LoadReport
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		leads, err := c.ListLeads(ctx, filter)
		report.Leads = Result[[]model.Lead]{Value: leads, Err: err}
	}()
	go func() {
		defer wg.Done()
		summaries, err := c.CohortSummary(ctx)
		report.Summaries = Result[[]model.CohortSummary]{Value: summaries, Err: err}
	}()
	wg.Wait()

	if report.Leads.Ok() {
		report.KPIs = Result[KPIs]{Value: ComputeKPIs(report.Leads.Value)}
	} else {
		report.KPIs = Result[KPIs]{Err: report.Leads.Err}
	}
	return report
}
