package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"leadflow/internal/enc"
	"leadflow/internal/model"
	"leadflow/internal/service"

	"go.uber.org/zap"
)

// Client is the operator-facing facade over the remote lead store. It keeps a
// local snapshot of the last listed leads so views can render between fetches;
// the server stays the single source of truth and every mutation replaces the
// affected snapshot entry with the server's response.
type Client struct {
	session *Session

	mu    sync.RWMutex
	leads []model.Lead
}

func New(session *Session) *Client {
	return &Client{session: session}
}

// Leads returns a copy of the local snapshot from the last ListLeads call.
func (c *Client) Leads() []model.Lead {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Lead, len(c.leads))
	copy(out, c.leads)
	return out
}

// Health checks the server. Returns nil when the service responds ok.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.do(ctx, http.MethodGet, "/health", nil, nil, &out)
}

// ListLeads fetches leads matching every provided filter (logical AND) and
// refreshes the local snapshot.
func (c *Client) ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	leads, err := c.listLeadsRemote(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.leads = leads
	c.mu.Unlock()
	return leads, nil
}

// filterValues encodes the filter fields shared by listing and export.
func filterValues(filter model.LeadFilter) url.Values {
	q := url.Values{}
	if filter.Cohort != "" {
		q.Set("cohort", filter.Cohort)
	}
	if filter.Stage != "" {
		q.Set("stage", filter.Stage)
	}
	if filter.ApprovalStatus != "" {
		q.Set("approvalStatus", filter.ApprovalStatus)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	return q
}

func (c *Client) listLeadsRemote(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	q := filterValues(filter)
	if filter.Limit != 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var leads []model.Lead
	if err := c.do(ctx, http.MethodGet, "/leads", q, nil, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (c *Client) CreateLead(ctx context.Context, input service.CreateLeadInput) (model.Lead, error) {
	var lead model.Lead
	if err := c.do(ctx, http.MethodPost, "/leads", nil, input, &lead); err != nil {
		return model.Lead{}, err
	}

	c.mu.Lock()
	c.leads = append([]model.Lead{lead}, c.leads...)
	c.mu.Unlock()
	return lead, nil
}

// UpdateLead applies a partial update and replaces the snapshot entry with the
// authoritative record.
func (c *Client) UpdateLead(ctx context.Context, id string, update model.LeadUpdate) (model.Lead, error) {
	var lead model.Lead
	if err := c.do(ctx, http.MethodPut, "/leads/"+id, nil, update, &lead); err != nil {
		return model.Lead{}, err
	}
	c.replaceSnapshot(lead)
	return lead, nil
}

// UpdateLeadOptimistic applies the update to the local snapshot immediately,
// then issues the remote call. On failure the snapshot entry reverts to its
// pre-edit value and the error is returned for the caller to surface.
func (c *Client) UpdateLeadOptimistic(ctx context.Context, id string, update model.LeadUpdate) (model.Lead, error) {
	prev, ok := c.applyLocal(id, update)

	lead, err := c.UpdateLead(ctx, id, update)
	if err != nil {
		if ok {
			c.replaceSnapshot(prev)
		}
		return model.Lead{}, err
	}
	return lead, nil
}

func (c *Client) Approve(ctx context.Context, id string) (model.Lead, error) {
	var lead model.Lead
	if err := c.do(ctx, http.MethodPost, "/leads/"+id+"/approve", nil, nil, &lead); err != nil {
		return model.Lead{}, err
	}
	c.replaceSnapshot(lead)
	return lead, nil
}

func (c *Client) Reject(ctx context.Context, id string) (model.Lead, error) {
	var lead model.Lead
	if err := c.do(ctx, http.MethodPost, "/leads/"+id+"/reject", nil, nil, &lead); err != nil {
		return model.Lead{}, err
	}
	c.replaceSnapshot(lead)
	return lead, nil
}

// StartImport uploads CSV text and returns the job id. The text is run
// through the mojibake heuristic first so Latin-1 double-decodes are repaired
// before the server sees them.
func (c *Client) StartImport(ctx context.Context, kind model.ImportKind, csvText string) (string, error) {
	body := map[string]string{
		"kind":    string(kind),
		"csvText": enc.FixMojibake(csvText),
	}
	var out struct {
		JobID string `json:"jobId"`
	}
	if err := c.do(ctx, http.MethodPost, "/import/start", nil, body, &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// PollImportStatus is a single status check; WaitForImport owns the loop.
func (c *Client) PollImportStatus(ctx context.Context, jobID string) (model.ImportJob, error) {
	var job model.ImportJob
	if err := c.do(ctx, http.MethodGet, "/import/status/"+jobID, nil, nil, &job); err != nil {
		return model.ImportJob{}, err
	}
	return job, nil
}

// ExportCSV downloads a CSV snapshot under the same filter shape as listing.
func (c *Client) ExportCSV(ctx context.Context, filter model.LeadFilter) ([]byte, string, error) {
	resp, err := c.raw(ctx, http.MethodGet, "/export.csv", filterValues(filter), nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read export: %w", err)
	}
	return data, service.ExportFilename, nil
}

func (c *Client) GenerateVariants(ctx context.Context, cohort, promptContext string) ([]string, error) {
	body := map[string]string{"context": promptContext}
	var out struct {
		Variants []string `json:"variants"`
	}
	if err := c.do(ctx, http.MethodPost, "/cohorts/"+url.PathEscape(cohort)+"/generate-variants", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Variants, nil
}

func (c *Client) ApplyVariant(ctx context.Context, cohort, variant, message string) (int, error) {
	body := map[string]string{"variant": variant, "message": message}
	var out struct {
		Updated int `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPost, "/cohorts/"+url.PathEscape(cohort)+"/apply-variant", nil, body, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

func (c *Client) CohortSummary(ctx context.Context) ([]model.CohortSummary, error) {
	var out []model.CohortSummary
	if err := c.do(ctx, http.MethodGet, "/cohorts/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Seed(ctx context.Context, count int) (int, error) {
	var out struct {
		Created int `json:"created"`
	}
	if err := c.do(ctx, http.MethodPost, "/seed", nil, map[string]int{"count": count}, &out); err != nil {
		return 0, err
	}
	return out.Created, nil
}

func (c *Client) replaceSnapshot(lead model.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.leads {
		if c.leads[i].ID == lead.ID {
			c.leads[i] = lead
			return
		}
	}
}

// applyLocal mutates the snapshot entry in place and returns the pre-edit
// value for rollback.
func (c *Client) applyLocal(id string, update model.LeadUpdate) (model.Lead, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.leads {
		if c.leads[i].ID != id {
			continue
		}
		prev := c.leads[i]
		if update.Stage != nil {
			c.leads[i].Stage = *update.Stage
		}
		if update.ApprovalStatus != nil {
			c.leads[i].ApprovalStatus = *update.ApprovalStatus
		}
		if update.Notes != nil {
			c.leads[i].Notes = *update.Notes
		}
		if update.SaleValue != nil {
			c.leads[i].SaleValue = update.SaleValue
		}
		return prev, true
	}
	return model.Lead{}, false
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.raw(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	u := c.session.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Admin-Passcode", c.session.currentPasscode())

	resp, err := c.session.http.Do(req)
	if err != nil {
		c.session.log.Debug("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &ConnectionError{Err: err}
	}
	return resp, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Code
		if apiErr.Code == "" {
			apiErr.Code = envelope.Error
		}
		apiErr.Message = envelope.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
