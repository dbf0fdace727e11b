package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"leadflow/internal/model"
	"leadflow/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// leadFilterFromQuery maps the shared listing/export query parameters onto a
// filter. The limit parameter is handled by each endpoint.
func leadFilterFromQuery(q url.Values) model.LeadFilter {
	return model.LeadFilter{
		Cohort:         q.Get("cohort"),
		Stage:          q.Get("stage"),
		ApprovalStatus: q.Get("approvalStatus"),
		Search:         q.Get("search"),
	}
}

func (d Dependencies) listLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := leadFilterFromQuery(q)
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer", d.Log)
			return
		}
		filter.Limit = n
	}

	leads, err := d.Leads.List(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", err.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusOK, leads)
}

func (d Dependencies) createLead(w http.ResponseWriter, r *http.Request) {
	var input service.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	input.Source = model.SourceManual

	lead, err := d.Leads.Create(r.Context(), input)
	if err != nil {
		d.writeLeadError(w, err)
		return
	}

	d.Summaries.Invalidate()
	writeJSON(w, http.StatusCreated, lead)
}

func (d Dependencies) getLead(w http.ResponseWriter, r *http.Request) {
	lead, err := d.Leads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, http.StatusNotFound, "not_found", "Lead not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "get_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (d Dependencies) updateLead(w http.ResponseWriter, r *http.Request) {
	var update model.LeadUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	lead, err := d.Leads.Update(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		d.writeLeadError(w, err)
		return
	}

	d.Summaries.Invalidate()
	writeJSON(w, http.StatusOK, lead)
}

func (d Dependencies) approveLead(w http.ResponseWriter, r *http.Request) {
	lead, err := d.Leads.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		d.writeLeadError(w, err)
		return
	}

	d.Summaries.Invalidate()
	writeJSON(w, http.StatusOK, lead)
}

func (d Dependencies) rejectLead(w http.ResponseWriter, r *http.Request) {
	lead, err := d.Leads.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		d.writeLeadError(w, err)
		return
	}

	d.Summaries.Invalidate()
	writeJSON(w, http.StatusOK, lead)
}

type seedRequest struct {
	Count int `json:"count"`
}

func (d Dependencies) seed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
			return
		}
	}

	created, err := d.Leads.Seed(r.Context(), req.Count)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "seed_failed", err.Error(), d.Log)
		return
	}

	d.Summaries.Invalidate()
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (d Dependencies) writeLeadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		WriteError(w, http.StatusNotFound, "not_found", "Lead not found", d.Log)
	case errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrUnknownStage),
		errors.Is(err, service.ErrUnknownApproval):
		WriteError(w, http.StatusBadRequest, "invalid_lead", err.Error(), d.Log)
	case errors.Is(err, service.ErrBlockedTransition):
		WriteError(w, http.StatusConflict, "blocked_transition", err.Error(), d.Log)
	default:
		WriteError(w, http.StatusInternalServerError, "lead_error", err.Error(), d.Log)
	}
}
