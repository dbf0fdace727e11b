package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"leadflow/internal/service"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) cohortSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := d.Summaries.CohortSummary(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "summary_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

type generateVariantsRequest struct {
	Context string `json:"context,omitempty"`
}

func (d Dependencies) generateVariants(w http.ResponseWriter, r *http.Request) {
	var req generateVariantsRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
			return
		}
	}

	cohort := chi.URLParam(r, "cohortId")
	variants, err := d.Variants.GenerateVariants(r.Context(), cohort, req.Context)
	if err != nil {
		code, errCode := http.StatusInternalServerError, "generate_failed"
		switch {
		case errors.Is(err, service.ErrGeneratorUnavailable):
			code, errCode = http.StatusServiceUnavailable, "ai_unavailable"
		case strings.Contains(err.Error(), "429"):
			code, errCode = http.StatusTooManyRequests, "rate_limited"
		}
		WriteError(w, code, errCode, err.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cohort":   cohort,
		"variants": variants,
	})
}

type applyVariantRequest struct {
	Variant string `json:"variant"`
	Message string `json:"message"`
}

func (d Dependencies) applyVariant(w http.ResponseWriter, r *http.Request) {
	var req applyVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	cohort := chi.URLParam(r, "cohortId")
	updated, err := d.Variants.ApplyVariant(r.Context(), cohort, req.Variant, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrVariantRequired) {
			WriteError(w, http.StatusBadRequest, "invalid_variant", err.Error(), d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "apply_failed", err.Error(), d.Log)
		return
	}

	d.Summaries.Invalidate()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cohort":  cohort,
		"variant": req.Variant,
		"updated": updated,
	})
}
