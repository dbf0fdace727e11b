package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"leadflow/internal/schema"
	"leadflow/internal/service"
)

// maxWebhookBody caps inbound event payloads at 256 KiB.
const maxWebhookBody = 256 << 10

func (d Dependencies) webhook(w http.ResponseWriter, r *http.Request) {
	if !d.Auth.WebhookAuthorized(r) {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized: invalid webhook secret", d.Log)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body", d.Log)
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	if err := d.Schemas.Validate(r.Context(), schema.WebhookEventSchema, raw); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_event", err.Error(), d.Log)
		return
	}

	var ev service.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if ev.Raw == nil {
		ev.Raw = raw
	}

	lead, err := d.Leads.IngestEvent(r.Context(), ev)
	if err != nil {
		if errors.Is(err, service.ErrPhoneRequired) {
			WriteError(w, http.StatusBadRequest, "invalid_event", err.Error(), d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "ingest_failed", err.Error(), d.Log)
		return
	}

	d.Summaries.Invalidate()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"leadId": lead.ID,
		"stage":  lead.Stage,
	})
}
