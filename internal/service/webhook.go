package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow/internal/db"
	"leadflow/internal/enc"
	"leadflow/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
)

var ErrPhoneRequired = errors.New("phone is required")

// WebhookEvent is a delivery/engagement event pushed by the messaging
// automation (sent, delivered, read, replied, interest).
type WebhookEvent struct {
	EventType      string                 `json:"eventType"`
	Phone          string                 `json:"phone"`
	Name           string                 `json:"name,omitempty"`
	Cohort         string                 `json:"cohort,omitempty"`
	MessageVariant string                 `json:"messageVariant,omitempty"`
	Raw            map[string]interface{} `json:"raw,omitempty"`
}

// EventStageUpdate maps a webhook event type to the stage change and timestamp
// it implies. Unknown event types return an empty update; the caller still
// stamps LastEventAt. Both English and pt-BR event names are accepted.
func EventStageUpdate(eventType string, now time.Time) model.LeadUpdate {
	var u model.LeadUpdate
	stage := func(s model.Stage) *model.Stage { return &s }

	switch strings.ToLower(eventType) {
	case "sent", "enviado":
		u.Stage = stage(model.StageActivated)
		u.SentAt = &now
	case "delivered", "entregue":
		u.Stage = stage(model.StageDelivered)
		u.DeliveredAt = &now
	case "read", "lido":
		u.Stage = stage(model.StageRead)
		u.ReadAt = &now
	case "replied", "respondeu":
		u.Stage = stage(model.StageReplied)
		u.RepliedAt = &now
	case "interest", "interesse":
		u.Stage = stage(model.StageInterestedPending)
		pending := model.ApprovalPending
		u.ApprovalStatus = &pending
		u.InterestedAt = &now
	}
	return u
}

// IngestEvent upserts a lead from a webhook event. First sight of a phone
// number creates the lead; later events only advance its funnel fields.
func (s *LeadService) IngestEvent(ctx context.Context, ev WebhookEvent) (model.Lead, error) {
	whatsapp := model.NormalizePhone(ev.Phone)
	if whatsapp == "" {
		return model.Lead{}, ErrPhoneRequired
	}

	now := s.now()
	name := enc.FixMojibake(ev.Name)
	if name == "" {
		name = whatsapp
	}

	lead, err := s.queries.FindLeadByWhatsApp(ctx, whatsapp)
	if errors.Is(err, pgx.ErrNoRows) {
		notes := ""
		if ev.Raw != nil {
			if raw, merr := json.Marshal(ev.Raw); merr == nil {
				notes = string(raw)
				if len(notes) > 1500 {
					notes = notes[:1500]
				}
			}
		}
		lead, err = s.queries.CreateLead(ctx, db.CreateLeadParams{
			ID:             ulid.Make().String(),
			Name:           name,
			WhatsApp:       whatsapp,
			Cohort:         ev.Cohort,
			MessageVariant: ev.MessageVariant,
			Stage:          model.StageAwaitingActivation,
			Notes:          notes,
			Source:         model.SourceWebhook,
			LastEventAt:    &now,
		})
	}
	if err != nil {
		return model.Lead{}, fmt.Errorf("failed to resolve lead for webhook: %w", err)
	}

	update := EventStageUpdate(ev.EventType, now)
	update.LastEventAt = &now
	if ev.Cohort != "" {
		update.Cohort = &ev.Cohort
	}
	if ev.MessageVariant != "" {
		update.MessageVariant = &ev.MessageVariant
	}
	source := model.SourceWebhook
	update.Source = &source

	updated, err := s.queries.UpdateLead(ctx, lead.ID, update)
	if err != nil {
		return model.Lead{}, fmt.Errorf("failed to apply webhook event: %w", err)
	}

	_ = s.bus.PublishLead(updated.ID, map[string]interface{}{
		"type":      "lead.event",
		"leadId":    updated.ID,
		"eventType": strings.ToLower(ev.EventType),
	})

	return updated, nil
}
