package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow/internal/db"
	"leadflow/internal/enc"
	"leadflow/internal/model"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrUnknownStage      = errors.New("unknown stage")
	ErrUnknownApproval   = errors.New("unknown approval status")
	ErrBlockedTransition = errors.New("stage transition not allowed")
)

// EventBus publishes lead change events for dashboards.
type EventBus interface {
	PublishLead(leadID string, event map[string]interface{}) error
}

// LeadService owns lead CRUD and the approval gate. Every mutation stamps
// LastEventAt and publishes a change event; the store stays the single source
// of truth for callers.
type LeadService struct {
	queries *db.Queries
	bus     EventBus

	// StrictTransitions turns the stage transition table into a hard check.
	// Off by default: operators may set any stage from any stage.
	StrictTransitions bool

	now func() time.Time
}

func NewLeadService(queries *db.Queries, bus EventBus) *LeadService {
	return &LeadService{
		queries: queries,
		bus:     bus,
		now:     time.Now,
	}
}

type CreateLeadInput struct {
	Name           string               `json:"name"`
	WhatsApp       string               `json:"whatsapp,omitempty"`
	Cohort         string               `json:"cohort,omitempty"`
	Stage          model.Stage          `json:"stage,omitempty"`
	ApprovalStatus model.ApprovalStatus `json:"approvalStatus,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	MessageVariant string               `json:"messageVariant,omitempty"`
	MessageText    string               `json:"messageText,omitempty"`
	Source         model.Source         `json:"-"`
}

func (s *LeadService) Create(ctx context.Context, input CreateLeadInput) (model.Lead, error) {
	if strings.TrimSpace(input.Name) == "" {
		return model.Lead{}, ErrNameRequired
	}

	stage := input.Stage
	if stage == "" {
		stage = model.StageAwaitingActivation
	}
	if !stage.Valid() {
		return model.Lead{}, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if !input.ApprovalStatus.Valid() {
		return model.Lead{}, fmt.Errorf("%w: %q", ErrUnknownApproval, input.ApprovalStatus)
	}

	source := input.Source
	if source == "" {
		source = model.SourceManual
	}

	now := s.now()
	lead, err := s.queries.CreateLead(ctx, db.CreateLeadParams{
		ID:             ulid.Make().String(),
		Name:           enc.FixMojibake(strings.TrimSpace(input.Name)),
		WhatsApp:       model.NormalizePhone(input.WhatsApp),
		Cohort:         input.Cohort,
		MessageVariant: input.MessageVariant,
		MessageText:    input.MessageText,
		Stage:          stage,
		ApprovalStatus: input.ApprovalStatus,
		Notes:          input.Notes,
		Source:         source,
		LastEventAt:    &now,
	})
	if err != nil {
		return model.Lead{}, fmt.Errorf("failed to create lead: %w", err)
	}

	_ = s.bus.PublishLead(lead.ID, map[string]interface{}{
		"type":   "lead.created",
		"leadId": lead.ID,
	})

	return lead, nil
}

func (s *LeadService) Get(ctx context.Context, id string) (model.Lead, error) {
	lead, err := s.queries.GetLeadByID(ctx, id)
	if err != nil {
		return model.Lead{}, fmt.Errorf("lead not found: %w", err)
	}
	return lead, nil
}

// List returns leads matching all provided filters.
func (s *LeadService) List(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	return s.queries.ListLeads(ctx, filter)
}

// Update applies a partial update. Stage and approval values are checked
// against the closed vocabulary; transitions are additionally checked against
// the transition table when StrictTransitions is on.
func (s *LeadService) Update(ctx context.Context, id string, update model.LeadUpdate) (model.Lead, error) {
	if update.Stage != nil && !update.Stage.Valid() {
		return model.Lead{}, fmt.Errorf("%w: %q", ErrUnknownStage, *update.Stage)
	}
	if update.ApprovalStatus != nil && !update.ApprovalStatus.Valid() {
		return model.Lead{}, fmt.Errorf("%w: %q", ErrUnknownApproval, *update.ApprovalStatus)
	}

	if update.Stage != nil && s.StrictTransitions {
		current, err := s.queries.GetLeadByID(ctx, id)
		if err != nil {
			return model.Lead{}, fmt.Errorf("lead not found: %w", err)
		}
		if !model.CanTransition(current.Stage, *update.Stage) {
			return model.Lead{}, fmt.Errorf("%w: %q -> %q", ErrBlockedTransition, current.Stage, *update.Stage)
		}
	}

	if update.WhatsApp != nil {
		normalized := model.NormalizePhone(*update.WhatsApp)
		update.WhatsApp = &normalized
	}
	if update.Name != nil {
		fixed := enc.FixMojibake(*update.Name)
		update.Name = &fixed
	}

	now := s.now()
	update.LastEventAt = &now

	lead, err := s.queries.UpdateLead(ctx, id, update)
	if err != nil {
		return model.Lead{}, fmt.Errorf("failed to update lead: %w", err)
	}

	_ = s.bus.PublishLead(lead.ID, map[string]interface{}{
		"type":   "lead.updated",
		"leadId": lead.ID,
	})

	return lead, nil
}

// Approve marks the lead approved and moves it into the approved funnel stage.
func (s *LeadService) Approve(ctx context.Context, id string) (model.Lead, error) {
	now := s.now()
	approved := model.ApprovalApproved
	stage := model.StageInterestedApproved
	lead, err := s.queries.UpdateLead(ctx, id, model.LeadUpdate{
		ApprovalStatus: &approved,
		Stage:          &stage,
		ApprovedAt:     &now,
		LastEventAt:    &now,
	})
	if err != nil {
		return model.Lead{}, fmt.Errorf("failed to approve lead: %w", err)
	}

	_ = s.bus.PublishLead(lead.ID, map[string]interface{}{
		"type":   "lead.approved",
		"leadId": lead.ID,
	})

	return lead, nil
}

// Reject marks the lead rejected and closes it out as lost.
func (s *LeadService) Reject(ctx context.Context, id string) (model.Lead, error) {
	now := s.now()
	rejected := model.ApprovalRejected
	stage := model.StageLost
	lead, err := s.queries.UpdateLead(ctx, id, model.LeadUpdate{
		ApprovalStatus: &rejected,
		Stage:          &stage,
		LastEventAt:    &now,
	})
	if err != nil {
		return model.Lead{}, fmt.Errorf("failed to reject lead: %w", err)
	}

	_ = s.bus.PublishLead(lead.ID, map[string]interface{}{
		"type":   "lead.rejected",
		"leadId": lead.ID,
	})

	return lead, nil
}
