package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"leadflow/internal/db"
	"leadflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory ImportStore.
type fakeStore struct {
	mu        sync.Mutex
	leads     map[string]model.Lead
	order     []string
	failOnID  string
	updateErr error
}

func newFakeStore(leads ...model.Lead) *fakeStore {
	s := &fakeStore{leads: make(map[string]model.Lead)}
	for _, l := range leads {
		s.leads[l.ID] = l
		s.order = append(s.order, l.ID)
	}
	return s
}

func (s *fakeStore) ListLeads(ctx context.Context, f model.LeadFilter) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Lead, 0, len(s.order))
	for _, id := range s.order {
		l := s.leads[id]
		if f.Cohort != "" && l.Cohort != f.Cohort {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *fakeStore) CreateLead(ctx context.Context, p db.CreateLeadParams) (model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := model.Lead{
		ID:             p.ID,
		Name:           p.Name,
		WhatsApp:       p.WhatsApp,
		Cohort:         p.Cohort,
		MessageVariant: p.MessageVariant,
		Stage:          p.Stage,
		ApprovalStatus: p.ApprovalStatus,
		Notes:          p.Notes,
		Source:         p.Source,
		SentAt:         p.SentAt,
		LastEventAt:    p.LastEventAt,
	}
	s.leads[l.ID] = l
	s.order = append(s.order, l.ID)
	return l, nil
}

func (s *fakeStore) UpdateLead(ctx context.Context, id string, u model.LeadUpdate) (model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil && (s.failOnID == "" || s.failOnID == id) {
		return model.Lead{}, s.updateErr
	}
	l, ok := s.leads[id]
	if !ok {
		return model.Lead{}, errors.New("no rows")
	}
	if u.Name != nil {
		l.Name = *u.Name
	}
	if u.WhatsApp != nil {
		l.WhatsApp = *u.WhatsApp
	}
	if u.Cohort != nil {
		l.Cohort = *u.Cohort
	}
	if u.MessageVariant != nil {
		l.MessageVariant = *u.MessageVariant
	}
	if u.MessageText != nil {
		l.MessageText = *u.MessageText
	}
	if u.Stage != nil {
		l.Stage = *u.Stage
	}
	if u.ApprovalStatus != nil {
		l.ApprovalStatus = *u.ApprovalStatus
	}
	if u.Source != nil {
		l.Source = *u.Source
	}
	if u.SentAt != nil {
		l.SentAt = u.SentAt
	}
	if u.LastEventAt != nil {
		l.LastEventAt = u.LastEventAt
	}
	s.leads[id] = l
	return l, nil
}

func (s *fakeStore) byWhatsApp(number string) (model.Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.WhatsApp == number {
			return l, true
		}
	}
	return model.Lead{}, false
}

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV("Name,phone,COHORT\nAna,11999998888,1\n\nBruno,11988887777,2\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0]["Name"])
	assert.Equal(t, "11999998888", rows[0]["phone"])
	assert.Equal(t, "2", rows[1]["COHORT"])
}

func TestParseCSVShortRowsPad(t *testing.T) {
	rows, err := ParseCSV("Name,phone,COHORT\nAna,11999998888\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0]["COHORT"])
}

func TestImportRunCreatesAndDedupes(t *testing.T) {
	existing := model.Lead{
		ID:       "L1",
		Name:     "Ana Antiga",
		WhatsApp: "+5511999998888",
		Cohort:   "old",
		Stage:    model.StageAwaitingActivation,
	}
	store := newFakeStore(existing)
	svc := NewImportService(store)

	csvText := "Name,phone,COHORT\n" +
		"Ana,11999998888,1\n" + // same number as L1 -> update
		"Bruno,11988887777,1\n" + // new
		"Carla,123,1\n" + // invalid phone
		",,\n" // counted by the parser? (blank, dropped before Run)

	job := &model.ImportJob{ID: "J1", Kind: model.ImportKindBase}
	err := svc.Run(context.Background(), job, csvText, nil)
	require.NoError(t, err)

	assert.Equal(t, model.ImportDone, job.Status)
	assert.Equal(t, 1, job.Created)
	assert.Equal(t, 1, job.Updated)
	assert.Equal(t, 1, job.Skipped)
	assert.Equal(t, 3, job.Processed)
	assert.Equal(t, 3, job.Total)
	require.Len(t, job.Errors, 1)
	assert.Contains(t, job.Errors[0].Error, "Invalid phone")
	require.NotNil(t, job.FinishedAt)
	assert.Contains(t, job.Message, "1 criados, 1 atualizados, 1 ignorados")

	updated, ok := store.byWhatsApp("+5511999998888")
	require.True(t, ok)
	assert.Equal(t, "L1", updated.ID, "dedupe must update, not duplicate")
	assert.Equal(t, "Ana", updated.Name)
	assert.Equal(t, "1", updated.Cohort)
	assert.Equal(t, model.SourceCSVImport, updated.Source)

	created, ok := store.byWhatsApp("+5511988887777")
	require.True(t, ok)
	assert.Equal(t, "Bruno", created.Name)
	assert.Equal(t, model.StageAwaitingActivation, created.Stage)
}

func TestImportRunAtivadosStampsSentAt(t *testing.T) {
	store := newFakeStore()
	svc := NewImportService(store)

	job := &model.ImportJob{ID: "J1", Kind: model.ImportKindAtivados}
	err := svc.Run(context.Background(), job, "Name,phone\nAna,11999998888\n", nil)
	require.NoError(t, err)

	l, ok := store.byWhatsApp("+5511999998888")
	require.True(t, ok)
	assert.Equal(t, model.StageActivated, l.Stage)
	assert.NotNil(t, l.SentAt)
}

func TestImportRunEmptyCSV(t *testing.T) {
	svc := NewImportService(newFakeStore())
	job := &model.ImportJob{ID: "J1", Kind: model.ImportKindBase}

	err := svc.Run(context.Background(), job, "Name,phone\n", nil)
	assert.ErrorIs(t, err, ErrEmptyCSV)
}

func TestImportRunProgressEveryFiftyRows(t *testing.T) {
	store := newFakeStore()
	svc := NewImportService(store)

	var b strings.Builder
	b.WriteString("Name,phone\n")
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&b, "Lead %d,+55119%07d\n", i, 1000000+i)
	}

	var snapshots []model.ImportJob
	job := &model.ImportJob{ID: "J1", Kind: model.ImportKindBase}
	err := svc.Run(context.Background(), job, b.String(), func(j model.ImportJob) {
		snapshots = append(snapshots, j)
	})
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Equal(t, 50, snapshots[0].Processed)
	assert.Equal(t, 100, snapshots[1].Processed)
	assert.Equal(t, 120, job.Created)
}

func TestImportRunStopsOnCancelledContext(t *testing.T) {
	store := newFakeStore()
	svc := NewImportService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &model.ImportJob{ID: "J1", Kind: model.ImportKindBase}
	err := svc.Run(ctx, job, "Name,phone\nAna,11999998888\n", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, job.Created)
}

func TestImportRunCapsRowErrors(t *testing.T) {
	store := newFakeStore()
	svc := NewImportService(store)

	var b strings.Builder
	b.WriteString("Name,phone\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Lead %d,12\n", i)
	}

	job := &model.ImportJob{ID: "J1", Kind: model.ImportKindBase}
	err := svc.Run(context.Background(), job, b.String(), nil)
	require.NoError(t, err)

	assert.Equal(t, 40, job.Skipped)
	assert.Len(t, job.Errors, 25, "error list is capped")
}
