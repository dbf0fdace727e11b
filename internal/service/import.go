package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow/internal/db"
	"leadflow/internal/enc"
	"leadflow/internal/model"

	"github.com/oklog/ulid/v2"
)

// ImportStore is the slice of the query layer the importer needs.
type ImportStore interface {
	ListLeads(ctx context.Context, f model.LeadFilter) ([]model.Lead, error)
	CreateLead(ctx context.Context, p db.CreateLeadParams) (model.Lead, error)
	UpdateLead(ctx context.Context, id string, u model.LeadUpdate) (model.Lead, error)
}

// maxJobErrors bounds the error list carried on a job row.
const maxJobErrors = 25

// ErrEmptyCSV is returned when the payload has a header but no data rows.
var ErrEmptyCSV = errors.New("CSV has no data rows")

// ImportService runs CSV imports: parse, dedupe by WhatsApp against the full
// store, upsert row by row, keep tallies. It mutates the passed job in place
// so the caller can persist progress.
type ImportService struct {
	store ImportStore
	now   func() time.Time
}

func NewImportService(store ImportStore) *ImportService {
	return &ImportService{store: store, now: time.Now}
}

// ParseCSV decodes header-keyed rows. Blank lines are dropped; short rows pad
// with empty strings.
func ParseCSV(csvText string) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(csvText))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		empty := true
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			row[h] = v
			if v != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func rowField(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

// Run executes one import job to completion, mutating job tallies in place.
// progress is invoked every 50 rows; the caller persists and broadcasts it.
// A cancelled context aborts between rows.
func (s *ImportService) Run(ctx context.Context, job *model.ImportJob, csvText string, progress func(model.ImportJob)) error {
	rows, err := ParseCSV(csvText)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrEmptyCSV
	}

	job.Status = model.ImportRunning
	job.Total = len(rows)
	job.Message = "Import iniciado"

	// One upfront fetch instead of a store query per row; large CSVs would be
	// unusably slow otherwise.
	existing, err := s.store.ListLeads(ctx, model.LeadFilter{Limit: -1})
	if err != nil {
		return fmt.Errorf("failed to load existing leads: %w", err)
	}
	byWhatsApp := make(map[string]model.Lead, len(existing))
	for _, l := range existing {
		if l.WhatsApp != "" {
			byWhatsApp[l.WhatsApp] = l
		}
	}

	stage := job.Kind.InitialStage()
	source := model.SourceCSVImport

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := enc.FixMojibake(rowField(row, "Name", "name"))
		phone := rowField(row, "phone", "WhatsApp", "whatsapp")
		whatsapp := model.NormalizePhone(phone)
		cohort := rowField(row, "COHORT", "Cohort", "cohort")

		if name == "" && whatsapp == "" {
			job.Skipped++
			job.Processed++
			continue
		}
		if !model.ValidPhone(whatsapp) {
			s.addError(job, row, "Invalid phone/WhatsApp")
			job.Skipped++
			job.Processed++
			continue
		}

		now := s.now()
		if lead, ok := byWhatsApp[whatsapp]; ok {
			update := model.LeadUpdate{
				WhatsApp:    &whatsapp,
				Stage:       &stage,
				Source:      &source,
				LastEventAt: &now,
			}
			if name != "" {
				update.Name = &name
			}
			if cohort != "" {
				update.Cohort = &cohort
			}
			if stage == model.StageActivated && lead.SentAt == nil {
				update.SentAt = &now
			}
			if _, err := s.store.UpdateLead(ctx, lead.ID, update); err != nil {
				s.addError(job, row, err.Error())
			} else {
				job.Updated++
			}
		} else {
			params := db.CreateLeadParams{
				ID:          ulid.Make().String(),
				Name:        name,
				WhatsApp:    whatsapp,
				Cohort:      cohort,
				Stage:       stage,
				Source:      source,
				LastEventAt: &now,
			}
			if params.Name == "" {
				params.Name = whatsapp
			}
			if stage == model.StageActivated {
				params.SentAt = &now
			}
			created, err := s.store.CreateLead(ctx, params)
			if err != nil {
				s.addError(job, row, err.Error())
			} else {
				byWhatsApp[whatsapp] = created
				job.Created++
			}
		}

		job.Processed++
		if job.Processed%50 == 0 {
			job.Message = fmt.Sprintf("Processados %d/%d", job.Processed, job.Total)
			if progress != nil {
				progress(*job)
			}
		}
	}

	job.Status = model.ImportDone
	job.Message = fmt.Sprintf("Import concluído (%d criados, %d atualizados, %d ignorados)",
		job.Created, job.Updated, job.Skipped)
	finished := s.now()
	job.FinishedAt = &finished
	return nil
}

func (s *ImportService) addError(job *model.ImportJob, row map[string]string, msg string) {
	if len(job.Errors) < maxJobErrors {
		job.Errors = append(job.Errors, model.ImportRowError{Row: row, Error: msg})
	}
}
