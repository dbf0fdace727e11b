package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadflow/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultListLimit caps unbounded listings; clients are expected to narrow
// filters or export when they need the full set.
const DefaultListLimit = 500

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

const leadColumns = `id, name, whatsapp, cohort, message_variant, message_text,
	stage, approval_status, sale_value, notes, source,
	sent_at, delivered_at, read_at, replied_at, interested_at, approved_at, sold_at,
	last_event_at, created_at, updated_at`

func scanLead(row pgx.Row) (model.Lead, error) {
	var l model.Lead
	err := row.Scan(
		&l.ID, &l.Name, &l.WhatsApp, &l.Cohort, &l.MessageVariant, &l.MessageText,
		&l.Stage, &l.ApprovalStatus, &l.SaleValue, &l.Notes, &l.Source,
		&l.SentAt, &l.DeliveredAt, &l.ReadAt, &l.RepliedAt, &l.InterestedAt, &l.ApprovedAt, &l.SoldAt,
		&l.LastEventAt, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

type CreateLeadParams struct {
	ID             string
	Name           string
	WhatsApp       string
	Cohort         string
	MessageVariant string
	MessageText    string
	Stage          model.Stage
	ApprovalStatus model.ApprovalStatus
	Notes          string
	Source         model.Source
	SentAt         *time.Time
	LastEventAt    *time.Time
}

func (q *Queries) CreateLead(ctx context.Context, p CreateLeadParams) (model.Lead, error) {
	return scanLead(q.Pool.QueryRow(ctx,
		`INSERT INTO leads (
			id, name, whatsapp, cohort, message_variant, message_text,
			stage, approval_status, notes, source, sent_at, last_event_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+leadColumns,
		p.ID, p.Name, p.WhatsApp, p.Cohort, p.MessageVariant, p.MessageText,
		p.Stage, p.ApprovalStatus, p.Notes, p.Source, p.SentAt, p.LastEventAt,
	))
}

func (q *Queries) GetLeadByID(ctx context.Context, id string) (model.Lead, error) {
	return scanLead(q.Pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

func (q *Queries) FindLeadByWhatsApp(ctx context.Context, whatsapp string) (model.Lead, error) {
	return scanLead(q.Pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE whatsapp = $1 LIMIT 1`, whatsapp))
}

// ListLeads returns leads matching every provided filter field, newest first.
// buildLeadListQuery composes the filtered listing statement. Every provided
// filter becomes one AND-ed predicate; stage and approval match exactly,
// search is a case-insensitive substring on name.
func buildLeadListQuery(f model.LeadFilter) (string, []interface{}) {
	where := []string{"TRUE"}
	args := []interface{}{}

	add := func(cond string, val interface{}) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Cohort != "" {
		add("cohort = $%d", f.Cohort)
	}
	if f.Stage != "" {
		add("stage = $%d", f.Stage)
	}
	if f.ApprovalStatus != "" {
		add("approval_status = $%d", f.ApprovalStatus)
	}
	if f.Search != "" {
		add("name ILIKE '%%' || $%d || '%%'", f.Search)
	}

	// Limit < 0 disables the cap (bulk consumers like import dedupe and export).
	limitClause := ""
	if f.Limit >= 0 {
		limit := f.Limit
		if limit == 0 {
			limit = DefaultListLimit
		}
		args = append(args, limit)
		limitClause = fmt.Sprintf(" LIMIT $%d", len(args))
	}

	query := fmt.Sprintf(
		`SELECT %s FROM leads WHERE %s ORDER BY created_at DESC%s`,
		leadColumns, strings.Join(where, " AND "), limitClause,
	)
	return query, args
}

func (q *Queries) ListLeads(ctx context.Context, f model.LeadFilter) ([]model.Lead, error) {
	query, args := buildLeadListQuery(f)

	rows, err := q.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]model.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// UpdateLead applies a partial update; nil fields leave columns untouched.
func (q *Queries) UpdateLead(ctx context.Context, id string, u model.LeadUpdate) (model.Lead, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.WhatsApp != nil {
		set("whatsapp", *u.WhatsApp)
	}
	if u.Cohort != nil {
		set("cohort", *u.Cohort)
	}
	if u.MessageVariant != nil {
		set("message_variant", *u.MessageVariant)
	}
	if u.MessageText != nil {
		set("message_text", *u.MessageText)
	}
	if u.Stage != nil {
		set("stage", *u.Stage)
	}
	if u.ApprovalStatus != nil {
		set("approval_status", *u.ApprovalStatus)
	}
	if u.SaleValue != nil {
		set("sale_value", *u.SaleValue)
	}
	if u.Notes != nil {
		set("notes", *u.Notes)
	}
	if u.Source != nil {
		set("source", *u.Source)
	}
	if u.SentAt != nil {
		set("sent_at", *u.SentAt)
	}
	if u.DeliveredAt != nil {
		set("delivered_at", *u.DeliveredAt)
	}
	if u.ReadAt != nil {
		set("read_at", *u.ReadAt)
	}
	if u.RepliedAt != nil {
		set("replied_at", *u.RepliedAt)
	}
	if u.InterestedAt != nil {
		set("interested_at", *u.InterestedAt)
	}
	if u.ApprovedAt != nil {
		set("approved_at", *u.ApprovedAt)
	}
	if u.SoldAt != nil {
		set("sold_at", *u.SoldAt)
	}
	if u.LastEventAt != nil {
		set("last_event_at", *u.LastEventAt)
	}

	query := fmt.Sprintf(
		"UPDATE leads SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "), leadColumns,
	)
	return scanLead(q.Pool.QueryRow(ctx, query, args...))
}

// Import job queries

const importJobColumns = `id, kind, status, total, processed, created, updated, skipped,
	errors, message, started_at, finished_at`

func scanImportJob(row pgx.Row) (model.ImportJob, error) {
	var j model.ImportJob
	err := row.Scan(
		&j.ID, &j.Kind, &j.Status, &j.Total, &j.Processed, &j.Created, &j.Updated, &j.Skipped,
		&j.Errors, &j.Message, &j.StartedAt, &j.FinishedAt,
	)
	return j, err
}

func (q *Queries) CreateImportJob(ctx context.Context, id string, kind model.ImportKind) (model.ImportJob, error) {
	return scanImportJob(q.Pool.QueryRow(ctx,
		`INSERT INTO import_jobs (id, kind, status, message)
		VALUES ($1, $2, $3, 'Agendado')
		RETURNING `+importJobColumns,
		id, kind, model.ImportPending,
	))
}

func (q *Queries) GetImportJob(ctx context.Context, id string) (model.ImportJob, error) {
	return scanImportJob(q.Pool.QueryRow(ctx,
		`SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1`, id))
}

func (q *Queries) MarkImportRunning(ctx context.Context, id, message string) error {
	_, err := q.Pool.Exec(ctx,
		`UPDATE import_jobs SET status = $2, message = $3 WHERE id = $1`,
		id, model.ImportRunning, message,
	)
	return err
}

func (q *Queries) UpdateImportProgress(ctx context.Context, j model.ImportJob) error {
	_, err := q.Pool.Exec(ctx,
		`UPDATE import_jobs SET total = $2, processed = $3, created = $4, updated = $5,
			skipped = $6, message = $7 WHERE id = $1`,
		j.ID, j.Total, j.Processed, j.Created, j.Updated, j.Skipped, j.Message,
	)
	return err
}

func (q *Queries) FinishImportJob(ctx context.Context, j model.ImportJob, status model.ImportStatus, message string) error {
	_, err := q.Pool.Exec(ctx,
		`UPDATE import_jobs SET status = $2, total = $3, processed = $4, created = $5,
			updated = $6, skipped = $7, errors = $8, message = $9, finished_at = NOW()
		WHERE id = $1`,
		j.ID, status, j.Total, j.Processed, j.Created, j.Updated, j.Skipped, j.Errors, message,
	)
	return err
}

// FailStaleImports marks jobs left running by a previous process as failed.
// Called once on startup. Pending jobs stay untouched: their tasks survive in
// redis and will still be picked up. A running row without a live worker never
// reaches a terminal state on its own.
func (q *Queries) FailStaleImports(ctx context.Context) (int64, error) {
	tag, err := q.Pool.Exec(ctx,
		`UPDATE import_jobs SET status = $1, message = 'Import interrompido por reinício do servidor', finished_at = NOW()
		WHERE status = $2`,
		model.ImportError, model.ImportRunning,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
