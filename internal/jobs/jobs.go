package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadflow/internal/db"
	"leadflow/internal/model"
	"leadflow/internal/pubsub"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeImportCSV is the task type for background CSV imports.
const TypeImportCSV = "import:csv"

// importTimeout bounds a single import run; a job that has not finished by
// then is failed by asynq and surfaced through the status endpoint.
const importTimeout = 30 * time.Minute

// ImportPayload is the task payload for an import job. The CSV text rides in
// redis with the task so a restart cannot lose a queued import.
type ImportPayload struct {
	JobID   string           `json:"jobId"`
	Kind    model.ImportKind `json:"kind"`
	CSVText string           `json:"csvText"`
}

// Importer runs one import job to completion.
type Importer interface {
	Run(ctx context.Context, job *model.ImportJob, csvText string, progress func(model.ImportJob)) error
}

type JobServer struct {
	server   *asynq.Server
	client   *asynq.Client
	db       *db.Pool
	bus      *pubsub.Bus
	importer Importer
	log      *zap.Logger
}

func NewJobServer(redisAddr string, dbPool *db.Pool, bus *pubsub.Bus, importer Importer, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server:   server,
		client:   client,
		db:       dbPool,
		bus:      bus,
		importer: importer,
		log:      log,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImportCSV, js.handleImportCSV)
	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
	js.client.Close()
}

// RecoverOrphans fails job rows left running by a crashed worker. Their tasks
// carry MaxRetry 0, so nothing will pick them up again.
func (js *JobServer) RecoverOrphans(ctx context.Context) error {
	n, err := js.db.Queries.FailStaleImports(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover orphaned imports: %w", err)
	}
	if n > 0 {
		js.log.Warn("Marked orphaned import jobs as failed", zap.Int64("count", n))
	}
	return nil
}

func (js *JobServer) handleImportCSV(ctx context.Context, t *asynq.Task) error {
	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode import payload: %w", err)
	}

	job, err := js.db.Queries.GetImportJob(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("failed to load import job: %w", err)
	}
	if job.Status.Terminal() {
		// Already settled (e.g. failed by orphan recovery); nothing to do.
		return nil
	}

	if err := js.db.Queries.MarkImportRunning(ctx, job.ID, "Import iniciado"); err != nil {
		return fmt.Errorf("failed to mark import running: %w", err)
	}
	js.publishProgress(job)

	progress := func(j model.ImportJob) {
		if err := js.db.Queries.UpdateImportProgress(ctx, j); err != nil {
			js.log.Warn("Failed to persist import progress", zap.String("job_id", j.ID), zap.Error(err))
		}
		js.publishProgress(j)
	}

	if err := js.importer.Run(ctx, &job, payload.CSVText, progress); err != nil {
		msg := err.Error()
		if ferr := js.db.Queries.FinishImportJob(ctx, job, model.ImportError, msg); ferr != nil {
			js.log.Error("Failed to record import failure", zap.String("job_id", job.ID), zap.Error(ferr))
		}
		job.Status = model.ImportError
		job.Message = msg
		js.publishProgress(job)
		js.log.Error("Import job failed", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}

	if err := js.db.Queries.FinishImportJob(ctx, job, model.ImportDone, job.Message); err != nil {
		return fmt.Errorf("failed to record import completion: %w", err)
	}
	js.publishProgress(job)

	js.log.Info("Import job finished",
		zap.String("job_id", job.ID),
		zap.Int("created", job.Created),
		zap.Int("updated", job.Updated),
		zap.Int("skipped", job.Skipped),
	)
	return nil
}

func (js *JobServer) publishProgress(j model.ImportJob) {
	_ = js.bus.PublishImport(j.ID, map[string]interface{}{
		"type":      "import.progress",
		"jobId":     j.ID,
		"status":    j.Status,
		"total":     j.Total,
		"processed": j.Processed,
		"created":   j.Created,
		"updated":   j.Updated,
		"skipped":   j.Skipped,
		"message":   j.Message,
	})
}

// EnqueueImport schedules a CSV import on the default queue. Imports are never
// retried: a half-applied upsert pass re-running would double-count tallies.
func EnqueueImport(client *asynq.Client, payload ImportPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeImportCSV, data)
	_, err = client.Enqueue(task, asynq.Queue("default"), asynq.MaxRetry(0), asynq.Timeout(importTimeout))
	return err
}
