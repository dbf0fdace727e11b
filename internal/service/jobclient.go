package service

import (
	"leadflow/internal/jobs"
	"leadflow/internal/model"

	"github.com/hibiken/asynq"
)

// JobClient schedules background work. The API layer depends on this interface
// so handler tests can capture enqueued jobs without redis.
type JobClient interface {
	EnqueueImport(jobID string, kind model.ImportKind, csvText string) error
}

// AsynqJobClient is the redis-backed JobClient.
type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(client *asynq.Client) *AsynqJobClient {
	return &AsynqJobClient{client: client}
}

func (c *AsynqJobClient) EnqueueImport(jobID string, kind model.ImportKind, csvText string) error {
	return jobs.EnqueueImport(c.client, jobs.ImportPayload{
		JobID:   jobID,
		Kind:    kind,
		CSVText: csvText,
	})
}
