package client

import (
	"context"
	"errors"
	"time"

	"leadflow/internal/model"

	"github.com/sethvargo/go-retry"
)

// ErrImportTimeout means the poll ceiling passed without the job settling.
// The job itself keeps running server-side; only the watcher gave up.
var ErrImportTimeout = errors.New("import still running after poll ceiling")

var errImportPending = errors.New("import not finished")

// WaitForImport polls the job at the session's fixed interval until it
// reaches a terminal status. Cancel the context to stop watching early; the
// server-side job is unaffected either way. onProgress, when non-nil, fires
// after every successful poll.
func (c *Client) WaitForImport(ctx context.Context, jobID string, onProgress func(model.ImportJob)) (model.ImportJob, error) {
	var last model.ImportJob

	backoff := retry.WithMaxDuration(c.session.pollCeiling, retry.NewConstant(c.session.pollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		job, err := c.PollImportStatus(ctx, jobID)
		if err != nil {
			// Transient poll failures don't abandon the watch.
			return retry.RetryableError(err)
		}
		last = job
		if onProgress != nil {
			onProgress(job)
		}
		if !job.Status.Terminal() {
			return retry.RetryableError(errImportPending)
		}
		return nil
	})

	if err != nil {
		if ctx.Err() != nil {
			return last, ctx.Err()
		}
		if errors.Is(err, errImportPending) {
			return last, ErrImportTimeout
		}
		return last, err
	}
	return last, nil
}

// WaitHealthy polls /health until the server answers or maxWait passes.
func (c *Client) WaitHealthy(ctx context.Context, maxWait time.Duration) error {
	backoff := retry.WithMaxDuration(maxWait, retry.NewConstant(time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.Health(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
