package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"leadflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPollClient(t *testing.T, handler http.Handler, interval, ceiling time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(NewSession(Config{
		BaseURL:      server.URL,
		Passcode:     "secret",
		PollInterval: interval,
		PollCeiling:  ceiling,
	}))
}

func TestWaitForImportFinishes(t *testing.T) {
	var polls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		job := model.ImportJob{ID: "J1", Status: model.ImportRunning, Processed: int(n) * 10, Total: 30}
		if n >= 3 {
			job.Status = model.ImportDone
			job.Message = "Import concluído (3 criados, 0 atualizados, 0 ignorados)"
		}
		json.NewEncoder(w).Encode(job)
	})

	c := newPollClient(t, handler, 5*time.Millisecond, time.Second)

	var progress []model.ImportJob
	job, err := c.WaitForImport(context.Background(), "J1", func(j model.ImportJob) {
		progress = append(progress, j)
	})
	require.NoError(t, err)

	assert.Equal(t, model.ImportDone, job.Status)
	assert.Contains(t, job.Message, "3 criados")
	assert.GreaterOrEqual(t, len(progress), 3, "every poll reports progress")
}

func TestWaitForImportGivesUpAtCeiling(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ImportJob{ID: "J1", Status: model.ImportPending})
	})

	c := newPollClient(t, handler, 2*time.Millisecond, 30*time.Millisecond)

	start := time.Now()
	job, err := c.WaitForImport(context.Background(), "J1", nil)

	assert.ErrorIs(t, err, ErrImportTimeout)
	assert.Equal(t, model.ImportPending, job.Status, "last observed status is returned")
	assert.Less(t, time.Since(start), 2*time.Second, "the watcher stops, the job is left running")
	assert.Contains(t, FriendlyMessage(err), "Verifique o status manualmente")
}

func TestWaitForImportHonorsContextCancel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ImportJob{ID: "J1", Status: model.ImportRunning})
	})

	c := newPollClient(t, handler, 5*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.WaitForImport(ctx, "J1", nil)
		done <- err
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("WaitForImport did not stop after cancel")
	}
}

func TestWaitForImportToleratesTransientPollFailures(t *testing.T) {
	var polls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "status_failed", "message": "blip"})
			return
		}
		json.NewEncoder(w).Encode(model.ImportJob{ID: "J1", Status: model.ImportDone})
	})

	c := newPollClient(t, handler, 2*time.Millisecond, time.Second)

	job, err := c.WaitForImport(context.Background(), "J1", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ImportDone, job.Status)
}

func TestWaitHealthy(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(NewSession(Config{BaseURL: server.URL, PollInterval: time.Millisecond}))

	err := c.WaitHealthy(context.Background(), 5*time.Second)
	assert.NoError(t, err)
}
