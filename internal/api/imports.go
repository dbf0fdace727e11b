package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"leadflow/internal/model"
	"leadflow/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type startImportRequest struct {
	Kind    model.ImportKind `json:"kind"`
	CSVText string           `json:"csvText"`
}

// startImport creates a job row and hands the CSV to the background worker.
// Clients poll /import/status/{jobId} until the job settles; there is no
// cancel endpoint, an enqueued import always runs to completion.
func (d Dependencies) startImport(w http.ResponseWriter, r *http.Request) {
	var req startImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.Kind == "" {
		req.Kind = model.ImportKindBase
	}
	if !req.Kind.Valid() {
		WriteError(w, http.StatusBadRequest, "invalid_kind", "Unknown import kind", d.Log)
		return
	}
	if req.CSVText == "" {
		WriteError(w, http.StatusBadRequest, "empty_csv", "CSV text is required", d.Log)
		return
	}

	job, err := d.DB.Queries.CreateImportJob(r.Context(), ulid.Make().String(), req.Kind)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", err.Error(), d.Log)
		return
	}

	if err := d.JobClient.EnqueueImport(job.ID, req.Kind, req.CSVText); err != nil {
		WriteError(w, http.StatusInternalServerError, "enqueue_failed", err.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  job.ID,
		"status": string(job.Status),
	})
}

func (d Dependencies) importStatus(w http.ResponseWriter, r *http.Request) {
	job, err := d.DB.Queries.GetImportJob(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, http.StatusNotFound, "not_found", "Import job not found", d.Log)
			return
		}
		WriteError(w, http.StatusInternalServerError, "status_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// importCSVSync runs an import inline and returns the finished job. Meant for
// small files and scripts; big batches go through startImport.
func (d Dependencies) importCSVSync(w http.ResponseWriter, r *http.Request) {
	var req startImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.Kind == "" {
		req.Kind = model.ImportKindBase
	}
	if !req.Kind.Valid() {
		WriteError(w, http.StatusBadRequest, "invalid_kind", "Unknown import kind", d.Log)
		return
	}

	job, err := d.DB.Queries.CreateImportJob(r.Context(), ulid.Make().String(), req.Kind)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", err.Error(), d.Log)
		return
	}
	if err := d.DB.Queries.MarkImportRunning(r.Context(), job.ID, "Import iniciado"); err != nil {
		WriteError(w, http.StatusInternalServerError, "import_failed", err.Error(), d.Log)
		return
	}
	job.Status = model.ImportRunning

	progress := func(j model.ImportJob) {
		_ = d.DB.Queries.UpdateImportProgress(r.Context(), j)
	}

	runErr := d.Importer.Run(r.Context(), &job, req.CSVText, progress)
	status, message := model.ImportDone, job.Message
	if runErr != nil {
		status, message = model.ImportError, runErr.Error()
	}
	if err := d.DB.Queries.FinishImportJob(r.Context(), job, status, message); err != nil {
		WriteError(w, http.StatusInternalServerError, "import_failed", err.Error(), d.Log)
		return
	}
	job.Status = status
	job.Message = message

	d.Summaries.Invalidate()

	if errors.Is(runErr, service.ErrEmptyCSV) {
		WriteError(w, http.StatusBadRequest, "empty_csv", runErr.Error(), d.Log)
		return
	}
	if runErr != nil {
		WriteError(w, http.StatusInternalServerError, "import_failed", runErr.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (d Dependencies) exportCSV(w http.ResponseWriter, r *http.Request) {
	filter := leadFilterFromQuery(r.URL.Query())
	filter.Limit = -1

	leads, err := d.Leads.List(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "export_failed", err.Error(), d.Log)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ExportFilename+`"`)
	if err := service.WriteLeadsCSV(w, leads); err != nil {
		d.Log.Error("Failed to stream CSV export", zap.Error(err))
	}
}
