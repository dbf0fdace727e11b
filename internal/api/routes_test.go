package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"leadflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthReportsServiceName(t *testing.T) {
	rec := httptest.NewRecorder()
	Dependencies{}.health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "leadflow-api", body["service"])
}

func TestLeadFilterFromQueryCoversFullShape(t *testing.T) {
	q := url.Values{}
	q.Set("cohort", "2")
	q.Set("stage", string(model.StageReplied))
	q.Set("approvalStatus", string(model.ApprovalPending))
	q.Set("search", "ana")

	filter := leadFilterFromQuery(q)
	assert.Equal(t, model.LeadFilter{
		Cohort:         "2",
		Stage:          string(model.StageReplied),
		ApprovalStatus: string(model.ApprovalPending),
		Search:         "ana",
	}, filter)

	assert.Equal(t, model.LeadFilter{}, leadFilterFromQuery(url.Values{}))
}
