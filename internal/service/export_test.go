package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"leadflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLeadsCSV(t *testing.T) {
	sent := time.Date(2026, 7, 15, 10, 30, 0, 0, time.UTC)
	leads := []model.Lead{
		{
			ID:             "L1",
			Name:           "Ana, a Primeira",
			WhatsApp:       "+5511999998888",
			Cohort:         "1",
			MessageVariant: "A",
			Stage:          model.StageReplied,
			ApprovalStatus: model.ApprovalPending,
			SentAt:         &sent,
			Source:         model.SourceCSVImport,
			Notes:          "linha 1\nlinha 2",
		},
		{ID: "L2", Name: "Bruno", Stage: model.StageAwaitingActivation},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLeadsCSV(&buf, leads))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, exportHeaders, records[0])

	row := records[1]
	assert.Equal(t, "L1", row[0])
	assert.Equal(t, "Ana, a Primeira", row[1], "commas survive quoting")
	assert.Equal(t, "Respondeu", row[5])
	assert.Equal(t, "Pendente", row[6])
	assert.Equal(t, "2026-07-15T10:30:00Z", row[7])
	assert.Equal(t, "linha 1\nlinha 2", row[15], "newlines survive quoting")

	assert.Equal(t, "", records[2][7], "nil timestamps render empty")
}
