package db

import (
	"testing"

	"leadflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLeadListQueryAndComposition(t *testing.T) {
	query, args := buildLeadListQuery(model.LeadFilter{
		Cohort: "1",
		Stage:  string(model.StageReplied),
	})

	// Both predicates present and AND-ed; stage matches exactly.
	assert.Contains(t, query, "cohort = $1 AND stage = $2")
	require.Len(t, args, 3)
	assert.Equal(t, "1", args[0])
	assert.Equal(t, "Respondeu", args[1])
	assert.Equal(t, DefaultListLimit, args[2])
}

func TestBuildLeadListQueryAllFilters(t *testing.T) {
	query, args := buildLeadListQuery(model.LeadFilter{
		Cohort:         "2",
		Stage:          string(model.StageSold),
		ApprovalStatus: string(model.ApprovalApproved),
		Search:         "ana",
		Limit:          50,
	})

	assert.Contains(t, query, "cohort = $1")
	assert.Contains(t, query, "stage = $2")
	assert.Contains(t, query, "approval_status = $3")
	assert.Contains(t, query, "name ILIKE '%' || $4 || '%'")
	assert.Contains(t, query, "LIMIT $5")
	require.Len(t, args, 5)
	assert.Equal(t, 50, args[4])
}

func TestBuildLeadListQueryNoFilters(t *testing.T) {
	query, args := buildLeadListQuery(model.LeadFilter{})

	assert.Contains(t, query, "WHERE TRUE ORDER BY created_at DESC")
	require.Len(t, args, 1)
	assert.Equal(t, DefaultListLimit, args[0], "unbounded listings fall back to the cap")
}

func TestBuildLeadListQueryNegativeLimitDisablesCap(t *testing.T) {
	query, args := buildLeadListQuery(model.LeadFilter{Limit: -1})

	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}
