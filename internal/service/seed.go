package service

import (
	"context"
	"fmt"
	"math/rand"

	"leadflow/internal/db"
	"leadflow/internal/model"

	"github.com/oklog/ulid/v2"
)

// maxSeedCount caps test-data generation.
const maxSeedCount = 200

var (
	seedCohorts  = []string{"1", "2", "3"}
	seedVariants = []string{"A", "B"}
	seedNames    = []string{"Ana", "Bruno", "Carla", "Diego", "Eduarda", "Felipe", "Giovana", "Henrique"}
	seedStages   = []model.Stage{
		model.StageAwaitingActivation,
		model.StageActivated,
		model.StageDelivered,
		model.StageReplied,
		model.StageInterestedPending,
		model.StageInterestedApproved,
		model.StageSold,
	}
)

// Seed creates count mock leads for validating dashboards against realistic
// data. Cohorts, variants and names rotate round-robin; stages are random.
func (s *LeadService) Seed(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = 60
	}
	if count > maxSeedCount {
		count = maxSeedCount
	}

	created := 0
	for i := 0; i < count; i++ {
		stage := seedStages[rand.Intn(len(seedStages))]

		var approval model.ApprovalStatus
		switch stage {
		case model.StageInterestedPending:
			approval = model.ApprovalPending
		case model.StageInterestedApproved:
			approval = model.ApprovalApproved
		}

		whatsapp := fmt.Sprintf("+55%011d", 10000000000+rand.Int63n(89999999999))
		now := s.now()
		_, err := s.queries.CreateLead(ctx, db.CreateLeadParams{
			ID:             ulid.Make().String(),
			Name:           fmt.Sprintf("%s %d", seedNames[i%len(seedNames)], i+1),
			WhatsApp:       whatsapp,
			Cohort:         seedCohorts[i%len(seedCohorts)],
			MessageVariant: seedVariants[i%len(seedVariants)],
			Stage:          stage,
			ApprovalStatus: approval,
			Source:         model.SourceManual,
			LastEventAt:    &now,
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed lead %d: %w", i, err)
		}
		created++
	}
	return created, nil
}
