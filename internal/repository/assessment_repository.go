// internal/repository/assessment_repository.go
package repository

import (
	"context"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
)

// AssessmentRepository persists assessment runs. Persistence is optional;
// the orchestrator works without one.
type AssessmentRepository interface {
	// SaveRun stores the run and its plans, returning the run id.
	SaveRun(ctx context.Context, run *domain.AssessmentRun) (int64, error)
	// LatestRun returns the most recent run with its plans, or
	// domain.ErrItemNotFound when nothing has been stored yet.
	LatestRun(ctx context.Context) (*domain.AssessmentRun, error)
	// ListRuns returns run headers (no plans), newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.AssessmentRun, error)
	// PlansByRun returns all action plans of a run.
	PlansByRun(ctx context.Context, runID int64) ([]domain.ActionPlan, error)
}
