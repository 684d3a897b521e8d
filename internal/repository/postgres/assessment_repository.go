// internal/repository/postgres/assessment_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/repository"
)

type assessmentRepository struct {
	db *DB
}

func NewAssessmentRepository(db *DB) repository.AssessmentRepository {
	return &assessmentRepository{db: db}
}

const assessmentSchema = `
CREATE TABLE IF NOT EXISTS assessment_runs (
    id BIGSERIAL PRIMARY KEY,
    generated_at TIMESTAMPTZ NOT NULL,
    safety_buffer_percent DOUBLE PRECISION NOT NULL,
    skipped_items JSONB NOT NULL DEFAULT '[]',
    forecasting_errors JSONB NOT NULL DEFAULT '{}',
    summary JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS action_plans (
    id BIGSERIAL PRIMARY KEY,
    run_id BIGINT NOT NULL REFERENCES assessment_runs(id) ON DELETE CASCADE,
    item_name TEXT NOT NULL,
    forecast_date DATE NOT NULL,
    predicted_value DOUBLE PRECISION NOT NULL,
    lower_bound DOUBLE PRECISION NOT NULL,
    upper_bound DOUBLE PRECISION NOT NULL,
    confidence_width DOUBLE PRECISION NOT NULL,
    current_stock DOUBLE PRECISION NOT NULL,
    status TEXT NOT NULL,
    alert_level TEXT NOT NULL,
    units_needed DOUBLE PRECISION NOT NULL,
    shortfall_critical DOUBLE PRECISION NOT NULL,
    shortfall_warning DOUBLE PRECISION NOT NULL,
    surplus DOUBLE PRECISION NOT NULL,
    waste_ratio DOUBLE PRECISION NOT NULL,
    waste_risk TEXT NOT NULL,
    risk_score DOUBLE PRECISION NOT NULL,
    risk_level TEXT NOT NULL,
    recommended_action TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_action_plans_run_id ON action_plans(run_id);
`

// EnsureSchema creates the assessment tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, assessmentSchema); err != nil {
		return fmt.Errorf("error creating assessment schema: %w", err)
	}
	return nil
}

func (r *assessmentRepository) SaveRun(ctx context.Context, run *domain.AssessmentRun) (int64, error) {
	skipped, err := json.Marshal(run.SkippedItems)
	if err != nil {
		return 0, fmt.Errorf("error encoding skipped items: %w", err)
	}
	fcErrors, err := json.Marshal(run.ForecastingErrors)
	if err != nil {
		return 0, fmt.Errorf("error encoding forecasting errors: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return 0, fmt.Errorf("error encoding summary: %w", err)
	}

	var runID int64
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO assessment_runs (generated_at, safety_buffer_percent, skipped_items, forecasting_errors, summary)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, run.GeneratedAt, run.SafetyBufferPercent, skipped, fcErrors, summary)
		if err := row.Scan(&runID); err != nil {
			return fmt.Errorf("error inserting assessment run: %w", err)
		}

		for _, plan := range run.Plans {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO action_plans (
					run_id, item_name, forecast_date, predicted_value, lower_bound, upper_bound,
					confidence_width, current_stock, status, alert_level, units_needed,
					shortfall_critical, shortfall_warning, surplus, waste_ratio, waste_risk,
					risk_score, risk_level, recommended_action
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			`,
				runID, plan.ItemName, plan.ForecastDate, plan.PredictedValue, plan.LowerBound, plan.UpperBound,
				plan.ConfidenceWidth, plan.CurrentStock, plan.Status, string(plan.Stockout.AlertLevel), plan.Stockout.UnitsNeeded,
				plan.ShortfallCritical, plan.ShortfallWarning, plan.Surplus, plan.WasteRatio, string(plan.WasteRisk),
				plan.RiskScore, string(plan.RiskLevel), plan.RecommendedAction,
			); err != nil {
				return fmt.Errorf("error inserting action plan for %s: %w", plan.ItemName, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return runID, nil
}

func (r *assessmentRepository) LatestRun(ctx context.Context) (*domain.AssessmentRun, error) {
	runs, err := r.listRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no assessment runs stored", domain.ErrItemNotFound)
	}

	run := runs[0]
	plans, err := r.PlansByRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Plans = plans

	return &run, nil
}

func (r *assessmentRepository) ListRuns(ctx context.Context, limit int) ([]domain.AssessmentRun, error) {
	return r.listRuns(ctx, limit)
}

func (r *assessmentRepository) listRuns(ctx context.Context, limit int) ([]domain.AssessmentRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, generated_at, safety_buffer_percent, skipped_items, forecasting_errors, summary
		FROM assessment_runs
		ORDER BY generated_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing assessment runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.AssessmentRun
	for rows.Next() {
		var run domain.AssessmentRun
		var skipped, fcErrors, summary []byte

		if err := rows.Scan(&run.ID, &run.GeneratedAt, &run.SafetyBufferPercent, &skipped, &fcErrors, &summary); err != nil {
			return nil, fmt.Errorf("error scanning assessment run: %w", err)
		}

		if err := json.Unmarshal(skipped, &run.SkippedItems); err != nil {
			return nil, fmt.Errorf("error decoding skipped items: %w", err)
		}
		if err := json.Unmarshal(fcErrors, &run.ForecastingErrors); err != nil {
			return nil, fmt.Errorf("error decoding forecasting errors: %w", err)
		}
		if err := json.Unmarshal(summary, &run.Summary); err != nil {
			return nil, fmt.Errorf("error decoding summary: %w", err)
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessment runs: %w", err)
	}

	return runs, nil
}

func (r *assessmentRepository) PlansByRun(ctx context.Context, runID int64) ([]domain.ActionPlan, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT item_name, forecast_date, predicted_value, lower_bound, upper_bound,
		       confidence_width, current_stock, status, alert_level, units_needed,
		       shortfall_critical, shortfall_warning, surplus, waste_ratio, waste_risk,
		       risk_score, risk_level, recommended_action
		FROM action_plans
		WHERE run_id = $1
		ORDER BY risk_score DESC, item_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("error querying action plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.ActionPlan
	for rows.Next() {
		var plan domain.ActionPlan
		var alertLevel, wasteRisk, riskLevel string
		var unitsNeeded float64

		if err := rows.Scan(
			&plan.ItemName, &plan.ForecastDate, &plan.PredictedValue, &plan.LowerBound, &plan.UpperBound,
			&plan.ConfidenceWidth, &plan.CurrentStock, &plan.Status, &alertLevel, &unitsNeeded,
			&plan.ShortfallCritical, &plan.ShortfallWarning, &plan.Surplus, &plan.WasteRatio, &wasteRisk,
			&plan.RiskScore, &riskLevel, &plan.RecommendedAction,
		); err != nil {
			return nil, fmt.Errorf("error scanning action plan: %w", err)
		}

		plan.WasteRisk = domain.WasteRisk(wasteRisk)
		plan.RiskLevel = domain.RiskLevel(riskLevel)
		plan.Stockout = domain.StockoutAssessment{
			HasRisk:         plan.Status == domain.PlanStatusRestock,
			AlertLevel:      domain.AlertLevel(alertLevel),
			PredictedDemand: plan.PredictedValue,
			CurrentStock:    plan.CurrentStock,
			UnitsNeeded:     unitsNeeded,
		}

		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action plans: %w", err)
	}

	return plans, nil
}
