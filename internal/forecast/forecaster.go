// internal/forecast/forecaster.go
package forecast

import (
	"context"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
)

// Forecaster produces a next-day demand forecast for one item from its daily
// usage history. Implementations must honor ctx cancellation and return an
// error wrapping domain.ErrForecastUnavailable when no forecast can be made,
// so callers can treat the failure as recoverable.
type Forecaster interface {
	Forecast(ctx context.Context, item string, history []domain.UsagePoint) (*domain.ForecastResult, error)
}
