// internal/domain/errors.go
package domain

import "errors"

var (
	// ErrDataUnavailable means the dataset could not be found or read. Fatal
	// for an assessment run.
	ErrDataUnavailable = errors.New("dataset unavailable")

	// ErrForecastUnavailable means the forecasting service failed for one
	// item. Recoverable: the run continues and records the failure.
	ErrForecastUnavailable = errors.New("forecast unavailable")

	// ErrNoForecasts means forecasting failed for every requested item.
	ErrNoForecasts = errors.New("no forecasts could be generated")

	// ErrExternalService means a transport-level failure talking to an
	// external API.
	ErrExternalService = errors.New("external service error")

	// ErrInvalidInput means a caller-supplied value failed boundary
	// validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrItemNotFound means no data exists for the requested item or run.
	ErrItemNotFound = errors.New("not found")
)
