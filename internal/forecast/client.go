// internal/forecast/client.go
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wastewatch-ai/wastewatch-go/internal/config"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

// Client calls the external forecasting service over HTTP. Every request
// carries an explicit timeout; any failure is reported as a recoverable
// ErrForecastUnavailable.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg config.ForecastConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		url:     cfg.URL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type forecastRequest struct {
	ItemName string         `json:"item_name"`
	History  []historyPoint `json:"history"`
}

type historyPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type forecastResponse struct {
	ForecastDate   string  `json:"forecast_date"`
	PredictedValue float64 `json:"predicted_value"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
}

// Forecast requests a next-day forecast for the item. Bounds are passed
// through untouched; the confidence width is derived client-side.
func (c *Client) Forecast(ctx context.Context, item string, history []domain.UsagePoint) (*domain.ForecastResult, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no usage history for %s", domain.ErrForecastUnavailable, item)
	}

	reqBody := forecastRequest{
		ItemName: item,
		History:  make([]historyPoint, 0, len(history)),
	}
	for _, p := range history {
		reqBody.History = append(reqBody.History, historyPoint{
			Date:  p.Date.Format("2006-01-02"),
			Value: p.Value,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request for %s: %v", domain.ErrForecastUnavailable, item, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request for %s: %v", domain.ErrForecastUnavailable, item, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed for %s: %v", domain.ErrForecastUnavailable, item, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Log.Warn().
			Str("item", item).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("forecasting service returned non-200")
		return nil, fmt.Errorf("%w: service returned %d for %s", domain.ErrForecastUnavailable, resp.StatusCode, item)
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response for %s: %v", domain.ErrForecastUnavailable, item, err)
	}

	forecastDate, err := time.Parse("2006-01-02", out.ForecastDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad forecast date %q for %s: %v", domain.ErrForecastUnavailable, out.ForecastDate, item, err)
	}

	return &domain.ForecastResult{
		ItemName:        item,
		ForecastDate:    forecastDate,
		PredictedValue:  out.PredictedValue,
		LowerBound:      out.LowerBound,
		UpperBound:      out.UpperBound,
		ConfidenceWidth: (out.UpperBound - out.LowerBound) / 2,
	}, nil
}

var _ Forecaster = (*Client)(nil)
