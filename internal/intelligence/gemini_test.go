package intelligence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastewatch-ai/wastewatch-go/internal/config"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
)

func geminiStub(t *testing.T, modelAnswer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": modelAnswer}},
					},
				},
			},
		})
	}))
}

func newTestAdvisor(url string) *GeminiAdvisor {
	return NewGeminiAdvisor(config.AIConfig{
		GeminiAPIKey:   "test-key",
		GeminiModel:    "gemini-2.0-flash",
		TimeoutSeconds: 5,
	}).WithBaseURL(url)
}

func TestAnalyzeSurplus_ParsesModelAnswer(t *testing.T) {
	answer := `{
		"reasoning": "Paneer spoils fast, redistribute today",
		"ngo_recommendation": "Community kitchen with cold storage",
		"handling_instructions": "Keep below 4C",
		"impact_metrics": {"co2_saved_kg": 12.5, "meals_provided": 50, "cost_saved_inr": 1250},
		"confidence_score": 0.85
	}`
	srv := geminiStub(t, answer)
	defer srv.Close()

	advice, err := newTestAdvisor(srv.URL).AnalyzeSurplus(context.Background(), "Paneer", 5)
	require.NoError(t, err)

	assert.False(t, advice.Fallback)
	assert.Equal(t, "Paneer spoils fast, redistribute today", advice.Reasoning)
	assert.InDelta(t, 12.5, advice.Impact.CO2SavedKg, 1e-9)
	assert.InDelta(t, 0.85, advice.ConfidenceScore, 1e-9)
}

func TestAnalyzeSurplus_NonJSONAnswerFallsBack(t *testing.T) {
	srv := geminiStub(t, "Sure! Here is my advice: donate it somewhere nice.")
	defer srv.Close()

	advice, err := newTestAdvisor(srv.URL).AnalyzeSurplus(context.Background(), "Paneer", 4)
	require.NoError(t, err)

	assert.True(t, advice.Fallback)
	assert.InDelta(t, 0.0, advice.ConfidenceScore, 1e-9)
	assert.InDelta(t, 4*CO2SavedPerKg, advice.Impact.CO2SavedKg, 1e-9)
	assert.InDelta(t, 4*MealsPerKg, advice.Impact.MealsProvided, 1e-9)
	assert.InDelta(t, 4*CostSavedPerKgINR, advice.Impact.CostSavedINR, 1e-9)
	assert.NotEmpty(t, advice.ErrorDetail)
	assert.NotEmpty(t, advice.Reasoning)
	assert.NotEmpty(t, advice.NGORecommendation)
	assert.NotEmpty(t, advice.HandlingInstructions)
}

func TestAnalyzeSurplus_MissingFieldsGetPlaceholders(t *testing.T) {
	srv := geminiStub(t, `{"reasoning": "valid reasoning only"}`)
	defer srv.Close()

	advice, err := newTestAdvisor(srv.URL).AnalyzeSurplus(context.Background(), "Paneer", 2)
	require.NoError(t, err)

	assert.False(t, advice.Fallback)
	assert.Equal(t, "valid reasoning only", advice.Reasoning)
	assert.Equal(t, "[missing: ngo_recommendation]", advice.NGORecommendation)
	assert.Equal(t, "[missing: handling_instructions]", advice.HandlingInstructions)
	// Missing impact numbers are estimated from the per-kg factors.
	assert.InDelta(t, 2*CO2SavedPerKg, advice.Impact.CO2SavedKg, 1e-9)
}

func TestAnalyzeSurplus_ConfidenceClamped(t *testing.T) {
	srv := geminiStub(t, `{"reasoning": "r", "ngo_recommendation": "n", "handling_instructions": "h", "confidence_score": 3.7}`)
	defer srv.Close()

	advice, err := newTestAdvisor(srv.URL).AnalyzeSurplus(context.Background(), "Paneer", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, advice.ConfidenceScore, 1e-9)
}

func TestAnalyzeSurplus_MissingAPIKey(t *testing.T) {
	advisor := NewGeminiAdvisor(config.AIConfig{GeminiModel: "gemini-2.0-flash", TimeoutSeconds: 5})

	_, err := advisor.AnalyzeSurplus(context.Background(), "Paneer", 1)
	require.ErrorIs(t, err, domain.ErrExternalService)
}

func TestAnalyzeSurplus_ServerErrorIsExternalServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 429, "message": "quota exceeded"},
		})
	}))
	defer srv.Close()

	_, err := newTestAdvisor(srv.URL).AnalyzeSurplus(context.Background(), "Paneer", 1)
	require.ErrorIs(t, err, domain.ErrExternalService)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnalyzeBatch_SubstitutesFallbackPerItem(t *testing.T) {
	srv := geminiStub(t, `{"reasoning": "ok", "ngo_recommendation": "n", "handling_instructions": "h", "confidence_score": 0.9}`)
	defer srv.Close()

	good := newTestAdvisor(srv.URL)
	broken := NewGeminiAdvisor(config.AIConfig{GeminiModel: "gemini-2.0-flash"}) // no key

	items := []domain.SurplusItem{
		{ItemName: "Paneer", SurplusKg: 3},
		{ItemName: "Chicken", SurplusKg: 7},
	}

	results := AnalyzeBatch(context.Background(), good, items)
	require.Len(t, results, 2)
	assert.False(t, results[0].Fallback)

	results = AnalyzeBatch(context.Background(), broken, items)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Fallback)
		assert.InDelta(t, 0.0, r.ConfidenceScore, 1e-9)
	}
}
