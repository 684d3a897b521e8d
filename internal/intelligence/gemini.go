// internal/intelligence/gemini.go
package intelligence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wastewatch-ai/wastewatch-go/internal/config"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const surplusSystemPrompt = `You are a food redistribution expert helping Indian restaurants route surplus food to NGOs.
Given an item name, a surplus quantity in kg and today's date, return ONLY a JSON object (no extra text) with this exact structure:
{
  "reasoning": "<why this surplus should be redistributed and how urgent it is>",
  "ngo_recommendation": "<the kind of NGO or program best suited for this item>",
  "handling_instructions": "<storage and transport guidance to keep the food safe>",
  "impact_metrics": {
    "co2_saved_kg": <number>,
    "meals_provided": <number>,
    "cost_saved_inr": <number>
  },
  "confidence_score": <decimal between 0.0 and 1.0>
}`

// GeminiAdvisor implements SurplusAdvisor against the Google Gemini REST API.
// The key comes from config at construction time; a missing key makes every
// call fail with ErrExternalService so callers fall back locally.
type GeminiAdvisor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiAdvisor(cfg config.AIConfig) *GeminiAdvisor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &GeminiAdvisor{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: defaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithBaseURL overrides the API endpoint (used by tests).
func (g *GeminiAdvisor) WithBaseURL(url string) *GeminiAdvisor {
	g.baseURL = strings.TrimRight(url, "/")
	return g
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  genConfig       `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type genConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float32 `json:"temperature"`
	TopP             float32 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// advicePayload is the JSON we expect back from the model. Pointer fields let
// us tell a missing field from a present-but-empty one.
type advicePayload struct {
	Reasoning            *string               `json:"reasoning"`
	NGORecommendation    *string               `json:"ngo_recommendation"`
	HandlingInstructions *string               `json:"handling_instructions"`
	Impact               *advicePayloadMetrics `json:"impact_metrics"`
	ConfidenceScore      *float64              `json:"confidence_score"`
}

type advicePayloadMetrics struct {
	CO2SavedKg    *float64 `json:"co2_saved_kg"`
	MealsProvided *float64 `json:"meals_provided"`
	CostSavedINR  *float64 `json:"cost_saved_inr"`
}

// AnalyzeSurplus asks Gemini for redistribution advice. Transport failures
// return an error wrapping ErrExternalService; a model answer that is not
// valid JSON degrades to the deterministic fallback with the parse error
// recorded, because a flaky model must never break the caller.
func (g *GeminiAdvisor) AnalyzeSurplus(ctx context.Context, item string, surplusKg float64) (*domain.SurplusAdvice, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not configured", domain.ErrExternalService)
	}

	userText := fmt.Sprintf("Item: %s\nSurplus: %.2f kg\nDate: %s", item, surplusKg, time.Now().Format("2006-01-02"))

	payload := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: surplusSystemPrompt}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: userText}},
			},
		},
		GenerationConfig: genConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.7,
			TopP:             0.95,
			MaxOutputTokens:  1024,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", domain.ErrExternalService, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", domain.ErrExternalService, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout or cancellation: %v", domain.ErrExternalService, ctx.Err())
		}
		return nil, fmt.Errorf("%w: request failed: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrExternalService, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("%w: gemini error %d: %s", domain.ErrExternalService, errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: gemini HTTP %d", domain.ErrExternalService, resp.StatusCode)
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(rawBody, &gemResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode gemini envelope: %v", domain.ErrExternalService, err)
	}

	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: gemini returned an empty response", domain.ErrExternalService)
	}

	rawJSON := strings.TrimSpace(gemResp.Candidates[0].Content.Parts[0].Text)

	var parsed advicePayload
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		logger.Log.Warn().Err(err).Str("item", item).Msg("gemini answer is not valid JSON, using fallback")
		return FallbackAdvice(item, surplusKg, fmt.Sprintf("model returned non-JSON answer: %v", err)), nil
	}

	return g.buildAdvice(item, surplusKg, parsed), nil
}

// buildAdvice fills gaps in the model answer: missing text fields get an
// explicit placeholder, missing impact numbers get the per-kg estimates.
func (g *GeminiAdvisor) buildAdvice(item string, surplusKg float64, parsed advicePayload) *domain.SurplusAdvice {
	advice := &domain.SurplusAdvice{
		ItemName:             item,
		SurplusKg:            surplusKg,
		Reasoning:            textOrPlaceholder(parsed.Reasoning, "reasoning"),
		NGORecommendation:    textOrPlaceholder(parsed.NGORecommendation, "ngo_recommendation"),
		HandlingInstructions: textOrPlaceholder(parsed.HandlingInstructions, "handling_instructions"),
		Impact: domain.ImpactMetrics{
			CO2SavedKg:    surplusKg * CO2SavedPerKg,
			MealsProvided: surplusKg * MealsPerKg,
			CostSavedINR:  surplusKg * CostSavedPerKgINR,
		},
	}

	if parsed.Impact != nil {
		if parsed.Impact.CO2SavedKg != nil {
			advice.Impact.CO2SavedKg = *parsed.Impact.CO2SavedKg
		}
		if parsed.Impact.MealsProvided != nil {
			advice.Impact.MealsProvided = *parsed.Impact.MealsProvided
		}
		if parsed.Impact.CostSavedINR != nil {
			advice.Impact.CostSavedINR = *parsed.Impact.CostSavedINR
		}
	}

	if parsed.ConfidenceScore != nil {
		confidence := *parsed.ConfidenceScore
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}
		advice.ConfidenceScore = confidence
	}

	return advice
}

func textOrPlaceholder(v *string, field string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fmt.Sprintf("[missing: %s]", field)
	}
	return *v
}

var _ SurplusAdvisor = (*GeminiAdvisor)(nil)
