package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/companionos/companiond/internal/settings"
)

// palmBaseURL is the generative-language API root.
const palmBaseURL = "https://generativelanguage.googleapis.com"

// PaLM targets the policy-gated generative-language API. The payload carries
// a safety-threshold block; out-of-range sampling values fall back to the
// provider defaults. For this provider the profile's endpoint field carries
// the API key.
type PaLM struct {
	client *http.Client

	// baseURL overrides the API host in tests.
	baseURL string
}

type palmSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type palmPayload struct {
	Prompt struct {
		Text string `json:"text"`
	} `json:"prompt"`
	SafetySettings  []palmSafetySetting `json:"safetySettings"`
	Temperature     float64             `json:"temperature"`
	CandidateCount  int                 `json:"candidateCount"`
	MaxOutputTokens int                 `json:"maxOutputTokens"`
	TopP            float64             `json:"topP"`
	TopK            int                 `json:"topK"`
}

type palmResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Filters    []json.RawMessage `json:"filters"`
	Candidates []struct {
		Output string `json:"output"`
	} `json:"candidates"`
}

func (p *PaLM) Send(ctx context.Context, req Request) (*Response, error) {
	base := p.baseURL
	if base == "" {
		base = palmBaseURL
	}

	model := req.Profile.PaLMModel
	if model == "" {
		model = settings.DefaultPaLMModel
	}

	s := req.Sampling
	payload := palmPayload{
		SafetySettings:  safetySettings(req.Profile.Filters),
		Temperature:     clampTemperature(s.Temperature),
		CandidateCount:  1,
		MaxOutputTokens: orI(s.MaxLength, 350),
		TopP:            validTopP(s.TopP),
		TopK:            validTopK(s.TopK),
	}
	payload.Prompt.Text = req.Prompt

	url := fmt.Sprintf("%s/v1beta2/%s:generateText?key=%s", base, model, strings.TrimSpace(req.Profile.Endpoint))
	status, body, err := postJSON(ctx, p.client, url, nil, payload)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	var parsed palmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBody, string(body))
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderError, parsed.Error.Message)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("palm request failed (status %d): %s", status, string(body))
	}
	if len(parsed.Filters) > 0 {
		return nil, ErrSafetyBlocked
	}
	if len(parsed.Candidates) == 0 || parsed.Candidates[0].Output == "" {
		return nil, ErrEmptyOutput
	}

	// Multiple candidates are unusual but not an error; surface them all.
	results := make([]string, 0, len(parsed.Candidates))
	for _, c := range parsed.Candidates {
		if c.Output != "" {
			results = append(results, c.Output)
		}
	}
	return &Response{Results: results, Prompt: req.Prompt}, nil
}

// safetySettings renders the fixed 7-category block in its required order.
func safetySettings(t settings.SafetyThresholds) []palmSafetySetting {
	out := make([]palmSafetySetting, 0, len(settings.HarmCategories))
	for _, c := range settings.HarmCategories {
		out = append(out, palmSafetySetting{Category: c, Threshold: string(t.Level(c))})
	}
	return out
}

// clampTemperature caps the temperature at the provider maximum of 1.
func clampTemperature(v float64) float64 {
	if v > 0 && v <= 1 {
		return v
	}
	return 1
}

// validTopP accepts values in (0, 1]; anything else falls back to the
// provider default.
func validTopP(v float64) float64 {
	if v > 0 && v <= 1 {
		return v
	}
	return 0.9
}

// validTopK accepts values >= 1; anything else falls back to the provider
// default.
func validTopK(v int) int {
	if v >= 1 {
		return v
	}
	return 1
}
