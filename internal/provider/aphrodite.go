package provider

import (
	"context"
	"encoding/json"
	"net/http"
)

// Aphrodite targets an Aphrodite-engine server. The payload is the Ooba wire
// family with a different path and an API-key header.
type Aphrodite struct {
	client *http.Client
}

type aphroditePayload struct {
	Prompt           string   `json:"prompt"`
	Stream           bool     `json:"stream"`
	MaxTokens        int      `json:"max_tokens"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	TypicalP         float64  `json:"typical_p"`
	TFS              float64  `json:"tfs"`
	TopA             float64  `json:"top_a"`
	RepPen           float64  `json:"repetition_penalty"`
	RepPenRange      int      `json:"repetition_penalty_range"`
	TopK             int      `json:"top_k"`
	BanEOSToken      bool     `json:"ban_eos_token"`
	StoppingStrings  []string `json:"stopping_strings"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	MirostatMode     int      `json:"mirostat_mode"`
	MirostatTau      float64  `json:"mirostat_tau"`
	MirostatEta      float64  `json:"mirostat_eta"`
}

func (a *Aphrodite) Send(ctx context.Context, req Request) (*Response, error) {
	base, err := baseURL(req.Profile.Endpoint)
	if err != nil {
		return nil, err
	}

	s := req.Sampling
	payload := aphroditePayload{
		Prompt:           req.Prompt,
		Stream:           false,
		MaxTokens:        orI(s.MaxLength, 350),
		Temperature:      orF(s.Temperature, 0.9),
		TopP:             orF(s.TopP, 0.9),
		TypicalP:         orF(s.Typical, 0.9),
		TFS:              s.TFS,
		TopA:             s.TopA,
		RepPen:           orF(s.RepPen, 1.0),
		RepPenRange:      s.RepPenRange,
		TopK:             s.TopK,
		BanEOSToken:      false,
		StoppingStrings:  req.Stops,
		FrequencyPenalty: s.FrequencyPenalty,
		PresencePenalty:  s.PresencePenalty,
		MirostatMode:     s.MirostatMode,
		MirostatTau:      s.MirostatTau,
		MirostatEta:      s.MirostatEta,
	}

	headers := map[string]string{"x-api-key": req.Profile.Key}
	status, body, err := postJSON(ctx, a.client, base+"/v1/generate", headers, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return SoftFailure(string(body), req.Prompt), nil
	}

	var parsed choicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return SoftFailure(string(body), req.Prompt), nil
	}
	return &Response{Results: []string{parsed.Choices[0].Text}, Prompt: req.Prompt}, nil
}
