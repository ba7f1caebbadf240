package provider

import (
	"context"
	"encoding/json"
	"net/http"
)

// Kobold targets a KoboldAI-compatible server's synchronous generate endpoint.
type Kobold struct {
	client *http.Client
}

type koboldPayload struct {
	Prompt          string   `json:"prompt"`
	StopSequence    []string `json:"stop_sequence"`
	TrimBlankLines  bool     `json:"frmtrmblln"`
	RepPen          float64  `json:"rep_pen"`
	RepPenRange     int      `json:"rep_pen_range"`
	Temperature     float64  `json:"temperature"`
	SamplerOrder    []int    `json:"sampler_order"`
	TopK            int      `json:"top_k"`
	TopP            float64  `json:"top_p"`
	TopA            float64  `json:"top_a"`
	TFS             float64  `json:"tfs"`
	Typical         float64  `json:"typical"`
	SingleLine      bool     `json:"singleline"`
	FullDeterminism bool     `json:"sampler_full_determinism"`
	MaxLength       int      `json:"max_length"`
}

type koboldResponse struct {
	Results []struct {
		Text string `json:"text"`
	} `json:"results"`
}

func (k *Kobold) Send(ctx context.Context, req Request) (*Response, error) {
	base, err := baseURL(req.Profile.Endpoint)
	if err != nil {
		return nil, err
	}

	s := req.Sampling
	payload := koboldPayload{
		Prompt:          req.Prompt,
		StopSequence:    req.Stops,
		TrimBlankLines:  false,
		RepPen:          orF(s.RepPen, 1.0),
		RepPenRange:     s.RepPenRange,
		Temperature:     orF(s.Temperature, 0.9),
		SamplerOrder:    orOrder(s.SamplerOrder),
		TopK:            s.TopK,
		TopP:            orF(s.TopP, 0.9),
		TopA:            s.TopA,
		TFS:             s.TFS,
		Typical:         orF(s.Typical, 0.9),
		SingleLine:      s.SingleLine,
		FullDeterminism: s.FullDeterminism,
		MaxLength:       orI(s.MaxLength, 350),
	}

	status, body, err := postJSON(ctx, k.client, base+"/api/v1/generate", nil, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return SoftFailure(string(body), req.Prompt), nil
	}

	var parsed koboldResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Results) == 0 {
		return SoftFailure(string(body), req.Prompt), nil
	}
	return &Response{Results: []string{parsed.Results[0].Text}, Prompt: req.Prompt}, nil
}
