package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ProxyOpenAI forwards chat completions through a reverse proxy that fronts
// the OpenAI API. Auth is the proxy's own x-api-key header, not a bearer
// token.
type ProxyOpenAI struct {
	client *http.Client
}

type proxyChatPayload struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	TopP             float64       `json:"top_p"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	Stop             []string      `json:"stop"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoicesResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ProxyOpenAI) Send(ctx context.Context, req Request) (*Response, error) {
	base, err := baseURL(req.Profile.Endpoint)
	if err != nil {
		return nil, err
	}

	s := req.Sampling
	payload := proxyChatPayload{
		Model: strings.TrimSpace(req.Profile.OpenAIModel),
		Messages: []chatMessage{
			{Role: "system", Content: roleplayDirective(req.Participant)},
			{Role: "system", Content: systemNote},
			{Role: "system", Content: req.Prompt},
		},
		TopP:             orF(s.TopP, 0.9),
		Temperature:      orF(s.Temperature, 0.9),
		MaxTokens:        orI(s.MaxLength, 350),
		Stop:             []string{req.Participant + ":"},
		FrequencyPenalty: s.FrequencyPenalty,
		PresencePenalty:  s.PresencePenalty,
	}

	headers := map[string]string{"x-api-key": strings.TrimSpace(req.Profile.Key)}
	status, body, err := postJSON(ctx, p.client, base+"/proxy/openai/v1/chat/completions", headers, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return SoftFailure(string(body), req.Prompt), nil
	}

	var parsed chatChoicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return SoftFailure(string(body), req.Prompt), nil
	}
	return &Response{Results: []string{parsed.Choices[0].Message.Content}, Prompt: req.Prompt}, nil
}

// ProxyClaude forwards completion requests through a reverse proxy fronting
// an Anthropic-style API. The AWS variant shares the payload but answers with
// a top-level completion field instead of chat choices.
type ProxyClaude struct {
	client *http.Client
	path   string

	// fromCompletion selects the AWS response shape.
	fromCompletion bool
}

type claudePayload struct {
	Prompt           string   `json:"prompt"`
	Model            string   `json:"model"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	TopK             int      `json:"top_k"`
	MaxTokensSample  int      `json:"max_tokens_to_sample"`
	StopSequences    []string `json:"stop_sequences"`
}

func (p *ProxyClaude) Send(ctx context.Context, req Request) (*Response, error) {
	base, err := baseURL(req.Profile.Endpoint)
	if err != nil {
		return nil, err
	}

	model := req.Profile.ClaudeModel
	if model == "" {
		model = "claude-instant-v1"
	}
	stops := req.CallerStops
	if len(stops) == 0 {
		stops = []string{req.Participant + ":"}
	}

	s := req.Sampling
	payload := claudePayload{
		Prompt:          claudePrompt(req.Participant, req.Prompt),
		Model:           model,
		Temperature:     orF(s.Temperature, 0.9),
		TopP:            orF(s.TopP, 0.9),
		TopK:            s.TopK,
		MaxTokensSample: orI(s.MaxLength, 350),
		StopSequences:   stops,
	}

	headers := map[string]string{"x-api-key": strings.TrimSpace(req.Profile.Key)}
	status, body, err := postJSON(ctx, p.client, base+p.path, headers, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return SoftFailure(string(body), req.Prompt), nil
	}

	if p.fromCompletion {
		var parsed struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil || parsed.Completion == "" {
			return SoftFailure(string(body), req.Prompt), nil
		}
		return &Response{Results: []string{parsed.Completion}, Prompt: req.Prompt}, nil
	}

	var parsed chatChoicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return SoftFailure(string(body), req.Prompt), nil
	}
	return &Response{Results: []string{parsed.Choices[0].Message.Content}, Prompt: req.Prompt}, nil
}
