package provider

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI targets the OpenAI chat-completions API through the official client.
// For this provider the profile's endpoint field carries the API key.
type OpenAI struct {
	// baseURL overrides the API host in tests.
	baseURL string
}

func (o *OpenAI) Send(ctx context.Context, req Request) (*Response, error) {
	cfg := openai.DefaultConfig(strings.TrimSpace(req.Profile.Endpoint))
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	s := req.Sampling
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Profile.OpenAIModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: roleplayDirective(req.Participant)},
			{Role: openai.ChatMessageRoleSystem, Content: systemNote},
			{Role: openai.ChatMessageRoleSystem, Content: req.Prompt},
		},
		TopP:             float32(orF(s.TopP, 0.9)),
		Temperature:      float32(orF(s.Temperature, 0.9)),
		MaxTokens:        orI(s.MaxLength, 350),
		Stop:             []string{req.Participant + ":"},
		FrequencyPenalty: float32(s.FrequencyPenalty),
		PresencePenalty:  float32(s.PresencePenalty),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return SoftFailure("no completion choices in response", req.Prompt), nil
	}
	return &Response{Results: []string{resp.Choices[0].Message.Content}, Prompt: req.Prompt}, nil
}
