// Package provider contains one adapter per text-generation backend family.
// Each adapter translates the canonical request into that provider's wire
// protocol and normalizes the response back into a canonical result.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/companionos/companiond/internal/settings"
)

// Request is the canonical generation request handed to an adapter. The
// prompt is already assembled and the stop list already composed.
type Request struct {
	Prompt      string
	Participant string
	Stops       []string

	// CallerStops is the raw caller-supplied stop list before composition.
	// The Claude proxy wire shape sends this list verbatim when present.
	CallerStops []string

	Profile  settings.ConnectionProfile
	Sampling settings.Sampling
}

// Response is the canonical generation result. A recognized provider-side
// soft failure carries Results == nil and a non-empty Error; transport
// failures are returned as Go errors instead.
type Response struct {
	Results []string `json:"results"`
	Error   string   `json:"error,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
}

// SoftFailure builds the null-results envelope for a recognized provider
// failure.
func SoftFailure(errText, prompt string) *Response {
	return &Response{Results: nil, Error: errText, Prompt: prompt}
}

// Adapter sends one generation request and returns text or a typed soft
// failure. Implementations must honor ctx cancellation at every network
// boundary.
type Adapter interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Typed failures surfaced by the filtered-generation adapter.
var (
	ErrEmptyBody     = errors.New("no valid response from LLM")
	ErrProviderError = errors.New("provider reported an error")
	ErrSafetyBlocked = errors.New("no valid response from LLM: filters are blocking the response")
	ErrEmptyOutput   = errors.New("no valid response from LLM: empty output")
)

// ErrPollTimeout is returned when the job-queue adapter exhausts its polling
// deadline without the job reaching a terminal state.
var ErrPollTimeout = errors.New("generation job polling deadline exceeded")

// Config carries shared adapter dependencies.
type Config struct {
	HTTPClient *http.Client

	// Horde poll cadence and bound.
	PollInterval time.Duration
	PollDeadline time.Duration
}

// Registry selects the adapter for a provider kind.
type Registry struct {
	adapters map[settings.Kind]Adapter
}

// NewRegistry builds the full adapter set.
func NewRegistry(cfg Config) *Registry {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = 10 * time.Minute
	}

	return &Registry{adapters: map[settings.Kind]Adapter{
		settings.KindKobold:         &Kobold{client: client},
		settings.KindOoba:           &Ooba{client: client},
		settings.KindAphrodite:      &Aphrodite{client: client},
		settings.KindOpenAI:         &OpenAI{},
		settings.KindHorde:          &Horde{client: client, baseURL: HordeBaseURL, interval: cfg.PollInterval, deadline: cfg.PollDeadline},
		settings.KindProxyOpenAI:    &ProxyOpenAI{client: client},
		settings.KindProxyClaude:    &ProxyClaude{client: client, path: "/proxy/anthropic/v1/complete"},
		settings.KindProxyAWSClaude: &ProxyClaude{client: client, path: "/proxy/aws/claude/v1/complete", fromCompletion: true},
		settings.KindPaLM:           &PaLM{client: client},
	}}
}

// Adapter returns the adapter for kind. Unknown kinds fall back to Kobold,
// matching the dispatcher's historical default branch.
func (r *Registry) Adapter(kind settings.Kind) Adapter {
	if a, ok := r.adapters[kind]; ok {
		return a
	}
	return r.adapters[settings.KindKobold]
}

// Replace swaps the adapter for kind. Used by tests to point adapters at
// stub servers.
func (r *Registry) Replace(kind settings.Kind, a Adapter) {
	r.adapters[kind] = a
}

// baseURL reduces an endpoint string to scheme://host[:port], dropping any
// path or query the user pasted along with it.
func baseURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q", endpoint)
	}
	return u.Scheme + "://" + u.Host, nil
}

// orF substitutes def when v is zero. The settings surface cannot express
// "literal zero" for these knobs; zero always means unset.
func orF(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

// orI is orF for integer knobs.
func orI(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

// orOrder substitutes the default sampler order when none is stored.
func orOrder(v []int) []int {
	if len(v) != 0 {
		return v
	}
	return []int{6, 3, 2, 5, 0, 1, 4}
}
