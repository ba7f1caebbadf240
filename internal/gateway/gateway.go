// Package gateway normalizes generation requests onto the active provider
// adapter, owns the single-flight cancellation slot, and exposes the status
// probe.
package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/companionos/companiond/internal/persona"
	"github.com/companionos/companiond/internal/prompt"
	"github.com/companionos/companiond/internal/provider"
	"github.com/companionos/companiond/internal/settings"
)

// invalidEndpointError is the configuration-error envelope text.
const invalidEndpointError = "Invalid endpoint."

// noResponseError is the envelope text for a dispatch that produced nothing.
const noResponseError = "No Valid Response from LLM"

// instructFallback is returned by DoInstruct when generation soft-fails.
const instructFallback = "No valid response from LLM."

// Request is one generation call from the chat layer or the control API.
type Request struct {
	Prompt      string
	Participant string

	// Stops optionally overrides the composed participant stop cues.
	Stops []string

	// Persona enriches the stop list with character cues.
	Persona *persona.Persona
}

// Gateway dispatches canonical generation requests to the provider selected
// by the active connection profile.
type Gateway struct {
	settings *settings.Service
	registry *provider.Registry
	probe    *provider.StatusProbe
	logger   *slog.Logger

	// mu guards the cancellation slots only; generation calls themselves run
	// unlocked so a new call can supersede an in-flight one.
	mu          sync.Mutex
	genCtx      context.Context
	cancelGen   context.CancelFunc
	cancelProbe context.CancelFunc
}

// New creates a Gateway over the settings service and adapter registry.
func New(svc *settings.Service, registry *provider.Registry, probe *provider.StatusProbe, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		settings: svc,
		registry: registry,
		probe:    probe,
		logger:   logger,
	}
}

// Generate performs one generation call. Recognized provider-side failures
// come back as a null-results envelope; transport failures are returned as
// errors for the caller to surface generically.
//
// Single-flight: issuing a new call unconditionally cancels whatever call is
// outstanding, with no check whether it already completed. Last writer wins.
func (g *Gateway) Generate(ctx context.Context, req Request) (*provider.Response, error) {
	promptText := scrubPrompt(req.Prompt)
	participant := req.Participant
	if participant == "" {
		participant = "You"
	}

	snap := g.settings.Snapshot()
	profile := g.settings.ActiveProfile()

	// Pre-flight: a too-short endpoint cannot be dialed. Horde tolerates an
	// empty credential (anonymous access), so it is exempt.
	if len(profile.Endpoint) < 3 && profile.Kind != settings.KindHorde {
		return provider.SoftFailure(invalidEndpointError, promptText), nil
	}

	stops := ComposeStops(participant, req.Stops, req.Persona, snap.StopBrackets)

	callCtx, release := g.replaceGeneration(ctx)
	defer release()

	adapter := g.registry.Adapter(profile.Kind)
	g.logger.Debug("dispatching generation", "provider", profile.Kind, "stops", len(stops))

	start := time.Now()
	resp, err := adapter.Send(callCtx, provider.Request{
		Prompt:      promptText,
		Participant: participant,
		Stops:       stops,
		CallerStops: req.Stops,
		Profile:     profile,
		Sampling:    snap.Sampling,
	})
	if err != nil {
		g.logger.Warn("generation failed", "provider", profile.Kind, "error", err, "duration", time.Since(start))
		return nil, err
	}
	if resp == nil {
		resp = provider.SoftFailure(noResponseError, promptText)
	}
	g.logger.Debug("generation finished", "provider", profile.Kind, "duration", time.Since(start), "soft_failure", resp.Results == nil)
	return resp, nil
}

// Cancel aborts the outstanding generation call, if any. Safe to call when
// nothing is in flight.
func (g *Gateway) Cancel() {
	g.mu.Lock()
	cancel := g.cancelGen
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// replaceGeneration issues a fresh per-call context and cancels the previous
// one. The swap is unconditional: no coordination with the superseded
// caller, no acknowledgment wait. The returned release func cancels the
// call's own context and vacates the slot if this call still owns it.
func (g *Gateway) replaceGeneration(parent context.Context) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(parent)
	g.mu.Lock()
	prev := g.cancelGen
	g.genCtx = callCtx
	g.cancelGen = cancel
	g.mu.Unlock()
	if prev != nil {
		prev()
	}
	release := func() {
		cancel()
		g.mu.Lock()
		// A newer call may have taken the slot; only vacate when it is
		// still ours.
		if g.genCtx == callCtx {
			g.genCtx = nil
			g.cancelGen = nil
		}
		g.mu.Unlock()
	}
	return callCtx, release
}

// Status probes the given endpoint, or the active one when the overrides are
// empty, and returns a short human-readable status. Never returns an error;
// failures degrade to apology strings. A new probe supersedes the previous
// one.
func (g *Gateway) Status(ctx context.Context, endpointOverride string, kindOverride settings.Kind) string {
	snap := g.settings.Snapshot()
	endpoint := endpointOverride
	if endpoint == "" {
		endpoint = snap.Endpoint
	}
	kind := kindOverride
	if kind == "" {
		kind = snap.Kind
	}

	probeCtx, cancel := context.WithCancel(ctx)
	g.mu.Lock()
	prev := g.cancelProbe
	g.cancelProbe = cancel
	g.mu.Unlock()
	if prev != nil {
		prev()
	}
	defer cancel()

	key := g.settings.ActiveProfile().Key
	return g.probe.Check(probeCtx, kind, endpoint, key)
}

// DoInstruct assembles an instruction prompt, generates, and returns the
// first result, or a human-readable fallback when the provider soft-fails.
func (g *Gateway) DoInstruct(ctx context.Context, instruction, guidance, contextText string, examples []string) (string, error) {
	text := prompt.AssembleInstruct(instruction, guidance, contextText, examples)
	resp, err := g.Generate(ctx, Request{Prompt: text})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Results) == 0 {
		return instructFallback, nil
	}
	return resp.Results[0], nil
}

// scrubPrompt strips UI artifacts from the assembled prompt before dispatch.
func scrubPrompt(p string) string {
	p = strings.ReplaceAll(p, "<br>", "")
	p = strings.ReplaceAll(p, "\\", "")
	p = strings.ReplaceAll(p, "\n\n", "\n")
	return p
}
