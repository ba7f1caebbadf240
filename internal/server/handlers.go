package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/companionos/companiond/internal/auth"
	"github.com/companionos/companiond/internal/chat"
	"github.com/companionos/companiond/internal/gateway"
	"github.com/companionos/companiond/internal/persona"
	"github.com/companionos/companiond/internal/prompt"
	"github.com/companionos/companiond/internal/settings"
)

// handlers carries the services behind the control-API routes.
type handlers struct {
	logger    *slog.Logger
	apiSecret string
	jwt       *auth.JWTManager
	gw        *gateway.Gateway
	chat      *chat.Service
	settings  *settings.Service
}

// mount registers the authenticated routes.
func (h *handlers) mount(r chi.Router) {
	r.Post("/generate", h.generate)
	r.Post("/instruct", h.instruct)
	r.Post("/instruct/prompt", h.instructPrompt)
	r.Post("/status", h.status)
	r.Post("/cancel", h.cancel)

	r.Post("/chat/continue", h.chatContinue)
	r.Post("/chat/regenerate", h.chatRegenerate)
	r.Post("/chat/remove", h.chatRemove)

	r.Get("/settings", h.getSampling)
	r.Post("/settings", h.setSampling)
	r.Get("/settings/multiline", h.getMultiLine)
	r.Post("/settings/multiline", h.setMultiLine)
	r.Get("/settings/presets", h.listSamplingPresets)
	r.Post("/settings/presets", h.upsertSamplingPreset)
	r.Delete("/settings/presets/{id}", h.removeSamplingPreset)
	r.Get("/settings/current", h.currentSamplingPreset)
	r.Post("/settings/current", h.setCurrentSamplingPreset)

	r.Get("/connection", h.getConnection)
	r.Post("/connection", h.setConnection)
	r.Get("/connections/presets", h.listConnectionPresets)
	r.Post("/connections/presets", h.upsertConnectionPreset)
	r.Delete("/connections/presets/{id}", h.removeConnectionPreset)
	r.Get("/connections/current", h.currentConnectionPreset)
	r.Post("/connections/current", h.setCurrentConnectionPreset)

	r.Get("/palm/filters", h.getFilters)
	r.Post("/palm/filters", h.setFilters)

	r.Get("/models/{family}", h.getModel)
	r.Post("/models/{family}", h.setModel)
}

// --- auth ---

func (h *handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret     string `json:"secret"`
		ClientName string `json:"client_name"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.apiSecret)) != 1 {
		h.error(w, http.StatusUnauthorized, "invalid secret")
		return
	}
	token, err := h.jwt.GenerateToken(req.ClientName)
	if err != nil {
		h.error(w, http.StatusInternalServerError, "token generation failed")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"token": token})
}

// --- generation ---

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt      string           `json:"prompt"`
		Participant string           `json:"participant"`
		Stops       []string         `json:"stops"`
		Persona     *persona.Persona `json:"persona"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.gw.Generate(r.Context(), gateway.Request{
		Prompt:      req.Prompt,
		Participant: req.Participant,
		Stops:       req.Stops,
		Persona:     req.Persona,
	})
	if err != nil {
		h.error(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(h.logger, w, http.StatusOK, resp)
}

func (h *handlers) instruct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instruction string   `json:"instruction"`
		Guidance    string   `json:"guidance"`
		Context     string   `json:"context"`
		Examples    []string `json:"examples"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.gw.DoInstruct(r.Context(), req.Instruction, req.Guidance, req.Context, req.Examples)
	if err != nil {
		h.error(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"result": result})
}

func (h *handlers) instructPrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instruction string   `json:"instruction"`
		Guidance    string   `json:"guidance"`
		Context     string   `json:"context"`
		Examples    []string `json:"examples"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	p := prompt.AssembleInstruct(req.Instruction, req.Guidance, req.Context, req.Examples)
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"prompt": p})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string        `json:"endpoint"`
		Kind     settings.Kind `json:"endpointType"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	status := h.gw.Status(r.Context(), req.Endpoint, req.Kind)
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"status": status})
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	h.gw.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// --- chat ---

func (h *handlers) chatContinue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   string           `json:"session_id"`
		Persona     *persona.Persona `json:"persona"`
		Participant string           `json:"participant"`
		Message     string           `json:"message"`
		Stops       []string         `json:"stops"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Persona == nil {
		h.error(w, http.StatusBadRequest, "persona is required")
		return
	}
	if req.Message != "" {
		speaker := req.Participant
		if speaker == "" {
			speaker = "You"
		}
		h.chat.AddUserTurn(req.SessionID, speaker, req.Message)
	}
	turn, err := h.chat.Continue(r.Context(), req.SessionID, req.Persona, req.Participant, req.Stops)
	if err != nil {
		h.chatError(w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, turn)
}

func (h *handlers) chatRegenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string           `json:"session_id"`
		ID        string           `json:"id"`
		Text      string           `json:"text"`
		Persona   *persona.Persona `json:"persona"`
		Stops     []string         `json:"stops"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Persona == nil {
		h.error(w, http.StatusBadRequest, "persona is required")
		return
	}
	turn, err := h.chat.Regenerate(r.Context(), req.SessionID, req.ID, req.Text, req.Persona, req.Stops)
	if err != nil {
		h.chatError(w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, turn)
}

func (h *handlers) chatRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.chat.Remove(req.SessionID, req.Text); err != nil {
		h.chatError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) chatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrTurnNotFound):
		h.error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrNoReply):
		h.error(w, http.StatusOK, err.Error())
	default:
		h.error(w, http.StatusBadGateway, err.Error())
	}
}

// --- settings ---

func (h *handlers) getSampling(w http.ResponseWriter, r *http.Request) {
	snap := h.settings.Snapshot()
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"settings":     snap.Sampling,
		"stopBrackets": snap.StopBrackets,
	})
}

func (h *handlers) setSampling(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Settings     settings.Sampling `json:"settings"`
		StopBrackets *bool             `json:"stopBrackets"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.settings.SetSampling(req.Settings, req.StopBrackets); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getMultiLine(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, map[string]bool{"doMultiLine": h.settings.MultiLine()})
}

func (h *handlers) setMultiLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DoMultiLine bool `json:"doMultiLine"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.settings.SetMultiLine(req.DoMultiLine); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getConnection(w http.ResponseWriter, r *http.Request) {
	snap := h.settings.Snapshot()
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"endpoint":     snap.Endpoint,
		"endpointType": snap.Kind,
		"hordeModel":   snap.HordeModel,
	})
}

func (h *handlers) setConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint   string        `json:"endpoint"`
		Kind       settings.Kind `json:"endpointType"`
		Password   string        `json:"password"`
		HordeModel string        `json:"hordeModel"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Kind != "" && !req.Kind.Valid() {
		h.error(w, http.StatusBadRequest, "unknown endpoint type")
		return
	}
	if err := h.settings.SetConnection(req.Endpoint, req.Kind, req.Password, req.HordeModel); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listConnectionPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, h.settings.ConnectionPresets())
}

func (h *handlers) upsertConnectionPreset(w http.ResponseWriter, r *http.Request) {
	var p settings.ConnectionProfile
	if !h.decode(w, r, &p) {
		return
	}
	if p.ID == "" {
		h.error(w, http.StatusBadRequest, "preset id is required")
		return
	}
	if err := h.settings.UpsertConnectionPreset(p); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) removeConnectionPreset(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.RemoveConnectionPreset(chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) currentConnectionPreset(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"id": h.settings.CurrentConnectionPreset()})
}

func (h *handlers) setCurrentConnectionPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.settings.SetCurrentConnectionPreset(req.ID); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listSamplingPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, h.settings.SamplingPresets())
}

func (h *handlers) upsertSamplingPreset(w http.ResponseWriter, r *http.Request) {
	var p settings.SamplingPreset
	if !h.decode(w, r, &p) {
		return
	}
	if p.ID == "" {
		h.error(w, http.StatusBadRequest, "preset id is required")
		return
	}
	if err := h.settings.UpsertSamplingPreset(p); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) removeSamplingPreset(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.RemoveSamplingPreset(chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) currentSamplingPreset(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"id": h.settings.CurrentSamplingPreset()})
}

func (h *handlers) setCurrentSamplingPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.settings.SetCurrentSamplingPreset(req.ID); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, h.settings.Snapshot().Filters)
}

func (h *handlers) setFilters(w http.ResponseWriter, r *http.Request) {
	var filters settings.SafetyThresholds
	if !h.decode(w, r, &filters) {
		return
	}
	if err := h.settings.SetFilters(filters); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getModel(w http.ResponseWriter, r *http.Request) {
	snap := h.settings.Snapshot()
	var model string
	switch chi.URLParam(r, "family") {
	case "openai":
		model = snap.OpenAIModel
	case "claude":
		model = snap.ClaudeModel
	case "palm":
		model = snap.PaLMModel
	case "horde":
		model = snap.HordeModel
	default:
		h.error(w, http.StatusNotFound, "unknown model family")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"model": model})
}

func (h *handlers) setModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	var err error
	switch chi.URLParam(r, "family") {
	case "openai":
		err = h.settings.SetOpenAIModel(req.Model)
	case "claude":
		err = h.settings.SetClaudeModel(req.Model)
	case "palm":
		err = h.settings.SetPaLMModel(req.Model)
	case "horde":
		err = h.settings.SetHordeModel(req.Model)
	default:
		h.error(w, http.StatusNotFound, "unknown model family")
		return
	}
	if err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *handlers) error(w http.ResponseWriter, status int, msg string) {
	writeJSON(h.logger, w, status, map[string]string{"error": msg})
}

func (h *handlers) storeError(w http.ResponseWriter, err error) {
	h.logger.Error("settings store write failed", "error", err)
	h.error(w, http.StatusInternalServerError, "failed to persist settings")
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Warn("response encode failed", "error", err)
	}
}
