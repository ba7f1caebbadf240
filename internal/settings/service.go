package settings

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Default model identifiers used when the loose settings carry none.
const (
	DefaultOpenAIModel = "gpt-3.5-turbo-16k"
	DefaultClaudeModel = "claude-v1.3-100k"
	DefaultPaLMModel   = "models/text-bison-001"

	// defaultProfileID marks the ephemeral profile assembled from loose
	// settings when no connection preset is selected.
	defaultProfileID = "0000000000"
)

// Service is the settings facade: an in-memory cache over a Store with
// explicit load and write-through save. Safe for concurrent use.
type Service struct {
	store Store

	mu                sync.RWMutex
	endpoint          string
	kind              Kind
	key               string
	sampling          Sampling
	stopBrackets      bool
	multiLine         bool
	openAIModel       string
	claudeModel       string
	palmModel         string
	hordeModel        string
	filters           SafetyThresholds
	tokenizer         TokenizerKind
	connectionPresets []ConnectionProfile
	currentConnection string
	samplingPresets   []SamplingPreset
	currentSampling   string
}

// NewService creates a Service over store and loads the persisted state.
// Missing keys fall back to documented defaults.
func NewService(store Store) (*Service, error) {
	s := &Service{
		store:        store,
		sampling:     DefaultSampling(),
		stopBrackets: true,
		openAIModel:  DefaultOpenAIModel,
		claudeModel:  DefaultClaudeModel,
		palmModel:    DefaultPaLMModel,
		filters:      DefaultSafetyThresholds(),
		tokenizer:    TokenizerLLaMA,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) load() error {
	loads := []struct {
		key string
		dst interface{}
	}{
		{keyEndpoint, &s.endpoint},
		{keyEndpointType, &s.kind},
		{keyPassword, &s.key},
		{keySampling, &s.sampling},
		{keyStopBrackets, &s.stopBrackets},
		{keyMultiLine, &s.multiLine},
		{keyOpenAIModel, &s.openAIModel},
		{keyClaudeModel, &s.claudeModel},
		{keyPaLMModel, &s.palmModel},
		{keyHordeModel, &s.hordeModel},
		{keyPaLMFilters, &s.filters},
		{keyTokenizer, &s.tokenizer},
		{keyConnectionPresets, &s.connectionPresets},
		{keyCurrentConnection, &s.currentConnection},
		{keySamplingPresets, &s.samplingPresets},
		{keyCurrentSampling, &s.currentSampling},
	}
	for _, l := range loads {
		raw, ok, err := s.store.Get(l.key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw), l.dst); err != nil {
			return fmt.Errorf("settings: decode %q: %w", l.key, err)
		}
	}
	return nil
}

func (s *Service) save(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("settings: encode %q: %w", key, err)
	}
	return s.store.Set(key, string(raw))
}

// Snapshot returns a copy of the current settings for one generation call.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filters := make(SafetyThresholds, len(s.filters))
	for k, v := range s.filters {
		filters[k] = v
	}
	return Snapshot{
		Endpoint:     s.endpoint,
		Kind:         s.kind,
		Key:          s.key,
		Sampling:     s.sampling,
		StopBrackets: s.stopBrackets,
		MultiLine:    s.multiLine,
		OpenAIModel:  s.openAIModel,
		ClaudeModel:  s.claudeModel,
		PaLMModel:    s.palmModel,
		HordeModel:   s.hordeModel,
		Filters:      filters,
		Tokenizer:    s.tokenizer,
	}
}

// ActiveProfile resolves the current connection preset. When none is selected
// (or the pointer is stale) it assembles the ephemeral default profile from
// the loose settings.
func (s *Service) ActiveProfile() ConnectionProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.connectionPresets {
		if p.ID == s.currentConnection && p.ID != "" {
			if p.ClaudeModel == "" {
				p.ClaudeModel = DefaultClaudeModel
			}
			if p.PaLMModel == "" {
				p.PaLMModel = DefaultPaLMModel
			}
			return p
		}
	}
	return ConnectionProfile{
		ID:          defaultProfileID,
		Name:        "Default",
		Endpoint:    s.endpoint,
		Kind:        s.kind,
		Key:         s.key,
		OpenAIModel: s.openAIModel,
		ClaudeModel: s.claudeModel,
		PaLMModel:   s.palmModel,
		HordeModel:  s.hordeModel,
		Filters:     s.filters,
	}
}

// SetConnection updates the loose endpoint, provider kind and, when non-empty,
// the credential and Horde model.
func (s *Service) SetConnection(endpoint string, kind Kind, key, hordeModel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = endpoint
	s.kind = kind
	if err := s.save(keyEndpoint, s.endpoint); err != nil {
		return err
	}
	if err := s.save(keyEndpointType, s.kind); err != nil {
		return err
	}
	if key != "" {
		s.key = key
		if err := s.save(keyPassword, s.key); err != nil {
			return err
		}
	}
	if hordeModel != "" {
		s.hordeModel = hordeModel
		if err := s.save(keyHordeModel, s.hordeModel); err != nil {
			return err
		}
	}
	return nil
}

// SetSampling replaces the sampling knobs and optionally enables the
// stop-on-brackets behavior.
func (s *Service) SetSampling(sampling Sampling, stopBrackets *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampling = sampling
	if err := s.save(keySampling, s.sampling); err != nil {
		return err
	}
	if stopBrackets != nil {
		s.stopBrackets = *stopBrackets
		if err := s.save(keyStopBrackets, s.stopBrackets); err != nil {
			return err
		}
	}
	return nil
}

// SetMultiLine toggles multi-line reply segmentation.
func (s *Service) SetMultiLine(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.multiLine = v
	return s.save(keyMultiLine, v)
}

// MultiLine reports whether multi-line replies are enabled.
func (s *Service) MultiLine() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.multiLine
}

// SetOpenAIModel selects the OpenAI model identifier.
func (s *Service) SetOpenAIModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openAIModel = model
	return s.save(keyOpenAIModel, model)
}

// SetClaudeModel selects the Claude model identifier.
func (s *Service) SetClaudeModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claudeModel = model
	return s.save(keyClaudeModel, model)
}

// SetPaLMModel selects the PaLM model identifier.
func (s *Service) SetPaLMModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palmModel = model
	return s.save(keyPaLMModel, model)
}

// SetHordeModel selects the Horde model identifier.
func (s *Service) SetHordeModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hordeModel = model
	return s.save(keyHordeModel, model)
}

// SetFilters replaces the safety thresholds for the filtered provider.
func (s *Service) SetFilters(filters SafetyThresholds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters
	return s.save(keyPaLMFilters, filters)
}

// SetTokenizer selects the token-counting family.
func (s *Service) SetTokenizer(t TokenizerKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenizer = t
	return s.save(keyTokenizer, t)
}

// UpsertConnectionPreset inserts the preset, or replaces the preset with the
// same id.
func (s *Service) UpsertConnectionPreset(p ConnectionProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.connectionPresets {
		if s.connectionPresets[i].ID == p.ID {
			s.connectionPresets[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.connectionPresets = append(s.connectionPresets, p)
	}
	return s.save(keyConnectionPresets, s.connectionPresets)
}

// RemoveConnectionPreset removes the preset with the given id.
func (s *Service) RemoveConnectionPreset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.connectionPresets[:0]
	for _, p := range s.connectionPresets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.connectionPresets = kept
	return s.save(keyConnectionPresets, s.connectionPresets)
}

// ConnectionPresets returns a copy of the stored connection presets.
func (s *Service) ConnectionPresets() []ConnectionProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConnectionProfile, len(s.connectionPresets))
	copy(out, s.connectionPresets)
	return out
}

// SetCurrentConnectionPreset points the active connection at a preset id.
func (s *Service) SetCurrentConnectionPreset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentConnection = id
	return s.save(keyCurrentConnection, id)
}

// CurrentConnectionPreset returns the active connection preset id.
func (s *Service) CurrentConnectionPreset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentConnection
}

// UpsertSamplingPreset inserts or replaces a sampling preset by id.
func (s *Service) UpsertSamplingPreset(p SamplingPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.samplingPresets {
		if s.samplingPresets[i].ID == p.ID {
			s.samplingPresets[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.samplingPresets = append(s.samplingPresets, p)
	}
	return s.save(keySamplingPresets, s.samplingPresets)
}

// RemoveSamplingPreset removes the sampling preset with the given id.
func (s *Service) RemoveSamplingPreset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.samplingPresets[:0]
	for _, p := range s.samplingPresets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.samplingPresets = kept
	return s.save(keySamplingPresets, s.samplingPresets)
}

// SamplingPresets returns a copy of the stored sampling presets.
func (s *Service) SamplingPresets() []SamplingPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SamplingPreset, len(s.samplingPresets))
	copy(out, s.samplingPresets)
	return out
}

// SetCurrentSamplingPreset points the active sampling at a preset id.
func (s *Service) SetCurrentSamplingPreset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSampling = id
	return s.save(keyCurrentSampling, id)
}

// CurrentSamplingPreset returns the active sampling preset id.
func (s *Service) CurrentSamplingPreset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSampling
}
