package settings

import "sync"

// Store persists settings values as JSON strings under well-known keys.
type Store interface {
	// Get returns the stored value for key, with ok=false when absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Persisted keys. Values are JSON-encoded.
const (
	keyEndpoint             = "endpoint"
	keyEndpointType         = "endpointType"
	keyPassword             = "password"
	keySampling             = "settings"
	keyStopBrackets         = "stopBrackets"
	keyMultiLine            = "doMultiLine"
	keyOpenAIModel          = "openaiModel"
	keyClaudeModel          = "claudeModel"
	keyPaLMModel            = "palmModel"
	keyHordeModel           = "hordeModel"
	keyPaLMFilters          = "palmFilters"
	keyTokenizer            = "selectedTokenizer"
	keyConnectionPresets    = "connectionPresets"
	keyCurrentConnection    = "currentConnectionPreset"
	keySamplingPresets      = "settingsPresets"
	keyCurrentSampling      = "currentSettingsPreset"
)

// MemoryStore is an in-memory Store used in tests and as a fallback when no
// database path is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
