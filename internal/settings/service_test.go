package settings

import (
	"testing"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestNewService_Defaults(t *testing.T) {
	svc, _ := newTestService(t)
	snap := svc.Snapshot()

	if !snap.StopBrackets {
		t.Error("expected stopBrackets enabled by default")
	}
	if snap.MultiLine {
		t.Error("expected multiLine disabled by default")
	}
	if snap.OpenAIModel != DefaultOpenAIModel {
		t.Errorf("expected default OpenAI model, got %q", snap.OpenAIModel)
	}
	if snap.PaLMModel != DefaultPaLMModel {
		t.Errorf("expected default PaLM model, got %q", snap.PaLMModel)
	}
	if snap.Sampling.Temperature != 0.9 {
		t.Errorf("expected default temperature 0.9, got %v", snap.Sampling.Temperature)
	}
	for _, c := range HarmCategories {
		if snap.Filters.Level(c) != BlockNone {
			t.Errorf("expected BLOCK_NONE default for %s", c)
		}
	}
}

func TestService_PersistsAcrossReload(t *testing.T) {
	svc, store := newTestService(t)

	if err := svc.SetConnection("http://localhost:5001", KindOoba, "secret", "model-a"); err != nil {
		t.Fatalf("set connection: %v", err)
	}
	if err := svc.SetMultiLine(true); err != nil {
		t.Fatalf("set multiline: %v", err)
	}
	sampling := DefaultSampling()
	sampling.Temperature = 0.5
	off := false
	if err := svc.SetSampling(sampling, &off); err != nil {
		t.Fatalf("set sampling: %v", err)
	}

	// A fresh service over the same store sees the persisted state.
	reloaded, err := NewService(store)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	snap := reloaded.Snapshot()
	if snap.Endpoint != "http://localhost:5001" || snap.Kind != KindOoba {
		t.Errorf("connection not persisted: %+v", snap)
	}
	if snap.Key != "secret" || snap.HordeModel != "model-a" {
		t.Errorf("credential or model not persisted: %+v", snap)
	}
	if !snap.MultiLine {
		t.Error("multiLine not persisted")
	}
	if snap.Sampling.Temperature != 0.5 {
		t.Errorf("sampling not persisted, temperature %v", snap.Sampling.Temperature)
	}
	if snap.StopBrackets {
		t.Error("stopBrackets=false not persisted")
	}
}

func TestSetConnection_EmptyKeyKeepsOldCredential(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.SetConnection("http://a", KindKobold, "first", ""); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetConnection("http://b", KindKobold, "", ""); err != nil {
		t.Fatal(err)
	}

	snap := svc.Snapshot()
	if snap.Key != "first" {
		t.Errorf("empty key should not clear the credential, got %q", snap.Key)
	}
	if snap.Endpoint != "http://b" {
		t.Errorf("endpoint not updated, got %q", snap.Endpoint)
	}
}

func TestActiveProfile_EphemeralDefault(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.SetConnection("http://localhost:5001", KindKobold, "k", ""); err != nil {
		t.Fatal(err)
	}

	p := svc.ActiveProfile()
	if p.ID != "0000000000" {
		t.Errorf("expected ephemeral default profile id, got %q", p.ID)
	}
	if p.Endpoint != "http://localhost:5001" || p.Kind != KindKobold {
		t.Errorf("default profile not assembled from loose settings: %+v", p)
	}
	if p.ClaudeModel != DefaultClaudeModel {
		t.Errorf("expected default claude model, got %q", p.ClaudeModel)
	}
}

func TestActiveProfile_SelectedPreset(t *testing.T) {
	svc, _ := newTestService(t)

	preset := ConnectionProfile{
		ID:       "p1",
		Name:     "local ooba",
		Endpoint: "http://localhost:5000",
		Kind:     KindOoba,
	}
	if err := svc.UpsertConnectionPreset(preset); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetCurrentConnectionPreset("p1"); err != nil {
		t.Fatal(err)
	}

	p := svc.ActiveProfile()
	if p.ID != "p1" || p.Endpoint != "http://localhost:5000" {
		t.Errorf("expected selected preset, got %+v", p)
	}
	// Missing model fields fall back to defaults.
	if p.ClaudeModel != DefaultClaudeModel || p.PaLMModel != DefaultPaLMModel {
		t.Errorf("model defaults not applied: %+v", p)
	}
}

func TestActiveProfile_StalePointerFallsBack(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.SetCurrentConnectionPreset("gone"); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetConnection("http://loose", KindKobold, "", ""); err != nil {
		t.Fatal(err)
	}

	p := svc.ActiveProfile()
	if p.Endpoint != "http://loose" {
		t.Errorf("stale preset pointer should fall back to loose settings, got %+v", p)
	}
}

func TestConnectionPresets_UpsertReplacesById(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.UpsertConnectionPreset(ConnectionProfile{ID: "p1", Name: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpsertConnectionPreset(ConnectionProfile{ID: "p1", Name: "new"}); err != nil {
		t.Fatal(err)
	}

	presets := svc.ConnectionPresets()
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	if presets[0].Name != "new" {
		t.Errorf("expected replacement, got %q", presets[0].Name)
	}
}

func TestSamplingPresets_RemoveAndList(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.UpsertSamplingPreset(SamplingPreset{ID: "s1", Name: "creative"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpsertSamplingPreset(SamplingPreset{ID: "s2", Name: "precise"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveSamplingPreset("s1"); err != nil {
		t.Fatal(err)
	}

	presets := svc.SamplingPresets()
	if len(presets) != 1 || presets[0].ID != "s2" {
		t.Errorf("unexpected presets after remove: %+v", presets)
	}
}
