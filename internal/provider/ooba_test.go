package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/companionos/companiond/internal/settings"
)

func TestOoba_Success(t *testing.T) {
	var payload oobaPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]string{{"text": "a completion"}},
		})
	}))
	defer srv.Close()

	o := &Ooba{client: srv.Client()}
	resp, err := o.Send(context.Background(), Request{
		Prompt:   "hello",
		Stops:    []string{"You:"},
		Profile:  settings.ConnectionProfile{Endpoint: srv.URL, Kind: settings.KindOoba},
		Sampling: settings.Sampling{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0] != "a completion" {
		t.Errorf("unexpected results %v", resp.Results)
	}

	if !payload.AddBOSToken || !payload.SkipSpecial {
		t.Errorf("expected BOS and skip-special defaults, got %+v", payload)
	}
	if payload.TruncationLength != 2048 {
		t.Errorf("expected default truncation_length 2048, got %d", payload.TruncationLength)
	}
	if len(payload.StoppingStrings) != 1 || payload.StoppingStrings[0] != "You:" {
		t.Errorf("unexpected stopping_strings %v", payload.StoppingStrings)
	}
}

func TestAphrodite_KeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "aph-key" {
			t.Errorf("expected x-api-key header, got %q", r.Header.Get("x-api-key"))
		}
		var payload aphroditePayload
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Stream {
			t.Error("streaming must be disabled")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]string{{"text": "ok"}},
		})
	}))
	defer srv.Close()

	a := &Aphrodite{client: srv.Client()}
	resp, err := a.Send(context.Background(), Request{
		Prompt:  "hello",
		Profile: settings.ConnectionProfile{Endpoint: srv.URL, Kind: settings.KindAphrodite, Key: "aph-key"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0] != "ok" {
		t.Errorf("unexpected results %v", resp.Results)
	}
}
