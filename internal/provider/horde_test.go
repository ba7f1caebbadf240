package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/companionos/companiond/internal/settings"
)

func hordeRequest(key string) Request {
	return Request{
		Prompt:   "hello",
		Stops:    []string{"You:"},
		Profile:  settings.ConnectionProfile{Endpoint: key, Kind: settings.KindHorde, HordeModel: "some/model"},
		Sampling: settings.DefaultSampling(),
	}
}

func newTestHorde(srvURL string) *Horde {
	return &Horde{
		client:   http.DefaultClient,
		baseURL:  srvURL,
		interval: 5 * time.Millisecond,
		deadline: 2 * time.Second,
	}
}

func TestHorde_EnqueuePollAndFetch(t *testing.T) {
	var polls int32
	var enq hordeEnqueue
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/generate/text/async":
			if r.Header.Get("apikey") != "my-key" {
				t.Errorf("expected apikey header, got %q", r.Header.Get("apikey"))
			}
			if err := json.NewDecoder(r.Body).Decode(&enq); err != nil {
				t.Errorf("decode enqueue: %v", err)
			}
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
		case "/v2/generate/text/status/job-1":
			n := atomic.AddInt32(&polls, 1)
			if n < 3 {
				json.NewEncoder(w).Encode(map[string]interface{}{"done": false, "finished": 0})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"done": true, "finished": 1,
				"generations": []map[string]string{{"text": "from the horde"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	h := newTestHorde(srv.URL)
	resp, err := h.Send(context.Background(), hordeRequest("my-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0] != "from the horde" {
		t.Errorf("unexpected results %v", resp.Results)
	}

	if enq.Models[0] != "some/model" {
		t.Errorf("unexpected models %v", enq.Models)
	}
	if enq.SlowWorkers {
		t.Error("keyed requests should not be limited to slow workers")
	}
	if enq.Params.RepPenRange != 512 {
		t.Errorf("expected default rep_pen_range 512, got %d", enq.Params.RepPenRange)
	}
}

func TestHorde_AnonymousKeyUsesSlowWorkers(t *testing.T) {
	var enq hordeEnqueue
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/generate/text/async":
			if r.Header.Get("apikey") != AnonymousHordeKey {
				t.Errorf("expected anonymous key, got %q", r.Header.Get("apikey"))
			}
			json.NewDecoder(r.Body).Decode(&enq)
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"done": true, "finished": 1,
				"generations": []map[string]string{{"text": "ok"}},
			})
		}
	}))
	defer srv.Close()

	h := newTestHorde(srv.URL)
	if _, err := h.Send(context.Background(), hordeRequest("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !enq.SlowWorkers {
		t.Error("anonymous requests must opt into slow workers")
	}
}

func TestHorde_InfeasibleJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/generate/text/async":
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"done": false, "finished": 0, "is_possible": false,
			})
		}
	}))
	defer srv.Close()

	h := newTestHorde(srv.URL)
	resp, err := h.Send(context.Background(), hordeRequest("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0] != hordeInfeasibleMessage {
		t.Errorf("expected infeasible message, got %v", resp.Results)
	}
}

func TestHorde_PollDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/generate/text/async":
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"done": false, "finished": 0})
		}
	}))
	defer srv.Close()

	h := newTestHorde(srv.URL)
	h.deadline = 30 * time.Millisecond

	_, err := h.Send(context.Background(), hordeRequest("k"))
	if !errors.Is(err, ErrPollTimeout) {
		t.Errorf("expected ErrPollTimeout, got %v", err)
	}
}

func TestHorde_CancellationDuringPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/generate/text/async":
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"done": false, "finished": 0})
		}
	}))
	defer srv.Close()

	h := newTestHorde(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := h.Send(ctx, hordeRequest("k"))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not stop on cancellation")
	}
}

func TestHorde_MalformedEnqueueBodyIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "maintenance"}`))
	}))
	defer srv.Close()

	h := newTestHorde(srv.URL)
	resp, err := h.Send(context.Background(), hordeRequest("k"))
	if err != nil {
		t.Fatalf("expected soft failure, got error: %v", err)
	}
	if resp.Results != nil {
		t.Errorf("expected null results, got %v", resp.Results)
	}
}
