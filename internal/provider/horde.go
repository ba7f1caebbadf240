package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HordeBaseURL is the public AI Horde API root.
const HordeBaseURL = "https://aihorde.net/api"

// AnonymousHordeKey is the credential used when the user has no account.
// Anonymous requests are deprioritized onto slow workers.
const AnonymousHordeKey = "0000000000"

// hordeInfeasibleMessage is the fixed soft-failure text shown when no worker
// can serve the job.
const hordeInfeasibleMessage = "**Horde:** Request is not possible, try another model or worker."

// Horde targets the volunteer AI Horde job queue: enqueue, poll until the job
// reports done or infeasible, then fetch the generated text. For this
// provider the profile's endpoint field carries the (possibly empty) API key.
type Horde struct {
	client   *http.Client
	baseURL  string
	interval time.Duration
	deadline time.Duration
}

type hordeParams struct {
	StopSequence    []string `json:"stop_sequence"`
	TrimBlankLines  bool     `json:"frmtrmblln"`
	RepPen          float64  `json:"rep_pen"`
	RepPenRange     int      `json:"rep_pen_range"`
	Temperature     float64  `json:"temperature"`
	SamplerOrder    []int    `json:"sampler_order"`
	TopK            int      `json:"top_k"`
	TopP            float64  `json:"top_p"`
	TopA            float64  `json:"top_a"`
	TFS             float64  `json:"tfs"`
	Typical         float64  `json:"typical"`
	SingleLine      bool     `json:"singleline"`
	FullDeterminism bool     `json:"sampler_full_determinism"`
	MaxLength       int      `json:"max_length"`
}

type hordeEnqueue struct {
	Prompt      string      `json:"prompt"`
	Params      hordeParams `json:"params"`
	Models      []string    `json:"models"`
	SlowWorkers bool        `json:"slow_workers"`
}

type hordeStatus struct {
	Done       bool `json:"done"`
	Finished   int  `json:"finished"`
	IsPossible *bool `json:"is_possible"`
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

func (h *Horde) Send(ctx context.Context, req Request) (*Response, error) {
	key := strings.TrimSpace(req.Profile.Endpoint)
	if key == "" {
		key = AnonymousHordeKey
	}
	// Kudos-less (anonymous) requests are relegated to slow workers.
	slowWorkers := key == AnonymousHordeKey

	s := req.Sampling
	payload := hordeEnqueue{
		Prompt: req.Prompt,
		Params: hordeParams{
			StopSequence:    req.Stops,
			TrimBlankLines:  false,
			RepPen:          orF(s.RepPen, 1.0),
			RepPenRange:     orI(s.RepPenRange, 512),
			Temperature:     orF(s.Temperature, 0.9),
			SamplerOrder:    orOrder(s.SamplerOrder),
			TopK:            s.TopK,
			TopP:            orF(s.TopP, 0.9),
			TopA:            s.TopA,
			TFS:             s.TFS,
			Typical:         orF(s.Typical, 0.9),
			SingleLine:      s.SingleLine,
			FullDeterminism: s.FullDeterminism,
			MaxLength:       orI(s.MaxLength, 350),
		},
		Models:      []string{req.Profile.HordeModel},
		SlowWorkers: slowWorkers,
	}

	headers := map[string]string{"apikey": key}
	status, body, err := postJSON(ctx, h.client, h.baseURL+"/v2/generate/text/async", headers, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return nil, fmt.Errorf("horde enqueue failed (status %d): %s", status, string(body))
	}

	var job struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &job); err != nil || job.ID == "" {
		return SoftFailure(string(body), req.Prompt), nil
	}

	return h.poll(ctx, job.ID, key, req.Prompt)
}

// poll checks the job on a fixed cadence until it reports done or infeasible,
// or the deadline passes.
func (h *Horde) poll(ctx context.Context, jobID, key, prompt string) (*Response, error) {
	statusURL := fmt.Sprintf("%s/v2/generate/text/status/%s", h.baseURL, jobID)
	headers := map[string]string{"apikey": key}

	timeout := time.NewTimer(h.deadline)
	defer timeout.Stop()
	tick := time.NewTicker(h.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, fmt.Errorf("%w after %s", ErrPollTimeout, h.deadline)
		case <-tick.C:
		}

		code, body, err := getJSON(ctx, h.client, statusURL, headers)
		if err != nil {
			return nil, err
		}
		if code != http.StatusOK {
			return nil, fmt.Errorf("horde status failed (status %d): %s", code, string(body))
		}

		var st hordeStatus
		if err := json.Unmarshal(body, &st); err != nil {
			return SoftFailure(string(body), prompt), nil
		}
		if st.IsPossible != nil && !*st.IsPossible {
			return &Response{Results: []string{hordeInfeasibleMessage}, Prompt: prompt}, nil
		}
		if st.Done && st.Finished > 0 {
			break
		}
	}

	// Final fetch for the generated text.
	code, body, err := getJSON(ctx, h.client, statusURL, headers)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("horde result fetch failed (status %d): %s", code, string(body))
	}
	var st hordeStatus
	if err := json.Unmarshal(body, &st); err != nil || len(st.Generations) == 0 {
		return SoftFailure(string(body), prompt), nil
	}
	return &Response{Results: []string{st.Generations[0].Text}, Prompt: prompt}, nil
}
