package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/companionos/companiond/internal/settings"
)

// StatusProbe checks reachability for each provider kind with one lightweight
// GET. Probes never fail hard: every error degrades to a human-readable
// status string.
type StatusProbe struct {
	client *http.Client

	// hordeBaseURL and openAIBaseURL and palmBaseURL override the public
	// hosts in tests.
	hordeBaseURL  string
	openAIBaseURL string
	palmURL       string
}

// NewStatusProbe creates a probe using client, or a default client when nil.
func NewStatusProbe(client *http.Client) *StatusProbe {
	if client == nil {
		client = http.DefaultClient
	}
	return &StatusProbe{
		client:        client,
		hordeBaseURL:  HordeBaseURL,
		openAIBaseURL: "https://api.openai.com",
		palmURL:       palmBaseURL,
	}
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Check probes the endpoint for kind and returns a short status string. The
// key is only used by the proxy kinds; key-only kinds read the credential
// from the endpoint string itself.
func (p *StatusProbe) Check(ctx context.Context, kind settings.Kind, endpoint, key string) string {
	switch kind {
	case settings.KindOoba:
		return p.listModels(ctx, endpoint, "/v1/models", nil, "Ooba endpoint is not responding.")
	case settings.KindAphrodite:
		return p.listModels(ctx, endpoint, "/v1/model", nil, "Aphrodite endpoint is not responding.")
	case settings.KindOpenAI:
		headers := map[string]string{"Authorization": "Bearer " + strings.TrimSpace(endpoint)}
		code, body, err := getJSON(ctx, p.client, p.openAIBaseURL+"/v1/models", headers)
		if err != nil || code != http.StatusOK {
			return "Key is invalid."
		}
		var models modelList
		if err := json.Unmarshal(body, &models); err != nil {
			return "Key is invalid."
		}
		return joinModelIDs(models)
	case settings.KindHorde:
		code, _, err := getJSON(ctx, p.client, p.hordeBaseURL+"/v2/status/heartbeat", nil)
		if err == nil && code == http.StatusOK {
			return "Horde heartbeat is steady."
		}
		return "Horde heartbeat failed."
	case settings.KindProxyOpenAI:
		return p.proxyStatus(ctx, endpoint, "/proxy/openai/v1/models", key, false)
	case settings.KindProxyClaude:
		return p.proxyStatus(ctx, endpoint, "/proxy/anthropic/v1/models", key, true)
	case settings.KindProxyAWSClaude:
		return p.proxyStatus(ctx, endpoint, "/proxy/aws/claude/v1/models", key, true)
	case settings.KindPaLM:
		url := fmt.Sprintf("%s/v1beta2/models?key=%s", p.palmURL, strings.TrimSpace(endpoint))
		code, body, err := getJSON(ctx, p.client, url, nil)
		if err != nil || code != http.StatusOK {
			return "PaLM endpoint is not responding."
		}
		var parsed struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
		}
		if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Models) > 0 && parsed.Models[0].Name != "" {
			return "PaLM endpoint is steady. Key is valid."
		}
		return "PaLM key is invalid."
	case settings.KindKobold:
		fallthrough
	default:
		base, err := baseURL(endpoint)
		if err != nil {
			return "Kobold endpoint is not responding."
		}
		code, body, gerr := getJSON(ctx, p.client, base+"/api/v1/model", nil)
		if gerr != nil || code != http.StatusOK {
			return "Kobold endpoint is not responding."
		}
		var parsed struct {
			Result string `json:"result"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil || parsed.Result == "" {
			return "Kobold endpoint is not responding."
		}
		return parsed.Result
	}
}

// listModels fetches a model listing from endpoint+path and joins the ids.
func (p *StatusProbe) listModels(ctx context.Context, endpoint, path string, headers map[string]string, apology string) string {
	base, err := baseURL(endpoint)
	if err != nil {
		return apology
	}
	code, body, err := getJSON(ctx, p.client, base+path, headers)
	if err != nil || code != http.StatusOK {
		return apology
	}
	var models modelList
	if err := json.Unmarshal(body, &models); err != nil || len(models.Data) == 0 {
		return apology
	}
	return joinModelIDs(models)
}

// proxyStatus checks a reverse proxy's model listing. Some proxies only
// prove liveness when the listing is non-empty.
func (p *StatusProbe) proxyStatus(ctx context.Context, endpoint, path, key string, requireModels bool) string {
	base, err := baseURL(endpoint)
	if err != nil {
		return "Proxy status failed."
	}
	headers := map[string]string{"x-api-key": strings.TrimSpace(key)}
	code, body, err := getJSON(ctx, p.client, base+path, headers)
	if err != nil || code != http.StatusOK {
		return "Proxy status failed."
	}
	if requireModels {
		var models modelList
		if err := json.Unmarshal(body, &models); err != nil || len(models.Data) == 0 {
			return "Proxy status failed."
		}
	}
	return "Proxy status is steady."
}

func joinModelIDs(m modelList) string {
	ids := make([]string, 0, len(m.Data))
	for _, d := range m.Data {
		ids = append(ids, d.ID)
	}
	return strings.Join(ids, ", ")
}
