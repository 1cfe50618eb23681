package gangway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// AgentClient talks to the tunnel agent's local diagnostic API.
type AgentClient struct {
	BaseURL string
	Client  *http.Client
}

// NewAgentClient returns a client for the agent API at the given address.
func NewAgentClient(addr string) *AgentClient {
	return &AgentClient{
		BaseURL: fmt.Sprintf("http://%s", addr),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// AgentTunnel is one active tunnel as reported by the agent API.
type AgentTunnel struct {
	Name      string `json:"name"`
	PublicURL string `json:"public_url"`
	Proto     string `json:"proto"`
	Config    struct {
		Addr string `json:"addr"`
	} `json:"config"`
}

type tunnelsResponse struct {
	Tunnels []AgentTunnel `json:"tunnels"`
}

// AgentExchange is one recorded request/response pair from the agent's
// inspection endpoint. The raw dumps are base64 encoded HTTP messages.
type AgentExchange struct {
	ID       string        `json:"id"`
	URI      string        `json:"uri"`
	Duration time.Duration `json:"duration"`
	Request  struct {
		Method string `json:"method"`
		URI    string `json:"uri"`
		Proto  string `json:"proto"`
		Raw    string `json:"raw"`
	} `json:"request"`
	Response struct {
		Status     string `json:"status"`
		StatusCode int    `json:"status_code"`
		Proto      string `json:"proto"`
		Raw        string `json:"raw"`
	} `json:"response"`
}

type exchangesResponse struct {
	Requests []AgentExchange `json:"requests"`
}

func (client *AgentClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building agent api request : %w", err)
	}
	resp, err := client.Client.Do(req)
	if err != nil {
		return fmt.Errorf("calling agent api %s : %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("agent api %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding agent api response : %w", err)
	}
	return nil
}

// Tunnels lists the tunnels currently established by the agent.
func (client *AgentClient) Tunnels(ctx context.Context) ([]AgentTunnel, error) {
	var parsed tunnelsResponse
	if err := client.get(ctx, "/api/tunnels", &parsed); err != nil {
		return nil, err
	}
	return parsed.Tunnels, nil
}

// PublicURL polls the agent until a tunnel with a public URL appears. The
// https endpoint is preferred when the agent reports both schemes.
func (client *AgentClient) PublicURL(ctx context.Context) (string, error) {
	var publicURL string
	backoff := retry.WithMaxDuration(15*time.Second, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tunnels, err := client.Tunnels(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(tunnels) == 0 {
			return retry.RetryableError(fmt.Errorf("no tunnels established yet"))
		}
		publicURL = tunnels[0].PublicURL
		for _, tunnel := range tunnels {
			if tunnel.PublicURL == "" {
				continue
			}
			if strings.HasPrefix(tunnel.PublicURL, "https://") {
				publicURL = tunnel.PublicURL
				break
			}
			publicURL = tunnel.PublicURL
		}
		if publicURL == "" {
			return retry.RetryableError(fmt.Errorf("tunnel has no public url yet"))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("resolving public url : %w", err)
	}
	return publicURL, nil
}

// Exchanges lists the recorded HTTP exchanges from the agent's inspection
// endpoint, oldest first.
func (client *AgentClient) Exchanges(ctx context.Context) ([]AgentExchange, error) {
	var parsed exchangesResponse
	if err := client.get(ctx, "/api/requests/http", &parsed); err != nil {
		return nil, err
	}
	// The agent reports newest first
	for i, j := 0, len(parsed.Requests)-1; i < j; i, j = i+1, j-1 {
		parsed.Requests[i], parsed.Requests[j] = parsed.Requests[j], parsed.Requests[i]
	}
	return parsed.Requests, nil
}
