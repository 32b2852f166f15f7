package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HostTarget names one infrastructure host and its agent endpoints.
type HostTarget struct {
	ID         string
	MetricsURL string
	HealthURL  string
}

// AgentClient reads resource usage from a per-host metrics agent over HTTP
// and measures health-check latency against the host's health endpoint.
type AgentClient struct {
	client *http.Client
	hosts  map[string]HostTarget
}

// NewAgentClient creates a client for the given hosts. timeout bounds every
// individual HTTP call.
func NewAgentClient(hosts []HostTarget, timeout time.Duration) *AgentClient {
	byID := make(map[string]HostTarget, len(hosts))
	for _, h := range hosts {
		byID[h.ID] = h
	}
	return &AgentClient{
		client: &http.Client{Timeout: timeout},
		hosts:  byID,
	}
}

// ResourceUsage fetches the resource snapshot for hostID from its agent.
func (c *AgentClient) ResourceUsage(ctx context.Context, hostID string) (Resources, error) {
	host, ok := c.hosts[hostID]
	if !ok {
		return Resources{}, Unavailable("host metrics", fmt.Errorf("unknown host %q", hostID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host.MetricsURL, nil)
	if err != nil {
		return Resources{}, Unavailable("host metrics", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Resources{}, Unavailable("host metrics", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Resources{}, Unavailable("host metrics", fmt.Errorf("%s returned %s", hostID, resp.Status))
	}

	var res Resources
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Resources{}, &MalformedOutputError{Source: "host metrics", Detail: err.Error()}
	}
	return res, nil
}

// HealthLatency measures the round-trip time of a health-check call to
// hostID. Any failure means no latency observation for that host.
func (c *AgentClient) HealthLatency(ctx context.Context, hostID string) (time.Duration, error) {
	host, ok := c.hosts[hostID]
	if !ok || host.HealthURL == "" {
		return 0, Unavailable("health check", fmt.Errorf("no health endpoint for host %q", hostID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host.HealthURL, nil)
	if err != nil {
		return 0, Unavailable("health check", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, Unavailable("health check", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, Unavailable("health check", fmt.Errorf("%s returned %s", hostID, resp.Status))
	}
	return time.Since(start), nil
}
