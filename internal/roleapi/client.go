package roleapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue/intent"
)

// Client looks up roles over HTTP against a running role CRUD sidecar,
// implementing intent.RoleLookup for the "change role" hook: each lookup
// fetches GET /api/roles from the sidecar rather than holding a static table.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client against baseURL, e.g. "http://127.0.0.1:8081".
func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: http.DefaultClient}
}

// Lookup matches name case-insensitively against every role's display name,
// since the hook addresses roles by spoken name, not by ID.
func (c *Client) Lookup(name string) (intent.Role, bool) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, c.baseURL+"/api/roles", nil)
	if err != nil {
		return intent.Role{}, false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return intent.Role{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return intent.Role{}, false
	}

	var roles []Role
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		return intent.Role{}, false
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, name) {
			return intent.Role{Name: r.Name, Prompt: r.Prompt, Voice: r.Voice}, true
		}
	}
	return intent.Role{}, false
}
