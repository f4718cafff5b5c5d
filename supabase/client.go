package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
)

const defaultTimeout = 30 * time.Second

// Client talks to a Supabase project over its REST, storage and auth APIs
// using the service-role key. Tenant scoping is applied per query by the
// store methods; the key itself bypasses row-level security.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient() *Client {
	baseURL := os.Getenv("SUPABASE_URL")
	if baseURL == "" {
		logger.Fatal("SUPABASE_URL environment variable is not set")
	}

	serviceKey := os.Getenv("SUPABASE_SERVICE_KEY")
	if serviceKey == "" {
		logger.Fatal("SUPABASE_SERVICE_KEY environment variable is not set")
	}

	return NewClientWithBase(baseURL, serviceKey)
}

func NewClientWithBase(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// restGet queries a PostgREST table and decodes the row list into out.
func (c *Client) restGet(ctx context.Context, table string, query url.Values, out any) error {
	endpoint := c.baseURL + "/rest/v1/" + table + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error querying %s: %w", table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error querying %s: status %d: %s", table, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error parsing %s response: %w", table, err)
	}
	return nil
}

// restPost sends a JSON body to a REST path. The response body and status
// are returned raw so callers can apply their own semantics.
func (c *Client) restPost(ctx context.Context, path string, payload any) (int, []byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}
	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("error reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
}

// inFilter renders a PostgREST `in.(...)` filter value.
func inFilter(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, ``) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// ilikeFilter renders a case-insensitive substring filter. PostgREST uses *
// as the wildcard.
func ilikeFilter(pattern string) string {
	escaped := strings.NewReplacer("*", "", ",", " ").Replace(pattern)
	return "ilike.*" + escaped + "*"
}
