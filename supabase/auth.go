package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// VerifyUser resolves the bearer token to a user and checks the user's
// membership of the organization. Returns the user id on success.
func (c *Client) VerifyUser(ctx context.Context, bearerToken, tenantID string) (string, error) {
	if bearerToken == "" {
		return "", fmt.Errorf("missing bearer token")
	}

	userID, err := c.resolveUser(ctx, bearerToken)
	if err != nil {
		return "", err
	}

	member, err := c.isOrganizationMember(ctx, userID, tenantID)
	if err != nil {
		return "", err
	}
	if !member {
		return "", fmt.Errorf("user %s is not a member of organization %s", userID, tenantID)
	}
	return userID, nil
}

func (c *Client) resolveUser(ctx context.Context, bearerToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error verifying user token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("invalid user token: status %d", resp.StatusCode)
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
		return "", fmt.Errorf("error parsing user response: %w", err)
	}
	return user.ID, nil
}

func (c *Client) isOrganizationMember(ctx context.Context, userID, tenantID string) (bool, error) {
	query := url.Values{}
	query.Set("select", "user_id")
	query.Set("user_id", "eq."+userID)
	query.Set("organization_id", "eq."+tenantID)
	query.Set("limit", "1")

	var rows []struct {
		UserID string `json:"user_id"`
	}
	if err := c.restGet(ctx, "user_organizations", query, &rows); err != nil {
		return false, fmt.Errorf("error checking organization membership: %w", err)
	}
	return len(rows) > 0, nil
}
