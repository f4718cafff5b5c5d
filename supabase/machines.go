package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/doczoek/chat-core/chat"
)

// GetMachineByCode looks up a tenant's equipment record. A missing record
// returns nil without error.
func (c *Client) GetMachineByCode(ctx context.Context, tenantID, code string) (*chat.Machine, error) {
	query := url.Values{}
	query.Set("select", "code,name,description,location")
	query.Set("organization_id", "eq."+tenantID)
	query.Set("code", "eq."+code)
	query.Set("limit", "1")

	var rows []machineRow
	if err := c.restGet(ctx, "machines", query, &rows); err != nil {
		return nil, fmt.Errorf("error loading machine %s: %w", code, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &chat.Machine{
		Code:        row.Code,
		Name:        row.Name,
		Description: row.Description,
		Location:    row.Location,
	}, nil
}

type machineRow struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}
