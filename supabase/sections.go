package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/doczoek/chat-core/chat"
)

// FindSectionsByContent runs the case-insensitive substring search over
// section content. document_sections carries no organization column, so the
// query is scoped through the tenant's document ids.
func (c *Client) FindSectionsByContent(ctx context.Context, tenantID, pattern string, limit int) ([]chat.SectionHit, error) {
	docIDs, err := c.tenantDocumentIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(docIDs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("select", "id,document_id,content,metadata")
	query.Set("content", ilikeFilter(pattern))
	query.Set("document_id", inFilter(docIDs))
	query.Set("limit", strconv.Itoa(limit))

	var rows []sectionRow
	if err := c.restGet(ctx, "document_sections", query, &rows); err != nil {
		return nil, fmt.Errorf("error searching sections by content: %w", err)
	}

	hits := make([]chat.SectionHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, chat.SectionHit{
			ID:         string(row.ID),
			DocumentID: row.DocumentID,
			Content:    row.Content,
			Metadata:   row.Metadata,
		})
	}
	return hits, nil
}

func (c *Client) tenantDocumentIDs(ctx context.Context, tenantID string) ([]string, error) {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("organization_id", "eq."+tenantID)

	var rows []struct {
		ID string `json:"id"`
	}
	if err := c.restGet(ctx, "documents", query, &rows); err != nil {
		return nil, fmt.Errorf("error loading tenant document ids: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}
