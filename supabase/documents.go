package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/doczoek/chat-core/chat"
)

const documentColumns = "id,name,storage_path,rag_enabled"

// GetDocumentsByIDs resolves document metadata in one batched lookup. The
// tenant filter is applied on top of the id list so a stale or forged section
// row can never pull in another organization's document.
func (c *Client) GetDocumentsByIDs(ctx context.Context, tenantID string, ids []string) ([]chat.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("select", documentColumns)
	query.Set("organization_id", "eq."+tenantID)
	query.Set("id", inFilter(ids))

	var rows []documentRow
	if err := c.restGet(ctx, "documents", query, &rows); err != nil {
		return nil, fmt.Errorf("error loading documents by id: %w", err)
	}
	return toDocuments(rows), nil
}

// GetDocumentsByNamePattern lists tenant documents, newest first, optionally
// filtered by a name substring and by retrieval enablement. An empty pattern
// lists everything up to limit.
func (c *Client) GetDocumentsByNamePattern(ctx context.Context, tenantID, pattern string, onlyRAGEnabled bool, limit int) ([]chat.Document, error) {
	query := url.Values{}
	query.Set("select", documentColumns)
	query.Set("organization_id", "eq."+tenantID)
	query.Set("order", "created_at.desc")
	query.Set("limit", strconv.Itoa(limit))
	if pattern != "" {
		query.Set("name", ilikeFilter(pattern))
	}
	if onlyRAGEnabled {
		query.Set("rag_enabled", "eq.true")
	}

	var rows []documentRow
	if err := c.restGet(ctx, "documents", query, &rows); err != nil {
		return nil, fmt.Errorf("error loading documents by name: %w", err)
	}
	return toDocuments(rows), nil
}

func toDocuments(rows []documentRow) []chat.Document {
	docs := make([]chat.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, chat.Document{
			ID:          row.ID,
			Name:        row.Name,
			StoragePath: row.StoragePath,
			RAGEnabled:  row.RAGEnabled,
		})
	}
	return docs
}

type documentRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StoragePath string `json:"storage_path"`
	RAGEnabled  bool   `json:"rag_enabled"`
}
