package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/doczoek/chat-core/chat"
	"go.uber.org/zap"
)

const matchSectionsRPC = "/rest/v1/rpc/match_document_sections"

// matchSectionShapes are the parameter-name conventions the RPC has used
// across schema versions, newest first. A deployment answers exactly one of
// them; the others come back as a function-signature mismatch.
var matchSectionShapes = []func(tenantID string, embedding []float32, matchCount int, threshold float64) map[string]any{
	func(tenantID string, embedding []float32, matchCount int, threshold float64) map[string]any {
		return map[string]any{
			"p_organization_id": tenantID,
			"p_query_embedding": embedding,
			"p_match_count":     matchCount,
			"p_threshold":       threshold,
		}
	},
	func(tenantID string, embedding []float32, matchCount int, threshold float64) map[string]any {
		return map[string]any{
			"organization_id": tenantID,
			"query_embedding": embedding,
			"match_count":     matchCount,
			"match_threshold": threshold,
		}
	},
	func(tenantID string, embedding []float32, matchCount int, threshold float64) map[string]any {
		return map[string]any{
			"org_id":               tenantID,
			"embedding":            embedding,
			"limit_count":          matchCount,
			"similarity_threshold": threshold,
		}
	},
}

// MatchSections runs the tenant-scoped nearest-neighbor RPC, retrying each
// known parameter shape. Shape mismatches move to the next shape; transport
// and server errors propagate. All shapes rejected degrades to an empty
// result, not an error.
func (c *Client) MatchSections(ctx context.Context, tenantID string, embedding []float32, matchCount int, threshold float64) ([]chat.SectionHit, error) {
	for _, shape := range matchSectionShapes {
		statusCode, body, err := c.restPost(ctx, matchSectionsRPC, shape(tenantID, embedding, matchCount, threshold))
		if err != nil {
			return nil, err
		}

		switch {
		case statusCode == http.StatusOK:
			return parseSectionRows(body)
		case statusCode == http.StatusBadRequest || statusCode == http.StatusNotFound:
			// function-signature mismatch, try the next shape
			continue
		default:
			return nil, fmt.Errorf("error calling match_document_sections: status %d: %s", statusCode, string(body))
		}
	}

	logger.Error("match_document_sections rejected every known parameter shape", zap.String("tenantId", tenantID))
	return nil, nil
}

func parseSectionRows(body []byte) ([]chat.SectionHit, error) {
	var rows []sectionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("error parsing match_document_sections response: %w", err)
	}

	hits := make([]chat.SectionHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, chat.SectionHit{
			ID:         string(row.ID),
			DocumentID: row.DocumentID,
			Content:    row.Content,
			Metadata:   row.Metadata,
			Similarity: row.Similarity,
		})
	}
	return hits, nil
}

type sectionRow struct {
	ID         flexID         `json:"id"`
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

// flexID absorbs the id column being a bigint in older schemas and a uuid
// string in newer ones.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("error parsing section id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}
