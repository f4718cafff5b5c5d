package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/doczoek/chat-core/chat"
)

// TrackUsage inserts one analytics row. Callers treat failures as
// best-effort; this method only reports them.
func (c *Client) TrackUsage(ctx context.Context, tenantID string, event chat.UsageEvent) error {
	row := map[string]any{
		"organization_id": tenantID,
		"event_type":      event.EventType,
		"event_data": map[string]any{
			"request_id":        event.RequestID,
			"prompt_tokens":     event.PromptTokens,
			"completion_tokens": event.CompletionTokens,
			"total_tokens":      event.TotalTokens,
			"cost_usd":          event.CostUSD,
			"response_time_ms":  event.DurationMs,
			"question_length":   event.QuestionLength,
			"response_length":   event.ResponseLength,
		},
	}

	statusCode, body, err := c.restPost(ctx, "/rest/v1/analytics", row)
	if err != nil {
		return err
	}
	if statusCode != http.StatusCreated && statusCode != http.StatusOK {
		return fmt.Errorf("error inserting analytics row: status %d: %s", statusCode, string(body))
	}
	return nil
}
