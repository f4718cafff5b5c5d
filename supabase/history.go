package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/doczoek/chat-core/llm"
)

// LoadRecentMessages returns the latest conversation turns newest-first, as
// the storage query orders them. Callers reverse at the boundary.
func (c *Client) LoadRecentMessages(ctx context.Context, tenantID, userID, conversationID string, limit int) ([]llm.Message, error) {
	query := url.Values{}
	query.Set("select", "role,content")
	query.Set("organization_id", "eq."+tenantID)
	query.Set("user_id", "eq."+userID)
	query.Set("order", "created_at.desc")
	query.Set("limit", strconv.Itoa(limit))
	if conversationID != "" {
		query.Set("conversation_id", "eq."+conversationID)
	}

	var rows []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := c.restGet(ctx, "chat_messages", query, &rows); err != nil {
		return nil, fmt.Errorf("error loading chat history: %w", err)
	}

	messages := make([]llm.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, llm.Message{Role: row.Role, Content: row.Content})
	}
	return messages, nil
}
