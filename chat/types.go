package chat

import (
	"github.com/doczoek/chat-core/llm"
)

// RetrievedSection is a single section surfaced by one retrieval call.
// Similarity is only meaningful for semantic hits; keyword hits carry the
// fixed keywordMatchSimilarity constant so exact matches outrank fuzzy ones.
type RetrievedSection struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
	DocName    string         `json:"docName"`
	Page       string         `json:"page,omitempty"`
}

// Document is an organization document candidate for attachment.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StoragePath string `json:"storagePath"`
	RAGEnabled  bool   `json:"ragEnabled"`
}

// DocumentLink is a resolved, time-limited signed URL standing in for a
// document. Name is never empty and FileURL never carries a raw storage path
// unless signing itself failed.
type DocumentLink struct {
	Name    string `json:"name"`
	FileURL string `json:"fileUrl"`
}

// Machine is a structured equipment record looked up for the system prompt.
type Machine struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// ConversationContext is derived fresh per request from the recent history
// turns plus the current question. Never persisted.
type ConversationContext struct {
	MentionedDocuments []string `json:"mentionedDocuments"`
	MentionedMachines  []string `json:"mentionedMachines"`
	HasVagueReference  bool     `json:"hasVagueReference"`
	ResolvedQuestion   string   `json:"resolvedQuestion"`
}

// Intent flags are derived independently from pattern tests; multiple may be
// true. WantsAllDocs dominates WantsDocument during document selection.
type Intent struct {
	WantsDocument        bool `json:"wantsDocument"`
	WantsAllDocs         bool `json:"wantsAllDocs"`
	IsGreeting           bool `json:"isGreeting"`
	WantsDocumentSummary bool `json:"wantsDocumentSummary"`
}

// AnswerRequest is the input of the produced Answer operation.
type AnswerRequest struct {
	Question       string `json:"question"`
	TenantID       string `json:"organizationId"`
	UserID         string `json:"userId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`

	// BearerToken authorizes the caller for the tenant. Verified before any
	// retrieval or paid API work starts.
	BearerToken string `json:"-"`
}

// AnswerMetadata is observability data surfaced alongside the answer.
type AnswerMetadata struct {
	RequestID          string   `json:"requestId"`
	ResolvedQuestion   string   `json:"resolvedQuestion"`
	Intent             Intent   `json:"intent"`
	MentionedDocuments []string `json:"mentionedDocuments"`
	MentionedMachines  []string `json:"mentionedMachines"`
	SearchTerms        []string `json:"searchTerms"`
	CandidateDocuments int      `json:"candidateDocuments"`
	ToolCalls          int      `json:"toolCalls"`
	DurationMs         int64    `json:"durationMs"`
}

// AnswerResult is what the core returns to its caller.
type AnswerResult struct {
	Text              string         `json:"text"`
	Usage             llm.Usage      `json:"usage"`
	AttachedDocuments []DocumentLink `json:"attachedDocuments"`
	Metadata          AnswerMetadata `json:"metadata"`
}

// UsageEvent is the best-effort per-request accounting record.
type UsageEvent struct {
	RequestID        string  `json:"requestId"`
	EventType        string  `json:"eventType"`
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
	TotalTokens      int     `json:"totalTokens"`
	CostUSD          float64 `json:"costUsd"`
	DurationMs       int64   `json:"durationMs"`
	QuestionLength   int     `json:"questionLength"`
	ResponseLength   int     `json:"responseLength"`
}
