package chat

import (
	"context"

	"github.com/doczoek/chat-core/llm"
)

// SectionHit is a raw row from the section store, before document names are
// resolved.
type SectionHit struct {
	ID         string
	DocumentID string
	Content    string
	Metadata   map[string]any
	Similarity float64
}

// SectionSearcher performs the tenant-scoped nearest-neighbor search.
// Implementations must absorb historical parameter-shape differences of the
// backing RPC; callers never see the retry mechanics.
type SectionSearcher interface {
	MatchSections(ctx context.Context, tenantID string, embedding []float32, matchCount int, threshold float64) ([]SectionHit, error)
}

// SectionFinder performs the case-insensitive substring search over section
// content, scoped to a tenant.
type SectionFinder interface {
	FindSectionsByContent(ctx context.Context, tenantID, pattern string, limit int) ([]SectionHit, error)
}

type DocumentStore interface {
	// GetDocumentsByIDs resolves document metadata in one batched lookup.
	GetDocumentsByIDs(ctx context.Context, tenantID string, ids []string) ([]Document, error)
	GetDocumentsByNamePattern(ctx context.Context, tenantID, pattern string, onlyRAGEnabled bool, limit int) ([]Document, error)
}

type MachineStore interface {
	// GetMachineByCode returns nil without error when no record exists.
	GetMachineByCode(ctx context.Context, tenantID, code string) (*Machine, error)
}

type HistoryStore interface {
	// LoadRecentMessages returns messages newest-first, as stored. The core
	// reverses them at the boundary.
	LoadRecentMessages(ctx context.Context, tenantID, userID, conversationID string, limit int) ([]llm.Message, error)
}

// URLSigner issues a time-limited signed URL for a private storage path.
// Implementations fall back to the raw path when signing fails, so callers
// never receive an empty URL for a resolved document.
type URLSigner interface {
	SignObjectURL(ctx context.Context, storagePath string, ttlSeconds int) string
}

// UsageTracker records token counts and derived cost. Strictly best-effort:
// callers log failures and move on.
type UsageTracker interface {
	TrackUsage(ctx context.Context, tenantID string, event UsageEvent) error
}

// Authorizer checks that the bearer token is entitled to the tenant. Runs
// before any paid API call.
type Authorizer interface {
	VerifyUser(ctx context.Context, bearerToken, tenantID string) (userID string, err error)
}

// Embedder is re-exported here so the core only depends on ports.
type Embedder = llm.Embedder
