package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/doczoek/chat-core/llm"
	"go.uber.org/zap"
)

// retrieval parameters.
const (
	semanticMatchCount = 10   // top-K sections requested from the vector store
	semanticThreshold  = 0.25 // minimum similarity for semantic hits
	keywordHitLimit    = 5    // substring hits per search term
	maxSections        = 5    // sections surviving the merge
	maxSectionChars    = 1200 // content clamp per section
	dedupPrefixChars   = 200  // identity key length for deduplication

	// keywordMatchSimilarity is assigned to exact substring hits. It is a
	// ranking knob, not a probability: it only needs to sit above any plausible
	// semantic score so exact matches outrank fuzzy ones in the merge.
	keywordMatchSimilarity = 0.9
)

const unknownDocName = "Onbekend document"

type Retriever struct {
	embedder Embedder
	searcher SectionSearcher
	finder   SectionFinder
	docs     DocumentStore
	tracker  UsageTracker
}

func NewRetriever(embedder Embedder, searcher SectionSearcher, finder SectionFinder, docs DocumentStore, tracker UsageTracker) *Retriever {
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		finder:   finder,
		docs:     docs,
		tracker:  tracker,
	}
}

// Retrieve runs the semantic and keyword searches for query in parallel,
// merges the hits keyword-first, and serializes the survivors into the
// context block the completion model cites against.
//
// Embedding and vector-search errors propagate; keyword-search and
// metadata-lookup errors degrade to empty results.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string) (string, []RetrievedSection, error) {
	semanticTask := r.semanticSearch(ctx, tenantID, query)
	keywordTask := r.keywordSearch(ctx, tenantID, query)

	branches, err := async.AwaitAll(semanticTask, keywordTask)
	if err != nil {
		return "", nil, err
	}
	semanticHits, keywordHits := branches[0], branches[1]

	// Keyword hits go first so exact matches win the dedup.
	merged := r.resolveSections(ctx, tenantID, append(keywordHits, semanticHits...))

	sections := dedupeAndCap(merged)
	return serializeSections(sections), sections, nil
}

func (r *Retriever) semanticSearch(ctx context.Context, tenantID, query string) <-chan async.Result[[]SectionHit] {
	return async.Go(func() ([]SectionHit, error) {
		embedding, usage, err := r.embedder.GetEmbedding(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("error getting query embedding: %w", err)
		}
		r.trackEmbeddingUsage(ctx, tenantID, query, usage)

		hits, err := r.searcher.MatchSections(ctx, tenantID, embedding, semanticMatchCount, semanticThreshold)
		if err != nil {
			return nil, fmt.Errorf("error matching sections: %w", err)
		}
		return hits, nil
	})
}

// keywordSearch never fails the retrieval: errors are logged and the branch
// contributes zero hits.
func (r *Retriever) keywordSearch(ctx context.Context, tenantID, query string) <-chan async.Result[[]SectionHit] {
	return async.Go(func() ([]SectionHit, error) {
		var hits []SectionHit
		for _, term := range structuredSearchTerms(query) {
			termHits, err := r.finder.FindSectionsByContent(ctx, tenantID, term, keywordHitLimit)
			if err != nil {
				logger.Error("keyword search failed", zap.String("term", term), zap.Error(err))
				continue
			}
			for _, h := range termHits {
				h.Similarity = keywordMatchSimilarity
				hits = append(hits, h)
			}
		}
		return hits, nil
	})
}

// structuredSearchTerms keeps only exact-match candidates: identifiers that
// carry digits. Bare vocabulary words would flood the substring search.
func structuredSearchTerms(query string) []string {
	var terms []string
	for _, t := range ExtractSearchTerms(query) {
		if strings.ContainsAny(t, "0123456789") {
			terms = append(terms, t)
		}
	}
	return terms
}

// resolveSections attaches document names and page numbers in one batched
// lookup. Lookup failures leave names unresolved, never fail the retrieval.
func (r *Retriever) resolveSections(ctx context.Context, tenantID string, hits []SectionHit) []RetrievedSection {
	var docIDs []string
	seenIDs := make(map[string]struct{})
	for _, h := range hits {
		if h.DocumentID == "" {
			continue
		}
		if _, ok := seenIDs[h.DocumentID]; ok {
			continue
		}
		seenIDs[h.DocumentID] = struct{}{}
		docIDs = append(docIDs, h.DocumentID)
	}

	namesByID := make(map[string]string)
	if len(docIDs) > 0 {
		docs, err := r.docs.GetDocumentsByIDs(ctx, tenantID, docIDs)
		if err != nil {
			logger.Error("document name lookup failed", zap.Error(err))
		}
		for _, d := range docs {
			namesByID[d.ID] = d.Name
		}
	}

	sections := make([]RetrievedSection, 0, len(hits))
	for _, h := range hits {
		name := namesByID[h.DocumentID]
		if name == "" {
			name = unknownDocName
		}
		sections = append(sections, RetrievedSection{
			ID:         h.ID,
			DocumentID: h.DocumentID,
			Content:    clampRunes(h.Content, maxSectionChars),
			Metadata:   h.Metadata,
			Similarity: h.Similarity,
			DocName:    name,
			Page:       pageFromMetadata(h.Metadata),
		})
	}
	return sections
}

// dedupeAndCap drops sections sharing a content-prefix identity key with an
// earlier one, then truncates to the cap. Order is preserved, so keyword hits
// placed first survive a collision with semantic hits.
func dedupeAndCap(sections []RetrievedSection) []RetrievedSection {
	seen := make(map[string]struct{}, len(sections))
	out := make([]RetrievedSection, 0, maxSections)
	for _, s := range sections {
		key := clampRunes(s.Content, dedupPrefixChars)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == maxSections {
			break
		}
	}
	return out
}

// serializeSections renders the two-line-per-source context format.
func serializeSections(sections []RetrievedSection) string {
	blocks := make([]string, 0, len(sections))
	for _, s := range sections {
		source := s.DocName
		if s.Page != "" {
			source += " (p." + s.Page + ")"
		}
		blocks = append(blocks, "Source: "+source+"\nContent: "+s.Content)
	}
	return strings.Join(blocks, "\n\n")
}

func pageFromMetadata(metadata map[string]any) string {
	for _, key := range []string{"page", "pagina", "page_number"} {
		if v, ok := metadata[key]; ok && v != nil {
			switch n := v.(type) {
			case float64:
				return fmt.Sprintf("%d", int(n))
			default:
				return fmt.Sprintf("%v", n)
			}
		}
	}
	return ""
}

func clampRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// trackEmbeddingUsage is strictly best-effort.
func (r *Retriever) trackEmbeddingUsage(ctx context.Context, tenantID, query string, usage llm.Usage) {
	if r.tracker == nil {
		return
	}
	err := r.tracker.TrackUsage(ctx, tenantID, UsageEvent{
		EventType:      "embedding",
		PromptTokens:   usage.PromptTokens,
		TotalTokens:    usage.TotalTokens,
		QuestionLength: len(query),
	})
	if err != nil {
		logger.Error("failed to track embedding usage", zap.Error(err))
	}
}
