package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/doczoek/chat-core/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	callCount int
	err       error
}

func (f *fakeEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, llm.Usage, error) {
	f.callCount++
	if f.err != nil {
		return nil, llm.Usage{}, f.err
	}
	return []float32{0.1, 0.2, 0.3}, llm.Usage{PromptTokens: 4, TotalTokens: 4}, nil
}

type fakeSearcher struct {
	hits []SectionHit
	err  error
}

func (f *fakeSearcher) MatchSections(ctx context.Context, tenantID string, embedding []float32, matchCount int, threshold float64) ([]SectionHit, error) {
	return f.hits, f.err
}

type fakeFinder struct {
	hits  map[string][]SectionHit
	err   error
	terms []string
}

func (f *fakeFinder) FindSectionsByContent(ctx context.Context, tenantID, pattern string, limit int) ([]SectionHit, error) {
	f.terms = append(f.terms, pattern)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[pattern], nil
}

type fakeDocStore struct {
	docsByID   map[string]Document
	candidates []Document
	err        error
}

func (f *fakeDocStore) GetDocumentsByIDs(ctx context.Context, tenantID string, ids []string) ([]Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var docs []Document
	for _, id := range ids {
		if d, ok := f.docsByID[id]; ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (f *fakeDocStore) GetDocumentsByNamePattern(ctx context.Context, tenantID, pattern string, onlyRAGEnabled bool, limit int) ([]Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeTracker struct {
	events []UsageEvent
	err    error
}

func (f *fakeTracker) TrackUsage(ctx context.Context, tenantID string, event UsageEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func newTestRetriever(searcher *fakeSearcher, finder *fakeFinder, docs *fakeDocStore) (*Retriever, *fakeEmbedder, *fakeTracker) {
	embedder := &fakeEmbedder{}
	tracker := &fakeTracker{}
	if finder.hits == nil {
		finder.hits = map[string][]SectionHit{}
	}
	if docs.docsByID == nil {
		docs.docsByID = map[string]Document{}
	}
	return NewRetriever(embedder, searcher, finder, docs, tracker), embedder, tracker
}

func TestRetrieveKeywordHitOutranksSemantic(t *testing.T) {
	searcher := &fakeSearcher{hits: []SectionHit{
		{ID: "s1", DocumentID: "d1", Content: "Factuur F2025-60 voor de pomp", Similarity: 0.41},
	}}
	finder := &fakeFinder{hits: map[string][]SectionHit{
		"F2025-60": {{ID: "k1", DocumentID: "d1", Content: "Factuur F2025-60 voor de pomp"}},
	}}
	docs := &fakeDocStore{docsByID: map[string]Document{
		"d1": {ID: "d1", Name: "Factuur F2025-60.pdf"},
	}}
	retriever, _, _ := newTestRetriever(searcher, finder, docs)

	_, sections, err := retriever.Retrieve(context.Background(), "tenant-a", "stuur factuur F2025-60")

	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "k1", sections[0].ID)
	assert.Equal(t, keywordMatchSimilarity, sections[0].Similarity)
	assert.Contains(t, finder.terms, "F2025-60")
}

func TestRetrieveCapsSections(t *testing.T) {
	var hits []SectionHit
	for i := 0; i < 8; i++ {
		hits = append(hits, SectionHit{
			ID:         fmt.Sprintf("s%d", i),
			DocumentID: "d1",
			Content:    fmt.Sprintf("sectie %d over de installatie", i),
			Similarity: 0.5,
		})
	}
	retriever, _, _ := newTestRetriever(&fakeSearcher{hits: hits}, &fakeFinder{}, &fakeDocStore{})

	_, sections, err := retriever.Retrieve(context.Background(), "tenant-a", "hoe werkt de installatie?")

	require.NoError(t, err)
	assert.Len(t, sections, maxSections)
}

func TestRetrieveClampsContent(t *testing.T) {
	long := strings.Repeat("a", maxSectionChars+500)
	retriever, _, _ := newTestRetriever(
		&fakeSearcher{hits: []SectionHit{{ID: "s1", DocumentID: "d1", Content: long, Similarity: 0.5}}},
		&fakeFinder{}, &fakeDocStore{})

	_, sections, err := retriever.Retrieve(context.Background(), "tenant-a", "lang verhaal")

	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Len(t, sections[0].Content, maxSectionChars)
}

func TestRetrieveSerialization(t *testing.T) {
	searcher := &fakeSearcher{hits: []SectionHit{
		{ID: "s1", DocumentID: "d1", Content: "De voeding zit linksboven.", Metadata: map[string]any{"page": float64(3)}, Similarity: 0.6},
	}}
	docs := &fakeDocStore{docsByID: map[string]Document{
		"d1": {ID: "d1", Name: "VM04.pdf"},
	}}
	retriever, _, _ := newTestRetriever(searcher, &fakeFinder{}, docs)

	serialized, _, err := retriever.Retrieve(context.Background(), "tenant-a", "waar zit de voeding?")

	require.NoError(t, err)
	assert.Equal(t, "Source: VM04.pdf (p.3)\nContent: De voeding zit linksboven.", serialized)
}

func TestRetrieveEmbeddingErrorPropagates(t *testing.T) {
	retriever, embedder, _ := newTestRetriever(&fakeSearcher{}, &fakeFinder{}, &fakeDocStore{})
	embedder.err = errors.New("embedding api down")

	_, _, err := retriever.Retrieve(context.Background(), "tenant-a", "vraag")

	assert.Error(t, err)
}

func TestRetrieveKeywordErrorDegrades(t *testing.T) {
	searcher := &fakeSearcher{hits: []SectionHit{
		{ID: "s1", DocumentID: "d1", Content: "inhoud over F2025-60", Similarity: 0.5},
	}}
	finder := &fakeFinder{err: errors.New("substring search down")}
	retriever, _, _ := newTestRetriever(searcher, finder, &fakeDocStore{})

	_, sections, err := retriever.Retrieve(context.Background(), "tenant-a", "factuur F2025-60")

	require.NoError(t, err)
	assert.Len(t, sections, 1)
}

func TestRetrieveUnknownDocumentName(t *testing.T) {
	searcher := &fakeSearcher{hits: []SectionHit{
		{ID: "s1", DocumentID: "missing", Content: "zwevende sectie", Similarity: 0.5},
	}}
	retriever, _, _ := newTestRetriever(searcher, &fakeFinder{}, &fakeDocStore{})

	_, sections, err := retriever.Retrieve(context.Background(), "tenant-a", "vraag")

	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, unknownDocName, sections[0].DocName)
}

func TestRetrieveTracksEmbeddingUsage(t *testing.T) {
	retriever, _, tracker := newTestRetriever(&fakeSearcher{}, &fakeFinder{}, &fakeDocStore{})

	_, _, err := retriever.Retrieve(context.Background(), "tenant-a", "vraag")

	require.NoError(t, err)
	require.Len(t, tracker.events, 1)
	assert.Equal(t, "embedding", tracker.events[0].EventType)
	assert.Equal(t, 4, tracker.events[0].TotalTokens)
}
