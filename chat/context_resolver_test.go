package chat

import (
	"strings"
	"testing"

	"github.com/doczoek/chat-core/llm"
	"github.com/stretchr/testify/assert"
)

func TestBuildContextVagueFollowUp(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "wat staat er in VM04.pdf?"},
		{Role: "assistant", Content: "VM04.pdf beschrijft het aansluitschema van de VM04."},
	}

	ctx := BuildContext(history, "stuur dat schema")

	assert.True(t, ctx.HasVagueReference)
	assert.Contains(t, ctx.MentionedDocuments, "VM04.pdf")
	assert.Equal(t, "stuur schema VM04.pdf", ctx.ResolvedQuestion)
}

func TestBuildContextNoReferentKeepsQuestion(t *testing.T) {
	ctx := BuildContext(nil, "stuur dat schema")

	assert.True(t, ctx.HasVagueReference)
	assert.Empty(t, ctx.MentionedDocuments)
	assert.Equal(t, "stuur dat schema", ctx.ResolvedQuestion)
}

func TestBuildContextIdempotent(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "heb je de factuur F2025-60 ontvangen?"},
	}

	first := BuildContext(history, "stuur die factuur nog eens")
	second := BuildContext(history, "stuur die factuur nog eens")

	assert.Equal(t, first, second)
}

func TestBuildContextSingleSubstitution(t *testing.T) {
	history := []llm.Message{
		{Role: "assistant", Content: "Ik heb VM04.pdf gevonden."},
	}

	ctx := BuildContext(history, "stuur dat document en ook dat schema")

	// Only the first vague span is replaced.
	count := strings.Count(ctx.ResolvedQuestion, "VM04.pdf")
	assert.Equal(t, 1, count)
	assert.Contains(t, ctx.ResolvedQuestion, "dat schema")
}

func TestBuildContextDocPhraseIdentifier(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "de factuur F2025-60 klopt niet"},
	}

	ctx := BuildContext(history, "waarom niet?")

	assert.Contains(t, ctx.MentionedDocuments, "F2025-60")
}

func TestBuildContextPrefersMostRecentDocument(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "eerst keek ik in oud-schema.pdf"},
		{Role: "assistant", Content: "Daarna vond ik VM04.pdf."},
	}

	ctx := BuildContext(history, "stuur die")

	assert.Equal(t, "stuur VM04.pdf", ctx.ResolvedQuestion)
}

func TestExtractMachineIDs(t *testing.T) {
	ids := extractMachineIDs("het schema van VM-04 en de pomp PMP200, niet VM 04 nog eens")

	assert.Equal(t, []string{"VM04", "PMP200"}, ids)
}

func TestExtractMachineIDsFiltersStopwords(t *testing.T) {
	ids := extractMachineIDs("ik heb 2 vragen over die 3 machines")

	assert.Empty(t, ids)
}
