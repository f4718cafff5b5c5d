package chat

import (
	"testing"

	"github.com/doczoek/chat-core/llm"
	"github.com/stretchr/testify/assert"
)

func TestClassifyIntentGreeting(t *testing.T) {
	intent := ClassifyIntent("hoi", nil)

	assert.True(t, intent.IsGreeting)
	assert.False(t, intent.WantsDocument)
}

func TestClassifyIntentGreetingWithPunctuation(t *testing.T) {
	assert.True(t, ClassifyIntent("Goedemorgen!", nil).IsGreeting)
}

func TestClassifyIntentGreetingEmbeddedInQuestionIsNotGreeting(t *testing.T) {
	intent := ClassifyIntent("hoi, kun je me het schema sturen?", nil)

	assert.False(t, intent.IsGreeting)
}

func TestClassifyIntentWantsAllDocs(t *testing.T) {
	intent := ClassifyIntent("stuur me alle documenten", nil)

	assert.True(t, intent.WantsAllDocs)
	assert.True(t, intent.WantsDocument)
}

func TestClassifyIntentWantsDocument(t *testing.T) {
	intent := ClassifyIntent("stuur factuur F2025-60", nil)

	assert.True(t, intent.WantsDocument)
	assert.False(t, intent.WantsAllDocs)
}

func TestClassifyIntentFollowUpAfterDocumentMention(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "heb je het schema van de VM04?"},
		{Role: "assistant", Content: "Ja, ik heb het schema gevonden. Wil je het ontvangen?"},
	}

	intent := ClassifyIntent("ja graag", history)

	assert.True(t, intent.WantsDocument)
}

func TestClassifyIntentShortAffirmativeWithoutDocumentMention(t *testing.T) {
	history := []llm.Message{
		{Role: "assistant", Content: "De storing zit waarschijnlijk in de voeding."},
	}

	intent := ClassifyIntent("ja graag", history)

	assert.False(t, intent.WantsDocument)
}

func TestClassifyIntentSummary(t *testing.T) {
	intent := ClassifyIntent("kun je een samenvatting geven van de handleiding?", nil)

	assert.True(t, intent.WantsDocumentSummary)
}

func TestExtractSearchTermsInvoiceVariants(t *testing.T) {
	terms := ExtractSearchTerms("stuur factuur F2025-60")

	assert.Contains(t, terms, "F2025-60")
	assert.Contains(t, terms, "2025-60")
	assert.Contains(t, terms, "202560")
	assert.Contains(t, terms, "factuur")
}

func TestExtractSearchTermsMachineIDs(t *testing.T) {
	terms := ExtractSearchTerms("wat is het schema van de VM-04?")

	assert.Contains(t, terms, "VM04")
	assert.Contains(t, terms, "schema")
}

func TestExtractSearchTermsDeduplicates(t *testing.T) {
	terms := ExtractSearchTerms("factuur F2025-60 en nogmaals factuur F2025-60")

	seen := make(map[string]int)
	for _, term := range terms {
		seen[term]++
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "term %q appears more than once", term)
	}
}
