package chat

import (
	"regexp"
	"strings"

	"github.com/doczoek/chat-core/llm"
)

// Each intent rule is a named predicate with its own pattern so locale or
// wording changes stay local and independently testable.
var (
	greetingPattern = regexp.MustCompile(`(?i)^\s*(hoi|hallo|hey|hi|goedemorgen|goedemiddag|goedenavond|goeiedag)[\s!?.]*$`)

	imperativeVerbPattern = regexp.MustCompile(`(?i)\b(stuur|verstuur|zend|geef|toon|laat|mail|deel)\b`)

	allWordsPattern = regexp.MustCompile(`(?i)\b(alle|alles|allemaal)\b`)

	docTypeNounPattern = regexp.MustCompile(`(?i)\b(document(en)?|schema('s)?|handleiding(en)?|tekening(en)?|pdf('s)?|factu(ur|ren)|rapport(en)?|offertes?|bestand(en)?)\b`)

	shortAffirmativePattern = regexp.MustCompile(`(?i)^\s*(ja\s+graag|doe\s+maar|ga\s+door|is\s+goed|ja|graag|ok(é|e)?|prima|jazeker|yes)[\s!?.]*$`)

	summaryPattern = regexp.MustCompile(`(?i)\b(samenvatting|samenvatten|samengevat|vat\s+\S+\s+samen)\b`)
)

func isGreeting(question string) bool {
	return greetingPattern.MatchString(question)
}

func wantsAllDocuments(question string) bool {
	return imperativeVerbPattern.MatchString(question) &&
		allWordsPattern.MatchString(question) &&
		docTypeNounPattern.MatchString(question)
}

func wantsDocument(question string) bool {
	return imperativeVerbPattern.MatchString(question) &&
		docTypeNounPattern.MatchString(question)
}

func wantsDocumentSummary(question string) bool {
	return summaryPattern.MatchString(question)
}

func isShortAffirmative(question string) bool {
	return shortAffirmativePattern.MatchString(question)
}

// historyMentionsDocument reports whether either of the last two history
// messages mentioned a document-type noun or a filename.
func historyMentionsDocument(history []llm.Message) bool {
	for _, msg := range lastN(history, 2) {
		if docTypeNounPattern.MatchString(msg.Content) || filenamePattern.MatchString(msg.Content) {
			return true
		}
	}
	return false
}

// ClassifyIntent derives the intent flags from the question and recent
// history. Flags are independent; several may be true at once.
func ClassifyIntent(question string, history []llm.Message) Intent {
	intent := Intent{
		IsGreeting:           isGreeting(question),
		WantsAllDocs:         wantsAllDocuments(question),
		WantsDocument:        wantsDocument(question),
		WantsDocumentSummary: wantsDocumentSummary(question),
	}

	// Short follow-up after a document mention counts as an implicit request.
	if !intent.WantsDocument && isShortAffirmative(question) && historyMentionsDocument(history) {
		intent.WantsDocument = true
	}

	return intent
}

// docVocabulary is the fixed single-keyword vocabulary for search-term
// extraction.
var docVocabulary = []string{
	"document", "schema", "handleiding", "tekening", "pdf",
	"factuur", "rapport", "offerte", "bestand",
}

var invoiceNumberPattern = regexp.MustCompile(`(?i)\bF\d{4}-\d+\b`)

// ExtractSearchTerms pulls exact-match candidates out of free text: invoice
// numbers (three normalized variants each), equipment identifiers and
// document-type keywords.
func ExtractSearchTerms(text string) []string {
	var terms []string
	seen := make(map[string]struct{})
	add := func(t string) {
		key := strings.ToLower(t)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		terms = append(terms, t)
	}

	for _, m := range invoiceNumberPattern.FindAllString(text, -1) {
		add(m)
		add(m[1:]) // without the letter prefix
		add(strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m)) // digits only
	}

	for _, id := range extractMachineIDs(text) {
		add(id)
	}

	lower := strings.ToLower(text)
	for _, word := range docVocabulary {
		if strings.Contains(lower, word) {
			add(word)
		}
	}

	return terms
}
