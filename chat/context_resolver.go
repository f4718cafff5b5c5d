package chat

import (
	"regexp"
	"strings"

	"github.com/doczoek/chat-core/llm"
)

// contextHistoryWindow is how many trailing history messages are scanned for
// mentioned entities.
const contextHistoryWindow = 4

var (
	// filename-shaped tokens with a fixed extension allowlist
	filenamePattern = regexp.MustCompile(`(?i)[\p{L}\d][\p{L}\d_&()-]*\.(?:pdf|xlsx|docx|txt|png|jpe?g)\b`)

	// "<doc-keyword> <identifier>" phrases, e.g. "factuur F2025-60"
	docPhrasePattern = regexp.MustCompile(`(?i)\b(factuur|schema|document|handleiding)\s+([\p{L}\d][\p{L}\d._-]*)`)

	// machine/equipment identifiers: 2-6 letters directly followed by 1-4
	// digits, optionally separated by a space or hyphen
	machineIDPattern = regexp.MustCompile(`\b([A-Za-z]{2,6})[ -]?([0-9]{1,4})\b`)

	// demonstrative/pronoun, optionally followed by a document-type noun.
	// Deliberately loose: a bare "het"/"dat" flags the question even without
	// an antecedent, matching the original behavior.
	vagueReferencePattern = regexp.MustCompile(`(?i)\b(die|dat|deze|dit|het|ze)(\s+(factuur|schema|document|handleiding|tekening|bestand|pdf))?\b`)
)

// identifierStopwords keeps bare prepositions, pronouns and other filler from
// being captured as document identifiers or machine prefixes.
var identifierStopwords = map[string]struct{}{
	"de": {}, "het": {}, "een": {}, "die": {}, "dat": {}, "deze": {}, "dit": {},
	"van": {}, "voor": {}, "met": {}, "aan": {}, "bij": {}, "uit": {}, "over": {},
	"naar": {}, "ook": {}, "nog": {}, "wel": {}, "niet": {}, "even": {},
	"je": {}, "ik": {}, "hij": {}, "zij": {}, "ze": {}, "we": {}, "u": {},
	"mij": {}, "hem": {}, "haar": {}, "is": {}, "zijn": {}, "was": {},
	"heb": {}, "hebben": {}, "kan": {}, "kunnen": {}, "wil": {}, "graag": {},
	"alsjeblieft": {}, "nummer": {}, "factuur": {}, "schema": {},
	"document": {}, "handleiding": {},
}

// BuildContext derives the conversation context from the last few history
// turns plus the current question. Pure function of its inputs: calling it
// twice with the same arguments yields the same result.
func BuildContext(history []llm.Message, question string) ConversationContext {
	window := lastN(history, contextHistoryWindow)

	var docs []string
	seenDocs := make(map[string]struct{})
	addDoc := func(name string) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return
		}
		if _, ok := seenDocs[key]; ok {
			return
		}
		seenDocs[key] = struct{}{}
		docs = append(docs, strings.TrimSpace(name))
	}

	var combined strings.Builder
	for _, msg := range window {
		for _, m := range filenamePattern.FindAllString(msg.Content, -1) {
			addDoc(m)
		}
		for _, m := range docPhrasePattern.FindAllStringSubmatch(msg.Content, -1) {
			ident := m[2]
			if _, stop := identifierStopwords[strings.ToLower(ident)]; stop {
				continue
			}
			addDoc(ident)
		}
		combined.WriteString(msg.Content)
		combined.WriteString(" ")
	}
	combined.WriteString(question)

	machines := extractMachineIDs(combined.String())

	hasVague := vagueReferencePattern.MatchString(question)
	resolved := question
	if hasVague && len(docs) > 0 {
		resolved = substituteVagueReference(question, docs[len(docs)-1])
	}

	return ConversationContext{
		MentionedDocuments: docs,
		MentionedMachines:  machines,
		HasVagueReference:  hasVague,
		ResolvedQuestion:   resolved,
	}
}

// substituteVagueReference replaces only the first vague-reference span with
// the referent, keeping a trailing document-type noun when the pattern
// captured one.
func substituteVagueReference(question, referent string) string {
	loc := vagueReferencePattern.FindStringSubmatchIndex(question)
	if loc == nil {
		return question
	}

	replacement := referent
	// group 3 is the optional trailing document-type noun
	if loc[6] >= 0 {
		noun := question[loc[6]:loc[7]]
		if !strings.Contains(strings.ToLower(referent), strings.ToLower(noun)) {
			replacement = noun + " " + referent
		}
	}

	return question[:loc[0]] + replacement + question[loc[1]:]
}

// extractMachineIDs collects equipment identifiers from free text, uppercased
// and deduplicated, preserving first-seen order.
func extractMachineIDs(text string) []string {
	var ids []string
	seen := make(map[string]struct{})

	for _, m := range machineIDPattern.FindAllStringSubmatch(text, -1) {
		letters, digits := m[1], m[2]
		if _, stop := identifierStopwords[strings.ToLower(letters)]; stop {
			continue
		}
		id := strings.ToUpper(letters + digits)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}
