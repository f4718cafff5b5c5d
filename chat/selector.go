package chat

import (
	"path"
	"regexp"
	"strings"
)

var (
	schemaRequestPattern = regexp.MustCompile(`(?i)\b(schema('s)?|aansluitschema|bedrading(sschema)?|bekabeling|elektrisch[e]?)\b`)
	billingDocPattern    = regexp.MustCompile(`(?i)(factu|offerte)`)
)

// SelectDocuments picks the candidate documents to attach to an answer.
// Tie-break policy, first non-empty result wins:
//  1. wantsAll returns everything
//  2. filename tokens in the question
//  3. fuzzy base-name match
//  4. schema request scored against known machine IDs
//  5. the single best guess (first candidate)
//
// An empty candidate list always yields an empty result.
func SelectDocuments(question string, candidates []Document, wantsAll bool, knownMachineIDs []string) []Document {
	if len(candidates) == 0 {
		return nil
	}

	if wantsAll {
		return candidates
	}

	if matched := matchByFilename(question, candidates); len(matched) > 0 {
		return matched
	}

	if matched := matchByBaseName(question, candidates); len(matched) > 0 {
		return matched
	}

	if matched := matchSchemaByMachine(question, candidates, knownMachineIDs); len(matched) > 0 {
		return matched
	}

	// Last resort: never empty for a non-empty candidate list.
	return candidates[:1]
}

// matchByFilename matches candidates against filename-shaped tokens in the
// question, and against names quoted verbatim in it.
func matchByFilename(question string, candidates []Document) []Document {
	tokens := filenamePattern.FindAllString(question, -1)
	normQuestion := normalizeName(question)

	var matched []Document
	for _, cand := range candidates {
		name := normalizeName(cand.Name)
		base := normalizeName(baseName(cand.Name))

		hit := false
		for _, tok := range tokens {
			t := normalizeName(tok)
			if strings.Contains(name, t) || strings.Contains(t, name) {
				hit = true
				break
			}
		}
		if !hit && name != "" && (strings.Contains(normQuestion, name) || (base != "" && strings.Contains(normQuestion, base))) {
			hit = true
		}

		if hit {
			matched = append(matched, cand)
		}
	}
	return matched
}

// matchByBaseName matches candidate base names (length > 3, to avoid false
// positives on short names) against the question, both with and without
// internal whitespace.
func matchByBaseName(question string, candidates []Document) []Document {
	normQuestion := normalizeName(question)
	compactQuestion := strings.ReplaceAll(normQuestion, " ", "")

	var matched []Document
	for _, cand := range candidates {
		base := normalizeName(baseName(cand.Name))
		if len(base) <= 3 {
			continue
		}

		compactBase := strings.ReplaceAll(base, " ", "")
		if strings.Contains(normQuestion, base) || strings.Contains(compactQuestion, compactBase) {
			matched = append(matched, cand)
		}
	}
	return matched
}

// matchSchemaByMachine scores candidates for wiring/electrical schema
// requests: known machine IDs in the name score up, schema-named documents
// score up, billing documents are actively de-ranked. All candidates tied at
// the top score win, provided that score is positive.
func matchSchemaByMachine(question string, candidates []Document, knownMachineIDs []string) []Document {
	if !schemaRequestPattern.MatchString(question) || len(knownMachineIDs) == 0 {
		return nil
	}

	best := 0
	scores := make([]int, len(candidates))
	for i, cand := range candidates {
		compact := strings.ToUpper(strings.ReplaceAll(normalizeName(cand.Name), " ", ""))

		score := 0
		for _, id := range knownMachineIDs {
			if strings.Contains(compact, id) {
				score += 3
			}
		}
		if schemaRequestPattern.MatchString(cand.Name) {
			score += 2
		}
		if billingDocPattern.MatchString(cand.Name) {
			score -= 2
		}

		scores[i] = score
		if score > best {
			best = score
		}
	}

	if best <= 0 {
		return nil
	}

	var matched []Document
	for i, cand := range candidates {
		if scores[i] == best {
			matched = append(matched, cand)
		}
	}
	return matched
}

// normalizeName lowercases and collapses internal whitespace.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// baseName strips the extension from a document name.
func baseName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext)
}
