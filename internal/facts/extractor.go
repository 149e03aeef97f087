// Package facts extracts subject-predicate-object triples from corpus
// sections and proposed diffs, and indexes them for duplicate and
// conflict detection.
package facts

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

// factLineRe matches "subject <sep> object" statements. The subject may
// not start with a separator or '#', may not contain a separator, and
// is capped at 200 characters.
var factLineRe = regexp.MustCompile(`^([^:#=\-][^:=\-]{0,199}?)\s*[:=\-]\s*(.+)$`)

// Extractor pulls facts out of Markdown text.
type Extractor struct{}

// NewExtractor creates a fact extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromMarkdown scans content line by line and returns every fact
// found. Headings and comments are skipped. The predicate is always the
// literal "is"; lineOffset positions facts within the source file.
func (e *Extractor) ExtractFromMarkdown(content, file, heading string, lineOffset int) []domain.Fact {
	if lineOffset <= 0 {
		lineOffset = 1
	}

	var out []domain.Fact
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "<!--") {
			continue
		}

		m := factLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		subject := strings.TrimSpace(m[1])
		object := strings.TrimSpace(m[2])
		if subject == "" || object == "" {
			continue
		}

		line := lineOffset + i
		out = append(out, domain.NewFact(subject, "is", object, file, heading, line, line))
	}
	return out
}

// ExtractFromDiff strips unified-diff prefixes and extracts facts from
// the remaining text. Added and context lines contribute; removed lines
// keep their '-' prefix and are rejected by the subject rule. A fact
// stated on several lines of one payload is returned once; the index
// handles duplicates against the corpus.
func (e *Extractor) ExtractFromDiff(diff, file string) []domain.Fact {
	lines := strings.Split(diff, "\n")
	stripped := make([]string, len(lines))
	for i, line := range lines {
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, " ") {
			stripped[i] = line[1:]
		} else {
			stripped[i] = line
		}
	}

	extracted := e.ExtractFromMarkdown(strings.Join(stripped, "\n"), file, "", 1)
	seen := make(map[string]bool, len(extracted))
	out := extracted[:0]
	for _, fact := range extracted {
		if seen[fact.Hash] {
			continue
		}
		seen[fact.Hash] = true
		out = append(out, fact)
	}
	return out
}
