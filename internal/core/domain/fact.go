package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Fact is a (subject, predicate, object) triple extracted from section
// text or a proposed diff. Canonicalization makes equivalent values
// hash-equal so duplicates and conflicts can be detected across files.
type Fact struct {
	// Subject is the trimmed left-hand side of the statement.
	Subject string `json:"subject"`

	// Predicate is the relation; the extractor always emits "is".
	Predicate string `json:"predicate"`

	// Object is the trimmed right-hand side of the statement.
	Object string `json:"object"`

	// File is where the fact was found.
	File string `json:"file"`

	// Heading is the section heading, when known.
	Heading string `json:"heading,omitempty"`

	// LineStart and LineEnd locate the fact in the source.
	LineStart int `json:"line_start,omitempty"`
	LineEnd   int `json:"line_end,omitempty"`

	// NormalizedKey is normalize(subject) + "::" + normalize(predicate).
	NormalizedKey string `json:"normalized_key"`

	// CanonicalObject is canonicalize(object).
	CanonicalObject string `json:"canonical_object"`

	// Hash is a stable digest of the canonical triple.
	Hash string `json:"hash"`
}

// Duplicate pairs a newly seen fact with an existing fact that shares
// its full canonical triple.
type Duplicate struct {
	Existing  Fact `json:"existing"`
	Duplicate Fact `json:"duplicate"`
}

// Conflict pairs a newly seen fact with an existing fact that shares
// its (subject, predicate) key but disagrees on the canonical object.
type Conflict struct {
	Existing    Fact   `json:"existing"`
	Conflicting Fact   `json:"conflicting"`
	Reason      string `json:"reason"`
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	numericRe    = regexp.MustCompile(`^[0-9][0-9,\s]*$`)
)

// NormalizeFactText lowercases, normalizes line endings and collapses
// runs of whitespace to single spaces.
func NormalizeFactText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return whitespaceRe.ReplaceAllString(s, " ")
}

// CanonicalizeObject normalizes an object value and additionally maps
// numeric strings (allowing thousands-separator commas and embedded
// spaces) to their plain decimal form, and true/false to lowercase.
func CanonicalizeObject(s string) string {
	n := NormalizeFactText(s)
	if numericRe.MatchString(n) {
		n = strings.ReplaceAll(n, ",", "")
		n = strings.ReplaceAll(n, " ", "")
		return n
	}
	switch n {
	case "true", "false":
		return n
	}
	return n
}

// FactKey builds the index key for a subject/predicate pair.
func FactKey(subject, predicate string) string {
	return NormalizeFactText(subject) + "::" + NormalizeFactText(predicate)
}

// FactHash digests the canonical triple. Two facts hash equal exactly
// when their normalized subjects and predicates and canonical objects
// all agree.
func FactHash(subject, predicate, object string) string {
	h := sha256.New()
	h.Write([]byte(NormalizeFactText(subject)))
	h.Write([]byte("|"))
	h.Write([]byte(NormalizeFactText(predicate)))
	h.Write([]byte("|"))
	h.Write([]byte(CanonicalizeObject(object)))
	return hex.EncodeToString(h.Sum(nil))
}

// NewFact constructs a Fact with its derived key, canonical object and
// hash filled in.
func NewFact(subject, predicate, object, file, heading string, lineStart, lineEnd int) Fact {
	return Fact{
		Subject:         subject,
		Predicate:       predicate,
		Object:          object,
		File:            file,
		Heading:         heading,
		LineStart:       lineStart,
		LineEnd:         lineEnd,
		NormalizedKey:   FactKey(subject, predicate),
		CanonicalObject: CanonicalizeObject(object),
		Hash:            FactHash(subject, predicate, object),
	}
}
