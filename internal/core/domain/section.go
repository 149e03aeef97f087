package domain

import "time"

// Section represents a Markdown subtree rooted at one heading, up to but
// not including the next heading. It is the canonical unit produced by
// the corpus parser.
type Section struct {
	// File is the path relative to the corpus root, forward slashes.
	File string

	// Release is the version token from the filename prefix (e.g. "R1").
	Release string

	// DocType is the uppercase token after the release prefix
	// (e.g. "ARCHITECTURE", "SERVICE_CONTRACTS").
	DocType string

	// Heading is the heading text without the leading '#' markers.
	Heading string

	// Content is the trimmed body between this heading and the next.
	Content string

	// LineStart is the 1-based line of the heading in the source file.
	LineStart int

	// LineEnd is the 1-based last line belonging to this section.
	LineEnd int
}

// DocIndex is a parsed snapshot of a corpus root.
// Sections are owned by the index; callers must not mutate them.
type DocIndex struct {
	// Sections holds all parsed sections in file walk order.
	Sections []Section

	// Fingerprint is a hex digest over the sorted (path, mtime) set
	// plus the root path. Any file add, remove, rename or rewrite
	// under the root changes it.
	Fingerprint string

	// BuiltAt is when this index was built.
	BuiltAt time.Time

	// FileCount is the number of Markdown files that contributed.
	FileCount int
}
