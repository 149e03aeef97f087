package domain

// UpdateAction distinguishes appending to an existing document from
// creating a new one.
type UpdateAction string

const (
	// ActionUpdate appends the diff to an existing document.
	ActionUpdate UpdateAction = "update"

	// ActionCreate writes the diff as a new document.
	ActionCreate UpdateAction = "create"
)

// UpdateIntent describes a requested corpus edit.
type UpdateIntent struct {
	// Intent is the natural-language description of the change.
	Intent string

	// Context is the body text to record.
	Context string

	// TargetFile overrides target inference when set.
	TargetFile string

	// TargetRelease selects the release prefix (default "R1").
	TargetRelease string
}

// UpdateSuggestion is a proposed corpus edit with its fact-level
// preflight results attached.
type UpdateSuggestion struct {
	// ID identifies the suggestion for logging and follow-up.
	ID string `json:"id"`

	// Action is "update" or "create".
	Action UpdateAction `json:"action"`

	// TargetPath is the absolute path of the file to write.
	TargetPath string `json:"target_path"`

	// Diff is the text that applying the suggestion would add.
	Diff string `json:"diff"`

	// Rationale explains how the target was chosen.
	Rationale string `json:"rationale"`

	// Citations point at sections related to the intent.
	Citations []Citation `json:"citations,omitempty"`

	// Duplicates lists facts in the diff already present with the same
	// canonical triple.
	Duplicates []Duplicate `json:"duplicates,omitempty"`

	// Conflicts lists facts in the diff contradicting existing ones.
	Conflicts []Conflict `json:"conflicts,omitempty"`

	// Blocked is true whenever Conflicts is non-empty.
	Blocked bool `json:"blocked"`
}

// UpdateResult reports the outcome of applying a suggestion.
type UpdateResult struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Path is the file that was (or would have been) written.
	Path string `json:"path"`

	// Reindexed is true when caches were invalidated after the write.
	Reindexed bool `json:"reindexed"`

	// Error carries the failure description for status "error".
	Error string `json:"error,omitempty"`
}
