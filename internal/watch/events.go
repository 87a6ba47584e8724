package watch

// EventKind classifies a file-system change event.
type EventKind string

const (
	Created  EventKind = "created"
	Modified EventKind = "modified"
	Removed  EventKind = "removed"
	Renamed  EventKind = "renamed"
)

// Event is one file-system change inside the source tree. Path is
// slash-separated and relative to the input root.
type Event struct {
	Path string
	Kind EventKind
}
