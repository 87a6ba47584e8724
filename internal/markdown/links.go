package markdown

// WarningReason classifies a link-resolution warning.
type WarningReason string

const (
	// ReasonOutsideRoot marks a relative target that resolves above the
	// source root. The target is left untouched.
	ReasonOutsideRoot WarningReason = "outside_root"

	// ReasonMissingTarget marks a Markdown target that resolves inside the
	// tree but matches no known source document. The link is still rewritten.
	ReasonMissingTarget WarningReason = "missing_target"
)

// Warning is a non-fatal diagnostic produced while rewriting one document.
// Warnings are collected into the compile report; they never abort a pass.
type Warning struct {
	Doc    string // source-relative path of the document containing the link
	Target string // the raw link target as written
	Reason WarningReason
}

func (w Warning) String() string {
	return w.Doc + ": link target " + w.Target + " (" + string(w.Reason) + ")"
}
