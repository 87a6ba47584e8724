package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyInput      = "input"
	KeyOutput     = "output"
	KeyBuildID    = "build_id"
	KeyDocuments  = "documents"
	KeyAssets     = "assets"
	KeyWarnings   = "warnings"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Input(dir string) slog.Attr      { return slog.String(KeyInput, dir) }
func Output(dir string) slog.Attr     { return slog.String(KeyOutput, dir) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Documents(n int) slog.Attr       { return slog.Int(KeyDocuments, n) }
func Assets(n int) slog.Attr          { return slog.Int(KeyAssets, n) }
func Warnings(n int) slog.Attr        { return slog.Int(KeyWarnings, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
