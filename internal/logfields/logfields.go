// Package logfields pins the canonical log field names so ingestion schemas
// never drift between packages.
package logfields

import "log/slog"

const (
	KeyBuildID    = "build_id"
	KeyMode       = "mode"
	KeyStage      = "stage"
	KeyEntry      = "entry"
	KeyPackage    = "package"
	KeyFile       = "file"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Granular helpers returning slog.Attr so callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Entry(name string) slog.Attr     { return slog.String(KeyEntry, name) }
func Package(name string) slog.Attr   { return slog.String(KeyPackage, name) }
func File(path string) slog.Attr      { return slog.String(KeyFile, path) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
