package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

// FSSource adapts fsnotify into the coordinator's event stream. It watches
// the input tree recursively, picks up newly created directories, and drops
// events for hidden files, editor temp files and the output tree (so the
// compiler's own writes cannot feed back into the loop).
type FSSource struct {
	cfg     *config.SiteConfig
	watcher *fsnotify.Watcher
	out     chan Event

	absInput  string
	absOutput string
}

// NewFSSource creates a watcher rooted at the configured input directory.
func NewFSSource(cfg *config.SiteConfig) (*FSSource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	absInput, err := filepath.Abs(cfg.InputDir)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve input dir: %w", err)
	}
	absOutput, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}

	s := &FSSource{
		cfg:       cfg,
		watcher:   watcher,
		out:       make(chan Event, 256),
		absInput:  absInput,
		absOutput: absOutput,
	}
	if err := addDirsRecursive(watcher, absInput); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return s, nil
}

// Events returns the translated event stream consumed by the coordinator.
func (s *FSSource) Events() <-chan Event {
	return s.out
}

// Run translates fsnotify events until ctx is canceled. The output channel
// is closed on return.
func (s *FSSource) Run(ctx context.Context) error {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handle(ctx, ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying watcher.
func (s *FSSource) Close() error {
	return s.watcher.Close()
}

func (s *FSSource) handle(ctx context.Context, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	// Never react to the compiler's own writes.
	if abs == s.absOutput || strings.HasPrefix(abs, s.absOutput+string(filepath.Separator)) {
		return
	}
	rel, err := filepath.Rel(s.absInput, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(abs); err == nil && fi.IsDir() {
			_ = addDirsRecursive(s.watcher, abs)
		}
	}

	kind, ok := translateOp(ev.Op)
	if !ok {
		return
	}
	slog.Debug("File change detected", logfields.Path(rel), slog.String("op", ev.Op.String()))

	select {
	case s.out <- Event{Path: filepath.ToSlash(rel), Kind: kind}:
	case <-ctx.Done():
	}
}

func translateOp(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return Created, true
	case op&fsnotify.Write != 0:
		return Modified, true
	case op&fsnotify.Remove != 0:
		return Removed, true
	case op&fsnotify.Rename != 0:
		return Renamed, true
	default:
		return "", false // chmod etc.
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger recompiles.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files, plus our own atomic-write temp files.
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, ".tmp") {
		return true
	}

	// Editor temp/swap files.
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	if base == ".DS_Store" || base == "Thumbs.db" {
		return true
	}

	return false
}
