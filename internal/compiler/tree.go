package compiler

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/sitepath"
)

// EntryKind classifies one entry of the source tree.
type EntryKind string

const (
	KindDocument   EntryKind = "document"
	KindStylesheet EntryKind = "stylesheet"
	KindHeader     EntryKind = "header"
	KindFooter     EntryKind = "footer"
	KindDirectory  EntryKind = "directory"
	KindAsset      EntryKind = "asset"
)

// SourceEntry is one classified node of the source tree. Identity is the
// slash-separated path relative to the input root.
type SourceEntry struct {
	RelPath string
	Kind    EntryKind
}

// SourceTree is the immutable result of one scan pass.
type SourceTree struct {
	Entries []SourceEntry
	files   map[string]struct{}
}

// Has reports whether a source-relative path exists in the scanned tree.
// The link rewriter uses it to flag dangling Markdown targets.
func (t *SourceTree) Has(rel string) bool {
	_, ok := t.files[rel]
	return ok
}

// Scan walks the input directory and classifies every entry. Hidden files
// and directories are skipped. The configured chrome files are classified as
// such so they are not rendered or copied as regular entries.
func Scan(cfg *config.SiteConfig) (*SourceTree, error) {
	chrome, err := chromeAbsPaths(cfg)
	if err != nil {
		return nil, err
	}

	tree := &SourceTree{files: make(map[string]struct{})}

	err = filepath.WalkDir(cfg.InputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && p != cfg.InputDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == cfg.InputDir {
			return nil
		}

		rel, err := filepath.Rel(cfg.InputDir, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			tree.Entries = append(tree.Entries, SourceEntry{RelPath: rel, Kind: KindDirectory})
			return nil
		}
		tree.files[rel] = struct{}{}

		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		if kind, ok := chrome[abs]; ok {
			tree.Entries = append(tree.Entries, SourceEntry{RelPath: rel, Kind: kind})
			return nil
		}

		kind := KindAsset
		if sitepath.IsMarkdown(rel) {
			kind = KindDocument
		}
		tree.Entries = append(tree.Entries, SourceEntry{RelPath: rel, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}
	return tree, nil
}

// chromeAbsPaths maps the absolute paths of configured chrome files to their
// entry kinds, so the walk can recognize them wherever they sit in the tree.
func chromeAbsPaths(cfg *config.SiteConfig) (map[string]EntryKind, error) {
	chrome := make(map[string]EntryKind, 3)
	add := func(p string, kind EntryKind) error {
		if p == "" {
			return nil
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s path %s: %w", kind, p, err)
		}
		chrome[abs] = kind
		return nil
	}
	if err := add(cfg.Stylesheet, KindStylesheet); err != nil {
		return nil, err
	}
	if err := add(cfg.HeaderPath, KindHeader); err != nil {
		return nil, err
	}
	if err := add(cfg.FooterPath, KindFooter); err != nil {
		return nil, err
	}
	return chrome, nil
}

// IsChromePath reports whether an absolute or input-relative path names one
// of the configured chrome files. The watch coordinator uses it to escalate
// a subset compile to a full pass.
func IsChromePath(cfg *config.SiteConfig, p string) bool {
	chrome, err := chromeAbsPaths(cfg)
	if err != nil {
		return false
	}
	abs := p
	if !filepath.IsAbs(p) {
		var err error
		abs, err = filepath.Abs(filepath.Join(cfg.InputDir, filepath.FromSlash(p)))
		if err != nil {
			return false
		}
	}
	_, ok := chrome[abs]
	return ok
}
