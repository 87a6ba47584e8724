// Package sitepath maps source-relative paths to their destination-relative
// counterparts. The mapping is the single source of truth for the mirroring
// rule: every Markdown file becomes an HTML file at the same relative
// position, all other paths are preserved unchanged.
//
// All functions are pure and operate on slash-separated relative paths; they
// are safe for concurrent use.
package sitepath

import (
	"path"
	"strings"
)

const (
	// HTMLExt is the extension given to compiled documents.
	HTMLExt = ".html"

	// StylesheetName is the fixed name of the shared stylesheet at the output
	// root. The stylesheet is copied once per site, not mirrored per page.
	StylesheetName = "style.css"
)

// markdownExts lists extensions recognized as Markdown documents.
var markdownExts = []string{".md", ".markdown"}

// IsMarkdown reports whether p names a Markdown document.
func IsMarkdown(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range markdownExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Normalize cleans a slash-separated source-relative path and rejects paths
// that are absolute or that traverse above the source root.
func Normalize(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if strings.HasPrefix(rel, "/") {
		return "", ErrAbsolutePath
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrPathEscapesRoot
	}
	return clean, nil
}

// OutputPath maps a source-relative path to its destination-relative path.
// Markdown documents swap their extension for ".html"; every other path, and
// every directory segment, is preserved unchanged.
func OutputPath(rel string) (string, error) {
	clean, err := Normalize(rel)
	if err != nil {
		return "", err
	}
	if !IsMarkdown(clean) {
		return clean, nil
	}
	return strings.TrimSuffix(clean, path.Ext(clean)) + HTMLExt, nil
}

// Resolve joins a link target onto the directory of the document that
// contains it and normalizes the result. The returned path is relative to the
// source root. Targets that climb above the root return ErrPathEscapesRoot.
func Resolve(docRel, target string) (string, error) {
	docDir := path.Dir(docRel)
	if docDir == "." {
		docDir = ""
	}
	return Normalize(path.Join(docDir, target))
}

// StylesheetHref returns the href a page at docRel uses to reference the
// shared stylesheet at the output root. A page two directories deep yields
// "../../style.css".
func StylesheetHref(docRel string) string {
	depth := strings.Count(path.Clean(docRel), "/")
	return strings.Repeat("../", depth) + StylesheetName
}
