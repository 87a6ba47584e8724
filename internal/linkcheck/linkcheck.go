// Package linkcheck verifies the emitted site: it parses every generated
// HTML page and reports internal link targets that do not exist under the
// output root. Findings are warnings; a broken link never fails a build.
package linkcheck

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Issue is one broken internal reference found in an emitted page.
type Issue struct {
	Page   string // output-relative path of the page containing the link
	Target string // the href/src value as written
}

func (i Issue) String() string {
	return i.Page + ": broken internal link " + i.Target
}

// linkAttrs maps element names to the attribute that carries a reference.
var linkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
}

// Check walks the output tree and verifies every internal reference in every
// HTML page.
func Check(outputDir string) ([]Issue, error) {
	var issues []Issue

	err := filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}
		rel, err := filepath.Rel(outputDir, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}
		pageIssues, err := checkPage(outputDir, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		issues = append(issues, pageIssues...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk output directory: %w", err)
	}
	return issues, nil
}

func checkPage(outputDir, pageRel string) ([]Issue, error) {
	f, err := os.Open(filepath.Join(outputDir, filepath.FromSlash(pageRel))) // #nosec G304 -- path comes from the walked tree
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", pageRel, err)
	}
	defer func() { _ = f.Close() }()

	targets, err := extractTargets(f)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", pageRel, err)
	}

	var issues []Issue
	for _, target := range targets {
		resolved, internal := resolveInternal(pageRel, target)
		if !internal {
			continue
		}
		full := filepath.Join(outputDir, filepath.FromSlash(resolved))
		if _, err := os.Stat(full); err != nil {
			issues = append(issues, Issue{Page: pageRel, Target: target})
		}
	}
	return issues, nil
}

// extractTargets collects href/src values from anchor, image, link and
// script elements.
func extractTargets(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var targets []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && a.Val != "" {
						targets = append(targets, a.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return targets, nil
}

// resolveInternal resolves a target against its page's directory and reports
// whether it points inside the site. External URLs, site-absolute paths and
// pure fragments are not internal relative references and are skipped.
func resolveInternal(pageRel, target string) (string, bool) {
	if target == "" || strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") ||
		strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") {
		return "", false
	}
	if idx := strings.IndexAny(target, "#?"); idx >= 0 {
		target = target[:idx]
	}
	if target == "" {
		return "", false
	}
	dir := path.Dir(pageRel)
	if dir == "." {
		dir = ""
	}
	resolved := path.Clean(path.Join(dir, target))
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", false
	}
	return resolved, true
}
