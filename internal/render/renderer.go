// Package render composes the link rewriter and the CommonMark renderer into
// complete HTML pages. Rendering is CPU-bound and side-effect free; all I/O
// stays in the compiler.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/sitepath"
)

// Chrome carries the optional shared page furniture baked into every
// rendered document. Header and Footer are literal HTML fragments; Stylesheet
// toggles the <link> reference to the site stylesheet at the output root.
type Chrome struct {
	Stylesheet bool
	Header     string
	Footer     string
}

// Renderer renders Markdown documents into standalone HTML pages.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer backed by a CommonMark-compliant Goldmark instance.
func New() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// Page renders one document. exists reports membership of a source-relative
// path in the current source tree and is forwarded to the link rewriter;
// pass nil to skip dangling-target checks.
//
// Goldmark is total over arbitrary text, so malformed Markdown still yields
// best-effort output; an error here indicates a rendering bug, not bad input.
func (r *Renderer) Page(docRel string, source []byte, chrome Chrome, exists func(string) bool) ([]byte, []markdown.Warning, error) {
	rewritten, warnings := markdown.RewriteLinks(docRel, string(source), exists)

	var body bytes.Buffer
	if err := r.md.Convert([]byte(rewritten), &body); err != nil {
		return nil, warnings, fmt.Errorf("render %s: %w", docRel, err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	if title := markdown.Title(source); title != "" {
		fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	}
	if chrome.Stylesheet {
		fmt.Fprintf(&page, "<link rel=\"stylesheet\" href=\"%s\">\n", sitepath.StylesheetHref(docRel))
	}
	page.WriteString("</head>\n<body>\n")
	if chrome.Header != "" {
		page.WriteString(chrome.Header)
		page.WriteString("\n")
	}
	page.Write(body.Bytes())
	if chrome.Footer != "" {
		page.WriteString(chrome.Footer)
		page.WriteString("\n")
	}
	page.WriteString("</body>\n</html>\n")

	return page.Bytes(), warnings, nil
}
