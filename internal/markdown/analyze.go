package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Title returns the text of the first level-1 heading in body, or "" when the
// document has none. It is used to populate the <title> of a rendered page.
func Title(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			title = textContent(h, body)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(title)
}

// textContent flattens the inline text of a node, descending through
// emphasis, links and code spans.
func textContent(n gmast.Node, source []byte) string {
	var out []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			out = append(out, t.Segment.Value(source)...)
		case *gmast.String:
			out = append(out, t.Value...)
		default:
			out = append(out, textContent(c, source)...)
		}
	}
	return string(out)
}
