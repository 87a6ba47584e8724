// Package markdown provides the link-rewriting pass applied to every
// document before rendering, plus small analysis helpers over the Goldmark
// AST (page title extraction).
//
// The rewriter is a pure text transform: given a document's own
// source-relative path and its raw Markdown, it rewrites relative targets
// that point at sibling Markdown sources into the mapped ".html" form.
// Because the destination tree mirrors the source tree exactly, a target's
// directory-relative prefix is already correct after relocation; only the
// extension changes. The transform is idempotent: ".html" targets are not
// Markdown and fall through untouched on a second pass.
package markdown

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/sitepath"
)

var (
	// Inline links and images: [text](target) and ![alt](target). The leading
	// bracket group is captured verbatim so image markers survive untouched.
	inlineLinkRe = regexp.MustCompile(`(!?\[[^\]]*\])\(([^()]+)\)`)

	// Reference-style definitions: [label]: target "optional title"
	refDefRe = regexp.MustCompile(`(?m)^([ ]{0,3}\[[^\]]+\]:[ \t]*)(\S+)(.*)$`)

	// Targets carrying a scheme (http:, https:, mailto:, ...) are external.
	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// RewriteLinks rewrites the relative Markdown link and image targets of one
// document so they stay correct after the tree is relocated to the output
// root. exists reports whether a source-relative path is part of the current
// source tree; pass nil to skip dangling-target detection.
func RewriteLinks(docRel, text string, exists func(string) bool) (string, []Warning) {
	var warnings []Warning

	rewritten := inlineLinkRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := inlineLinkRe.FindStringSubmatch(m)
		if parts == nil {
			return m
		}
		bracket, target := parts[1], parts[2]

		// An inline target may carry a quoted title after whitespace.
		lead, dest, rest := splitTitle(target)
		out, warn := rewriteTarget(docRel, dest, exists)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		return bracket + "(" + lead + out + rest + ")"
	})

	rewritten = refDefRe.ReplaceAllStringFunc(rewritten, func(m string) string {
		parts := refDefRe.FindStringSubmatch(m)
		if parts == nil {
			return m
		}
		out, warn := rewriteTarget(docRel, parts[2], exists)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		return parts[1] + out + parts[3]
	})

	return rewritten, warnings
}

// rewriteTarget rewrites a single target, returning the (possibly unchanged)
// target and an optional warning.
func rewriteTarget(docRel, target string, exists func(string) bool) (string, *Warning) {
	if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "//") {
		return target, nil
	}
	if schemeRe.MatchString(target) {
		return target, nil
	}
	// Site-absolute targets are outside the mirroring contract; leave them be.
	if strings.HasPrefix(target, "/") {
		return target, nil
	}

	base, anchor := target, ""
	if idx := strings.IndexByte(target, '#'); idx >= 0 {
		base, anchor = target[:idx], target[idx:]
	}
	if base == "" {
		return target, nil
	}

	resolved, err := sitepath.Resolve(docRel, base)
	if err != nil {
		return target, &Warning{Doc: docRel, Target: target, Reason: ReasonOutsideRoot}
	}

	// Asset targets keep their relative prefix as-is: assets are copied
	// verbatim at the same relative position.
	if !sitepath.IsMarkdown(base) {
		return target, nil
	}

	var warn *Warning
	if exists != nil && !exists(resolved) {
		warn = &Warning{Doc: docRel, Target: target, Reason: ReasonMissingTarget}
	}

	ext := base[strings.LastIndexByte(base, '.'):]
	return strings.TrimSuffix(base, ext) + sitepath.HTMLExt + anchor, warn
}

// splitTitle separates an inline destination from surrounding whitespace and
// a trailing quoted title, so both survive the rewrite byte-for-byte.
func splitTitle(target string) (lead, dest, rest string) {
	trimmed := strings.TrimLeft(target, " \t")
	lead = target[:len(target)-len(trimmed)]
	if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
		return lead, trimmed[:idx], trimmed[idx:]
	}
	return lead, trimmed, ""
}
