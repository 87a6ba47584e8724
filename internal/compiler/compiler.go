// Package compiler walks the source tree and produces the mirrored output
// tree: every Markdown document renders to an HTML page at its mapped
// position, the shared stylesheet is copied to a fixed location under the
// output root, and all other assets are copied verbatim. A full pass and a
// subset pass share all machinery; the subset pass additionally deletes
// output artifacts whose sources disappeared.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mdsite/internal/cache"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/render"
	"git.home.luguber.info/inful/mdsite/internal/sitepath"
)

// Change is one pending source-tree change handed to CompileSubset.
// A Removed change deletes the mapped output artifact; any other change
// recompiles or recopies the path. Paths are slash-separated and relative to
// the input root.
type Change struct {
	Path    string
	Removed bool
}

// Compiler performs compile passes for one SiteConfig.
type Compiler struct {
	cfg      *config.SiteConfig
	renderer *render.Renderer
	store    *cache.Store
	rec      metrics.Recorder
}

// New returns a Compiler for cfg with no cache and no-op metrics.
func New(cfg *config.SiteConfig) *Compiler {
	return &Compiler{
		cfg:      cfg,
		renderer: render.New(),
		rec:      metrics.NoopRecorder{},
	}
}

// WithCache attaches a render cache.
func (c *Compiler) WithCache(s *cache.Store) *Compiler {
	if s != nil {
		c.store = s
	}
	return c
}

// WithMetrics attaches a metrics recorder.
func (c *Compiler) WithMetrics(r metrics.Recorder) *Compiler {
	if r != nil {
		c.rec = r
	}
	return c
}

// chromeContent holds the shared page furniture loaded once per pass.
type chromeContent struct {
	stylesheet []byte // nil when no stylesheet is configured
	header     string
	footer     string
	siteHash   string
}

func (cc *chromeContent) renderChrome() render.Chrome {
	return render.Chrome{
		Stylesheet: cc.stylesheet != nil,
		Header:     cc.header,
		Footer:     cc.footer,
	}
}

// Compile runs a full pass: validate, scan, render every document, copy the
// stylesheet and assets. Fatal conditions (bad config, unreadable input root)
// return an error before any write; per-entry failures are isolated into the
// report.
func (c *Compiler) Compile(ctx context.Context) (*Report, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	report := newReport(true)

	tree, err := Scan(c.cfg)
	if err != nil {
		return nil, err
	}
	chrome, err := c.loadChrome(report)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting compile pass",
		logfields.BuildID(report.BuildID),
		logfields.Input(c.cfg.InputDir),
		logfields.Output(c.cfg.OutputDir))

	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if chrome.stylesheet != nil {
		dst := filepath.Join(c.cfg.OutputDir, sitepath.StylesheetName)
		if err := writeFileAtomic(dst, chrome.stylesheet); err != nil {
			return nil, fmt.Errorf("copy stylesheet: %w", err)
		}
	}

	for _, entry := range tree.Entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		switch entry.Kind {
		case KindDirectory:
			if err := os.MkdirAll(filepath.Join(c.cfg.OutputDir, filepath.FromSlash(entry.RelPath)), 0o755); err != nil {
				report.AddError(fmt.Errorf("create directory %s: %w", entry.RelPath, err))
			}
		case KindDocument:
			c.compileDocument(ctx, tree, chrome, entry.RelPath, report)
		case KindAsset:
			c.copyAsset(entry.RelPath, report)
		case KindStylesheet, KindHeader, KindFooter:
			// Consumed as configuration; never emitted as pages.
		}
	}

	c.finishPass(report)
	return report, nil
}

// CompileSubset runs an incremental pass restricted to the given changes.
// A change touching the stylesheet, header or footer escalates to a full
// pass, since their content is baked into every page.
func (c *Compiler) CompileSubset(ctx context.Context, changes []Change) (*Report, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	for _, ch := range changes {
		if IsChromePath(c.cfg, ch.Path) {
			slog.Info("Shared chrome changed, recompiling whole tree", logfields.Path(ch.Path))
			return c.Compile(ctx)
		}
	}

	report := newReport(false)

	tree, err := Scan(c.cfg)
	if err != nil {
		return nil, err
	}
	chrome, err := c.loadChrome(report)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(changes))
	for _, ch := range changes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rel, err := sitepath.Normalize(ch.Path)
		if err != nil {
			report.AddError(fmt.Errorf("change %s: %w", ch.Path, err))
			continue
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}

		src := filepath.Join(c.cfg.InputDir, filepath.FromSlash(rel))
		st, statErr := os.Stat(src)
		if ch.Removed || statErr != nil {
			c.removeOutput(ctx, rel, report)
			continue
		}
		switch {
		case st.IsDir():
			if err := os.MkdirAll(filepath.Join(c.cfg.OutputDir, filepath.FromSlash(rel)), 0o755); err != nil {
				report.AddError(fmt.Errorf("create directory %s: %w", rel, err))
			}
		case sitepath.IsMarkdown(rel):
			c.compileDocument(ctx, tree, chrome, rel, report)
		default:
			c.copyAsset(rel, report)
		}
	}

	c.finishPass(report)
	return report, nil
}

// compileDocument renders one document and writes it to its mapped output
// path. Failures are isolated into the report; siblings keep compiling.
func (c *Compiler) compileDocument(ctx context.Context, tree *SourceTree, chrome *chromeContent, rel string, report *Report) {
	outRel, err := sitepath.OutputPath(rel)
	if err != nil {
		report.AddError(fmt.Errorf("map %s: %w", rel, err))
		return
	}
	src := filepath.Join(c.cfg.InputDir, filepath.FromSlash(rel))
	source, err := os.ReadFile(src) // #nosec G304 -- path comes from the scanned tree
	if err != nil {
		report.AddError(fmt.Errorf("read %s: %w", rel, err))
		return
	}

	dst := filepath.Join(c.cfg.OutputDir, filepath.FromSlash(outRel))
	contentHash := cache.Hash(source)
	if c.store != nil {
		fresh, err := c.store.Fresh(ctx, rel, contentHash, chrome.siteHash)
		if err != nil {
			slog.Warn("Render cache lookup failed", logfields.Path(rel), logfields.Error(err))
		} else if fresh {
			if _, err := os.Stat(dst); err == nil {
				slog.Debug("Render cache hit", logfields.Path(rel))
				report.DocumentsSkipped++
				return
			}
		}
	}

	page, warnings, err := c.renderer.Page(rel, source, chrome.renderChrome(), tree.Has)
	for _, w := range warnings {
		report.AddWarning(w.String())
	}
	if err != nil {
		report.AddError(err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		report.AddError(fmt.Errorf("create directory for %s: %w", outRel, err))
		return
	}
	if err := writeFileAtomic(dst, page); err != nil {
		report.AddError(fmt.Errorf("write %s: %w", outRel, err))
		return
	}
	report.DocumentsRendered++
	slog.Debug("Rendered document", logfields.Path(rel))

	if c.store != nil {
		if err := c.store.Record(ctx, rel, contentHash, chrome.siteHash); err != nil {
			slog.Warn("Render cache update failed", logfields.Path(rel), logfields.Error(err))
		}
	}
}

// copyAsset copies a non-Markdown file verbatim to its mirrored position.
func (c *Compiler) copyAsset(rel string, report *Report) {
	src := filepath.Join(c.cfg.InputDir, filepath.FromSlash(rel))
	data, err := os.ReadFile(src) // #nosec G304 -- path comes from the scanned tree
	if err != nil {
		report.AddError(fmt.Errorf("read asset %s: %w", rel, err))
		return
	}
	dst := filepath.Join(c.cfg.OutputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		report.AddError(fmt.Errorf("create directory for %s: %w", rel, err))
		return
	}
	if err := writeFileAtomic(dst, data); err != nil {
		report.AddError(fmt.Errorf("copy asset %s: %w", rel, err))
		return
	}
	report.AssetsCopied++
	slog.Debug("Copied asset", logfields.Path(rel))
}

// removeOutput deletes the output artifact mapped from a removed source path.
func (c *Compiler) removeOutput(ctx context.Context, rel string, report *Report) {
	outRel, err := sitepath.OutputPath(rel)
	if err != nil {
		report.AddError(fmt.Errorf("map removed path %s: %w", rel, err))
		return
	}
	dst := filepath.Join(c.cfg.OutputDir, filepath.FromSlash(outRel))
	if _, err := os.Stat(dst); err != nil {
		return // nothing to remove
	}
	if err := os.RemoveAll(dst); err != nil {
		report.AddError(fmt.Errorf("remove output %s: %w", outRel, err))
		return
	}
	report.OutputsRemoved++
	slog.Debug("Removed stale output", logfields.Path(outRel))

	if c.store != nil {
		if err := c.store.Forget(ctx, rel); err != nil {
			slog.Warn("Render cache forget failed", logfields.Path(rel), logfields.Error(err))
		}
	}
}

// loadChrome reads the configured stylesheet/header/footer once per pass.
// An explicitly configured path that cannot be read is fatal. A discovered
// file that has since vanished is treated as absent with a warning; watch
// mode keeps compiling without it.
func (c *Compiler) loadChrome(report *Report) (*chromeContent, error) {
	read := func(path, what string) ([]byte, error) {
		data, err := os.ReadFile(path) // #nosec G304 -- configured path
		if err != nil {
			if os.IsNotExist(err) && c.cfg.DiscoveredChrome(path) {
				report.AddWarning(fmt.Sprintf("%s %s vanished; compiling without it", what, path))
				slog.Warn("Discovered chrome file vanished", logfields.Path(path))
				return nil, nil
			}
			return nil, fmt.Errorf("read %s: %w", what, err)
		}
		return data, nil
	}

	cc := &chromeContent{}
	if c.cfg.Stylesheet != "" {
		data, err := read(c.cfg.Stylesheet, "stylesheet")
		if err != nil {
			return nil, err
		}
		cc.stylesheet = data
	}
	if c.cfg.HeaderPath != "" {
		data, err := read(c.cfg.HeaderPath, "header")
		if err != nil {
			return nil, err
		}
		cc.header = string(data)
	}
	if c.cfg.FooterPath != "" {
		data, err := read(c.cfg.FooterPath, "footer")
		if err != nil {
			return nil, err
		}
		cc.footer = string(data)
	}
	cc.siteHash = cache.SiteHash(cc.stylesheet, []byte(cc.header), []byte(cc.footer))
	return cc, nil
}

func (c *Compiler) finishPass(report *Report) {
	report.finish()
	c.rec.ObserveCompileDuration(report.Duration())
	c.rec.IncCompileOutcome(string(report.Outcome))
	c.rec.AddDocumentsRendered(report.DocumentsRendered)
	c.rec.AddAssetsCopied(report.AssetsCopied)
	slog.Info("Compile pass finished",
		logfields.BuildID(report.BuildID),
		logfields.Documents(report.DocumentsRendered),
		logfields.Assets(report.AssetsCopied),
		logfields.Warnings(len(report.Warnings)),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
}

// writeFileAtomic replaces dst with data via write-to-temp-then-rename, so a
// concurrently running file server never observes a half-written file.
func writeFileAtomic(dst string, data []byte) error {
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
