package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "src", cfg.InputDir)
	require.Equal(t, "out", cfg.OutputDir)
	require.Equal(t, 200*time.Millisecond, cfg.DebounceWindow())
	require.Equal(t, 2*time.Second, cfg.MaxDelay())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().InputDir, cfg.InputDir)
	require.Equal(t, Default().OutputDir, cfg.OutputDir)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mdsite.yaml")
	body := "input: docs\noutput: public\nstylesheet: theme/main.css\nwatch:\n  debounce_ms: 50\n  max_delay_ms: 500\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "docs", cfg.InputDir)
	require.Equal(t, "public", cfg.OutputDir)
	require.Equal(t, "theme/main.css", cfg.Stylesheet)
	require.Equal(t, 50*time.Millisecond, cfg.DebounceWindow())
	require.Equal(t, 500*time.Millisecond, cfg.MaxDelay())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ZeroDebounceFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watch:\n  debounce_ms: 0\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default().Watch.DebounceMS, cfg.Watch.DebounceMS)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdsite.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default().InputDir, cfg.InputDir)

	err = Init(path, false)
	require.ErrorIs(t, err, ErrConfigExists)

	require.NoError(t, Init(path, true))
}

func TestDiscoverChrome(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.html"), []byte("<nav/>"), 0o644))

	cfg := Default()
	cfg.InputDir = dir
	cfg.DiscoverChrome()
	require.Equal(t, filepath.Join(dir, "style.css"), cfg.Stylesheet)
	require.Equal(t, filepath.Join(dir, "header.html"), cfg.HeaderPath)
	require.Empty(t, cfg.FooterPath, "no footer.html present")
}

func TestDiscoverChrome_ExplicitPathsWin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644))

	cfg := Default()
	cfg.InputDir = dir
	cfg.Stylesheet = "elsewhere/custom.css"
	cfg.DiscoverChrome()
	require.Equal(t, "elsewhere/custom.css", cfg.Stylesheet)
}

func TestDiscoverChrome_MarksDiscoveredPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644))

	cfg := Default()
	cfg.InputDir = dir
	cfg.HeaderPath = "explicit/header.html"
	cfg.DiscoverChrome()

	require.True(t, cfg.DiscoveredChrome(filepath.Join(dir, "style.css")))
	require.False(t, cfg.DiscoveredChrome("explicit/header.html"))
	require.False(t, cfg.DiscoveredChrome(""))
}

func TestValidate_InputMissing(t *testing.T) {
	cfg := Default()
	cfg.InputDir = filepath.Join(t.TempDir(), "nope")
	cfg.OutputDir = t.TempDir()
	require.ErrorIs(t, cfg.Validate(), ErrInputDirMissing)
}

func TestValidate_OutputInsideInput(t *testing.T) {
	in := t.TempDir()
	cfg := Default()
	cfg.InputDir = in
	cfg.OutputDir = filepath.Join(in, "out")
	require.ErrorIs(t, cfg.Validate(), ErrOutputInsideInput)

	cfg.OutputDir = in
	require.ErrorIs(t, cfg.Validate(), ErrOutputInsideInput)
}

func TestValidate_SiblingOutputOK(t *testing.T) {
	base := t.TempDir()
	in := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(in, 0o755))

	cfg := Default()
	cfg.InputDir = in
	cfg.OutputDir = filepath.Join(base, "out")
	require.NoError(t, cfg.Validate())
}

func TestValidate_OutputIsFile(t *testing.T) {
	in := t.TempDir()
	outFile := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(outFile, []byte("x"), 0o644))

	cfg := Default()
	cfg.InputDir = in
	cfg.OutputDir = outFile
	require.ErrorIs(t, cfg.Validate(), ErrOutputNotDirectory)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvInput, "envsrc")
	t.Setenv(EnvOutput, "envout")
	t.Setenv(EnvCache, "cache.db")

	cfg := Default()
	cfg.ApplyEnv()
	require.Equal(t, "envsrc", cfg.InputDir)
	require.Equal(t, "envout", cfg.OutputDir)
	require.Equal(t, "cache.db", cfg.CachePath)
}
