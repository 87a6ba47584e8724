package sitepath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutputPath_MarkdownSwapsExtension(t *testing.T) {
	cases := []struct{ in, want string }{
		{"index.md", "index.html"},
		{"food/spaghetti_carbonara.md", "food/spaghetti_carbonara.html"},
		{"notes/2024/trip.markdown", "notes/2024/trip.html"},
		{"UPPER.MD", "UPPER.html"},
		{"docs/readme.with.dots.md", "docs/readme.with.dots.html"},
		{"assets/logo.png", "assets/logo.png"},
		{"style.css", "style.css"},
		{"archive.tar.gz", "archive.tar.gz"},
		{"dir/readme", "dir/readme"},
		{"food/./spaghetti_carbonara.md", "food/spaghetti_carbonara.html"},
		{"food/../food/pasta.md", "food/pasta.html"},
	}
	for _, tc := range cases {
		got, err := OutputPath(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestOutputPath_Deterministic(t *testing.T) {
	a, err := OutputPath("food/spaghetti_carbonara.md")
	require.NoError(t, err)
	b, err := OutputPath("food/spaghetti_carbonara.md")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestNormalize_RejectsEscapes(t *testing.T) {
	for _, in := range []string{"../outside.md", "a/../../b.md", ".."} {
		_, err := Normalize(in)
		require.ErrorIs(t, err, ErrPathEscapesRoot, "input %q", in)
	}
	_, err := Normalize("/etc/passwd")
	require.ErrorIs(t, err, ErrAbsolutePath)
}

func TestNormalize_WindowsSeparators(t *testing.T) {
	got, err := Normalize(`food\spaghetti_carbonara.md`)
	require.NoError(t, err)
	require.Equal(t, "food/spaghetti_carbonara.md", got)
}

func TestIsMarkdown(t *testing.T) {
	require.True(t, IsMarkdown("a.md"))
	require.True(t, IsMarkdown("a.markdown"))
	require.True(t, IsMarkdown("A.MD"))
	require.False(t, IsMarkdown("a.html"))
	require.False(t, IsMarkdown("a.mdx"))
	require.False(t, IsMarkdown("md"))
}

func TestResolve(t *testing.T) {
	got, err := Resolve("food/index.md", "spaghetti_carbonara.md")
	require.NoError(t, err)
	require.Equal(t, "food/spaghetti_carbonara.md", got)

	got, err = Resolve("food/index.md", "../about.md")
	require.NoError(t, err)
	require.Equal(t, "about.md", got)

	got, err = Resolve("index.md", "food/pasta.md")
	require.NoError(t, err)
	require.Equal(t, "food/pasta.md", got)

	_, err = Resolve("index.md", "../secret.md")
	require.ErrorIs(t, err, ErrPathEscapesRoot)

	_, err = Resolve("food/index.md", "../../secret.md")
	require.ErrorIs(t, err, ErrPathEscapesRoot)
}

func TestStylesheetHref_Depth(t *testing.T) {
	require.Equal(t, "style.css", StylesheetHref("index.md"))
	require.Equal(t, "../style.css", StylesheetHref("food/pasta.md"))
	require.Equal(t, "../../style.css", StylesheetHref("food/italian/pasta.md"))
}
