package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTitle_FirstH1(t *testing.T) {
	require.Equal(t, "Spaghetti Carbonara", Title([]byte("# Spaghetti Carbonara\n\nA classic.\n")))
}

func TestTitle_SkipsLowerHeadings(t *testing.T) {
	src := "## Ingredients\n\nsome text\n\n# The Recipe\n\n## Steps\n"
	require.Equal(t, "The Recipe", Title([]byte(src)))
}

func TestTitle_InlineMarkupFlattened(t *testing.T) {
	require.Equal(t, "Cooking pasta", Title([]byte("# Cooking *pasta*\n")))
	require.Equal(t, "See the guide", Title([]byte("# See [the guide](guide.md)\n")))
}

func TestTitle_NoHeading(t *testing.T) {
	require.Empty(t, Title([]byte("just a paragraph\n")))
	require.Empty(t, Title([]byte("")))
}

func TestTitle_SetextHeading(t *testing.T) {
	require.Equal(t, "Underlined", Title([]byte("Underlined\n==========\n")))
}
