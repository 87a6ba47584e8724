package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "render.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestStore_FreshAfterRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	content := Hash([]byte("# Hello\n"))
	site := SiteHash([]byte("body{}"), nil, nil)

	fresh, err := store.Fresh(ctx, "index.md", content, site)
	require.NoError(t, err)
	require.False(t, fresh, "unknown page is never fresh")

	require.NoError(t, store.Record(ctx, "index.md", content, site))

	fresh, err = store.Fresh(ctx, "index.md", content, site)
	require.NoError(t, err)
	require.True(t, fresh)
}

func TestStore_ContentChangeInvalidates(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()
	site := SiteHash(nil, nil, nil)

	require.NoError(t, store.Record(ctx, "page.md", Hash([]byte("v1")), site))

	fresh, err := store.Fresh(ctx, "page.md", Hash([]byte("v2")), site)
	require.NoError(t, err)
	require.False(t, fresh)
}

func TestStore_SiteHashChangeInvalidates(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()
	content := Hash([]byte("# A\n"))

	oldSite := SiteHash([]byte("body{}"), []byte("<nav/>"), nil)
	newSite := SiteHash([]byte("body{color:red}"), []byte("<nav/>"), nil)
	require.NotEqual(t, oldSite, newSite)

	require.NoError(t, store.Record(ctx, "page.md", content, oldSite))

	fresh, err := store.Fresh(ctx, "page.md", content, newSite)
	require.NoError(t, err)
	require.False(t, fresh, "chrome changes must invalidate every page")
}

func TestStore_RecordUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()
	site := SiteHash(nil, nil, nil)

	require.NoError(t, store.Record(ctx, "page.md", Hash([]byte("v1")), site))
	require.NoError(t, store.Record(ctx, "page.md", Hash([]byte("v2")), site))

	fresh, err := store.Fresh(ctx, "page.md", Hash([]byte("v2")), site)
	require.NoError(t, err)
	require.True(t, fresh)
}

func TestStore_Forget(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()
	content := Hash([]byte("x"))
	site := SiteHash(nil, nil, nil)

	require.NoError(t, store.Record(ctx, "gone.md", content, site))
	require.NoError(t, store.Forget(ctx, "gone.md"))

	fresh, err := store.Fresh(ctx, "gone.md", content, site)
	require.NoError(t, err)
	require.False(t, fresh)

	require.NoError(t, store.Forget(ctx, "never-there.md"), "forgetting an unknown page is not an error")
}

func TestSiteHash_PartBoundaries(t *testing.T) {
	// The separator keeps ("ab","c") distinct from ("a","bc").
	require.NotEqual(t, SiteHash([]byte("ab"), []byte("c")), SiteHash([]byte("a"), []byte("bc")))
}
