package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjectReloadScript_BeforeBodyClose(t *testing.T) {
	page := []byte("<html><body><p>hi</p></body></html>")
	out := string(injectReloadScript(page))
	scriptIdx := strings.Index(out, `<script src="/livereload.js"></script>`)
	bodyIdx := strings.Index(out, "</body>")
	require.True(t, scriptIdx >= 0)
	require.Less(t, scriptIdx, bodyIdx)
}

func TestInjectReloadScript_NoBodyCloseAppends(t *testing.T) {
	out := string(injectReloadScript([]byte("<p>bare fragment</p>")))
	require.True(t, strings.HasSuffix(out, `<script src="/livereload.js"></script>`))
}

func TestServePage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<html><body>home</body></html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "food"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "food", "pasta.html"),
		[]byte("<html><body>pasta</body></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"),
		[]byte("body{}"), 0o644))

	srv := NewServer(dir, ":0", nil)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.servePage(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/")
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	require.Contains(t, string(body), "home")
	require.Contains(t, string(body), "/livereload.js", "HTML pages get the reload client")

	w = get("/food/pasta.html")
	require.Equal(t, http.StatusOK, w.Code)
	body, _ = io.ReadAll(w.Body)
	require.Contains(t, string(body), "pasta")

	w = get("/style.css")
	require.Equal(t, http.StatusOK, w.Code)
	body, _ = io.ReadAll(w.Body)
	require.Equal(t, "body{}", string(body))
	require.NotContains(t, string(body), "livereload", "assets are served verbatim")

	require.Equal(t, http.StatusNotFound, get("/absent.html").Code)
	require.Equal(t, http.StatusNotFound, get("/../escape.html").Code)
}

func TestReloadHub_BroadcastAfterCloseIsNoop(t *testing.T) {
	hub := NewReloadHub()
	hub.Close()
	hub.Broadcast("token") // must not panic
}
