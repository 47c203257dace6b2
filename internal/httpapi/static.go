package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// staticHandler serves the built frontend. Unknown paths fall back to
// index.html so client-side routing keeps working on reload.
func (h *Handler) staticHandler() http.Handler {
	fileServer := http.FileServer(http.Dir(h.staticDir))
	index := filepath.Join(h.staticDir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(h.staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
			return
		}
		http.ServeFile(w, r, index)
	})
}
