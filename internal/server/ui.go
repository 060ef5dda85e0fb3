package server

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/runebook/runebook/web"
)

// uiHandler serves the embedded lesson UI. Paths that match an embedded
// file are served as-is; everything else gets index.html so lesson deep
// links resolve client-side.
func uiHandler() http.Handler {
	dist, _ := fs.Sub(web.Assets, "dist")
	files := http.FileServer(http.FS(dist))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean(strings.TrimPrefix(r.URL.Path, "/"))
		if name != "." {
			if _, err := fs.Stat(dist, name); err == nil {
				files.ServeHTTP(w, r)
				return
			}
		}

		index, err := fs.ReadFile(dist, "index.html")
		if err != nil {
			http.Error(w, "ui assets missing", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(index)
	})
}
