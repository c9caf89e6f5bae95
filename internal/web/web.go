// Package web serves the embedded single-page client.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
)

//go:embed static
var static embed.FS

const indexPage = "index.html"

// Handler serves static assets by path and answers every other request
// with the client shell, which routes on the URL itself. Paths that look
// like assets (they carry an extension) but do not exist get a 404.
func Handler() http.Handler {
	files, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	shell, err := fs.ReadFile(files, indexPage)
	if err != nil {
		panic(err)
	}
	assets := http.FileServerFS(files)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := path.Clean(r.URL.Path)
		if path.Ext(name) != "" && name != "/"+indexPage {
			assets.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(shell)
		}
	})
}
