// Package client serves the browser script that connects a page to the
// push server.
package client

import (
	_ "embed"
	"net/http"

	"github.com/livereload-universal/relay/internal/utils"
)

//go:embed livereload.js
var script []byte

var etag = utils.GenerateEtag(script)

func Script() []byte {
	return script
}

func ETag() string {
	return etag
}

func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(script)
}
