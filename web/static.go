// Package web holds the layer picker page: its template, the data bound into
// it and the static assets it loads.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var indexHTML string

//go:embed js/*
var staticContent embed.FS

// StaticFS is served under /static/ next to index.html.
func StaticFS() fs.FS {
	return staticContent
}
