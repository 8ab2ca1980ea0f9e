// Package web holds the html templates and static assets compiled into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var efs embed.FS

func Templates() fs.FS {
	f, err := fs.Sub(efs, "templates")
	if err != nil {
		panic("failed to subfs")
	}
	return f
}

func Static() fs.FS {
	f, err := fs.Sub(efs, "static")
	if err != nil {
		panic("failed to subfs")
	}
	return f
}
