// Package web embeds the HTML templates and static assets into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates holds the page templates, rooted at the templates directory.
var Templates = mustSub("templates")

// Static holds the files served under /static/.
var Static = mustSub("static")

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
