package web

import (
	"embed"
	"io/fs"
)

var (
	//go:embed static/*
	embeddedStaticFiles embed.FS

	//go:embed templates/*
	embeddedTemplates embed.FS
)

// templatesFS returns the embedded templates rooted like ./internal/web/templates,
// so embedded and dev mode engines resolve the same template names.
func templatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}

	return sub
}
