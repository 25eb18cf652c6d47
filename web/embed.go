// Package web embeds the board's page templates and static assets so the
// binary serves them without a working directory.
package web

import "embed"

// TemplatesFS holds the page and the HTMX partials.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the small client script.
//go:embed static/*
var StaticFS embed.FS
