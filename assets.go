// Package hrdashboard embeds the dashboard's templates and static files.
package hrdashboard

import "embed"

// StaticFS holds CSS and other files served under /static/. Development mode
// reads frontend/static from disk instead.
//
//go:embed all:frontend/static
var StaticFS embed.FS

// TemplateFS holds the html/template sources for pages, regions and panels.
//
//go:embed all:frontend/templates
var TemplateFS embed.FS
