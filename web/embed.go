// Package web embeds the backoffice templates and static assets.
package web

import "embed"

// Templates holds the layouts, partials and pages of the HTML views.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html
var Templates embed.FS

// Reports holds standalone documents rendered to PDF.
//
//go:embed templates/reports/*.html
var Reports embed.FS

// Static holds stylesheets served under /static.
//
//go:embed static/css/*.css
var Static embed.FS
