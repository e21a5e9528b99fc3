// Package web carries the console's templates and static assets.
package web

import "embed"

// Templates holds layouts, partials and pages under templates/.
//
//go:embed templates
var Templates embed.FS

// Static holds the stylesheet and script served under /static/.
//
//go:embed static
var Static embed.FS
