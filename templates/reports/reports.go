// Package reports holds the HTML templates rendered to PDF.
package reports

import "embed"

//go:embed *.html
var FS embed.FS
