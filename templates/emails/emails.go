// Package emails holds the HTML and plain-text email templates.
package emails

import "embed"

// FS contains every <name>.html and <name>.txt template
//
//go:embed *.html *.txt
var FS embed.FS
