// Package migrations holds the goose SQL migrations for both supported dialects.
package migrations

import "embed"

// FS contains every *.sql migration, versioned by filename prefix.
//
//go:embed *.sql
var FS embed.FS
