package ruby2js

import "embed"

// EmbeddedFilters holds the built-in filter descriptors under filters/.
//
//go:embed filters
var EmbeddedFilters embed.FS
