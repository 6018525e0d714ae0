package config

import (
	"context"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given files or directories and
	// translates it into the format-agnostic model. Paths that do not exist
	// are skipped.
	Load(ctx context.Context, paths ...string) (*Model, error)

	// LoadSource parses a single in-memory document, such as a manifest
	// embedded in a Go module. filename is used in diagnostics only.
	LoadSource(ctx context.Context, filename string, src []byte) (*Model, error)
}
