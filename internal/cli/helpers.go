package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/exodoc/exodoc/internal/manifest"
)

// resolveDocsRoot turns an optional --docs flag into the absolute docs root.
// Without the flag it resolves via the nearest Cargo.toml, read-only: the
// query commands never insert the default metadata section.
func resolveDocsRoot(docs string) (string, error) {
	if docs != "" {
		abs, err := filepath.Abs(docs)
		if err != nil {
			return "", fmt.Errorf("failed to resolve docs root: %w", err)
		}
		return abs, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	settings, err := manifest.NewResolver().Resolve(wd, true)
	if err != nil {
		return "", fmt.Errorf("failed to resolve docs root (pass --docs or add Cargo.toml): %w", err)
	}
	return settings.DocsRoot, nil
}
