// Package artifact persists generated files.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store defines operations for persisting generated artifacts. Paths are
// slash-separated and relative to the store root.
type Store interface {
	Put(ctx context.Context, path string, content []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

// cleanPath validates a relative artifact path and returns its canonical form.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.Contains(p, `\`) {
		return "", fmt.Errorf("path %q must use forward slashes", p)
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("path %q must be relative", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path %q escapes the store root", p)
	}
	return cleaned, nil
}
