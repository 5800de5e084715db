package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyDocument is returned when the input reference resolves to a
// document with no usable text.
var ErrEmptyDocument = errors.New("input document is empty")

// DocumentSource resolves a task's input reference to the document text.
type DocumentSource interface {
	Read(ctx context.Context, ref string) (string, error)
}

// FileSource reads documents from the local filesystem. Relative references
// are resolved against BaseDir.
type FileSource struct {
	BaseDir string
}

func (s *FileSource) Read(_ context.Context, ref string) (string, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input document %q: %w", ref, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyDocument, ref)
	}
	return text, nil
}
