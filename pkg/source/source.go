package source

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned when a template does not exist.
var ErrNotFound = errors.New("source: template not found")

// ErrTooLarge is returned when a template exceeds MaxTemplateSize.
var ErrTooLarge = errors.New("source: template too large")

// ErrInvalidName is returned for names that escape the source root.
var ErrInvalidName = errors.New("source: invalid template name")

// MaxTemplateSize bounds ReadString.
const MaxTemplateSize = 4 << 20

// Source opens templates by slash-separated name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// ReadString reads a whole template.
func ReadString(ctx context.Context, s Source, name string) (string, error) {
	rc, err := s.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var b strings.Builder
	n, err := io.Copy(&b, io.LimitReader(rc, MaxTemplateSize+1))
	if err != nil {
		return "", err
	}
	if n > MaxTemplateSize {
		return "", ErrTooLarge
	}
	return b.String(), nil
}

// cleanName validates a template name: relative, slash-separated, with no
// ".." segments.
func cleanName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", ErrInvalidName
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", ErrInvalidName
		}
	}
	return name, nil
}
