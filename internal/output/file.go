package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes the structured stream to --out. The file is created (and
// truncated) when the sink is built, so a watch run replaces the previous
// run's output.
type FileSink struct {
	*structuredStream
	path string
	file *os.File
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	if format == "" {
		inferred, err := formatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}
	if !validStructuredFormat(format) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if err := ensureDir(path); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &FileSink{
		structuredStream: newStructuredStream(f, format),
		path:             path,
		file:             f,
	}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Write(v any) error {
	return s.write(v)
}

func (s *FileSink) Close() error {
	return errors.Join(s.finish(), s.file.Close())
}
