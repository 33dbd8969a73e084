package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"pkgmedic/internal/rules"
)

// structuredStream encodes the machine-readable formats shared by the emit
// and file sinks. json buffers rule results and writes one array on finish;
// ndjson writes every event as it arrives.
type structuredStream struct {
	mu      sync.Mutex
	w       io.Writer
	format  string
	results []rules.Result
}

func newStructuredStream(w io.Writer, format string) *structuredStream {
	return &structuredStream{w: w, format: format}
}

func (s *structuredStream) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if r, ok := v.(rules.Result); ok {
			s.results = append(s.results, r)
		}
		return nil
	case "ndjson":
		return writeNDJSON(s.w, v)
	default:
		return fmt.Errorf("unsupported structured format: %s", s.format)
	}
}

func (s *structuredStream) finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "json" {
		return nil
	}
	return writeJSONArray(s.w, s.results)
}

// formatFromPath infers json or ndjson from a file extension.
func formatFromPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
	}
}

func validStructuredFormat(format string) bool {
	return format == "json" || format == "ndjson"
}

func writeNDJSON(w io.Writer, v any) error {
	var ev Event
	switch t := v.(type) {
	case Event:
		ev = t
	case rules.Result:
		ev = eventFromResult(t)
	default:
		return nil
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(ev); err != nil {
		return err
	}
	return flushIfPossible(w)
}

func writeJSONArray(w io.Writer, results []rules.Result) error {
	if results == nil {
		results = []rules.Result{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	return flushIfPossible(w)
}

type flusher interface {
	Flush() error
}

// flushIfPossible pushes buffered writers (bufio, gzip) so NDJSON consumers
// see each event as soon as it is written.
func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
