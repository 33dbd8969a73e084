package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgmedic/internal/rules"
)

// runEvents is the event sequence of a --fix run with one rule.
func runEvents() []any {
	return []any{
		Event{Type: EventRunStarted, RunID: "run-1", Project: "/repo", Workspaces: 2, Rules: 1},
		rules.Result{
			RuleID:  "dependency-ranges",
			Status:  rules.StatusFixed,
			Message: "1 fixed",
			Effects: []rules.Effect{{
				Kind:      rules.KindUpdateRange,
				Status:    rules.StatusFixed,
				RuleID:    "dependency-ranges",
				Workspace: "packages/a",
				Path:      []string{"dependencies", "expo"},
				Value:     "~50.0.0",
			}},
		},
		Event{Type: EventChangesApplied, RunID: "run-1", Files: []string{"/repo/packages/a/package.json"}, Changes: 1},
		Finished("run-1", 0),
	}
}

func decodeLines(t *testing.T, raw string) []Event {
	t.Helper()
	var out []Event
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		var e Event
		require.NoError(t, json.Unmarshal([]byte(line), &e), "line %q", line)
		out = append(out, e)
	}
	return out
}

func TestEmitSink_NDJSON_StreamsLifecycle(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "ndjson")
	require.NoError(t, err)
	for _, v := range runEvents() {
		require.NoError(t, s.Write(v))
	}
	require.NoError(t, s.Close())

	events := decodeLines(t, buf.String())
	require.Len(t, events, 4)

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{EventRunStarted, EventRuleResult, EventChangesApplied, EventRunFinished}, types)

	require.NotNil(t, events[1].Result)
	assert.Equal(t, "dependency-ranges", events[1].RuleID)
	require.Len(t, events[1].Effects, 1)
	assert.Equal(t, "~50.0.0", events[1].Effects[0].Value)

	assert.Equal(t, 1, events[2].Changes)
	assert.Equal(t, []string{"/repo/packages/a/package.json"}, events[2].Files)

	require.NotNil(t, events[3].ExitCode)
	assert.Equal(t, 0, *events[3].ExitCode, "a zero exit code is still emitted")
}

func TestEmitSink_JSON_AggregatesResultsOnly(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	require.NoError(t, err)
	for _, v := range runEvents() {
		require.NoError(t, s.Write(v))
	}
	assert.Empty(t, buf.String(), "json output is written on Close")
	require.NoError(t, s.Close())

	var got []rules.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, rules.StatusFixed, got[0].Status)
}

func TestNewEmitSink_Errors(t *testing.T) {
	_, err := NewEmitSink(&bytes.Buffer{}, "text")
	assert.ErrorContains(t, err, "unsupported emit format")

	_, err = NewEmitSink(nil, "json")
	assert.Error(t, err)
}

func TestNewFileSink_Format(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		format  string
		want    string
		wantErr string
	}{
		{name: "json extension", file: "out.json", want: "json"},
		{name: "ndjson extension", file: "out.ndjson", want: "ndjson"},
		{name: "jsonl extension", file: "out.JSONL", want: "ndjson"},
		{name: "explicit format wins", file: "out.txt", format: "ndjson", want: "ndjson"},
		{name: "unknown extension", file: "out.unknown", wantErr: "cannot infer output format"},
		{name: "unsupported format", file: "out.json", format: "xml", wantErr: "unsupported output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", tt.file)
			s, err := NewFileSink(path, tt.format)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.format)
			assert.Equal(t, path, s.Path())
			require.NoError(t, s.Close())
		})
	}
}

func TestFileSink_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	s, err := NewFileSink(path, "")
	require.NoError(t, err)
	for _, v := range runEvents() {
		require.NoError(t, s.Write(v))
	}
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []rules.Result
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "dependency-ranges", got[0].RuleID)
}

func TestFileSink_NDJSON_WritesIncrementally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewFileSink(path, "ndjson")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Write(runEvents()[0]))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"run.started"`)
	assert.True(t, strings.HasSuffix(string(raw), "\n"))

	require.NoError(t, s.Write(Finished("run-1", 3)))
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	events := decodeLines(t, string(raw))
	require.Len(t, events, 2)
	assert.Equal(t, 3, *events[1].ExitCode)
}

// firstLine reports the first line written through a 64k bufio.Writer, which
// only arrives if the sink flushes after each event.
func firstLine(t *testing.T, write func(w io.Writer)) string {
	t.Helper()
	pr, pw := io.Pipe()
	defer pr.Close()
	defer pw.Close()

	lineCh := make(chan string, 1)
	go func() {
		line, err := bufio.NewReader(pr).ReadString('\n')
		if err == nil {
			lineCh <- line
		}
	}()

	write(bufio.NewWriterSize(pw, 64*1024))

	select {
	case line := <-lineCh:
		return line
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("timed out waiting for ndjson line; writer likely not flushing")
		return ""
	}
}

func TestNDJSON_FlushesPerWrite(t *testing.T) {
	line := firstLine(t, func(w io.Writer) {
		s, err := NewEmitSink(w, "ndjson")
		require.NoError(t, err)
		require.NoError(t, s.Write(Event{Type: EventRunStarted}))
	})
	assert.Contains(t, line, `"type":"run.started"`)

	line = firstLine(t, func(w io.Writer) {
		require.NoError(t, NewConsoleSink(w, "ndjson").Write(Event{Type: EventRunStarted, Project: "acme/mono"}))
	})
	assert.Contains(t, line, `"project":"acme/mono"`)
}
