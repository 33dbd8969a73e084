package output

import "pkgmedic/internal/rules"

const (
	EventRunStarted     = "run.started"
	EventRuleResult     = "rule.result"
	EventChangesApplied = "changes.applied"
	EventRunFinished    = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started (run id, project, counts)
// - rule.result (one per rule, with its effects)
// - changes.applied (manifests written by --fix)
// - run.finished (exit code)
//
// JSON mode remains an aggregate of rules.Result values.
type Event struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id,omitempty"`
	Project string `json:"project,omitempty"`
	*rules.Result
	Workspaces int      `json:"workspaces,omitempty"`
	Rules      int      `json:"rules,omitempty"`
	Files      []string `json:"files,omitempty"`
	Changes    int      `json:"changes,omitempty"`
	ExitCode   *int     `json:"exit_code,omitempty"`
}

// Finished builds the run.finished event.
func Finished(runID string, code int) Event {
	return Event{Type: EventRunFinished, RunID: runID, ExitCode: &code}
}

func eventFromResult(r rules.Result) Event {
	return Event{Type: EventRuleResult, Result: &r}
}
