package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

// ConflictRuleID attributes the diagnostics raised when rules stage different
// values for the same manifest field.
const ConflictRuleID = "staging-conflict"

// Evaluation is the outcome of one pass of the selected rules over a snapshot.
type Evaluation struct {
	// Results holds one record per rule in selection order, followed by the
	// staging-conflict record when any conflict was found.
	Results []rules.Result

	staged []rules.Effect
}

// Changes returns the staged changes, deduplicated, in first-encountered order.
func (ev *Evaluation) Changes() []rules.Effect {
	return ev.staged
}

// Diagnostics returns every error effect across all results.
func (ev *Evaluation) Diagnostics() []rules.Effect {
	var out []rules.Effect
	for _, r := range ev.Results {
		for _, e := range r.Effects {
			if e.Kind == rules.KindError {
				out = append(out, e)
			}
		}
	}
	return out
}

// Errored reports whether any rule failed to evaluate.
func (ev *Evaluation) Errored() bool {
	for _, r := range ev.Results {
		if r.Status == rules.StatusError {
			return true
		}
	}
	return false
}

// Pending reports whether diagnostics or unapplied changes remain.
func (ev *Evaluation) Pending() bool {
	for _, r := range ev.Results {
		for _, e := range r.Effects {
			if e.Status == rules.StatusFail || e.Status == rules.StatusFixable {
				return true
			}
		}
	}
	return false
}

// markFixed flips staged changes of the given workspaces to FIXED.
func (ev *Evaluation) markFixed(cwds map[string]bool) {
	for i := range ev.Results {
		r := &ev.Results[i]
		if r.Status == rules.StatusError {
			continue
		}
		for j := range r.Effects {
			e := &r.Effects[j]
			if e.Kind.IsChange() && cwds[e.Workspace] {
				e.Status = rules.StatusFixed
			}
		}
		r.Status = rules.Summarize(r.Effects)
		r.Message = summaryMessage(r.Effects)
	}
	for i := range ev.staged {
		if cwds[ev.staged[i].Workspace] {
			ev.staged[i].Status = rules.StatusFixed
		}
	}
}

type ruleOutput struct {
	rule    rules.Rule
	effects []rules.Effect
	err     error
}

// Evaluate runs every rule once against the same snapshot. Rules never see
// each other's effects. A rule error is recorded and evaluation moves on.
func (e *Engine) Evaluate(ctx context.Context, p *workspace.Project, selected []rules.Rule) *Evaluation {
	outputs := make([]ruleOutput, 0, len(selected))
	for _, r := range selected {
		out := ruleOutput{rule: r}
		if err := ctx.Err(); err != nil {
			out.err = err
			outputs = append(outputs, out)
			continue
		}
		effects, err := r.Evaluate(ctx, p)
		if err == nil {
			err = validateEffects(p, effects)
		}
		if err != nil {
			e.logger.Debug("rule failed", zap.String("rule", r.ID()), zap.Error(err))
			out.err = err
			outputs = append(outputs, out)
			continue
		}
		for i := range effects {
			if effects[i].RuleID == "" {
				effects[i].RuleID = r.ID()
			}
		}
		out.effects = effects
		outputs = append(outputs, out)
	}

	return stage(p, outputs)
}

// validateEffects rejects effects the applier could never commit.
func validateEffects(p *workspace.Project, effects []rules.Effect) error {
	for _, eff := range effects {
		if _, ok := p.Workspace(eff.Workspace); !ok {
			return fmt.Errorf("effect targets unknown workspace %q", eff.Workspace)
		}
		if eff.Kind.IsChange() && len(eff.Path) == 0 {
			return fmt.Errorf("%s effect on %s has no path", eff.Kind, eff.Workspace)
		}
		if eff.Kind != rules.KindError && !eff.Kind.IsChange() {
			return fmt.Errorf("unknown effect kind %q", eff.Kind)
		}
	}
	return nil
}

type stagedTarget struct {
	effects []rules.Effect
}

func stage(p *workspace.Project, outputs []ruleOutput) *Evaluation {
	// Group change effects by target in first-encountered order.
	var order []string
	targets := make(map[string]*stagedTarget)
	for i := range outputs {
		kept := outputs[i].effects[:0:0]
		for _, eff := range outputs[i].effects {
			if !eff.Kind.IsChange() {
				kept = append(kept, eff)
				continue
			}
			if isNoop(p, eff) {
				continue
			}
			t, ok := targets[eff.Target()]
			if !ok {
				t = &stagedTarget{}
				targets[eff.Target()] = t
				order = append(order, eff.Target())
			}
			if containsChange(t.effects, eff) {
				continue
			}
			t.effects = append(t.effects, eff)
			kept = append(kept, eff)
		}
		outputs[i].effects = kept
	}

	conflicted := make(map[string]bool)
	winners := make(map[string]rules.Effect)
	var staged, conflicts []rules.Effect
	for _, key := range order {
		t := targets[key]
		candidates := configured(t.effects)
		first := candidates[0]
		agree := true
		for _, other := range candidates[1:] {
			if !first.SameChange(other) {
				agree = false
				break
			}
		}
		if agree {
			first.Status = rules.StatusFixable
			staged = append(staged, first)
			winners[key] = first
			continue
		}
		conflicted[key] = true
		conflicts = append(conflicts, conflictDiagnostic(candidates))
	}

	ev := &Evaluation{staged: staged}
	for _, out := range outputs {
		if out.err != nil {
			ev.Results = append(ev.Results, rules.Result{
				RuleID:  out.rule.ID(),
				Status:  rules.StatusError,
				Message: fmt.Sprintf("evaluation failed: %v", out.err),
			})
			continue
		}
		var effects []rules.Effect
		for _, eff := range out.effects {
			switch {
			case eff.Kind == rules.KindError:
				eff.Status = rules.StatusFail
			case conflicted[eff.Target()]:
				continue
			case eff.Derived && !eff.SameChange(winners[eff.Target()]):
				continue
			default:
				eff.Status = rules.StatusFixable
			}
			effects = append(effects, eff)
		}
		ev.Results = append(ev.Results, rules.Result{
			RuleID:  out.rule.ID(),
			Status:  rules.Summarize(effects),
			Message: summaryMessage(effects),
			Effects: effects,
		})
	}
	if len(conflicts) > 0 {
		ev.Results = append(ev.Results, rules.Result{
			RuleID:  ConflictRuleID,
			Status:  rules.StatusFail,
			Message: summaryMessage(conflicts),
			Effects: conflicts,
		})
	}
	return ev
}

// configured returns the changes staged from rule configuration, or all of
// them when every change on the target is derived.
func configured(effects []rules.Effect) []rules.Effect {
	var out []rules.Effect
	for _, eff := range effects {
		if !eff.Derived {
			out = append(out, eff)
		}
	}
	if len(out) == 0 {
		return effects
	}
	return out
}

// isNoop reports whether applying the change would leave the manifest as is.
func isNoop(p *workspace.Project, eff rules.Effect) bool {
	ws, ok := p.Workspace(eff.Workspace)
	if !ok {
		return false
	}
	cur, present := ws.Get(eff.Path...)
	if eff.Kind.Removes() {
		return !present
	}
	return present && sameJSON(cur, eff.Value)
}

func containsChange(list []rules.Effect, eff rules.Effect) bool {
	for _, o := range list {
		if o.RuleID == eff.RuleID && o.SameChange(eff) {
			return true
		}
	}
	return false
}

func sameJSON(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}

func conflictDiagnostic(effects []rules.Effect) rules.Effect {
	first := effects[0]
	wants := make([]string, 0, len(effects))
	for _, eff := range effects {
		if eff.Kind.Removes() {
			wants = append(wants, fmt.Sprintf("%s removes it", eff.RuleID))
			continue
		}
		v, _ := json.Marshal(eff.Value)
		wants = append(wants, fmt.Sprintf("%s wants %s", eff.RuleID, v))
	}
	return rules.Effect{
		RuleID:         ConflictRuleID,
		Kind:           rules.KindError,
		Status:         rules.StatusFail,
		Workspace:      first.Workspace,
		Ident:          first.Ident,
		Dependency:     first.Dependency,
		DependencyType: first.DependencyType,
		Path:           first.Path,
		Message:        fmt.Sprintf("conflicting changes to %s: %s", first.Field(), strings.Join(wants, ", ")),
	}
}

func summaryMessage(effects []rules.Effect) string {
	counts := make(map[rules.Status]int)
	for _, eff := range effects {
		counts[eff.Status]++
	}
	var parts []string
	if n := counts[rules.StatusFail]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d diagnostic(s)", n))
	}
	if n := counts[rules.StatusFixable]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d staged change(s)", n))
	}
	if n := counts[rules.StatusFixed]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d fixed", n))
	}
	return strings.Join(parts, ", ")
}
