// Package plan partitions ranked recommendations into an ordered set of
// remediation phases grouped by execution-risk profile.
package plan

import (
	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/priority"
)

// Task is one remediation step inside a phase. Hint is advisory text for a
// human; the pipeline never parses or executes it.
type Task struct {
	Kind        metric.IssueKind `json:"kind"`
	Description string           `json:"description"`
	Solution    string           `json:"solution"`
	Hint        string           `json:"hint,omitempty"`

	TestingRequired  bool `json:"testing_required,omitempty"`
	ApprovalRequired bool `json:"approval_required,omitempty"`

	// Applied is set by the orchestrator when quick-fix auto-application
	// marks this task done.
	Applied bool `json:"applied,omitempty"`
}

// Phase groups tasks sharing a risk profile, used to sequence rollout.
type Phase struct {
	Name             string `json:"name"`
	ExpectedDuration string `json:"expected_duration"`
	Tasks            []Task `json:"tasks"`
}

// Plan is the ordered sequence of phases for one run. Dropped counts the
// ranked recommendations that matched no phase filter and were left out.
type Plan struct {
	Phases  []Phase `json:"phases"`
	Dropped int     `json:"dropped"`
}

// TaskCount returns the total number of tasks across all phases.
func (p Plan) TaskCount() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Tasks)
	}
	return n
}

// Phase returns a pointer to the named phase, or nil if absent.
func (p *Plan) Phase(name string) *Phase {
	for i := range p.Phases {
		if p.Phases[i].Name == name {
			return &p.Phases[i]
		}
	}
	return nil
}

// Phase names, in rollout order.
const (
	PhaseQuickWins    = "Quick Wins"
	PhaseMediumRisk   = "Medium Risk Optimizations"
	PhaseArchitecture = "Architecture Changes"
)

// Build partitions the ranked recommendations into up to three fixed
// phases. Filters are evaluated in phase order and a recommendation lands
// in the first phase that matches, so membership is disjoint. Phases with
// no matching tasks are omitted. Recommendations matching no filter are
// dropped and only counted; that asymmetry is deliberate and surfaced to
// the caller via Dropped.
func Build(ranked []priority.Ranked) Plan {
	var quick, medium, arch []Task
	dropped := 0

	for _, r := range ranked {
		switch {
		case r.Risk == metric.RiskLow &&
			(r.Severity == metric.SeverityCritical || r.Severity == metric.SeverityHigh):
			quick = append(quick, task(r))

		case r.Risk == metric.RiskMedium:
			t := task(r)
			t.TestingRequired = true
			medium = append(medium, t)

		case r.Risk == metric.RiskHigh ||
			r.Kind == metric.KindInefficientAlgorithm || r.Kind == metric.KindHighCPU:
			t := task(r)
			t.ApprovalRequired = true
			arch = append(arch, t)

		default:
			dropped++
		}
	}

	var phases []Phase
	if len(quick) > 0 {
		phases = append(phases, Phase{Name: PhaseQuickWins, ExpectedDuration: "1-2 days", Tasks: quick})
	}
	if len(medium) > 0 {
		phases = append(phases, Phase{Name: PhaseMediumRisk, ExpectedDuration: "1-2 weeks", Tasks: medium})
	}
	if len(arch) > 0 {
		phases = append(phases, Phase{Name: PhaseArchitecture, ExpectedDuration: "2-4 weeks", Tasks: arch})
	}
	return Plan{Phases: phases, Dropped: dropped}
}

func task(r priority.Ranked) Task {
	return Task{
		Kind:        r.Kind,
		Description: r.Description,
		Solution:    r.Solution,
		Hint:        r.Hint,
	}
}
