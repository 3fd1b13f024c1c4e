package checkout

import (
	"context"
	"sort"

	"tourly/pkg/logger"
)

// Step is one unit of the purchase pipeline. Steps only communicate through
// the shared PurchaseContext, so new steps can be inserted by priority
// without touching existing ones.
type Step struct {
	Name     string
	Priority int
	Execute  func(ctx context.Context, pc *PurchaseContext) error
}

// Pipeline runs steps in ascending priority order, failing fast on the
// first error. Work persisted by earlier steps is not rolled back; the
// expiring hold bounds the damage of a partial run.
type Pipeline struct {
	steps  []Step
	logger *logger.Logger
}

func NewPipeline(log *logger.Logger, steps ...Step) *Pipeline {
	ordered := make([]Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	return &Pipeline{steps: ordered, logger: log}
}

func (p *Pipeline) Run(ctx context.Context, pc *PurchaseContext) error {
	for _, step := range p.steps {
		if err := step.Execute(ctx, pc); err != nil {
			p.logger.ErrorWithContext(ctx, "purchase pipeline step failed", err, map[string]interface{}{
				"step":     step.Name,
				"priority": step.Priority,
			})
			return err
		}
	}
	return nil
}

// Steps exposes the resolved order, mainly for tests and diagnostics.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name
	}
	return names
}
