package pipeline

import (
	"context"
	"fmt"

	"github.com/snipline/cutout/common/logger"
)

// Pipeline folds a buffer through an ordered list of steps.
// It is a pure sequential transform: steps own any I/O and retries,
// the pipeline only orders them and stops at the first failure.
type Pipeline struct {
	steps []Step
	log   *logger.Logger
}

// New creates a pipeline. Zero steps is a configuration error.
func New(log *logger.Logger, steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one step")
	}
	return &Pipeline{
		steps: steps,
		log:   log,
	}, nil
}

// Execute runs each step in order. The first StepError aborts execution
// and is returned unchanged so the caller knows exactly which step failed.
func (p *Pipeline) Execute(ctx context.Context, input []byte) ([]byte, *StepError) {
	buf := input
	for _, step := range p.steps {
		out, stepErr := step.Process(ctx, buf)
		if stepErr != nil {
			p.log.Warn("pipeline step failed",
				"step", stepErr.Step,
				"code", stepErr.Code,
				"error", stepErr.Message)
			return nil, stepErr
		}
		p.log.Debug("pipeline step complete", "step", step.Name(), "size_bytes", len(out))
		buf = out
	}
	return buf, nil
}

// Steps returns the step names in execution order
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}
