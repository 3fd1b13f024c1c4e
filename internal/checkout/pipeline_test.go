package checkout

import (
	"context"
	"errors"
	"testing"

	"tourly/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingStep(name string, priority int, ran *[]string, err error) Step {
	return Step{
		Name:     name,
		Priority: priority,
		Execute: func(_ context.Context, _ *PurchaseContext) error {
			*ran = append(*ran, name)
			return err
		},
	}
}

func TestPipelineRunsStepsByPriority(t *testing.T) {
	var ran []string
	p := NewPipeline(logger.GetDefault(),
		recordingStep("third", 30, &ran, nil),
		recordingStep("first", 10, &ran, nil),
		recordingStep("second", 20, &ran, nil),
	)

	require.NoError(t, p.Run(context.Background(), &PurchaseContext{}))
	assert.Equal(t, []string{"first", "second", "third"}, ran)
	assert.Equal(t, []string{"first", "second", "third"}, p.Steps())
}

func TestPipelineFailsFast(t *testing.T) {
	var ran []string
	boom := errors.New("no seats left")
	p := NewPipeline(logger.GetDefault(),
		recordingStep("validate", 10, &ran, nil),
		recordingStep("reserve", 20, &ran, boom),
		recordingStep("persist", 30, &ran, nil),
	)

	err := p.Run(context.Background(), &PurchaseContext{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"validate", "reserve"}, ran, "later steps must not run after a failure")
}

func TestPipelineEqualPrioritiesKeepInsertionOrder(t *testing.T) {
	var ran []string
	p := NewPipeline(logger.GetDefault(),
		recordingStep("a", 10, &ran, nil),
		recordingStep("b", 10, &ran, nil),
		recordingStep("c", 10, &ran, nil),
	)

	require.NoError(t, p.Run(context.Background(), &PurchaseContext{}))
	assert.Equal(t, []string{"a", "b", "c"}, ran)
}
