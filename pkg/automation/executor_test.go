package automation

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
	"github.com/loomline/loomline/pkg/registry"
)

// stubAction fails a configurable number of times before succeeding, and
// counts invocations.
type stubAction struct {
	calls    *atomic.Int32
	failures int
	output   any
}

func (a *stubAction) Execute(_ context.Context, _ models.ExecutionContext, _ *slog.Logger) (any, error) {
	call := a.calls.Add(1)
	if int(call) <= a.failures {
		return nil, errors.New("stub failure")
	}

	return a.output, nil
}

type stubFactory struct {
	id      models.ActionType
	actions map[string]*stubAction
}

func (f *stubFactory) Create(config map[string]any) (protocol.Action, error) {
	name, _ := config["name"].(string)

	action, ok := f.actions[name]
	if !ok {
		return nil, errors.New("unknown stub action")
	}

	return action, nil
}

func (f *stubFactory) ID() models.ActionType { return f.id }

func (f *stubFactory) Schema() map[string]any { return nil }

func newStubRegistry(t *testing.T, factory *stubFactory) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	reg.Register(factory)

	return reg
}

func stubSpec(factory *stubFactory, name string, failures int, retries int) (models.ActionSpec, *stubAction) {
	action := &stubAction{calls: &atomic.Int32{}, failures: failures, output: name + "-output"}
	factory.actions[name] = action

	return models.ActionSpec{
		Type:          factory.id,
		Config:        map[string]any{"name": name},
		RetryAttempts: retries,
	}, action
}

func TestExecute_CriticalHaltsAfterFailure(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	specA, actionA := stubSpec(factory, "a", 0, 0)
	specB, actionB := stubSpec(factory, "b", 99, 0)
	specC, actionC := stubSpec(factory, "c", 0, 0)

	executor := NewActionExecutor(newStubRegistry(t, factory), slog.Default())

	workflow := &models.AutomationWorkflow{
		Priority: models.PriorityCritical,
		Actions:  []models.ActionSpec{specA, specB, specC},
	}

	results := executor.Execute(context.Background(), workflow, models.ExecutionContext{})
	require.Len(t, results, 3)

	assert.Equal(t, models.ActionResultSuccess, results[0].Status)
	assert.Equal(t, models.ActionResultFailed, results[1].Status)
	assert.Equal(t, models.ActionResultSkipped, results[2].Status)

	assert.Equal(t, int32(1), actionA.calls.Load())
	assert.Equal(t, int32(1), actionB.calls.Load())
	assert.Equal(t, int32(0), actionC.calls.Load(), "halted action must never be attempted")
}

func TestExecute_MediumContinuesPastFailure(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	specA, _ := stubSpec(factory, "a", 0, 0)
	specB, _ := stubSpec(factory, "b", 99, 0)
	specC, actionC := stubSpec(factory, "c", 0, 0)

	executor := NewActionExecutor(newStubRegistry(t, factory), slog.Default())

	workflow := &models.AutomationWorkflow{
		Priority: models.PriorityMedium,
		Actions:  []models.ActionSpec{specA, specB, specC},
	}

	results := executor.Execute(context.Background(), workflow, models.ExecutionContext{})
	require.Len(t, results, 3)

	assert.Equal(t, models.ActionResultSuccess, results[0].Status)
	assert.Equal(t, models.ActionResultFailed, results[1].Status)
	assert.Equal(t, models.ActionResultSuccess, results[2].Status)
	assert.Equal(t, int32(1), actionC.calls.Load())
}

func TestExecute_RetriesAreBounded(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	spec, action := stubSpec(factory, "flaky", 2, 3)

	executor := NewActionExecutor(newStubRegistry(t, factory), slog.Default())

	workflow := &models.AutomationWorkflow{
		Priority: models.PriorityMedium,
		Actions:  []models.ActionSpec{spec},
	}

	results := executor.Execute(context.Background(), workflow, models.ExecutionContext{})
	require.Len(t, results, 1)

	// Two failures, success on the third of four allowed attempts.
	assert.Equal(t, models.ActionResultSuccess, results[0].Status)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, int32(3), action.calls.Load())

	// Exhausted retries end FAILED with every attempt consumed.
	factory.actions = map[string]*stubAction{}
	spec, action = stubSpec(factory, "flaky", 99, 2)
	workflow.Actions = []models.ActionSpec{spec}

	results = executor.Execute(context.Background(), workflow, models.ExecutionContext{})
	require.Len(t, results, 1)
	assert.Equal(t, models.ActionResultFailed, results[0].Status)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, int32(3), action.calls.Load())
}

func TestExecute_DelaySuspendsOnlyThisRun(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	spec, action := stubSpec(factory, "delayed", 0, 0)
	spec.DelayMinutes = 2

	executor := NewActionExecutor(newStubRegistry(t, factory), slog.Default(),
		WithDelayUnit(10*time.Millisecond))

	workflow := &models.AutomationWorkflow{
		Priority: models.PriorityMedium,
		Actions:  []models.ActionSpec{spec},
	}

	started := time.Now()
	results := executor.Execute(context.Background(), workflow, models.ExecutionContext{})

	require.Len(t, results, 1)
	assert.Equal(t, models.ActionResultSuccess, results[0].Status)
	assert.Equal(t, int32(1), action.calls.Load())
	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
}

func TestExecute_CancelledDelayFailsAction(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	spec, action := stubSpec(factory, "delayed", 0, 0)
	spec.DelayMinutes = 10

	executor := NewActionExecutor(newStubRegistry(t, factory), slog.Default(),
		WithDelayUnit(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	workflow := &models.AutomationWorkflow{
		Priority: models.PriorityMedium,
		Actions:  []models.ActionSpec{spec},
	}

	results := executor.Execute(ctx, workflow, models.ExecutionContext{})
	require.Len(t, results, 1)
	assert.Equal(t, models.ActionResultFailed, results[0].Status)
	assert.Equal(t, int32(0), action.calls.Load())
}

func TestExecute_OutputsVisibleToLaterActions(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	specA, _ := stubSpec(factory, "a", 0, 0)
	specB, _ := stubSpec(factory, "b", 0, 0)

	executor := NewActionExecutor(newStubRegistry(t, factory), slog.Default())

	workflow := &models.AutomationWorkflow{
		Priority: models.PriorityMedium,
		Actions:  []models.ActionSpec{specA, specB},
	}

	executionCtx := models.ExecutionContext{ActionOutputs: make(map[int]any)}
	results := executor.Execute(context.Background(), workflow, executionCtx)

	require.Len(t, results, 2)
	assert.Equal(t, "a-output", executionCtx.ActionOutputs[0])
	assert.Equal(t, "b-output", executionCtx.ActionOutputs[1])
}
