package automation

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/events"
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/persistence/file"
	"github.com/loomline/loomline/pkg/registry"
)

func newTestEngine(t *testing.T, factory *stubFactory) (*Engine, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(slog.Default())
	if factory != nil {
		reg.Register(factory)
	}

	engine := NewEngine(store, reg, NewOrderFieldResolver(store.OrderRepository()), nil, slog.Default())

	return engine, store
}

func seedWorkflow(t *testing.T, store persistence.Persistence, workflow *models.AutomationWorkflow) *models.AutomationWorkflow {
	t.Helper()

	if workflow.ID == "" {
		workflow.ID = "wf-" + workflow.Name
	}

	require.NoError(t, store.WorkflowRepository().Save(context.Background(), workflow))

	return workflow
}

func TestEnqueue_ReturnsRunningImmediately(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	spec, _ := stubSpec(factory, "a", 0, 0)

	engine, store := newTestEngine(t, factory)
	ctx := context.Background()

	workflow := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "notify",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeManual},
		Actions:     []models.ActionSpec{spec},
		IsActive:    true,
		Status:      models.WorkflowStatusActive,
	})

	execution, err := engine.Enqueue(ctx, ExecuteRequest{WorkflowID: workflow.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)
	assert.NotEmpty(t, execution.ID)

	engine.Wait()

	stored, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, stored.Status)
	require.Len(t, stored.ActionResults, 1)
	assert.Equal(t, models.ActionResultSuccess, stored.ActionResults[0].Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestEnqueue_ConditionsNotMetSkips(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	spec, action := stubSpec(factory, "a", 0, 0)

	engine, store := newTestEngine(t, factory)
	ctx := context.Background()

	workflow := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "conditional",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeEvent},
		Conditions: []models.Condition{
			{Field: "region", Operator: models.OperatorEquals, Value: "PH"},
		},
		Actions:  []models.ActionSpec{spec},
		IsActive: true,
		Status:   models.WorkflowStatusActive,
	})

	execution, err := engine.Enqueue(ctx, ExecuteRequest{
		WorkflowID:  workflow.ID,
		TriggerData: map[string]any{"region": "US"},
	})
	require.NoError(t, err)

	engine.Wait()

	stored, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSkipped, stored.Status)
	assert.Equal(t, "conditions not met", stored.SkipReason)
	assert.Equal(t, int32(0), action.calls.Load())
}

func TestEnqueue_FailedActionFailsExecution(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	spec, _ := stubSpec(factory, "broken", 99, 0)

	engine, store := newTestEngine(t, factory)
	ctx := context.Background()

	workflow := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "failing",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeManual},
		Actions:     []models.ActionSpec{spec},
		IsActive:    true,
		Status:      models.WorkflowStatusActive,
	})

	execution, err := engine.Enqueue(ctx, ExecuteRequest{WorkflowID: workflow.ID})
	require.NoError(t, err)

	engine.Wait()

	stored, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, stored.Status)
}

func TestEnqueue_InactiveRefusesUnlessForced(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	spec, _ := stubSpec(factory, "a", 0, 0)

	engine, store := newTestEngine(t, factory)
	ctx := context.Background()

	workflow := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "inactive",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeManual},
		Actions:     []models.ActionSpec{spec},
		IsActive:    false,
		Status:      models.WorkflowStatusActive,
	})

	_, err := engine.Enqueue(ctx, ExecuteRequest{WorkflowID: workflow.ID})
	assert.ErrorIs(t, err, ErrWorkflowInactive)

	execution, err := engine.Enqueue(ctx, ExecuteRequest{WorkflowID: workflow.ID, Force: true})
	require.NoError(t, err)

	engine.Wait()

	stored, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, stored.Status)
}

func TestEnqueue_DeletedAlwaysRefuses(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	ctx := context.Background()

	workflow := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "gone",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeManual},
		Actions:     []models.ActionSpec{{Type: models.ActionTypeWebhook}},
		IsActive:    true,
		Status:      models.WorkflowStatusActive,
	})
	require.NoError(t, store.WorkflowRepository().SoftDelete(ctx, workflow.ID))

	_, err := engine.Enqueue(ctx, ExecuteRequest{WorkflowID: workflow.ID, Force: true})
	assert.ErrorIs(t, err, ErrWorkflowDeleted)
}

func TestEnqueue_UnknownWorkflow(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	_, err := engine.Enqueue(context.Background(), ExecuteRequest{WorkflowID: "missing"})
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestDispatchOrderStatusChanged_StartsListeningWorkflows(t *testing.T) {
	factory := &stubFactory{id: models.ActionTypeWebhook, actions: map[string]*stubAction{}}
	specA, _ := stubSpec(factory, "a", 0, 0)
	specB, _ := stubSpec(factory, "b", 0, 0)
	specC, actionC := stubSpec(factory, "c", 0, 0)

	engine, store := newTestEngine(t, factory)
	ctx := context.Background()

	listener := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "on-any-change",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeEvent},
		Actions:     []models.ActionSpec{specA},
		IsActive:    true,
		Status:      models.WorkflowStatusActive,
	})
	narrowed := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "on-qc",
		WorkspaceID: "ws-1",
		Trigger: models.WorkflowTrigger{
			Type:   models.TriggerTypeEvent,
			Config: map[string]any{"to_status": "QC"},
		},
		Actions:  []models.ActionSpec{specB},
		IsActive: true,
		Status:   models.WorkflowStatusActive,
	})
	seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "manual-only",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeManual},
		Actions:     []models.ActionSpec{specC},
		IsActive:    true,
		Status:      models.WorkflowStatusActive,
	})

	change := events.OrderStatusChanged{
		BaseEvent:  events.NewBaseEvent(events.OrderStatusChangedEvent, "ws-1"),
		OrderID:    "ord-1",
		FromStatus: models.OrderStatusInProgress,
		ToStatus:   models.OrderStatusQC,
	}

	started := engine.DispatchOrderStatusChanged(ctx, change)
	engine.Wait()

	require.Len(t, started, 2)
	assert.Equal(t, int32(0), actionC.calls.Load(), "manual workflows never fire on events")

	workflowIDs := []string{started[0].WorkflowID, started[1].WorkflowID}
	assert.ElementsMatch(t, []string{listener.ID, narrowed.ID}, workflowIDs)

	// A change the narrowed workflow does not listen for.
	change.ToStatus = models.OrderStatusPacking
	change.FromStatus = models.OrderStatusQC

	started = engine.DispatchOrderStatusChanged(ctx, change)
	engine.Wait()

	require.Len(t, started, 1)
	assert.Equal(t, listener.ID, started[0].WorkflowID)
}

func TestRun_PanicTerminatesAsError(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	ctx := context.Background()

	workflow := seedWorkflow(t, store, &models.AutomationWorkflow{
		Name:        "panicky",
		WorkspaceID: "ws-1",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTypeManual},
		Actions:     []models.ActionSpec{{Type: models.ActionTypeWebhook}},
		IsActive:    true,
		Status:      models.WorkflowStatusActive,
	})

	execution := &models.WorkflowExecution{
		ID:         "exec-panic",
		WorkflowID: workflow.ID,
		Status:     models.ExecutionStatusRunning,
	}
	require.NoError(t, store.ExecutionRepository().Save(ctx, execution))

	engine.executor = nil // forces a nil-dereference panic inside run

	engine.run(ctx, workflow, execution)

	stored, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusError, stored.Status, "a panic must never leave the execution RUNNING")
	assert.NotEmpty(t, stored.Error)
}
