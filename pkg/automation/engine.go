// Package automation manages workflow definitions and drives their
// execution: trigger fire, condition evaluation, action execution and the
// execution record's lifecycle.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/loomline/loomline/pkg/eventbus"
	"github.com/loomline/loomline/pkg/events"
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/otelhelper"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/registry"
)

var (
	// ErrWorkflowInactive is returned when a workflow with is_active=false
	// is triggered without force_execution.
	ErrWorkflowInactive = errors.New("workflow is inactive")

	// ErrWorkflowDeleted is returned for soft-deleted workflows; deletion
	// is final for execution purposes, force does not override it.
	ErrWorkflowDeleted = errors.New("workflow is deleted")
)

// Engine drives workflow executions. Enqueue is fire-and-forget: the
// caller gets the RUNNING execution record immediately and the run
// proceeds on its own goroutine to one of the terminal statuses. There is
// no cancellation path for an in-flight execution; runs go to completion.
type Engine struct {
	store      persistence.Persistence
	registry   *registry.Registry
	evaluator  *ConditionEvaluator
	executor   *ActionExecutor
	bus        eventbus.EventPublisher
	logger     *slog.Logger
	tracer     trace.Tracer
	inFlight   sync.WaitGroup
	runTimeout time.Duration
}

type EngineOption func(*Engine)

// WithTracer attaches a tracer; executions are traced span-per-run.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = tracer }
}

// WithExecutor replaces the default action executor.
func WithExecutor(executor *ActionExecutor) EngineOption {
	return func(e *Engine) { e.executor = executor }
}

// WithRunTimeout bounds a single execution's wall time.
func WithRunTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) { e.runTimeout = timeout }
}

func NewEngine(
	store persistence.Persistence,
	reg *registry.Registry,
	resolver *OrderFieldResolver,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
	opts ...EngineOption,
) *Engine {
	engine := &Engine{
		store:      store,
		registry:   reg,
		evaluator:  NewConditionEvaluator(resolver),
		bus:        bus,
		logger:     logger.With("module", "automation"),
		tracer:     noop.NewTracerProvider().Tracer("automation"),
		runTimeout: time.Hour,
	}

	engine.executor = NewActionExecutor(reg, logger)

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// ExecuteRequest asks for one workflow run.
type ExecuteRequest struct {
	WorkflowID  string
	WorkspaceID string
	TriggerData map[string]any
	Force       bool
}

// Enqueue validates the request, records a RUNNING execution and starts
// the run in the background. The returned execution is the caller's
// acknowledgement; its terminal state is reached asynchronously.
func (e *Engine) Enqueue(ctx context.Context, req ExecuteRequest) (*models.WorkflowExecution, error) {
	workflow, err := e.store.WorkflowRepository().GetByID(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status == models.WorkflowStatusDeleted {
		return nil, ErrWorkflowDeleted
	}

	if !workflow.IsActive && !req.Force {
		return nil, ErrWorkflowInactive
	}

	workspaceID := req.WorkspaceID
	if workspaceID == "" {
		workspaceID = workflow.WorkspaceID
	}

	execution := &models.WorkflowExecution{
		ID:          uuid.New().String(),
		WorkflowID:  workflow.ID,
		WorkspaceID: workspaceID,
		Status:      models.ExecutionStatusRunning,
		TriggerData: req.TriggerData,
		StartedAt:   time.Now().UTC(),
	}

	if err := e.store.ExecutionRepository().Save(ctx, execution); err != nil {
		return nil, err
	}

	e.publish(ctx, workflow.ID, events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, workspaceID),
		WorkflowID:  workflow.ID,
		ExecutionID: execution.ID,
		TriggerType: workflow.Trigger.Type,
		TriggerData: req.TriggerData,
	})
	e.publish(ctx, workflow.ID, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, workspaceID),
		ExecutionID: execution.ID,
		WorkflowID:  workflow.ID,
	})

	e.inFlight.Add(1)

	go func() {
		defer e.inFlight.Done()

		// The run outlives the enqueue request, so it gets its own
		// context rather than inheriting the caller's.
		runCtx, cancel := context.WithTimeout(context.Background(), e.runTimeout)
		defer cancel()

		e.run(runCtx, workflow, execution)
	}()

	return execution, nil
}

// DispatchOrderStatusChanged starts every active EVENT workflow
// listening for the order's status change. A workflow may narrow its
// trigger with config keys "event" and "to_status". Failing to start
// one workflow never stops the others; the executions that did start
// are returned.
func (e *Engine) DispatchOrderStatusChanged(ctx context.Context, change events.OrderStatusChanged) []*models.WorkflowExecution {
	active := models.WorkflowStatusActive

	workflows, err := e.store.WorkflowRepository().List(ctx, &active)
	if err != nil {
		e.logger.Error("failed to list workflows for event dispatch", "error", err)

		return nil
	}

	triggerData := map[string]any{
		"event":       string(events.OrderStatusChangedEvent),
		"order_id":    change.OrderID,
		"from_status": string(change.FromStatus),
		"to_status":   string(change.ToStatus),
		"actor":       change.Actor,
		"forced":      change.Forced,
		"progress":    change.Progress,
	}

	var started []*models.WorkflowExecution

	for _, workflow := range workflows {
		if !e.listensTo(workflow, change) {
			continue
		}

		execution, err := e.Enqueue(ctx, ExecuteRequest{
			WorkflowID:  workflow.ID,
			WorkspaceID: change.WorkspaceID,
			TriggerData: triggerData,
		})
		if err != nil {
			e.logger.Error("failed to start event-triggered workflow",
				"workflow_id", workflow.ID, "order_id", change.OrderID, "error", err)

			continue
		}

		started = append(started, execution)
	}

	return started
}

func (e *Engine) listensTo(workflow *models.AutomationWorkflow, change events.OrderStatusChanged) bool {
	if workflow.Trigger.Type != models.TriggerTypeEvent || !workflow.IsActive {
		return false
	}

	if event, ok := workflow.Trigger.Config["event"].(string); ok && event != "" {
		if event != string(events.OrderStatusChangedEvent) {
			return false
		}
	}

	if toStatus, ok := workflow.Trigger.Config["to_status"].(string); ok && toStatus != "" {
		if toStatus != string(change.ToStatus) {
			return false
		}
	}

	return true
}

// EnqueueWorkflow starts a run from trigger data alone. Adapts Enqueue
// for trigger sources that know nothing about execute requests.
func (e *Engine) EnqueueWorkflow(ctx context.Context, workflowID string, triggerData map[string]any) error {
	_, err := e.Enqueue(ctx, ExecuteRequest{WorkflowID: workflowID, TriggerData: triggerData})

	return err
}

// Wait blocks until every in-flight execution has reached a terminal
// state. Used on shutdown and in tests.
func (e *Engine) Wait() {
	e.inFlight.Wait()
}

// run takes the execution from RUNNING to exactly one terminal status.
// A panic anywhere in the run terminates it as ERROR, never leaves it
// RUNNING.
func (e *Engine) run(ctx context.Context, workflow *models.AutomationWorkflow, execution *models.WorkflowExecution) {
	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execution",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.WorkspaceIDKey, execution.WorkspaceID),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("execution panicked: %v", r)
			logger.Error("execution terminated by panic", "panic", r)
			otelhelper.SetError(span, err)
			e.finalize(ctx, execution, models.ExecutionStatusError, func(ex *models.WorkflowExecution) {
				ex.Error = err.Error()
			})
		}
	}()

	logger.Info("execution started", "priority", workflow.Priority, "actions", len(workflow.Actions))

	passed, err := e.evaluator.Evaluate(ctx, workflow.Conditions, execution.TriggerData)
	if err != nil {
		logger.Error("condition evaluation failed", "error", err)
		otelhelper.SetError(span, err)
		e.finalize(ctx, execution, models.ExecutionStatusError, func(ex *models.WorkflowExecution) {
			ex.Error = fmt.Sprintf("condition evaluation failed: %v", err)
		})

		return
	}

	if !passed {
		logger.Info("conditions not met, execution skipped")
		e.finalize(ctx, execution, models.ExecutionStatusSkipped, func(ex *models.WorkflowExecution) {
			ex.SkipReason = "conditions not met"
		})

		return
	}

	executionCtx := models.ExecutionContext{
		ExecutionID:   execution.ID,
		WorkflowID:    workflow.ID,
		WorkspaceID:   execution.WorkspaceID,
		TriggerData:   execution.TriggerData,
		ActionOutputs: make(map[int]any),
	}

	results := e.executor.Execute(ctx, workflow, executionCtx)

	status := models.ExecutionStatusCompleted

	for _, result := range results {
		if result.Status == models.ActionResultFailed {
			status = models.ExecutionStatusFailed

			break
		}
	}

	logger.Info("execution finished", "status", status, "actions_run", len(results))

	e.finalize(ctx, execution, status, func(ex *models.WorkflowExecution) {
		ex.ActionResults = results
	})
}

// finalize writes the terminal state exactly once and announces it.
func (e *Engine) finalize(
	ctx context.Context,
	execution *models.WorkflowExecution,
	status models.ExecutionStatus,
	mutate func(*models.WorkflowExecution),
) {
	now := time.Now().UTC()
	execution.Status = status
	execution.CompletedAt = &now
	execution.ElapsedMs = now.Sub(execution.StartedAt).Milliseconds()

	if mutate != nil {
		mutate(execution)
	}

	if err := e.store.ExecutionRepository().Save(ctx, execution); err != nil {
		e.logger.Error("failed to save terminal execution state",
			"execution_id", execution.ID, "status", status, "error", err)
	}

	e.publish(ctx, execution.WorkflowID, events.ExecutionFinished{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFinishedEvent, execution.WorkspaceID),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		Status:      status,
		ElapsedMs:   execution.ElapsedMs,
		Error:       execution.Error,
	})
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.Warn("failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
