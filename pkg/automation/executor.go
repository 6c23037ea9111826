package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/registry"
)

// ActionExecutor runs a workflow's action list strictly in order. A
// configured delay suspends only the calling goroutine, so one delayed
// execution never head-of-line-blocks others.
type ActionExecutor struct {
	registry  *registry.Registry
	logger    *slog.Logger
	delayUnit time.Duration
}

type ExecutorOption func(*ActionExecutor)

// WithDelayUnit rescales action delays. Tests use it to avoid real
// minute-long sleeps.
func WithDelayUnit(unit time.Duration) ExecutorOption {
	return func(x *ActionExecutor) { x.delayUnit = unit }
}

func NewActionExecutor(reg *registry.Registry, logger *slog.Logger, opts ...ExecutorOption) *ActionExecutor {
	executor := &ActionExecutor{
		registry:  reg,
		logger:    logger.With("module", "action_executor"),
		delayUnit: time.Minute,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs the action list and returns one result per action. For a
// CRITICAL workflow the first failure halts the run and the remaining
// actions are recorded SKIPPED; for any other priority every action is
// attempted regardless of earlier failures.
func (x *ActionExecutor) Execute(
	ctx context.Context,
	workflow *models.AutomationWorkflow,
	executionCtx models.ExecutionContext,
) []models.ActionResult {
	results := make([]models.ActionResult, 0, len(workflow.Actions))
	halted := false

	for index, spec := range workflow.Actions {
		if halted {
			results = append(results, models.ActionResult{
				Index:  index,
				Type:   spec.Type,
				Status: models.ActionResultSkipped,
				Error:  "skipped: earlier action failed on a CRITICAL workflow",
			})

			continue
		}

		if spec.DelayMinutes > 0 {
			if err := x.delay(ctx, spec.DelayMinutes); err != nil {
				results = append(results, models.ActionResult{
					Index:  index,
					Type:   spec.Type,
					Status: models.ActionResultFailed,
					Error:  err.Error(),
				})

				if workflow.Priority == models.PriorityCritical {
					halted = true
				}

				continue
			}
		}

		result := x.executeOne(ctx, index, spec, executionCtx)
		results = append(results, result)

		if result.Status == models.ActionResultSuccess {
			if executionCtx.ActionOutputs == nil {
				executionCtx.ActionOutputs = make(map[int]any)
			}

			executionCtx.ActionOutputs[index] = result.Output
		} else if workflow.Priority == models.PriorityCritical {
			halted = true
		}
	}

	return results
}

// delay suspends the calling goroutine only; ctx cancellation cuts the
// wait short.
func (x *ActionExecutor) delay(ctx context.Context, minutes int) error {
	select {
	case <-time.After(time.Duration(minutes) * x.delayUnit):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("delay interrupted: %w", ctx.Err())
	}
}

// executeOne runs a single action with bounded retry. Retries never
// re-run earlier actions of the same execution.
func (x *ActionExecutor) executeOne(
	ctx context.Context,
	index int,
	spec models.ActionSpec,
	executionCtx models.ExecutionContext,
) models.ActionResult {
	logger := x.logger.With(
		"execution_id", executionCtx.ExecutionID,
		"action_index", index,
		"action_type", spec.Type,
	)

	started := time.Now()

	action, err := x.registry.Create(spec.Type, spec.Config)
	if err != nil {
		logger.Error("failed to create action", "error", err)

		return models.ActionResult{
			Index:      index,
			Type:       spec.Type,
			Status:     models.ActionResultFailed,
			Error:      err.Error(),
			Attempts:   1,
			DurationMs: time.Since(started).Milliseconds(),
		}
	}

	attempts := spec.RetryAttempts + 1

	var (
		output  any
		lastErr error
	)

	attempt := 0

	for attempt = 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logger.Info("retrying action", "attempt", attempt, "max_attempts", attempts)
		}

		output, lastErr = action.Execute(ctx, executionCtx, logger)
		if lastErr == nil {
			break
		}
	}

	if lastErr != nil {
		logger.Error("action failed after all attempts", "error", lastErr, "attempts", attempts)

		return models.ActionResult{
			Index:      index,
			Type:       spec.Type,
			Status:     models.ActionResultFailed,
			Error:      lastErr.Error(),
			Attempts:   attempts,
			DurationMs: time.Since(started).Milliseconds(),
		}
	}

	return models.ActionResult{
		Index:      index,
		Type:       spec.Type,
		Status:     models.ActionResultSuccess,
		Output:     output,
		Attempts:   attempt,
		DurationMs: time.Since(started).Milliseconds(),
	}
}
