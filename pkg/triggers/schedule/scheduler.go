// Package schedule fires SCHEDULE-triggered workflows on their cron
// expressions.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/loomline/loomline/pkg/models"
)

const defaultResyncInterval = time.Minute

// Enqueuer starts one workflow run. Satisfied by automation.Engine.
type Enqueuer interface {
	EnqueueWorkflow(ctx context.Context, workflowID string, triggerData map[string]any) error
}

// WorkflowSource lists the workflow definitions to schedule. Satisfied
// by persistence.WorkflowRepository.
type WorkflowSource interface {
	List(ctx context.Context, status *models.WorkflowStatus) ([]*models.AutomationWorkflow, error)
}

type scheduledEntry struct {
	id   cron.EntryID
	expr string
}

// Scheduler registers one cron entry per active SCHEDULE workflow and
// periodically re-syncs against the repository, so workflows created,
// re-activated, edited or soft deleted while the server runs gain or
// lose their entry without a restart. Entries run under
// SkipIfStillRunning, so a slow run never stacks up behind itself, and
// Recover, so a panicking run never kills the cron goroutine.
type Scheduler struct {
	source         WorkflowSource
	enqueuer       Enqueuer
	cron           *cron.Cron
	resyncInterval time.Duration
	done           chan struct{}
	logger         *slog.Logger

	mu      sync.Mutex
	entries map[string]scheduledEntry
}

type Option func(*Scheduler)

// WithResyncInterval overrides how often the entry set is reconciled
// against the repository.
func WithResyncInterval(interval time.Duration) Option {
	return func(s *Scheduler) { s.resyncInterval = interval }
}

func NewScheduler(source WorkflowSource, enqueuer Enqueuer, logger *slog.Logger, opts ...Option) *Scheduler {
	scheduler := &Scheduler{
		source:         source,
		enqueuer:       enqueuer,
		entries:        make(map[string]scheduledEntry),
		resyncInterval: defaultResyncInterval,
		done:           make(chan struct{}),
		logger:         logger.With("module", "schedule"),
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler
}

// CronExpression extracts and validates the cron expression from a
// workflow's trigger configuration.
func CronExpression(workflow *models.AutomationWorkflow) (string, error) {
	if workflow.Trigger.Type != models.TriggerTypeSchedule {
		return "", fmt.Errorf("workflow %s trigger is %s, not SCHEDULE", workflow.ID, workflow.Trigger.Type)
	}

	expr, _ := workflow.Trigger.Config["cron"].(string)
	if expr == "" {
		return "", errors.New("schedule trigger requires a cron expression")
	}

	if _, err := cron.ParseStandard(expr); err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return expr, nil
}

// Start performs the initial sync, starts the cron loop and launches
// the periodic re-sync.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if err := s.Sync(ctx); err != nil {
		return fmt.Errorf("failed to load workflows for scheduling: %w", err)
	}

	s.logger.InfoContext(ctx, "Starting scheduler", "entries", len(s.entries))
	s.cron.Start()

	go s.resyncLoop()

	return nil
}

// Sync reconciles the cron entries with the repository: workflows that
// became schedulable are registered, workflows that stopped being
// schedulable (deactivated, soft deleted, trigger changed) are removed,
// and a changed cron expression re-registers the entry. Workflows with
// invalid expressions are logged and skipped rather than failing the
// whole sync.
func (s *Scheduler) Sync(ctx context.Context) error {
	active := models.WorkflowStatusActive

	workflows, err := s.source.List(ctx, &active)
	if err != nil {
		return err
	}

	desired := make(map[string]string)

	for _, workflow := range workflows {
		if workflow.Trigger.Type != models.TriggerTypeSchedule || !workflow.IsActive {
			continue
		}

		expr, err := CronExpression(workflow)
		if err != nil {
			s.logger.ErrorContext(ctx, "Skipping unschedulable workflow",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		desired[workflow.ID] = expr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for workflowID, entry := range s.entries {
		expr, keep := desired[workflowID]
		if keep && expr == entry.expr {
			continue
		}

		s.cron.Remove(entry.id)
		delete(s.entries, workflowID)
		s.logger.InfoContext(ctx, "Unscheduled workflow", "workflow_id", workflowID)
	}

	for workflowID, expr := range desired {
		if _, ok := s.entries[workflowID]; ok {
			continue
		}

		id := workflowID

		entryID, err := s.cron.AddFunc(expr, func() {
			s.fire(id)
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to add cron entry",
				"workflow_id", workflowID, "error", err)

			continue
		}

		s.entries[workflowID] = scheduledEntry{id: entryID, expr: expr}
		s.logger.InfoContext(ctx, "Scheduled workflow", "workflow_id", workflowID, "cron", expr)
	}

	return nil
}

func (s *Scheduler) resyncLoop() {
	ticker := time.NewTicker(s.resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.Sync(context.Background()); err != nil {
				s.logger.Error("Failed to re-sync scheduled workflows", "error", err)
			}
		}
	}
}

func (s *Scheduler) fire(workflowID string) {
	triggerData := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	err := s.enqueuer.EnqueueWorkflow(context.Background(), workflowID, triggerData)
	if err != nil {
		s.logger.Error("Failed to start scheduled workflow",
			"workflow_id", workflowID, "error", err)
	}
}

// Stop halts the re-sync loop and the cron loop, waiting for running
// entries to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	if s.cron == nil {
		return nil
	}

	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
