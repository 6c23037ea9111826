// Package createtask files a follow-up task through the task service.
package createtask

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
	"github.com/loomline/loomline/pkg/template"
)

type Action struct {
	Title       string
	Description string
	Assignee    string

	tasks protocol.TaskService
}

func NewAction(config map[string]any, tasks protocol.TaskService) (*Action, error) {
	title, ok := config["title"].(string)
	if !ok || title == "" {
		return nil, fmt.Errorf("missing or invalid 'title' in configuration")
	}

	description, _ := config["description"].(string)
	assignee, _ := config["assignee"].(string)

	return &Action{Title: title, Description: description, Assignee: assignee, tasks: tasks}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	title, err := template.RenderString(a.Title, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render title: %w", err)
	}

	description, err := template.RenderString(a.Description, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render description: %w", err)
	}

	taskID, err := a.tasks.CreateTask(ctx, title, description, a.Assignee)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logger.Info("task created", "action", "create_task", "task_id", taskID)

	return map[string]any{"task_id": taskID, "title": title}, nil
}
