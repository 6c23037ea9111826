package createtask

import (
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

type Factory struct {
	tasks protocol.TaskService
}

func NewFactory(tasks protocol.TaskService) *Factory {
	return &Factory{tasks: tasks}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.tasks)
}

func (f *Factory) ID() models.ActionType { return models.ActionTypeCreateTask }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"title"},
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"assignee":    map[string]any{"type": "string"},
		},
	}
}
