// Package protocol defines the contracts between the automation engine and
// its pluggable collaborators. The engine never knows a concrete action
// kind or delivery channel.
package protocol

import (
	"context"
	"log/slog"

	"github.com/loomline/loomline/pkg/models"
)

// Action is one executable unit of workflow work.
type Action interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error)
}

// ActionFactory creates actions of one kind from raw configuration and
// describes the configuration it accepts.
type ActionFactory interface {
	Create(config map[string]any) (Action, error)

	// ID returns the action type this factory builds.
	ID() models.ActionType

	// Schema returns the JSON schema the configuration must satisfy.
	Schema() map[string]any
}
