// Package sms sends a text message through the configured notification
// sender.
package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
	"github.com/loomline/loomline/pkg/template"
)

type Action struct {
	To      string
	Message string

	sender protocol.NotificationSender
}

func NewAction(config map[string]any, sender protocol.NotificationSender) (*Action, error) {
	to, ok := config["to"].(string)
	if !ok || to == "" {
		return nil, fmt.Errorf("missing or invalid 'to' in configuration")
	}

	message, ok := config["message"].(string)
	if !ok || message == "" {
		return nil, fmt.Errorf("missing or invalid 'message' in configuration")
	}

	return &Action{To: to, Message: message, sender: sender}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	to, err := template.RenderString(a.To, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	message, err := template.RenderString(a.Message, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	if err := a.sender.SendSMS(ctx, to, message); err != nil {
		return nil, fmt.Errorf("failed to send sms: %w", err)
	}

	logger.Info("sms sent", "action", "sms", "to", to)

	return map[string]any{"to": to}, nil
}
