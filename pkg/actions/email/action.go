// Package email sends an email notification through the configured
// notification sender.
package email

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
	Subject string
	Body    string

	sender protocol.NotificationSender
}

func NewAction(config map[string]any, sender protocol.NotificationSender) (*Action, error) {
	to, ok := config["to"].(string)
	if !ok || to == "" {
		return nil, fmt.Errorf("missing or invalid 'to' in configuration")
	}

	subject, _ := config["subject"].(string)
	body, _ := config["body"].(string)

	return &Action{To: to, Subject: subject, Body: body, sender: sender}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	to, err := template.RenderString(a.To, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	subject, err := template.RenderString(a.Subject, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}

	body, err := template.RenderString(a.Body, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	if err := a.sender.SendEmail(ctx, to, subject, body); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("email sent", "action", "email", "to", to)

	return map[string]any{"to": to, "subject": subject}, nil
}
