package email

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/models"
)

type capturingSender struct {
	to      string
	subject string
	body    string
	err     error
}

func (s *capturingSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.to = to
	s.subject = subject
	s.body = body

	return s.err
}

func (s *capturingSender) SendSMS(_ context.Context, _, _ string) error { return nil }

func TestNewAction_RequiresRecipient(t *testing.T) {
	_, err := NewAction(map[string]any{"subject": "hi"}, &capturingSender{})
	assert.Error(t, err)
}

func TestExecute_RendersAndSends(t *testing.T) {
	sender := &capturingSender{}

	action, err := NewAction(map[string]any{
		"to":      "{{ .trigger.manager_email }}",
		"subject": "Order {{ .trigger.order_id }} update",
		"body":    "Order {{ .trigger.order_id }} moved to {{ .trigger.to_status }}.",
	}, sender)
	require.NoError(t, err)

	executionCtx := models.ExecutionContext{
		TriggerData: map[string]any{
			"manager_email": "manager@example.com",
			"order_id":      "ord-1",
			"to_status":     "QC",
		},
	}

	output, err := action.Execute(context.Background(), executionCtx, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "manager@example.com", sender.to)
	assert.Equal(t, "Order ord-1 update", sender.subject)
	assert.Equal(t, "Order ord-1 moved to QC.", sender.body)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "manager@example.com", result["to"])
}

func TestExecute_SenderFailurePropagates(t *testing.T) {
	sender := &capturingSender{err: errors.New("smtp unavailable")}

	action, err := NewAction(map[string]any{"to": "ops@example.com"}, sender)
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), models.ExecutionContext{}, slog.Default())
	assert.ErrorContains(t, err, "smtp unavailable")
}
