package registry_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/actions/email"
	"github.com/loomline/loomline/pkg/actions/webhook"
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/registry"
	"github.com/loomline/loomline/pkg/services"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	logger := slog.Default()

	reg := registry.NewRegistry(logger)
	reg.Register(webhook.NewFactory())
	reg.Register(email.NewFactory(services.NewLogNotificationSender(logger)))

	return reg
}

func TestCreate_ValidConfig(t *testing.T) {
	reg := newRegistry(t)

	action, err := reg.Create(models.ActionTypeWebhook, map[string]any{
		"url":    "http://example.com/hook",
		"method": "PUT",
	})
	require.NoError(t, err)
	assert.NotNil(t, action)
}

func TestCreate_SchemaRejectsBadConfig(t *testing.T) {
	reg := newRegistry(t)

	// Missing required url.
	_, err := reg.Create(models.ActionTypeWebhook, map[string]any{"method": "POST"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "configuration")

	// Method outside the enum.
	_, err = reg.Create(models.ActionTypeWebhook, map[string]any{
		"url":    "http://example.com",
		"method": "TRACE",
	})
	assert.Error(t, err)

	// Missing required email recipient.
	_, err = reg.Create(models.ActionTypeEmail, map[string]any{"subject": "hi"})
	assert.Error(t, err)
}

func TestCreate_UnknownType(t *testing.T) {
	reg := newRegistry(t)

	_, err := reg.Create(models.ActionType("TELEGRAM"), map[string]any{})
	assert.ErrorContains(t, err, "not registered")
}

func TestAvailable_Sorted(t *testing.T) {
	reg := newRegistry(t)

	assert.Equal(t, []models.ActionType{
		models.ActionTypeEmail,
		models.ActionTypeWebhook,
	}, reg.Available())
}
