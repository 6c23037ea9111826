package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence/file"
)

func TestOrderFieldResolver(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	ctx := context.Background()

	order := &models.Order{
		ID:          "ord-1",
		WorkspaceID: "ws-1",
		Status:      models.OrderStatusInProgress,
		Priority:    "HIGH",
		Metadata:    map[string]any{"customer": "acme"},
		RoutingSteps: []*models.RoutingStep{
			{Name: "Design", Status: models.StepStatusDone},
			{Name: "Cutting", Status: models.StepStatusPlanned},
		},
	}
	require.NoError(t, store.OrderRepository().Save(ctx, order))

	resolver := NewOrderFieldResolver(store.OrderRepository())
	triggerData := map[string]any{"order_id": "ord-1"}

	value, found, err := resolver.Resolve(ctx, "order.status", triggerData)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "IN_PROGRESS", value)

	value, found, err = resolver.Resolve(ctx, "order.priority", triggerData)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "HIGH", value)

	value, found, err = resolver.Resolve(ctx, "order.progress", triggerData)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 50, value)

	value, found, err = resolver.Resolve(ctx, "order.customer", triggerData)
	require.NoError(t, err)
	assert.True(t, found, "unknown fields fall back to order metadata")
	assert.Equal(t, "acme", value)

	_, found, err = resolver.Resolve(ctx, "order.nonexistent", triggerData)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = resolver.Resolve(ctx, "unrelated", triggerData)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = resolver.Resolve(ctx, "order.status", map[string]any{"order_id": "missing"})
	require.NoError(t, err)
	assert.False(t, found, "a missing order is unresolvable, not an error")
}
