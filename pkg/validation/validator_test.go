package validation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence/file"
)

func newTestValidator(t *testing.T) (*Validator, *file.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	allowAll := func(from, to models.OrderStatus) bool { return true }

	return NewValidator(store.InspectionRepository(), store.ShipmentRepository(), allowAll), store
}

func testOrder(status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		Status:      status,
	}
}

func TestValidate_EdgeMembershipFails(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	denyAll := func(from, to models.OrderStatus) bool { return false }
	validator := NewValidator(store.InspectionRepository(), store.ShipmentRepository(), denyAll)

	result, err := validator.Validate(context.Background(), testOrder(models.OrderStatusIntake), models.OrderStatusDelivered)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Equal(t, models.CheckFail, result.Checks[0].Status)
	assert.Equal(t, CheckTransitionAllowed, result.Checks[0].Name)
}

func TestValidate_DeadlineWarnsButNeverBlocks(t *testing.T) {
	validator, _ := newTestValidator(t)

	order := testOrder(models.OrderStatusIntake)
	past := time.Now().Add(-48 * time.Hour)
	order.TargetDeliveryDate = &past

	result, err := validator.Validate(context.Background(), order, models.OrderStatusDesignApproval)
	require.NoError(t, err)

	assert.True(t, result.Passed, "WARN alone must not block")

	warnings := result.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, CheckDeadlineCompliance, warnings[0].Name)
	assert.Equal(t, models.CheckWarn, warnings[0].Status)
}

func TestValidate_QCRequiresAllStepsDone(t *testing.T) {
	validator, _ := newTestValidator(t)

	order := testOrder(models.OrderStatusInProgress)
	order.RoutingSteps = []*models.RoutingStep{
		{Name: "Cutting", Status: models.StepStatusDone},
		{Name: "Sewing", Status: models.StepStatusInProgress},
	}

	result, err := validator.Validate(context.Background(), order, models.OrderStatusQC)
	require.NoError(t, err)
	assert.False(t, result.Passed)

	order.RoutingSteps[1].Status = models.StepStatusDone

	result, err = validator.Validate(context.Background(), order, models.OrderStatusQC)
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestValidate_PackingRequiresApprovedInspection(t *testing.T) {
	validator, store := newTestValidator(t)
	ctx := context.Background()
	order := testOrder(models.OrderStatusQC)

	result, err := validator.Validate(ctx, order, models.OrderStatusPacking)
	require.NoError(t, err)
	assert.False(t, result.Passed, "missing inspection must fail")

	rejected := &models.QualityInspection{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Score:       4.2,
		Approved:    false,
		InspectedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.InspectionRepository().Save(ctx, rejected))

	result, err = validator.Validate(ctx, order, models.OrderStatusPacking)
	require.NoError(t, err)
	assert.False(t, result.Passed, "rejected inspection must fail")

	approved := &models.QualityInspection{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Score:       9.1,
		Approved:    true,
		InspectedAt: time.Now(),
	}
	require.NoError(t, store.InspectionRepository().Save(ctx, approved))

	result, err = validator.Validate(ctx, order, models.OrderStatusPacking)
	require.NoError(t, err)
	assert.True(t, result.Passed, "latest inspection is approved")
}

func TestValidate_DeliveredRequiresShipment(t *testing.T) {
	validator, store := newTestValidator(t)
	ctx := context.Background()
	order := testOrder(models.OrderStatusReadyForDelivery)

	result, err := validator.Validate(ctx, order, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, result.Passed)

	shipment := &models.Shipment{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Carrier:   "LBC",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.ShipmentRepository().Save(ctx, shipment))

	result, err = validator.Validate(ctx, order, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, result.Passed)
}
