package statemachine

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/persistence/file"
)

func newTestMachine(t *testing.T, opts ...Option) (*Machine, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	return NewMachine(store, slog.Default(), opts...), store
}

func seedOrder(t *testing.T, store persistence.Persistence, status models.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		Status:      status,
	}
	require.NoError(t, store.OrderRepository().Save(context.Background(), order))

	return order
}

func TestTransition_HappyPath(t *testing.T) {
	machine, store := newTestMachine(t)
	ctx := context.Background()
	order := seedOrder(t, store, models.OrderStatusIntake)

	result, err := machine.Transition(ctx, order.ID, models.OrderStatusDesignApproval,
		"alice", models.RoleDesigner, TransitionOptions{Reason: "design uploaded"})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusIntake, result.PreviousStatus)
	assert.Equal(t, models.OrderStatusDesignApproval, result.NewStatus)
	assert.True(t, result.Validation.Passed)
	assert.Empty(t, result.Warnings)

	stored, err := store.OrderRepository().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDesignApproval, stored.Status)

	audits, err := store.AuditRepository().ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, "alice", audits[0].Actor)
	assert.Equal(t, "design uploaded", audits[0].Reason)
}

func TestTransition_AbsentEdgeLeavesStatusUnchanged(t *testing.T) {
	machine, store := newTestMachine(t)
	ctx := context.Background()
	order := seedOrder(t, store, models.OrderStatusIntake)

	_, err := machine.Transition(ctx, order.ID, models.OrderStatusDelivered,
		"alice", models.RoleAdmin, TransitionOptions{})
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	stored, err := store.OrderRepository().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusIntake, stored.Status)

	audits, err := store.AuditRepository().ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, audits)
}

func TestTransition_RoleChecked(t *testing.T) {
	machine, store := newTestMachine(t)
	order := seedOrder(t, store, models.OrderStatusIntake)

	_, err := machine.Transition(context.Background(), order.ID, models.OrderStatusDesignApproval,
		"bob", models.RoleLogistics, TransitionOptions{})
	require.Error(t, err)
	assert.True(t, IsInsufficientPermissions(err))

	// Administrative roles satisfy every edge.
	_, err = machine.Transition(context.Background(), order.ID, models.OrderStatusDesignApproval,
		"root", models.RoleAdmin, TransitionOptions{})
	require.NoError(t, err)
}

func TestTransition_ValidationBlocksUnlessForced(t *testing.T) {
	machine, store := newTestMachine(t)
	ctx := context.Background()

	order := seedOrder(t, store, models.OrderStatusReadyForDelivery)

	// No shipment recorded, so DELIVERED must be blocked.
	_, err := machine.Transition(ctx, order.ID, models.OrderStatusDelivered,
		"carol", models.RoleLogistics, TransitionOptions{})
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))

	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.NotEmpty(t, transitionErr.Checks)

	result, err := machine.Transition(ctx, order.ID, models.OrderStatusDelivered,
		"carol", models.RoleLogistics, TransitionOptions{Force: true, Reason: "customer picked up"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, result.NewStatus)
	assert.NotEmpty(t, result.Warnings, "forced failures are retained as warnings")
}

func TestTransition_AssignAndPriorityApplied(t *testing.T) {
	machine, store := newTestMachine(t)
	ctx := context.Background()
	order := seedOrder(t, store, models.OrderStatusIntake)

	_, err := machine.Transition(ctx, order.ID, models.OrderStatusDesignApproval,
		"alice", models.RoleDesigner, TransitionOptions{AssignTo: "dave", Priority: "HIGH"})
	require.NoError(t, err)

	stored, err := store.OrderRepository().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", stored.AssignedTo)
	assert.Equal(t, "HIGH", stored.Priority)
}

func TestTransition_ConcurrentCallersSerialized(t *testing.T) {
	machine, store := newTestMachine(t)
	ctx := context.Background()
	order := seedOrder(t, store, models.OrderStatusIntake)

	errs := make(chan error, 2)

	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := machine.Transition(ctx, order.ID, models.OrderStatusDesignApproval,
				"alice", models.RoleDesigner, TransitionOptions{})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var committed, rejected int

	for err := range errs {
		switch {
		case err == nil:
			committed++
		case IsInvalidTransition(err):
			// The loser re-read the committed DESIGN_APPROVAL state and
			// found no self edge.
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, rejected)

	stored, err := store.OrderRepository().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDesignApproval, stored.Status)
	assert.Equal(t, order.Version+1, stored.Version, "exactly one commit")

	audits, err := store.AuditRepository().ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestValidTransitions_Idempotent(t *testing.T) {
	machine, _ := newTestMachine(t)

	order := &models.Order{ID: "o1", Status: models.OrderStatusQC}

	first := machine.ValidTransitions(order, models.RoleQC)
	second := machine.ValidTransitions(order, models.RoleQC)
	assert.Equal(t, first, second)

	// QC may reject or approve, and anyone may block.
	targets := make([]models.OrderStatus, 0, len(first))
	for _, rule := range first {
		targets = append(targets, rule.To)
	}

	assert.ElementsMatch(t, []models.OrderStatus{
		models.OrderStatusInProgress,
		models.OrderStatusPacking,
		models.OrderStatusBlocked,
	}, targets)
}

func TestValidTransitions_AdminSeesAllEdges(t *testing.T) {
	machine, _ := newTestMachine(t)

	order := &models.Order{ID: "o1", Status: models.OrderStatusBlocked}

	admin := machine.ValidTransitions(order, models.RoleAdmin)
	assert.Len(t, admin, len(models.ActiveStatuses()), "BLOCKED recovers to every active status")

	designer := machine.ValidTransitions(order, models.RoleDesigner)
	assert.Empty(t, designer, "recovery edges require a manager")
}

func TestBlockedReachableFromEveryActiveStatus(t *testing.T) {
	table := DefaultTransitionTable()

	for _, status := range models.ActiveStatuses() {
		assert.True(t, table.HasEdge(status, models.OrderStatusBlocked), "missing block edge from %s", status)
		assert.True(t, table.HasEdge(models.OrderStatusBlocked, status), "missing recovery edge to %s", status)
	}

	assert.False(t, table.HasEdge(models.OrderStatusDelivered, models.OrderStatusBlocked), "DELIVERED is terminal")
}

func TestProgress(t *testing.T) {
	steps := []*models.RoutingStep{
		{Status: models.StepStatusDone},
		{Status: models.StepStatusDone},
		{Status: models.StepStatusInProgress},
		{Status: models.StepStatusPlanned},
	}

	// weights [100,100,75,0], mean 68.75, rounded 69
	assert.Equal(t, 69, Progress(steps))
	assert.Equal(t, 0, Progress(nil))
	assert.Equal(t, 100, Progress([]*models.RoutingStep{{Status: models.StepStatusDone}}))
}

func TestCheckAutomaticTransition(t *testing.T) {
	order := &models.Order{
		Status: models.OrderStatusInProgress,
		RoutingSteps: []*models.RoutingStep{
			{Name: "Cutting", Status: models.StepStatusDone},
			{Name: "Sewing", Status: models.StepStatusInProgress},
		},
	}

	check := CheckAutomaticTransition(order, nil, 8.0)
	assert.False(t, check.Possible)
	assert.Contains(t, check.Reason, "Sewing")

	order.RoutingSteps[1].Status = models.StepStatusDone

	check = CheckAutomaticTransition(order, nil, 8.0)
	assert.True(t, check.Possible)
	assert.Equal(t, models.OrderStatusQC, check.To)

	// Same snapshot, same answer.
	assert.Equal(t, check, CheckAutomaticTransition(order, nil, 8.0))

	qcOrder := &models.Order{Status: models.OrderStatusQC}

	check = CheckAutomaticTransition(qcOrder, nil, 8.0)
	assert.False(t, check.Possible)

	check = CheckAutomaticTransition(qcOrder, &models.QualityInspection{Score: 7.9}, 8.0)
	assert.False(t, check.Possible)

	check = CheckAutomaticTransition(qcOrder, &models.QualityInspection{Score: 8.0}, 8.0)
	assert.True(t, check.Possible)
	assert.Equal(t, models.OrderStatusPacking, check.To)
}

func TestAutoTransition(t *testing.T) {
	machine, store := newTestMachine(t)
	ctx := context.Background()

	order := &models.Order{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		Status:      models.OrderStatusInProgress,
		RoutingSteps: []*models.RoutingStep{
			{Name: "Design", Status: models.StepStatusDone},
			{Name: "Cutting", Status: models.StepStatusDone},
		},
	}
	require.NoError(t, store.OrderRepository().Save(ctx, order))

	result, err := machine.AutoTransition(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, models.OrderStatusQC, result.Result.NewStatus)

	// QC without an inspection is a no-op with a reason.
	result, err = machine.AutoTransition(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.NotEmpty(t, result.Reason)

	inspection := &models.QualityInspection{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Score:       9.5,
		Approved:    true,
		InspectedAt: time.Now(),
	}
	require.NoError(t, store.InspectionRepository().Save(ctx, inspection))

	result, err = machine.AutoTransition(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, models.OrderStatusPacking, result.Result.NewStatus)
}
