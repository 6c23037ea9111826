// Package statemachine owns the order lifecycle: the transition table, the
// transition operation and progress computation. The table is data; adding
// an edge never requires new code here.
package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/validation"
)

const defaultQCScoreThreshold = 8.0

// Machine executes transitions against persisted orders. Transitions on
// the same order are serialized through a keyed lock; storage still guards
// with the order version for multi-instance deployments.
type Machine struct {
	table       TransitionTable
	orders      persistence.OrderRepository
	inspections persistence.InspectionRepository
	validator   *validation.Validator
	locks       *keyedMutex
	logger      *slog.Logger
	qcThreshold float64
}

type Option func(*Machine)

// WithTable replaces the default transition table.
func WithTable(table TransitionTable) Option {
	return func(m *Machine) { m.table = table }
}

// WithQCScoreThreshold sets the inspection score at or above which QC
// auto-advances to PACKING.
func WithQCScoreThreshold(threshold float64) Option {
	return func(m *Machine) { m.qcThreshold = threshold }
}

func NewMachine(store persistence.Persistence, logger *slog.Logger, opts ...Option) *Machine {
	machine := &Machine{
		table:       DefaultTransitionTable(),
		orders:      store.OrderRepository(),
		inspections: store.InspectionRepository(),
		locks:       newKeyedMutex(),
		logger:      logger.With("module", "statemachine"),
		qcThreshold: defaultQCScoreThreshold,
	}

	for _, opt := range opts {
		opt(machine)
	}

	machine.validator = validation.NewValidator(
		store.InspectionRepository(),
		store.ShipmentRepository(),
		machine.table.HasEdge,
	)

	return machine
}

// Table returns the machine's transition table.
func (m *Machine) Table() TransitionTable { return m.table }

// TransitionOptions carries the optional parts of a transition request.
type TransitionOptions struct {
	Reason   string
	Metadata map[string]any
	Force    bool
	AssignTo string
	Priority string
}

// TransitionResult reports a committed transition.
type TransitionResult struct {
	PreviousStatus models.OrderStatus       `json:"previous_status"`
	NewStatus      models.OrderStatus       `json:"new_status"`
	Progress       int                      `json:"progress_percentage"`
	Validation     models.ValidationResult  `json:"validation_results"`
	Warnings       []models.ValidationCheck `json:"warnings,omitempty"`
	NextAvailable  []TransitionRule         `json:"next_available_transitions"`
}

// ValidTransitions returns the edges leaving the order's current status
// that the role satisfies. Read-only and idempotent.
func (m *Machine) ValidTransitions(order *models.Order, role models.Role) []TransitionRule {
	var rules []TransitionRule

	for _, rule := range m.table.From(order.Status) {
		if role.Satisfies(rule.RequiredRole) {
			rules = append(rules, rule)
		}
	}

	return rules
}

// Transition moves the order to the target status on behalf of the actor.
// The order is re-read under the per-order lock so a caller racing a
// committed transition validates against the post-commit state.
func (m *Machine) Transition(
	ctx context.Context,
	orderID string,
	to models.OrderStatus,
	actor string,
	role models.Role,
	opts TransitionOptions,
) (*TransitionResult, error) {
	m.locks.Lock(orderID)
	defer m.locks.Unlock(orderID)

	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status

	rule, ok := m.table.Find(from, to)
	if !ok {
		return nil, &TransitionError{
			Code:    CodeInvalidTransition,
			OrderID: orderID,
			From:    from,
			To:      to,
			Message: "transition is not in the table",
		}
	}

	if !role.Satisfies(rule.RequiredRole) {
		return nil, &TransitionError{
			Code:    CodeInsufficientPermissions,
			OrderID: orderID,
			From:    from,
			To:      to,
			Message: fmt.Sprintf("role %s does not satisfy required role %s", role, rule.RequiredRole),
		}
	}

	result, err := m.validator.Validate(ctx, order, to)
	if err != nil {
		return nil, err
	}

	var warnings []models.ValidationCheck

	if !result.Passed {
		if !opts.Force {
			return nil, &TransitionError{
				Code:    CodeValidationFailed,
				OrderID: orderID,
				From:    from,
				To:      to,
				Message: "one or more validation checks failed",
				Checks:  result.Checks,
			}
		}

		warnings = result.Warnings()

		m.logger.Warn("forced transition past failed checks",
			"order_id", orderID, "from", from, "to", to, "actor", actor)
	}

	order.Status = to

	if opts.AssignTo != "" {
		order.AssignedTo = opts.AssignTo
	}

	if opts.Priority != "" {
		order.Priority = opts.Priority
	}

	audit := &models.TransitionAudit{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Role:       role,
		Reason:     opts.Reason,
		Forced:     opts.Force,
		Checks:     result.Checks,
		Metadata:   opts.Metadata,
		CreatedAt:  time.Now().UTC(),
	}

	if err := m.orders.CommitTransition(ctx, order, audit); err != nil {
		return nil, err
	}

	m.logger.Info("order transitioned",
		"order_id", orderID, "from", from, "to", to, "actor", actor, "forced", opts.Force)

	return &TransitionResult{
		PreviousStatus: from,
		NewStatus:      to,
		Progress:       Progress(order.RoutingSteps),
		Validation:     result,
		Warnings:       warnings,
		NextAvailable:  m.ValidTransitions(order, role),
	}, nil
}

// AutoResult is the outcome of an automatic transition probe.
type AutoResult struct {
	Applied bool              `json:"applied"`
	Reason  string            `json:"reason,omitempty"`
	Result  *TransitionResult `json:"result,omitempty"`
}

// AutoTransition applies the automatic transition for the order if one
// holds, acting under the system credential. A no-op returns the reason
// instead of an error.
func (m *Machine) AutoTransition(ctx context.Context, orderID string) (*AutoResult, error) {
	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	inspection, err := m.inspections.LatestByOrder(ctx, order.ID)
	if err != nil && !persistence.IsNotFound(err) {
		return nil, err
	}

	check := CheckAutomaticTransition(order, inspection, m.qcThreshold)
	if !check.Possible {
		return &AutoResult{Applied: false, Reason: check.Reason}, nil
	}

	result, err := m.Transition(ctx, orderID, check.To, "system", models.RoleSystem, TransitionOptions{
		Reason: "automatic transition",
	})
	if err != nil {
		return nil, err
	}

	return &AutoResult{Applied: true, Result: result}, nil
}

// AutoCheck is the outcome of CheckAutomaticTransition.
type AutoCheck struct {
	Possible bool
	To       models.OrderStatus
	Reason   string
}

// CheckAutomaticTransition reports whether the order qualifies for an
// automatic advance. Pure: same snapshot, same answer, no side effects.
// inspection may be nil when none has been recorded.
func CheckAutomaticTransition(order *models.Order, inspection *models.QualityInspection, qcThreshold float64) AutoCheck {
	switch order.Status {
	case models.OrderStatusInProgress:
		for _, step := range order.RoutingSteps {
			if step.Status != models.StepStatusDone {
				return AutoCheck{Possible: false, Reason: fmt.Sprintf("routing step %q is %s", step.Name, step.Status)}
			}
		}

		if len(order.RoutingSteps) == 0 {
			return AutoCheck{Possible: false, Reason: "order has no routing steps"}
		}

		return AutoCheck{Possible: true, To: models.OrderStatusQC}
	case models.OrderStatusQC:
		if inspection == nil {
			return AutoCheck{Possible: false, Reason: "no quality inspection recorded"}
		}

		if inspection.Score < qcThreshold {
			return AutoCheck{Possible: false, Reason: fmt.Sprintf("inspection score %.1f below threshold %.1f", inspection.Score, qcThreshold)}
		}

		return AutoCheck{Possible: true, To: models.OrderStatusPacking}
	default:
		return AutoCheck{Possible: false, Reason: fmt.Sprintf("no automatic transition from %s", order.Status)}
	}
}

// Progress is the rounded mean of the step progress weights, 0..100.
// An order with no routing steps reports zero.
func Progress(steps []*models.RoutingStep) int {
	if len(steps) == 0 {
		return 0
	}

	sum := 0
	for _, step := range steps {
		sum += models.StepProgressWeight(step.Status)
	}

	return int(math.Round(float64(sum) / float64(len(steps))))
}
