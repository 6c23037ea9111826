// Package validation runs the named pre-transition checks over an order
// snapshot. Checks are read-only and deterministic for a given snapshot;
// the state machine decides what a FAIL means.
package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

const (
	CheckTransitionAllowed    = "transition_allowed"
	CheckDeadlineCompliance   = "deadline_compliance"
	CheckRoutingStepsComplete = "routing_steps_complete"
	CheckInspectionApproved   = "inspection_approved"
	CheckShipmentExists       = "shipment_exists"
)

// EdgeFunc reports whether the transition table contains a from→to edge.
// Injected so the validator does not own a second copy of the table.
type EdgeFunc func(from, to models.OrderStatus) bool

type Validator struct {
	inspections persistence.InspectionRepository
	shipments   persistence.ShipmentRepository
	hasEdge     EdgeFunc
	now         func() time.Time
}

func NewValidator(
	inspections persistence.InspectionRepository,
	shipments persistence.ShipmentRepository,
	hasEdge EdgeFunc,
) *Validator {
	return &Validator{
		inspections: inspections,
		shipments:   shipments,
		hasEdge:     hasEdge,
		now:         time.Now,
	}
}

// Validate runs the universal checks and the checks specific to the target
// status, in a fixed order. Passed is true exactly when no check failed;
// WARN never blocks. Storage errors other than not-found abort the run.
func (v *Validator) Validate(ctx context.Context, order *models.Order, target models.OrderStatus) (models.ValidationResult, error) {
	var checks []models.ValidationCheck

	checks = append(checks, v.checkEdge(order, target))
	checks = append(checks, v.checkDeadline(order))

	switch target {
	case models.OrderStatusQC:
		checks = append(checks, checkStepsComplete(order))
	case models.OrderStatusPacking:
		check, err := v.checkInspection(ctx, order)
		if err != nil {
			return models.ValidationResult{}, err
		}

		checks = append(checks, check)
	case models.OrderStatusDelivered:
		check, err := v.checkShipment(ctx, order)
		if err != nil {
			return models.ValidationResult{}, err
		}

		checks = append(checks, check)
	}

	result := models.ValidationResult{Passed: true, Checks: checks}

	for _, check := range checks {
		if check.Status == models.CheckFail {
			result.Passed = false

			break
		}
	}

	return result, nil
}

func (v *Validator) checkEdge(order *models.Order, target models.OrderStatus) models.ValidationCheck {
	if !v.hasEdge(order.Status, target) {
		return models.ValidationCheck{
			Name:    CheckTransitionAllowed,
			Status:  models.CheckFail,
			Message: fmt.Sprintf("no transition from %s to %s", order.Status, target),
		}
	}

	return models.ValidationCheck{Name: CheckTransitionAllowed, Status: models.CheckPass}
}

func (v *Validator) checkDeadline(order *models.Order) models.ValidationCheck {
	if order.TargetDeliveryDate != nil && v.now().After(*order.TargetDeliveryDate) {
		return models.ValidationCheck{
			Name:    CheckDeadlineCompliance,
			Status:  models.CheckWarn,
			Message: fmt.Sprintf("target delivery date %s has passed", order.TargetDeliveryDate.Format(time.RFC3339)),
		}
	}

	return models.ValidationCheck{Name: CheckDeadlineCompliance, Status: models.CheckPass}
}

func checkStepsComplete(order *models.Order) models.ValidationCheck {
	for _, step := range order.RoutingSteps {
		if step.Status != models.StepStatusDone {
			return models.ValidationCheck{
				Name:    CheckRoutingStepsComplete,
				Status:  models.CheckFail,
				Message: fmt.Sprintf("routing step %q is %s", step.Name, step.Status),
			}
		}
	}

	return models.ValidationCheck{Name: CheckRoutingStepsComplete, Status: models.CheckPass}
}

func (v *Validator) checkInspection(ctx context.Context, order *models.Order) (models.ValidationCheck, error) {
	inspection, err := v.inspections.LatestByOrder(ctx, order.ID)
	if errors.Is(err, persistence.ErrInspectionNotFound) {
		return models.ValidationCheck{
			Name:    CheckInspectionApproved,
			Status:  models.CheckFail,
			Message: "no quality inspection recorded",
		}, nil
	}

	if err != nil {
		return models.ValidationCheck{}, err
	}

	if !inspection.Approved {
		return models.ValidationCheck{
			Name:    CheckInspectionApproved,
			Status:  models.CheckFail,
			Message: fmt.Sprintf("latest inspection not approved (score %.1f)", inspection.Score),
		}, nil
	}

	return models.ValidationCheck{Name: CheckInspectionApproved, Status: models.CheckPass}, nil
}

func (v *Validator) checkShipment(ctx context.Context, order *models.Order) (models.ValidationCheck, error) {
	_, err := v.shipments.GetByOrder(ctx, order.ID)
	if errors.Is(err, persistence.ErrShipmentNotFound) {
		return models.ValidationCheck{
			Name:    CheckShipmentExists,
			Status:  models.CheckFail,
			Message: "no shipment recorded for order",
		}, nil
	}

	if err != nil {
		return models.ValidationCheck{}, err
	}

	return models.ValidationCheck{Name: CheckShipmentExists, Status: models.CheckPass}, nil
}
