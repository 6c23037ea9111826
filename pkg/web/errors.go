package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/statemachine"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func unauthorized(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(401).
		WithInstance(c.Path()).
		WithType("unauthenticated").
		WithDetail(detail)

	return c.Status(fiber.StatusUnauthorized).JSON(problem)
}

func forbidden(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(403).
		WithInstance(c.Path()).
		WithType("insufficient_permissions").
		WithDetail(detail)

	return c.Status(fiber.StatusForbidden).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func tooManyRequests(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(429).
		WithInstance(c.Path()).
		WithType("rate_limited").
		WithDetail(detail)

	return c.Status(fiber.StatusTooManyRequests).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// validationProblem carries the itemized check results alongside the
// RFC 7807 fields so a blocked caller can explain the rejection.
type validationProblem struct {
	*problems.Problem

	Checks []models.ValidationCheck `json:"validation_results,omitempty"`
}

// handleTransitionError maps the transition error taxonomy onto HTTP.
// Invalid edges and role failures are caller errors; validation failures
// are itemized so the block can be resolved or forced.
func handleTransitionError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsOrderNotFound(err):
		return notFound(c, "order not found")

	case statemachine.IsInvalidTransition(err):
		return conflict(c, "invalid_transition", err.Error())

	case statemachine.IsInsufficientPermissions(err):
		return forbidden(c, err.Error())

	case statemachine.IsValidationFailed(err):
		problem := &validationProblem{
			Problem: problems.NewStatusProblem(422).
				WithInstance(c.Path()).
				WithType("validation_failed").
				WithDetail(err.Error()),
		}

		var transitionErr *statemachine.TransitionError
		if errors.As(err, &transitionErr) {
			problem.Checks = transitionErr.Checks
		}

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	default:
		return internalError(c, err)
	}
}
