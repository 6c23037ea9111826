package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/loomline/loomline/pkg/automation"
	"github.com/loomline/loomline/pkg/eventbus"
	"github.com/loomline/loomline/pkg/events"
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/ratelimit"
	"github.com/loomline/loomline/pkg/services"
	"github.com/loomline/loomline/pkg/statemachine"
)

// Handlers wires the HTTP surface to the state machine, the workflow
// service and the automation engine.
type Handlers struct {
	machine     *statemachine.Machine
	workflows   *services.Workflow
	engine      *automation.Engine
	store       persistence.Persistence
	limiter     ratelimit.Limiter
	bus         eventbus.EventPublisher
	validate    *validator.Validate
	systemToken string
}

func NewHandlers(
	machine *statemachine.Machine,
	workflows *services.Workflow,
	engine *automation.Engine,
	store persistence.Persistence,
	limiter ratelimit.Limiter,
	bus eventbus.EventPublisher,
	systemToken string,
) *Handlers {
	return &Handlers{
		machine:     machine,
		workflows:   workflows,
		engine:      engine,
		store:       store,
		limiter:     limiter,
		bus:         bus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		systemToken: systemToken,
	}
}

// Register mounts every route on the app.
func (h *Handlers) Register(app *fiber.App) {
	orders := app.Group("/orders")
	orders.Post("/:id/transition", h.TransitionOrder)
	orders.Post("/:id/transition/auto", h.AutoTransitionOrder)
	orders.Get("/:id/transitions", h.ListTransitions)
	orders.Get("/:id/audit", h.ListAudit)

	workflows := app.Group("/workflows")
	workflows.Get("/", h.GetWorkflows)
	workflows.Post("/", h.CreateWorkflow)
	workflows.Get("/:id", h.GetWorkflow)
	workflows.Patch("/:id", h.UpdateWorkflow)
	workflows.Delete("/:id", h.DeleteWorkflow)
	workflows.Post("/:id/execute", h.ExecuteWorkflow)

	app.Get("/executions/:id", h.GetExecution)
	app.Get("/health", h.HealthCheck)
}

// actor extracts the authenticated identity from the request headers.
func actor(c fiber.Ctx) (string, models.Role, bool) {
	actorID := c.Get(HeaderActorID)
	role := c.Get(HeaderActorRole)

	return actorID, models.Role(role), actorID != "" && role != ""
}

func (h *Handlers) TransitionOrder(c fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return badRequest(c, "Order ID is required")
	}

	actorID, role, ok := actor(c)
	if !ok {
		return unauthorized(c, "X-Actor-ID and X-Actor-Role headers are required")
	}

	allowed, err := h.limiter.Allow(c.Context(), actorID)
	if err != nil {
		return internalError(c, err)
	}

	if !allowed {
		return tooManyRequests(c, "transition rate limit exceeded for actor "+actorID)
	}

	var req TransitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.machine.Transition(
		c.Context(),
		orderID,
		models.OrderStatus(req.ToStatus),
		actorID,
		role,
		statemachine.TransitionOptions{
			Reason:   req.Reason,
			Metadata: req.Metadata,
			Force:    req.ForceTransition,
			AssignTo: req.AssignTo,
			Priority: req.PriorityLevel,
		},
	)
	if err != nil {
		return handleTransitionError(c, err)
	}

	automated := h.announceTransition(c, orderID, actorID, req.ForceTransition, result)

	return c.JSON(TransitionResponse{
		PreviousStatus:            result.PreviousStatus,
		NewStatus:                 result.NewStatus,
		Progress:                  result.Progress,
		Validation:                result.Validation,
		Warnings:                  result.Warnings,
		AutomatedActionsPerformed: automated,
		NextAvailable:             result.NextAvailable,
	})
}

// announceTransition publishes the status change and starts the
// workflows listening for it. Returns the started execution IDs;
// automation failures never fail the already-committed transition.
func (h *Handlers) announceTransition(
	c fiber.Ctx,
	orderID, actorID string,
	forced bool,
	result *statemachine.TransitionResult,
) []string {
	workspaceID := ""
	if order, err := h.store.OrderRepository().GetByID(c.Context(), orderID); err == nil {
		workspaceID = order.WorkspaceID
	}

	change := events.OrderStatusChanged{
		BaseEvent:  events.NewBaseEvent(events.OrderStatusChangedEvent, workspaceID),
		OrderID:    orderID,
		FromStatus: result.PreviousStatus,
		ToStatus:   result.NewStatus,
		Actor:      actorID,
		Forced:     forced,
		Progress:   result.Progress,
	}

	if h.bus != nil {
		_ = h.bus.Publish(c.Context(), orderID, change)
	}

	automated := []string{}

	if h.engine != nil {
		for _, execution := range h.engine.DispatchOrderStatusChanged(c.Context(), change) {
			automated = append(automated, execution.ID)
		}
	}

	return automated
}

func (h *Handlers) AutoTransitionOrder(c fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return badRequest(c, "Order ID is required")
	}

	if h.systemToken == "" || c.Get(HeaderSystemToken) != h.systemToken {
		return unauthorized(c, "valid system token is required")
	}

	auto, err := h.machine.AutoTransition(c.Context(), orderID)
	if err != nil {
		return handleTransitionError(c, err)
	}

	if auto.Applied {
		h.announceTransition(c, orderID, "system", false, auto.Result)
	}

	return c.JSON(auto)
}

func (h *Handlers) ListTransitions(c fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return badRequest(c, "Order ID is required")
	}

	_, role, ok := actor(c)
	if !ok {
		return unauthorized(c, "X-Actor-ID and X-Actor-Role headers are required")
	}

	order, err := h.store.OrderRepository().GetByID(c.Context(), orderID)
	if err != nil {
		if persistence.IsOrderNotFound(err) {
			return notFound(c, "order not found")
		}

		return internalError(c, err)
	}

	transitions := h.machine.ValidTransitions(order, role)
	if transitions == nil {
		transitions = []statemachine.TransitionRule{}
	}

	return c.JSON(fiber.Map{
		"order_id":    order.ID,
		"status":      order.Status,
		"transitions": transitions,
	})
}

func (h *Handlers) ListAudit(c fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return badRequest(c, "Order ID is required")
	}

	entries, err := h.store.AuditRepository().ListByOrder(c.Context(), orderID)
	if err != nil {
		return internalError(c, err)
	}

	if entries == nil {
		entries = []*models.TransitionAudit{}
	}

	return c.JSON(fiber.Map{"order_id": orderID, "entries": entries})
}

func (h *Handlers) GetWorkflows(c fiber.Ctx) error {
	var status *models.WorkflowStatus

	if statusStr := c.Query("status"); statusStr != "" {
		s := models.WorkflowStatus(statusStr)
		status = &s
	}

	workflows, err := h.workflows.List(c.Context(), status)
	if err != nil {
		return internalError(c, err)
	}

	if workflows == nil {
		workflows = []*models.AutomationWorkflow{}
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *Handlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflows.Get(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *Handlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	workflow := &models.AutomationWorkflow{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		Priority:    req.Priority,
		IsActive:    isActive,
	}

	created, err := h.workflows.Create(c.Context(), workflow)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return badRequest(c, err.Error())
		}

		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	// Merge the patch onto the stored definition; absent fields keep
	// their current values.
	existing, err := h.workflows.Get(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "workflow not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Trigger != nil {
		existing.Trigger = *req.Trigger
	}

	if req.Conditions != nil {
		existing.Conditions = req.Conditions
	}

	if req.Actions != nil {
		existing.Actions = req.Actions
	}

	if req.Priority != nil {
		existing.Priority = *req.Priority
	}

	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	updated, err := h.workflows.Update(c.Context(), id, existing)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return badRequest(c, err.Error())
		}

		return internalError(c, err)
	}

	return c.JSON(updated)
}

func (h *Handlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflows.Delete(c.Context(), c.Params("id")); err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	var req ExecuteWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	execution, err := h.engine.Enqueue(c.Context(), automation.ExecuteRequest{
		WorkflowID:  id,
		TriggerData: req.TriggerData,
		Force:       req.ForceExecution,
	})
	if err != nil {
		switch {
		case persistence.IsWorkflowNotFound(err):
			return notFound(c, "workflow not found")
		case errors.Is(err, automation.ErrWorkflowDeleted):
			return conflict(c, "workflow_deleted", err.Error())
		case errors.Is(err, automation.ErrWorkflowInactive):
			return conflict(c, "workflow_inactive", err.Error())
		default:
			return internalError(c, err)
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(ExecuteWorkflowResponse{
		ExecutionID: execution.ID,
		Status:      "STARTED",
	})
}

func (h *Handlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.store.ExecutionRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return notFound(c, "execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(execution)
}

func (h *Handlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflows.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
