package statemachine

import "github.com/loomline/loomline/pkg/models"

// TransitionRule is one allowed edge of the order lifecycle. An empty
// RequiredRole means any authenticated role may take the edge.
type TransitionRule struct {
	From         models.OrderStatus `json:"from"`
	To           models.OrderStatus `json:"to"`
	RequiredRole models.Role        `json:"required_role,omitempty"`
	Description  string             `json:"description,omitempty"`
}

// TransitionTable is the authoritative edge set. It is configuration data:
// the machine never hardcodes per-status logic outside of it.
type TransitionTable []TransitionRule

// Find returns the rule for a from→to edge, if present.
func (t TransitionTable) Find(from, to models.OrderStatus) (TransitionRule, bool) {
	for _, rule := range t {
		if rule.From == from && rule.To == to {
			return rule, true
		}
	}

	return TransitionRule{}, false
}

// HasEdge reports edge membership without exposing the rule.
func (t TransitionTable) HasEdge(from, to models.OrderStatus) bool {
	_, ok := t.Find(from, to)

	return ok
}

// From returns the rules leaving the given status, in table order.
func (t TransitionTable) From(status models.OrderStatus) []TransitionRule {
	var rules []TransitionRule

	for _, rule := range t {
		if rule.From == status {
			rules = append(rules, rule)
		}
	}

	return rules
}

// DefaultTransitionTable returns the standard garment production lifecycle.
// Every active status gets a pair of BLOCKED edges: any role may block,
// managers recover.
func DefaultTransitionTable() TransitionTable {
	table := TransitionTable{
		{From: models.OrderStatusIntake, To: models.OrderStatusDesignApproval, RequiredRole: models.RoleDesigner, Description: "design submitted for approval"},
		{From: models.OrderStatusDesignApproval, To: models.OrderStatusIntake, RequiredRole: models.RoleManager, Description: "design rejected, returned to intake"},
		{From: models.OrderStatusDesignApproval, To: models.OrderStatusProductionPlanned, RequiredRole: models.RoleManager, Description: "design approved, production planned"},
		{From: models.OrderStatusProductionPlanned, To: models.OrderStatusInProgress, RequiredRole: models.RoleProduction, Description: "production started"},
		{From: models.OrderStatusInProgress, To: models.OrderStatusQC, RequiredRole: models.RoleProduction, Description: "production finished, queued for inspection"},
		{From: models.OrderStatusQC, To: models.OrderStatusInProgress, RequiredRole: models.RoleQC, Description: "inspection rejected, returned to production"},
		{From: models.OrderStatusQC, To: models.OrderStatusPacking, RequiredRole: models.RoleQC, Description: "inspection approved"},
		{From: models.OrderStatusPacking, To: models.OrderStatusReadyForDelivery, RequiredRole: models.RoleLogistics, Description: "packed and staged"},
		{From: models.OrderStatusReadyForDelivery, To: models.OrderStatusDelivered, RequiredRole: models.RoleLogistics, Description: "handed to carrier"},
	}

	for _, status := range models.ActiveStatuses() {
		table = append(table,
			TransitionRule{From: status, To: models.OrderStatusBlocked, Description: "order blocked"},
			TransitionRule{From: models.OrderStatusBlocked, To: status, RequiredRole: models.RoleManager, Description: "block resolved"},
		)
	}

	return table
}
