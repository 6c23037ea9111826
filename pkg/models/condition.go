package models

// ConditionOperator compares a resolved field value against a literal.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "EQUALS"
	OperatorNotEquals   ConditionOperator = "NOT_EQUALS"
	OperatorGreaterThan ConditionOperator = "GREATER_THAN"
	OperatorLessThan    ConditionOperator = "LESS_THAN"
	OperatorContains    ConditionOperator = "CONTAINS"
	OperatorExists      ConditionOperator = "EXISTS"
)

// ConditionLogic combines a condition's result with the running result of
// the conditions before it. It is meaningless on the first condition.
type ConditionLogic string

const (
	LogicAnd ConditionLogic = "AND"
	LogicOr  ConditionLogic = "OR"
)

// Condition is one predicate in a workflow's condition list. Field values
// resolve from the trigger payload first, then through the field resolver.
type Condition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required,oneof=EQUALS NOT_EQUALS GREATER_THAN LESS_THAN CONTAINS EXISTS"`
	Value    any               `json:"value"`
	Logic    ConditionLogic    `json:"logic,omitempty" validate:"omitempty,oneof=AND OR"`
}
