package automation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

// ConditionEvaluator resolves and combines a workflow's conditions.
//
// Combination is a strict left fold: the first condition's boolean seeds
// the running result, and each later condition's own logic (AND/OR) folds
// its boolean into the running result, strictly in list order. There is no
// operator precedence: A AND B OR C means (A AND B) OR C.
type ConditionEvaluator struct {
	resolver protocol.FieldResolver
}

func NewConditionEvaluator(resolver protocol.FieldResolver) *ConditionEvaluator {
	return &ConditionEvaluator{resolver: resolver}
}

// Evaluate returns whether the condition list passes for the trigger data.
// An empty list always passes.
func (e *ConditionEvaluator) Evaluate(ctx context.Context, conditions []models.Condition, triggerData map[string]any) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}

	result, err := e.evaluateOne(ctx, conditions[0], triggerData)
	if err != nil {
		return false, err
	}

	for _, condition := range conditions[1:] {
		value, err := e.evaluateOne(ctx, condition, triggerData)
		if err != nil {
			return false, err
		}

		if condition.Logic == models.LogicOr {
			result = result || value
		} else {
			result = result && value
		}
	}

	return result, nil
}

func (e *ConditionEvaluator) evaluateOne(ctx context.Context, condition models.Condition, triggerData map[string]any) (bool, error) {
	value, found, err := e.resolveField(ctx, condition.Field, triggerData)
	if err != nil {
		return false, err
	}

	if condition.Operator == models.OperatorExists {
		return found && value != nil, nil
	}

	if !found {
		return false, nil
	}

	return compare(condition.Operator, value, condition.Value)
}

// resolveField looks the field up in the trigger payload first (direct
// key, then dotted path), then falls back to the field resolver.
func (e *ConditionEvaluator) resolveField(ctx context.Context, field string, triggerData map[string]any) (any, bool, error) {
	if value, ok := triggerData[field]; ok {
		return value, true, nil
	}

	if value, ok := lookupPath(triggerData, field); ok {
		return value, true, nil
	}

	if e.resolver == nil {
		return nil, false, nil
	}

	return e.resolver.Resolve(ctx, field, triggerData)
}

func lookupPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, false
	}

	var current any = data

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func compare(operator models.ConditionOperator, value, literal any) (bool, error) {
	switch operator {
	case models.OperatorEquals:
		return looselyEqual(value, literal), nil
	case models.OperatorNotEquals:
		return !looselyEqual(value, literal), nil
	case models.OperatorGreaterThan:
		left, right, ok := bothNumbers(value, literal)
		if !ok {
			return fmt.Sprintf("%v", value) > fmt.Sprintf("%v", literal), nil
		}

		return left > right, nil
	case models.OperatorLessThan:
		left, right, ok := bothNumbers(value, literal)
		if !ok {
			return fmt.Sprintf("%v", value) < fmt.Sprintf("%v", literal), nil
		}

		return left < right, nil
	case models.OperatorContains:
		return contains(value, literal), nil
	case models.OperatorExists:
		return value != nil, nil
	default:
		return false, fmt.Errorf("unknown operator %q", operator)
	}
}

// looselyEqual treats numerically equal values as equal regardless of Go
// type, since JSON decoding yields float64 for every number.
func looselyEqual(a, b any) bool {
	if left, right, ok := bothNumbers(a, b); ok {
		return left == right
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func bothNumbers(a, b any) (float64, float64, bool) {
	left, okA := toFloat(a)
	right, okB := toFloat(b)

	return left, right, okA && okB
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

func contains(value, literal any) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, fmt.Sprintf("%v", literal))
	case []any:
		for _, item := range v {
			if looselyEqual(item, literal) {
				return true
			}
		}

		return false
	case []string:
		for _, item := range v {
			if item == fmt.Sprintf("%v", literal) {
				return true
			}
		}

		return false
	default:
		return false
	}
}
