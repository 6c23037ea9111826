// Package template renders dynamic action configuration against the
// execution context, so a workflow author can reference trigger fields and
// earlier action outputs.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/loomline/loomline/pkg/models"
)

// NeedsTemplating reports whether the input contains template expressions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// RenderWithContext renders the input against the execution context.
// Available roots: .trigger, .outputs (by action index), .execution.
func RenderWithContext(input string, executionCtx models.ExecutionContext) (any, error) {
	data := map[string]any{
		"trigger": executionCtx.TriggerData,
		"outputs": executionCtx.ActionOutputs,
		"execution": map[string]any{
			"id":           executionCtx.ExecutionID,
			"workflow_id":  executionCtx.WorkflowID,
			"workspace_id": executionCtx.WorkspaceID,
		},
	}

	return Render(input, data)
}

// RenderString is RenderWithContext for callers that need a plain string.
// Non-templated input passes through untouched.
func RenderString(input string, executionCtx models.ExecutionContext) (string, error) {
	if !NeedsTemplating(input) {
		return input, nil
	}

	result, err := RenderWithContext(input, executionCtx)
	if err != nil {
		return "", err
	}

	if s, ok := result.(string); ok {
		return s, nil
	}

	return fmt.Sprintf("%v", result), nil
}

// Render executes the template over data and coerces the output: JSON
// documents, numbers and booleans come back typed, everything else as a
// string.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any
		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}
