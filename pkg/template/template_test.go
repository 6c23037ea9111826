package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomline/loomline/pkg/models"
)

func TestRender_FieldAccess(t *testing.T) {
	data := map[string]any{
		"name": "Acme Shirts",
		"qty":  150,
		"rush": true,
	}

	result, err := Render("{{ .name }}", data)
	require.NoError(t, err)
	assert.Equal(t, "Acme Shirts", result)

	result, err = Render("{{ .qty }}", data)
	require.NoError(t, err)
	assert.Equal(t, 150.0, result)

	result, err = Render("{{ .rush }}", data)
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestRender_JSONOutputIsParsed(t *testing.T) {
	result, err := Render(`{"order": "{{ .id }}"}`, map[string]any{"id": "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"order": "ord-1"}, result)
}

func TestRenderWithContext(t *testing.T) {
	executionCtx := models.ExecutionContext{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		WorkspaceID: "ws-1",
		TriggerData: map[string]any{"order_id": "ord-42", "region": "PH"},
		ActionOutputs: map[int]any{
			0: map[string]any{"task_id": "task-9"},
		},
	}

	result, err := RenderWithContext("order {{ .trigger.order_id }} in {{ .trigger.region }}", executionCtx)
	require.NoError(t, err)
	assert.Equal(t, "order ord-42 in PH", result)

	result, err = RenderWithContext("{{ .execution.workflow_id }}", executionCtx)
	require.NoError(t, err)
	assert.Equal(t, "wf-1", result)
}

func TestRenderString_PassThrough(t *testing.T) {
	out, err := RenderString("plain text", models.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderString("hello {{ .trigger.name }}", models.ExecutionContext{
		TriggerData: map[string]any{"name": "world"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestNeedsTemplating(t *testing.T) {
	assert.True(t, NeedsTemplating("{{ .trigger.x }}"))
	assert.False(t, NeedsTemplating("static"))
}
