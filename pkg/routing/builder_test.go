package routing

import (
	"testing"

	"github.com/loomline/loomline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepNames(plan Plan) []string {
	names := make([]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		names = append(names, step.Name)
	}

	return names
}

func TestBuild_Silkscreen(t *testing.T) {
	plan := Build(MethodSilkscreen)

	assert.Equal(t, []string{
		"Design", "Screen Making", "Cutting", "Printing", "Sewing", "Quality Control", "Packing",
	}, stepNames(plan))

	byName := make(map[string]StepTemplate)
	for _, step := range plan.Steps {
		byName[step.Name] = step
	}

	assert.Empty(t, byName["Design"].DependsOn)
	assert.Equal(t, []string{"Design"}, byName["Screen Making"].DependsOn)
	assert.Empty(t, byName["Cutting"].DependsOn)
	assert.True(t, byName["Cutting"].CanRunParallel)
	assert.ElementsMatch(t, []string{"Screen Making", "Cutting"}, byName["Printing"].DependsOn)
	assert.Equal(t, []string{"Printing"}, byName["Sewing"].DependsOn)
	assert.Equal(t, []string{"Sewing"}, byName["Quality Control"].DependsOn)
	assert.Equal(t, []string{"Quality Control"}, byName["Packing"].DependsOn)
}

func TestBuild_ConvergentStepPerMethod(t *testing.T) {
	tests := []struct {
		method     string
		technique  string
		convergent string
	}{
		{MethodSilkscreen, "Screen Making", "Printing"},
		{MethodDTF, "Film Printing", "Pressing"},
		{MethodEmbroidery, "Digitizing", "Embroidery"},
		{MethodSublimation, "Paper Printing", "Pressing"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			plan := Build(tt.method)
			require.Len(t, plan.Steps, 7)

			assert.Equal(t, tt.technique, plan.Steps[1].Name)
			assert.Equal(t, tt.convergent, plan.Steps[3].Name)
			assert.ElementsMatch(t, []string{tt.technique, "Cutting"}, plan.Steps[3].DependsOn)
		})
	}
}

func TestBuild_UnknownMethodYieldsDesignOnly(t *testing.T) {
	plan := Build("LASER_ETCHING")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "Design", plan.Steps[0].Name)
	assert.Empty(t, plan.Steps[0].DependsOn)
}

func TestBuild_DependenciesReferenceEarlierSteps(t *testing.T) {
	for _, method := range []string{MethodSilkscreen, MethodDTF, MethodEmbroidery, MethodSublimation} {
		plan := Build(method)

		declared := make(map[string]bool)
		for _, step := range plan.Steps {
			for _, dep := range step.DependsOn {
				assert.True(t, declared[dep], "%s: dependency %q of %q must be declared earlier", method, dep, step.Name)
			}

			declared[step.Name] = true
		}
	}
}

func TestMaterialize_InternsDependencyIndexes(t *testing.T) {
	steps := Build(MethodSilkscreen).Materialize("order-1")
	require.Len(t, steps, 7)

	for sequence, step := range steps {
		assert.Equal(t, "order-1", step.OrderID)
		assert.Equal(t, sequence, step.Sequence)
		assert.Equal(t, models.StepStatusPlanned, step.Status)
		assert.NotEmpty(t, step.ID)
		require.Len(t, step.DependsOnIndexes, len(step.DependsOn))

		for i, depIndex := range step.DependsOnIndexes {
			assert.Equal(t, step.DependsOn[i], steps[depIndex].Name)
			assert.Less(t, depIndex, sequence)
		}
	}
}

func TestRecomputeReadiness(t *testing.T) {
	steps := Build(MethodSilkscreen).Materialize("order-1")

	// Nothing done yet: only the dependency-free steps become ready.
	promoted := RecomputeReadiness(steps)
	promotedNames := make([]string, 0, len(promoted))

	for _, step := range promoted {
		promotedNames = append(promotedNames, step.Name)
	}

	assert.ElementsMatch(t, []string{"Design", "Cutting"}, promotedNames)

	// Completing only Cutting is not enough for Printing.
	steps[2].Status = models.StepStatusDone
	assert.Empty(t, RecomputeReadiness(steps))

	// Completing the technique branch unlocks the convergent step.
	steps[0].Status = models.StepStatusDone
	steps[1].Status = models.StepStatusDone
	promoted = RecomputeReadiness(steps)
	require.Len(t, promoted, 1)
	assert.Equal(t, "Printing", promoted[0].Name)
}
