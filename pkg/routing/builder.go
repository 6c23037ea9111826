// Package routing builds the routing-step plan for a production method.
//
// Plans are fork-join graphs: a dependency-free Design step, a
// method-specific technique step behind it, a Cutting step that runs in
// parallel, a convergent execution step joining both branches, then the
// Sewing / Quality Control / Packing chain. Dependencies always name steps
// declared earlier in the list, so the DAG property holds by construction
// and is never re-checked at runtime.
package routing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/loomline/loomline/pkg/models"
)

// Production methods with a dedicated plan. Anything else yields the base
// Design step only.
const (
	MethodSilkscreen  = "SILKSCREEN"
	MethodDTF         = "DTF"
	MethodEmbroidery  = "EMBROIDERY"
	MethodSublimation = "SUBLIMATION"
)

// StepTemplate describes one routing step of a plan before it is bound to
// an order.
type StepTemplate struct {
	Name            string   `json:"name"`
	Workcenter      string   `json:"workcenter"`
	DependsOn       []string `json:"depends_on"`
	CanRunParallel  bool     `json:"can_run_parallel"`
	ExpectedInputs  []string `json:"expected_inputs,omitempty"`
	ExpectedOutputs []string `json:"expected_outputs,omitempty"`
}

// Plan is the ordered routing-step template list for one production method.
type Plan struct {
	Method string
	Steps  []StepTemplate
}

type methodProfile struct {
	technique         StepTemplate
	convergent        string
	convergentCenter  string
	convergentOutputs []string
}

func methodProfiles() map[string]methodProfile {
	return map[string]methodProfile{
		MethodSilkscreen: {
			technique: StepTemplate{
				Name:            "Screen Making",
				Workcenter:      "screen_prep",
				ExpectedInputs:  []string{"approved_design"},
				ExpectedOutputs: []string{"screens"},
			},
			convergent:        "Printing",
			convergentCenter:  "printing",
			convergentOutputs: []string{"printed_panels"},
		},
		MethodDTF: {
			technique: StepTemplate{
				Name:            "Film Printing",
				Workcenter:      "film_printing",
				ExpectedInputs:  []string{"approved_design"},
				ExpectedOutputs: []string{"transfer_film"},
			},
			convergent:        "Pressing",
			convergentCenter:  "heat_press",
			convergentOutputs: []string{"pressed_panels"},
		},
		MethodEmbroidery: {
			technique: StepTemplate{
				Name:            "Digitizing",
				Workcenter:      "digitizing",
				ExpectedInputs:  []string{"approved_design"},
				ExpectedOutputs: []string{"stitch_file"},
			},
			convergent:        "Embroidery",
			convergentCenter:  "embroidery",
			convergentOutputs: []string{"embroidered_panels"},
		},
		MethodSublimation: {
			technique: StepTemplate{
				Name:            "Paper Printing",
				Workcenter:      "sublimation_printing",
				ExpectedInputs:  []string{"approved_design"},
				ExpectedOutputs: []string{"sublimation_paper"},
			},
			convergent:        "Pressing",
			convergentCenter:  "heat_press",
			convergentOutputs: []string{"pressed_panels"},
		},
	}
}

// Build returns the plan for the given production method. Method matching
// is case-insensitive. Unknown methods yield only the Design step.
func Build(method string) Plan {
	design := StepTemplate{
		Name:            "Design",
		Workcenter:      "design",
		DependsOn:       []string{},
		ExpectedInputs:  []string{"customer_brief"},
		ExpectedOutputs: []string{"approved_design"},
	}

	normalized := strings.ToUpper(strings.TrimSpace(method))

	profile, known := methodProfiles()[normalized]
	if !known {
		return Plan{Method: normalized, Steps: []StepTemplate{design}}
	}

	technique := profile.technique
	technique.DependsOn = []string{design.Name}

	cutting := StepTemplate{
		Name:            "Cutting",
		Workcenter:      "cutting",
		DependsOn:       []string{},
		CanRunParallel:  true,
		ExpectedInputs:  []string{"fabric"},
		ExpectedOutputs: []string{"cut_panels"},
	}

	convergent := StepTemplate{
		Name:            profile.convergent,
		Workcenter:      profile.convergentCenter,
		DependsOn:       []string{technique.Name, cutting.Name},
		ExpectedInputs:  append(append([]string{}, technique.ExpectedOutputs...), cutting.ExpectedOutputs...),
		ExpectedOutputs: profile.convergentOutputs,
	}

	sewing := StepTemplate{
		Name:            "Sewing",
		Workcenter:      "sewing",
		DependsOn:       []string{convergent.Name},
		ExpectedInputs:  profile.convergentOutputs,
		ExpectedOutputs: []string{"sewn_garments"},
	}

	qc := StepTemplate{
		Name:            "Quality Control",
		Workcenter:      "qc",
		DependsOn:       []string{sewing.Name},
		ExpectedInputs:  []string{"sewn_garments"},
		ExpectedOutputs: []string{"inspection_report"},
	}

	packing := StepTemplate{
		Name:            "Packing",
		Workcenter:      "packing",
		DependsOn:       []string{qc.Name},
		ExpectedInputs:  []string{"sewn_garments", "inspection_report"},
		ExpectedOutputs: []string{"packed_order"},
	}

	return Plan{
		Method: normalized,
		Steps:  []StepTemplate{design, technique, cutting, convergent, sewing, qc, packing},
	}
}

// Materialize binds the plan to an order, assigning step IDs and sequence
// numbers and interning dependency names to sequence indexes. All steps
// start PLANNED; readiness is recomputed from dependency state.
func (p Plan) Materialize(orderID string) []*models.RoutingStep {
	indexByName := make(map[string]int, len(p.Steps))
	steps := make([]*models.RoutingStep, 0, len(p.Steps))

	for sequence, template := range p.Steps {
		indexByName[template.Name] = sequence

		indexes := make([]int, 0, len(template.DependsOn))
		for _, dep := range template.DependsOn {
			// Safe lookup: templates only ever name earlier steps.
			indexes = append(indexes, indexByName[dep])
		}

		steps = append(steps, &models.RoutingStep{
			ID:               uuid.New().String(),
			OrderID:          orderID,
			Name:             template.Name,
			Workcenter:       template.Workcenter,
			Sequence:         sequence,
			DependsOn:        append([]string{}, template.DependsOn...),
			DependsOnIndexes: indexes,
			CanRunParallel:   template.CanRunParallel,
			Status:           models.StepStatusPlanned,
			ExpectedInputs:   append([]string{}, template.ExpectedInputs...),
			ExpectedOutputs:  append([]string{}, template.ExpectedOutputs...),
		})
	}

	return steps
}

// RecomputeReadiness promotes PLANNED steps whose dependencies are all DONE
// to READY, using the interned indexes. Returns the promoted steps.
func RecomputeReadiness(steps []*models.RoutingStep) []*models.RoutingStep {
	var promoted []*models.RoutingStep

	for _, step := range steps {
		if step.Status != models.StepStatusPlanned {
			continue
		}

		ready := true

		for _, depIndex := range step.DependsOnIndexes {
			if depIndex < 0 || depIndex >= len(steps) || steps[depIndex].Status != models.StepStatusDone {
				ready = false

				break
			}
		}

		if ready {
			step.Status = models.StepStatusReady
			promoted = append(promoted, step)
		}
	}

	return promoted
}
