package generatereport

import (
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

type Factory struct {
	reports protocol.ReportService
}

func NewFactory(reports protocol.ReportService) *Factory {
	return &Factory{reports: reports}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.reports)
}

func (f *Factory) ID() models.ActionType { return models.ActionTypeGenerateReport }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"report_type"},
		"properties": map[string]any{
			"report_type": map[string]any{"type": "string"},
			"params":      map[string]any{"type": "object"},
		},
	}
}
