// Package generatereport produces a report through the report service.
package generatereport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

type Action struct {
	ReportType string
	Params     map[string]any

	reports protocol.ReportService
}

func NewAction(config map[string]any, reports protocol.ReportService) (*Action, error) {
	reportType, ok := config["report_type"].(string)
	if !ok || reportType == "" {
		return nil, fmt.Errorf("missing or invalid 'report_type' in configuration")
	}

	params, _ := config["params"].(map[string]any)

	return &Action{ReportType: reportType, Params: params, reports: reports}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	params := make(map[string]any, len(a.Params)+1)
	for key, value := range a.Params {
		params[key] = value
	}

	// The trigger payload is always available to report generation.
	params["trigger_data"] = executionCtx.TriggerData

	reference, err := a.reports.GenerateReport(ctx, a.ReportType, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	logger.Info("report generated", "action", "generate_report", "report_type", a.ReportType, "reference", reference)

	return map[string]any{"report_type": a.ReportType, "reference": reference}, nil
}
