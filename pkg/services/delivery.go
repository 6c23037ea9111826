package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LogNotificationSender writes notifications to the log instead of a real
// delivery provider. Used in development and tests; production deployments
// wire a concrete provider behind protocol.NotificationSender.
type LogNotificationSender struct {
	logger *slog.Logger
}

func NewLogNotificationSender(logger *slog.Logger) *LogNotificationSender {
	return &LogNotificationSender{logger: logger.With("module", "notifications")}
}

func (s *LogNotificationSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info("email notification", "to", to, "subject", subject, "body_length", len(body))

	return nil
}

func (s *LogNotificationSender) SendSMS(_ context.Context, to, message string) error {
	s.logger.Info("sms notification", "to", to, "message_length", len(message))

	return nil
}

// LogTaskService records task creation in the log and hands back a
// generated identifier.
type LogTaskService struct {
	logger *slog.Logger
}

func NewLogTaskService(logger *slog.Logger) *LogTaskService {
	return &LogTaskService{logger: logger.With("module", "tasks")}
}

func (s *LogTaskService) CreateTask(_ context.Context, title, description, assignee string) (string, error) {
	taskID := uuid.New().String()
	s.logger.Info("task created", "task_id", taskID, "title", title, "assignee", assignee, "description_length", len(description))

	return taskID, nil
}

// LogReportService fakes report generation with a timestamped reference.
type LogReportService struct {
	logger *slog.Logger
}

func NewLogReportService(logger *slog.Logger) *LogReportService {
	return &LogReportService{logger: logger.With("module", "reports")}
}

func (s *LogReportService) GenerateReport(_ context.Context, reportType string, params map[string]any) (string, error) {
	reference := fmt.Sprintf("%s-%d", reportType, time.Now().UnixMilli())
	s.logger.Info("report generated", "report_type", reportType, "reference", reference, "params", len(params))

	return reference, nil
}
