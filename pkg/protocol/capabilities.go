package protocol

import "context"

// FieldResolver resolves a condition field that is absent from the trigger
// payload, typically against persisted state. The boolean reports whether
// the field could be resolved at all.
type FieldResolver interface {
	Resolve(ctx context.Context, field string, triggerData map[string]any) (any, bool, error)
}

// NotificationSender delivers email and SMS messages. Implementations wrap
// a concrete provider; the engine only sees this contract.
type NotificationSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, message string) error
}

// TaskService creates follow-up tasks in an external task tracker and
// returns the created task's identifier.
type TaskService interface {
	CreateTask(ctx context.Context, title, description, assignee string) (string, error)
}

// ReportService generates a report and returns a reference to it.
type ReportService interface {
	GenerateReport(ctx context.Context, reportType string, params map[string]any) (string, error)
}
