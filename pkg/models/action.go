package models

// ActionType identifies the concrete capability an action delegates to.
type ActionType string

const (
	ActionTypeEmail          ActionType = "EMAIL"
	ActionTypeSMS            ActionType = "SMS"
	ActionTypeWebhook        ActionType = "WEBHOOK"
	ActionTypeUpdateRecord   ActionType = "UPDATE_RECORD"
	ActionTypeCreateTask     ActionType = "CREATE_TASK"
	ActionTypeGenerateReport ActionType = "GENERATE_REPORT"
)

// ActionSpec is one unit of work in a workflow's action list.
// DelayMinutes suspends only the owning execution before the action runs.
// RetryAttempts bounds re-execution after a failure; zero means one try.
type ActionSpec struct {
	Type          ActionType     `json:"type"   validate:"required,oneof=EMAIL SMS WEBHOOK UPDATE_RECORD CREATE_TASK GENERATE_REPORT"`
	Config        map[string]any `json:"config"`
	DelayMinutes  int            `json:"delay_minutes,omitempty"  validate:"gte=0"`
	RetryAttempts int            `json:"retry_attempts,omitempty" validate:"gte=0,lte=10"`
}
