package models

import "time"

// TransitionAudit is one append-only record of a committed status change.
// It is written in the same unit as the status itself.
type TransitionAudit struct {
	ID         string            `json:"id"`
	OrderID    string            `json:"order_id"`
	FromStatus OrderStatus       `json:"from_status"`
	ToStatus   OrderStatus       `json:"to_status"`
	Actor      string            `json:"actor"`
	Role       Role              `json:"role"`
	Reason     string            `json:"reason,omitempty"`
	Forced     bool              `json:"forced,omitempty"`
	Checks     []ValidationCheck `json:"checks,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
