package models

import "time"

// QualityInspection is the recorded outcome of a QC pass over an order.
// The state machine only ever reads the latest inspection.
type QualityInspection struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	Score       float64   `json:"score"`
	Approved    bool      `json:"approved"`
	Notes       string    `json:"notes,omitempty"`
	InspectedBy string    `json:"inspected_by,omitempty"`
	InspectedAt time.Time `json:"inspected_at"`
}

// Shipment is the delivery record required before an order may move to
// DELIVERED.
type Shipment struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	Carrier        string    `json:"carrier,omitempty"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
