package workorders

import "time"

// Status is the lifecycle state of a work order. The value is always
// derived from the most recent progress event; a work order with no
// events is PENDING.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPickedUp   Status = "PICKED_UP"
	StatusAtWorkshop Status = "AT_WORKSHOP"
	StatusReady      Status = "READY"
	StatusDelivered  Status = "DELIVERED"
	StatusProblem    Status = "PROBLEM"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPickedUp, StatusAtWorkshop, StatusReady, StatusDelivered, StatusProblem:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the pipeline is finished for this status.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered
}

// Label returns the Turkish display label used by the dashboards.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Bekliyor"
	case StatusPickedUp:
		return "Alındı"
	case StatusAtWorkshop:
		return "Atölyede"
	case StatusReady:
		return "Hazır"
	case StatusDelivered:
		return "Teslim Edildi"
	case StatusProblem:
		return "Sorun Var"
	default:
		return string(s)
	}
}

// Priority orders work on the dispatcher's board.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// IsValid checks if the priority is valid.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// WorkOrder represents a unit of outsourced production tracked through
// the process stages to delivery.
type WorkOrder struct {
	ID                int64      `json:"id"`
	OrderNo           string     `json:"orderNo"`
	ProductCode       string     `json:"productCode"`
	ProductName       string     `json:"productName"`
	Quantity          int        `json:"quantity"`
	CustomerName      string     `json:"customerName"`
	Status            Status     `json:"status"`
	Priority          Priority   `json:"priority"`
	DeliveryDate      *time.Time `json:"deliveryDate,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	AssignedToMobile  bool       `json:"assignedToMobile"`
	AssignedTrackerID *int64     `json:"assignedTrackerId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsDelayed reports whether the target delivery date has passed while
// the order is not yet delivered.
func (w WorkOrder) IsDelayed(now time.Time) bool {
	return w.DeliveryDate != nil && w.DeliveryDate.Before(now) && w.Status != StatusDelivered
}

// MobileWorkOrder is the field-limited view served to the public mobile
// client. Internal notes and assignment details stay out of it.
type MobileWorkOrder struct {
	ID           int64      `json:"id"`
	OrderNo      string     `json:"orderNo"`
	ProductCode  string     `json:"productCode"`
	ProductName  string     `json:"productName"`
	Quantity     int        `json:"quantity"`
	CustomerName string     `json:"customerName"`
	Status       Status     `json:"status"`
	StatusLabel  string     `json:"statusLabel"`
	Priority     Priority   `json:"priority"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
}
