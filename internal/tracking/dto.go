package tracking

import "github.com/fasontrack/fasontrack/internal/workorders"

// RecordProgressRequest submits one stage update for a work order.
// Geolocation is best effort from the device; absence never blocks the
// submission. pickupDate and deliveryDate are server-assigned.
type RecordProgressRequest struct {
	WorkOrderID  int64             `json:"workOrderId" validate:"required,gt=0"`
	WorkshopID   *int64            `json:"workshopId,omitempty" validate:"omitempty,gt=0"`
	ProcessStage ProcessStage      `json:"processStage" validate:"required"`
	Status       workorders.Status `json:"status" validate:"required"`
	Notes        *string           `json:"notes,omitempty"`
	ProblemNotes *string           `json:"problemNotes,omitempty"`
	Latitude     *float64          `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64          `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// ListProgressResponse is the ordered event history of one work order.
type ListProgressResponse struct {
	Events []ProgressEvent `json:"events"`
}
