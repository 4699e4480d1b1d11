package tracking

import (
	"time"

	"github.com/fasontrack/fasontrack/internal/workorders"
)

// ProcessStage is one of the production phases a work order passes
// through at a workshop. PRINT_EMBROIDERY is optional in the pipeline.
type ProcessStage string

const (
	StageCutting         ProcessStage = "CUTTING"
	StageSewing          ProcessStage = "SEWING"
	StagePrintEmbroidery ProcessStage = "PRINT_EMBROIDERY"
	StageIroning         ProcessStage = "IRONING"
)

// IsValid checks if the process stage is valid.
func (p ProcessStage) IsValid() bool {
	switch p {
	case StageCutting, StageSewing, StagePrintEmbroidery, StageIroning:
		return true
	default:
		return false
	}
}

// Label returns the Turkish display label used by the dashboards.
func (p ProcessStage) Label() string {
	switch p {
	case StageCutting:
		return "Kesim"
	case StageSewing:
		return "Dikim"
	case StagePrintEmbroidery:
		return "Baskı/Nakış"
	case StageIroning:
		return "Ütü"
	default:
		return string(p)
	}
}

// ProgressEvent is one immutable entry of the append-only ledger. Once
// created it is never mutated or deleted; the owning work order's status
// always reflects the last event applied.
type ProgressEvent struct {
	ID           int64             `json:"id"`
	WorkOrderID  int64             `json:"workOrderId"`
	WorkshopID   *int64            `json:"workshopId,omitempty"`
	TrackerID    int64             `json:"trackerId"`
	ProcessStage ProcessStage      `json:"processStage"`
	Status       workorders.Status `json:"status"`
	PickupDate   *time.Time        `json:"pickupDate,omitempty"`
	DeliveryDate *time.Time        `json:"deliveryDate,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	ProblemNotes *string           `json:"problemNotes,omitempty"`
	Latitude     *float64          `json:"latitude,omitempty"`
	Longitude    *float64          `json:"longitude,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}
