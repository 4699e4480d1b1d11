package workorders

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/fasontrack/fasontrack/internal/shared"
)

// CreateWorkOrderRequest creates a work order in PENDING.
type CreateWorkOrderRequest struct {
	OrderNo          string     `json:"orderNo" validate:"required,max=64"`
	ProductCode      string     `json:"productCode" validate:"required,max=64"`
	ProductName      string     `json:"productName,omitempty" validate:"omitempty,max=200"`
	Quantity         int        `json:"quantity" validate:"required,gt=0"`
	CustomerName     string     `json:"customerName,omitempty" validate:"omitempty,max=200"`
	Priority         *Priority  `json:"priority,omitempty"`
	DeliveryDate     *time.Time `json:"deliveryDate,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	AssignedToMobile *bool      `json:"assignedToMobile,omitempty"`
}

// OptionalTrackerID distinguishes "field absent" from "field null" so a
// single PUT can set or clear the tracker assignment.
type OptionalTrackerID struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON marks the field as supplied even when the value is null.
func (o *OptionalTrackerID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// UpdateWorkOrderRequest is a field-level partial update: only supplied
// fields change. A status value is accepted for wire compatibility with
// clients that echo it, but it is never applied; status moves only
// through progress events.
type UpdateWorkOrderRequest struct {
	OrderNo          *string           `json:"orderNo,omitempty" validate:"omitempty,max=64"`
	ProductCode      *string           `json:"productCode,omitempty" validate:"omitempty,max=64"`
	ProductName      *string           `json:"productName,omitempty" validate:"omitempty,max=200"`
	Quantity         *int              `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	CustomerName     *string           `json:"customerName,omitempty" validate:"omitempty,max=200"`
	Priority         *Priority         `json:"priority,omitempty"`
	DeliveryDate     *time.Time        `json:"deliveryDate,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	Status           *Status           `json:"status,omitempty"`
	AssignedToMobile *bool             `json:"assignedToMobile,omitempty"`
	AssignedTracker  OptionalTrackerID `json:"assignedTrackerId,omitzero"`
}

// ListFilter narrows work order listings.
type ListFilter struct {
	Search           string
	Status           *Status
	Priority         *Priority
	AssignedToMobile *bool
	Limit            int
	Offset           int
}

// MobileFilter narrows the public mobile listing. Visibility gating on
// assignedToMobile is unconditional and not part of the filter.
type MobileFilter struct {
	Search string
	Status *Status
}

// ListWorkOrdersResponse is the dashboard listing payload.
type ListWorkOrdersResponse struct {
	WorkOrders []WorkOrder       `json:"workOrders"`
	Total      int               `json:"total"`
	Pagination shared.Pagination `json:"pagination"`
}

// MobileListResponse is the mobile listing payload.
type MobileListResponse struct {
	WorkOrders []MobileWorkOrder `json:"workOrders"`
}
