package workshops

// CreateWorkshopRequest registers a workshop.
type CreateWorkshopRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Specialization *Specialization `json:"specialization,omitempty"`
	ContactPerson  string          `json:"contactPerson,omitempty" validate:"omitempty,max=200"`
	Phone          string          `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email          string          `json:"email,omitempty" validate:"omitempty,email"`
	Address        string          `json:"address,omitempty" validate:"omitempty,max=500"`
	IsActive       *bool           `json:"isActive,omitempty"`
}

// UpdateWorkshopRequest is a partial update; ledger accumulators are
// not updatable here, only through ledger operations.
type UpdateWorkshopRequest struct {
	Name           *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	Specialization *Specialization `json:"specialization,omitempty"`
	ContactPerson  *string         `json:"contactPerson,omitempty" validate:"omitempty,max=200"`
	Phone          *string         `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email          *string         `json:"email,omitempty" validate:"omitempty,email"`
	Address        *string         `json:"address,omitempty" validate:"omitempty,max=500"`
	IsActive       *bool           `json:"isActive,omitempty"`
}

// LedgerRequest records a payment or an earning.
type LedgerRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Note   *string `json:"note,omitempty"`
}

// ListWorkshopsResponse is the registry listing payload.
type ListWorkshopsResponse struct {
	Workshops []Workshop `json:"workshops"`
}
