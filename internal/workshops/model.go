package workshops

import "time"

// Specialization is the set of process stages a workshop performs.
type Specialization string

const (
	SpecCutting         Specialization = "CUTTING"
	SpecSewing          Specialization = "SEWING"
	SpecPrintEmbroidery Specialization = "PRINT_EMBROIDERY"
	SpecIroning         Specialization = "IRONING"
	SpecAll             Specialization = "ALL"
)

// IsValid checks if the specialization is valid.
func (s Specialization) IsValid() bool {
	switch s {
	case SpecCutting, SpecSewing, SpecPrintEmbroidery, SpecIroning, SpecAll:
		return true
	default:
		return false
	}
}

// Workshop is an external manufacturing partner with a running
// financial ledger. TotalEarnings and TotalPayments only ever grow,
// through explicit ledger operations; Balance is derived on read and
// never stored.
type Workshop struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Specialization Specialization `json:"specialization"`
	ContactPerson  string         `json:"contactPerson"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email"`
	Address        string         `json:"address"`
	IsActive       bool           `json:"isActive"`
	TotalEarnings  float64        `json:"totalEarnings"`
	TotalPayments  float64        `json:"totalPayments"`
	Balance        float64        `json:"balance"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
