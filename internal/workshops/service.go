package workshops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
)

// Service provides business logic for the workshop registry and ledger.
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a workshop service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

// List returns registered workshops.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Workshop, error) {
	return s.repo.List(ctx, activeOnly)
}

// Get loads a single workshop with its derived balance.
func (s *Service) Get(ctx context.Context, id int64) (Workshop, error) {
	if id <= 0 {
		return Workshop{}, fmt.Errorf("workshop id: %w", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the workshop is registered.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Create registers a workshop. New workshops are active and start with
// an empty ledger.
func (s *Service) Create(ctx context.Context, req CreateWorkshopRequest) (Workshop, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return Workshop{}, validationError(err)
	}

	spec := SpecAll
	if req.Specialization != nil {
		if !req.Specialization.IsValid() {
			return Workshop{}, fmt.Errorf("specialization %q: %w", *req.Specialization, httpx.ErrValidation)
		}
		spec = *req.Specialization
	}

	ws := Workshop{
		Name:           req.Name,
		Specialization: spec,
		ContactPerson:  req.ContactPerson,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		IsActive:       true,
	}
	if req.IsActive != nil {
		ws.IsActive = *req.IsActive
	}
	return s.repo.Create(ctx, ws)
}

// Update applies a field-level partial update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateWorkshopRequest) (Workshop, error) {
	if id <= 0 {
		return Workshop{}, fmt.Errorf("workshop id: %w", httpx.ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return Workshop{}, validationError(err)
	}

	updates := map[string]any{}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return Workshop{}, fmt.Errorf("name must not be empty: %w", httpx.ErrValidation)
		}
		updates["name"] = trimmed
	}
	if req.Specialization != nil {
		if !req.Specialization.IsValid() {
			return Workshop{}, fmt.Errorf("specialization %q: %w", *req.Specialization, httpx.ErrValidation)
		}
		updates["specialization"] = *req.Specialization
	}
	if req.ContactPerson != nil {
		updates["contact_person"] = *req.ContactPerson
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return Workshop{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a workshop. Workshops referenced by ledger events stay.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("workshop id: %w", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

// RecordPayment increments the payment accumulator. Payments larger
// than the current balance are allowed; the balance goes negative and
// represents credit extended to the workshop.
func (s *Service) RecordPayment(ctx context.Context, id int64, req LedgerRequest) (Workshop, error) {
	if err := s.validateLedger(id, req); err != nil {
		return Workshop{}, err
	}
	ws, err := s.repo.AddPayment(ctx, id, req.Amount)
	if err != nil {
		return Workshop{}, err
	}
	s.logger.Info("workshop payment recorded",
		slog.Int64("workshopId", id), slog.Float64("amount", req.Amount), slog.Float64("balance", ws.Balance))
	return ws, nil
}

// RecordEarning increments the earnings accumulator.
func (s *Service) RecordEarning(ctx context.Context, id int64, req LedgerRequest) (Workshop, error) {
	if err := s.validateLedger(id, req); err != nil {
		return Workshop{}, err
	}
	ws, err := s.repo.AddEarning(ctx, id, req.Amount)
	if err != nil {
		return Workshop{}, err
	}
	s.logger.Info("workshop earning recorded",
		slog.Int64("workshopId", id), slog.Float64("amount", req.Amount), slog.Float64("balance", ws.Balance))
	return ws, nil
}

func (s *Service) validateLedger(id int64, req LedgerRequest) error {
	if id <= 0 {
		return fmt.Errorf("workshop id: %w", httpx.ErrValidation)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("amount must be positive: %w", httpx.ErrValidation)
	}
	return nil
}

func validationError(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		return fmt.Errorf("field %s is missing or invalid: %w", fieldErrs[0].Field(), httpx.ErrValidation)
	}
	return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
}
