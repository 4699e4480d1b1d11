package trackers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
)

// Service provides business logic for the tracker directory.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a tracker service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns the trackers eligible for assignment.
func (s *Service) List(ctx context.Context) ([]Tracker, error) {
	return s.repo.List(ctx)
}

// Get loads a single tracker.
func (s *Service) Get(ctx context.Context, id int64) (Tracker, error) {
	if id <= 0 {
		return Tracker{}, fmt.Errorf("tracker id: %w", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the tracker is registered.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Create registers a tracker.
func (s *Service) Create(ctx context.Context, req CreateTrackerRequest) (Tracker, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return Tracker{}, validationError(err)
	}
	return s.repo.Create(ctx, Tracker{Name: req.Name, Email: req.Email, Phone: req.Phone})
}

// Update applies a field-level partial update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateTrackerRequest) (Tracker, error) {
	if id <= 0 {
		return Tracker{}, fmt.Errorf("tracker id: %w", httpx.ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return Tracker{}, validationError(err)
	}

	updates := map[string]any{}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return Tracker{}, fmt.Errorf("name must not be empty: %w", httpx.ErrValidation)
		}
		updates["name"] = trimmed
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return Tracker{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a tracker. Trackers referenced by ledger events stay.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("tracker id: %w", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

func validationError(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		return fmt.Errorf("field %s is missing or invalid: %w", fieldErrs[0].Field(), httpx.ErrValidation)
	}
	return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
}
