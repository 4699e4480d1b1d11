package workorders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
)

// TrackerDirectory verifies tracker references before assignment.
type TrackerDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service provides business logic for the work order store and the
// assignment protocol.
type Service struct {
	repo     Repository
	cache    *Cache
	trackers TrackerDirectory
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a work order service.
func NewService(repo Repository, cache *Cache, trackers TrackerDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		trackers: trackers,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create opens a new work order in PENDING.
func (s *Service) Create(ctx context.Context, req CreateWorkOrderRequest) (WorkOrder, error) {
	req.OrderNo = strings.TrimSpace(req.OrderNo)
	req.ProductCode = strings.TrimSpace(req.ProductCode)
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.CustomerName = strings.TrimSpace(req.CustomerName)

	if err := s.validate.Struct(req); err != nil {
		return WorkOrder{}, validationError(err)
	}

	priority := PriorityMedium
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return WorkOrder{}, fmt.Errorf("priority %q: %w", *req.Priority, httpx.ErrValidation)
		}
		priority = *req.Priority
	}

	wo := WorkOrder{
		OrderNo:      req.OrderNo,
		ProductCode:  req.ProductCode,
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		CustomerName: req.CustomerName,
		Status:       StatusPending,
		Priority:     priority,
		DeliveryDate: req.DeliveryDate,
		Notes:        req.Notes,
	}
	if req.AssignedToMobile != nil {
		wo.AssignedToMobile = *req.AssignedToMobile
	}

	created, err := s.repo.Create(ctx, wo)
	if err != nil {
		return WorkOrder{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Get loads a single work order.
func (s *Service) Get(ctx context.Context, id int64) (WorkOrder, error) {
	if id <= 0 {
		return WorkOrder{}, fmt.Errorf("work order id: %w", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns work orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, fmt.Errorf("status %q: %w", *filter.Status, httpx.ErrValidation)
	}
	if filter.Priority != nil && !filter.Priority.IsValid() {
		return nil, 0, fmt.Errorf("priority %q: %w", *filter.Priority, httpx.ErrValidation)
	}
	return s.repo.List(ctx, filter)
}

// ListMobile serves the public mobile view: only work orders flagged
// visible to mobile, with internal fields stripped. Results are cached
// under the current version; every mutation bumps the version.
func (s *Service) ListMobile(ctx context.Context, filter MobileFilter) ([]MobileWorkOrder, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("status %q: %w", *filter.Status, httpx.ErrValidation)
	}

	statusPart := "all"
	if filter.Status != nil {
		statusPart = string(*filter.Status)
	}
	key, err := s.cache.BuildKey(ctx, "workorders", "mobile", statusPart, filter.Search)
	if err != nil {
		s.logger.Warn("mobile list cache key", slog.Any("error", err))
		return s.repo.ListMobile(ctx, filter)
	}

	var orders []MobileWorkOrder
	err = s.cache.FetchJSON(ctx, key, &orders, func(ctx context.Context) (any, error) {
		return s.repo.ListMobile(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Update applies a field-level partial update: only supplied fields
// change. An echoed status is ignored; visibility and tracker assignment
// go through their dedicated single-column writes so they can never
// clobber a concurrent status change.
func (s *Service) Update(ctx context.Context, id int64, req UpdateWorkOrderRequest) (WorkOrder, error) {
	if id <= 0 {
		return WorkOrder{}, fmt.Errorf("work order id: %w", httpx.ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return WorkOrder{}, validationError(err)
	}
	if req.Status != nil {
		// Legacy dashboard clients echo the current status on every PUT.
		s.logger.Debug("ignoring status field on work order update", slog.Int64("id", id))
	}

	// Resolve every reference before touching the row: a failed update
	// must not leave part of the body applied.
	if req.AssignedTracker.Set && req.AssignedTracker.Value != nil {
		exists, err := s.trackers.Exists(ctx, *req.AssignedTracker.Value)
		if err != nil {
			return WorkOrder{}, fmt.Errorf("workorders: check tracker: %w", err)
		}
		if !exists {
			return WorkOrder{}, fmt.Errorf("tracker %d: %w", *req.AssignedTracker.Value, httpx.ErrNotFound)
		}
	}

	updates := map[string]any{}
	if req.OrderNo != nil {
		trimmed := strings.TrimSpace(*req.OrderNo)
		if trimmed == "" {
			return WorkOrder{}, fmt.Errorf("orderNo must not be empty: %w", httpx.ErrValidation)
		}
		updates["order_no"] = trimmed
	}
	if req.ProductCode != nil {
		trimmed := strings.TrimSpace(*req.ProductCode)
		if trimmed == "" {
			return WorkOrder{}, fmt.Errorf("productCode must not be empty: %w", httpx.ErrValidation)
		}
		updates["product_code"] = trimmed
	}
	if req.ProductName != nil {
		updates["product_name"] = strings.TrimSpace(*req.ProductName)
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.CustomerName != nil {
		updates["customer_name"] = strings.TrimSpace(*req.CustomerName)
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return WorkOrder{}, fmt.Errorf("priority %q: %w", *req.Priority, httpx.ErrValidation)
		}
		updates["priority"] = *req.Priority
	}
	if req.DeliveryDate != nil {
		updates["delivery_date"] = *req.DeliveryDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
			return WorkOrder{}, err
		}
	}
	if req.AssignedToMobile != nil {
		if err := s.setMobileVisibility(ctx, id, *req.AssignedToMobile); err != nil {
			return WorkOrder{}, err
		}
	}
	if req.AssignedTracker.Set {
		// Existence was verified above, go straight to the write.
		if err := s.repo.SetAssignedTracker(ctx, id, req.AssignedTracker.Value); err != nil {
			return WorkOrder{}, err
		}
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return WorkOrder{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// AssignTracker atomically sets or clears the tracker assignment. The
// work order status is untouched.
func (s *Service) AssignTracker(ctx context.Context, id int64, trackerID *int64) error {
	if err := s.assignTracker(ctx, id, trackerID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) assignTracker(ctx context.Context, id int64, trackerID *int64) error {
	if trackerID != nil {
		exists, err := s.trackers.Exists(ctx, *trackerID)
		if err != nil {
			return fmt.Errorf("workorders: check tracker: %w", err)
		}
		if !exists {
			return fmt.Errorf("tracker %d: %w", *trackerID, httpx.ErrNotFound)
		}
	}
	return s.repo.SetAssignedTracker(ctx, id, trackerID)
}

// SetMobileVisibility toggles whether the work order appears in the
// mobile client.
func (s *Service) SetMobileVisibility(ctx context.Context, id int64, visible bool) error {
	if err := s.setMobileVisibility(ctx, id, visible); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) setMobileVisibility(ctx context.Context, id int64, visible bool) error {
	return s.repo.SetMobileVisibility(ctx, id, visible)
}

// Delete removes a work order. With progress events present the delete
// is blocked unless cascade is requested, preserving ledger integrity.
func (s *Service) Delete(ctx context.Context, id int64, cascade bool) error {
	if id <= 0 {
		return fmt.Errorf("work order id: %w", httpx.ErrValidation)
	}
	if cascade {
		if err := s.repo.DeleteCascade(ctx, id); err != nil {
			return err
		}
		s.invalidate(ctx)
		return nil
	}

	count, err := s.repo.CountProgressEvents(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("work order %d has %d progress events: %w", id, count, httpx.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump work order cache", slog.Any("error", err))
	}
}

func validationError(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		return fmt.Errorf("field %s is missing or invalid: %w", fieldErrs[0].Field(), httpx.ErrValidation)
	}
	return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
}
