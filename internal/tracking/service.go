package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
	"github.com/fasontrack/fasontrack/internal/shared"
	"github.com/fasontrack/fasontrack/internal/workorders"
)

// WorkshopRegistry verifies workshop references on submitted events.
type WorkshopRegistry interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Invalidator bumps the work order listing cache after the ledger
// advances a status.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// IdempotencyStore claims idempotency keys for retried submissions.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsObserver counts recorded events.
type MetricsObserver interface {
	ObserveProgressEvent(status string)
}

const idempotencyModule = "tracking"

// Service provides business logic for the progress ledger.
type Service struct {
	repo        Repository
	workshops   WorkshopRegistry
	invalidator Invalidator
	idempotency IdempotencyStore
	metrics     MetricsObserver
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs a tracking service. idempotency and metrics may
// be nil.
func NewService(repo Repository, workshops WorkshopRegistry, invalidator Invalidator, idempotency IdempotencyStore, metrics MetricsObserver, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		workshops:   workshops,
		invalidator: invalidator,
		idempotency: idempotency,
		metrics:     metrics,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// RecordProgress appends one event to the ledger and moves the owning
// work order to the event's status, atomically. trackerID is the
// authenticated caller; idempotencyKey is optional and lets mobile
// clients retry safely.
func (s *Service) RecordProgress(ctx context.Context, req RecordProgressRequest, trackerID int64, idempotencyKey string) (ProgressEvent, error) {
	if trackerID <= 0 {
		return ProgressEvent{}, fmt.Errorf("tracker id: %w", httpx.ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return ProgressEvent{}, validationError(err)
	}
	if !req.ProcessStage.IsValid() {
		return ProgressEvent{}, fmt.Errorf("processStage %q: %w", req.ProcessStage, httpx.ErrValidation)
	}
	if !req.Status.IsValid() || req.Status == workorders.StatusPending {
		return ProgressEvent{}, fmt.Errorf("status %q: %w", req.Status, httpx.ErrValidation)
	}
	if req.Status == workorders.StatusProblem {
		if req.ProblemNotes == nil || strings.TrimSpace(*req.ProblemNotes) == "" {
			return ProgressEvent{}, fmt.Errorf("problemNotes is required when status is PROBLEM: %w", httpx.ErrValidation)
		}
	}

	// Existence check doubles as the NotFoundError contract; the status
	// itself is informational, no transition is rejected here. PROBLEM
	// recovery works the same way: the next event simply carries the
	// status the order re-enters the pipeline with.
	if _, err := s.repo.WorkOrderStatus(ctx, req.WorkOrderID); err != nil {
		return ProgressEvent{}, err
	}

	if req.WorkshopID != nil {
		exists, err := s.workshops.Exists(ctx, *req.WorkshopID)
		if err != nil {
			return ProgressEvent{}, fmt.Errorf("tracking: check workshop: %w", err)
		}
		if !exists {
			return ProgressEvent{}, fmt.Errorf("workshop %d: %w", *req.WorkshopID, httpx.ErrNotFound)
		}
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if _, err := uuid.Parse(idempotencyKey); err != nil {
			return ProgressEvent{}, fmt.Errorf("idempotency key must be a UUID: %w", httpx.ErrValidation)
		}
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return ProgressEvent{}, fmt.Errorf("progress event already recorded: %w", httpx.ErrConflict)
			}
			return ProgressEvent{}, err
		}
	}

	event := ProgressEvent{
		WorkOrderID:  req.WorkOrderID,
		WorkshopID:   req.WorkshopID,
		TrackerID:    trackerID,
		ProcessStage: req.ProcessStage,
		Status:       req.Status,
		Notes:        req.Notes,
		ProblemNotes: req.ProblemNotes,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	switch req.Status {
	case workorders.StatusPickedUp:
		now := s.now()
		event.PickupDate = &now
	case workorders.StatusDelivered:
		now := s.now()
		event.DeliveryDate = &now
	}

	created, err := s.repo.Append(ctx, event)
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			if delErr := s.idempotency.Delete(ctx, idempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return ProgressEvent{}, err
	}

	if s.metrics != nil {
		s.metrics.ObserveProgressEvent(string(created.Status))
	}
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("bump work order cache", slog.Any("error", err))
		}
	}
	return created, nil
}

// ListProgress returns the canonical event history of a work order,
// ascending by creation time.
func (s *Service) ListProgress(ctx context.Context, workOrderID int64) ([]ProgressEvent, error) {
	if workOrderID <= 0 {
		return nil, fmt.Errorf("work order id: %w", httpx.ErrValidation)
	}
	if _, err := s.repo.WorkOrderStatus(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.repo.ListByWorkOrder(ctx, workOrderID)
}

func validationError(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		return fmt.Errorf("field %s is missing or invalid: %w", fieldErrs[0].Field(), httpx.ErrValidation)
	}
	return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
}
