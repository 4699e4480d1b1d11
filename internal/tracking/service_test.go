package tracking

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
	"github.com/fasontrack/fasontrack/internal/shared"
	"github.com/fasontrack/fasontrack/internal/workorders"
)

type memoryLedger struct {
	statuses map[int64]workorders.Status
	events   []ProgressEvent
	nextID   int64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{statuses: make(map[int64]workorders.Status)}
}

func (r *memoryLedger) Append(ctx context.Context, event ProgressEvent) (ProgressEvent, error) {
	if _, ok := r.statuses[event.WorkOrderID]; !ok {
		return ProgressEvent{}, httpx.ErrNotFound
	}
	r.nextID++
	event.ID = r.nextID
	event.CreatedAt = time.Now()
	r.events = append(r.events, event)
	r.statuses[event.WorkOrderID] = event.Status
	return event, nil
}

func (r *memoryLedger) ListByWorkOrder(ctx context.Context, workOrderID int64) ([]ProgressEvent, error) {
	var out []ProgressEvent
	for _, e := range r.events {
		if e.WorkOrderID == workOrderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryLedger) WorkOrderStatus(ctx context.Context, workOrderID int64) (workorders.Status, error) {
	status, ok := r.statuses[workOrderID]
	if !ok {
		return "", httpx.ErrNotFound
	}
	return status, nil
}

type fakeWorkshops struct {
	known map[int64]bool
}

func (f fakeWorkshops) Exists(ctx context.Context, id int64) (bool, error) {
	return f.known[id], nil
}

type fakeIdempotency struct {
	seen map[string]bool
}

func (f *fakeIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	f.seen[key] = true
	return nil
}

func (f *fakeIdempotency) Delete(ctx context.Context, key string) error {
	delete(f.seen, key)
	return nil
}

func newTestService(ledger *memoryLedger) *Service {
	workshops := fakeWorkshops{known: map[int64]bool{3: true}}
	svc := NewService(ledger, workshops, nil, &fakeIdempotency{seen: map[string]bool{}}, nil, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRecordProgressAdvancesStatus(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.statuses[100] = workorders.StatusPending
	svc := newTestService(ledger)
	ctx := context.Background()

	first, err := svc.RecordProgress(ctx, RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageCutting,
		Status:       workorders.StatusPickedUp,
	}, 7, "")
	require.NoError(t, err)
	require.Equal(t, workorders.StatusPickedUp, ledger.statuses[100])
	require.NotNil(t, first.PickupDate, "pickup date is server-assigned on PICKED_UP")
	require.Nil(t, first.DeliveryDate)

	workshopID := int64(3)
	second, err := svc.RecordProgress(ctx, RecordProgressRequest{
		WorkOrderID:  100,
		WorkshopID:   &workshopID,
		ProcessStage: StageSewing,
		Status:       workorders.StatusAtWorkshop,
	}, 7, "")
	require.NoError(t, err)
	require.Equal(t, workorders.StatusAtWorkshop, ledger.statuses[100])
	require.Nil(t, second.PickupDate)

	events, err := svc.ListProgress(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, first.ID, events[0].ID)
	require.Equal(t, second.ID, events[1].ID)
}

func TestRecordProgressSetsDeliveryDateOnDelivered(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.statuses[100] = workorders.StatusReady
	svc := newTestService(ledger)

	event, err := svc.RecordProgress(context.Background(), RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageIroning,
		Status:       workorders.StatusDelivered,
	}, 7, "")
	require.NoError(t, err)
	require.NotNil(t, event.DeliveryDate)
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), *event.DeliveryDate)
}

func TestRecordProgressRequiresProblemNotes(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.statuses[100] = workorders.StatusAtWorkshop
	svc := newTestService(ledger)
	ctx := context.Background()

	_, err := svc.RecordProgress(ctx, RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageSewing,
		Status:       workorders.StatusProblem,
	}, 7, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	blank := "   "
	_, err = svc.RecordProgress(ctx, RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageSewing,
		Status:       workorders.StatusProblem,
		ProblemNotes: &blank,
	}, 7, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	notes := "kumaş hatası"
	event, err := svc.RecordProgress(ctx, RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageSewing,
		Status:       workorders.StatusProblem,
		ProblemNotes: &notes,
	}, 7, "")
	require.NoError(t, err)
	require.Equal(t, workorders.StatusProblem, ledger.statuses[100])
	require.Equal(t, notes, *event.ProblemNotes)
}

func TestRecordProgressRejectsPendingStatus(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.statuses[100] = workorders.StatusPickedUp
	svc := newTestService(ledger)

	_, err := svc.RecordProgress(context.Background(), RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageCutting,
		Status:       workorders.StatusPending,
	}, 7, "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRecordProgressUnknownWorkOrder(t *testing.T) {
	ledger := newMemoryLedger()
	svc := newTestService(ledger)

	_, err := svc.RecordProgress(context.Background(), RecordProgressRequest{
		WorkOrderID:  999,
		ProcessStage: StageCutting,
		Status:       workorders.StatusPickedUp,
	}, 7, "")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRecordProgressUnknownWorkshop(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.statuses[100] = workorders.StatusPending
	svc := newTestService(ledger)

	workshopID := int64(42)
	_, err := svc.RecordProgress(context.Background(), RecordProgressRequest{
		WorkOrderID:  100,
		WorkshopID:   &workshopID,
		ProcessStage: StageCutting,
		Status:       workorders.StatusPickedUp,
	}, 7, "")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRecordProgressIdempotencyKey(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.statuses[100] = workorders.StatusPending
	svc := newTestService(ledger)
	ctx := context.Background()

	key := uuid.NewString()
	req := RecordProgressRequest{WorkOrderID: 100, ProcessStage: StageCutting, Status: workorders.StatusPickedUp}

	_, err := svc.RecordProgress(ctx, req, 7, key)
	require.NoError(t, err)

	_, err = svc.RecordProgress(ctx, req, 7, key)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Len(t, ledger.events, 1)

	_, err = svc.RecordProgress(ctx, req, 7, "not-a-uuid")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestProblemRecoveryViaNextEvent(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.statuses[100] = workorders.StatusAtWorkshop
	svc := newTestService(ledger)
	ctx := context.Background()

	notes := "iplik kopması"
	_, err := svc.RecordProgress(ctx, RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageSewing,
		Status:       workorders.StatusProblem,
		ProblemNotes: &notes,
	}, 7, "")
	require.NoError(t, err)
	require.Equal(t, workorders.StatusProblem, ledger.statuses[100])

	// The next event simply carries the re-entry status.
	_, err = svc.RecordProgress(ctx, RecordProgressRequest{
		WorkOrderID:  100,
		ProcessStage: StageSewing,
		Status:       workorders.StatusAtWorkshop,
	}, 7, "")
	require.NoError(t, err)
	require.Equal(t, workorders.StatusAtWorkshop, ledger.statuses[100])
}
