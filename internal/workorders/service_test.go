package workorders

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
	"github.com/fasontrack/fasontrack/internal/shared"
)

type memoryRepo struct {
	orders     map[int64]WorkOrder
	eventCount map[int64]int
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: make(map[int64]WorkOrder), eventCount: make(map[int64]int)}
}

func (r *memoryRepo) Create(ctx context.Context, wo WorkOrder) (WorkOrder, error) {
	for _, existing := range r.orders {
		if existing.OrderNo == wo.OrderNo {
			return WorkOrder{}, httpx.ErrDuplicate
		}
	}
	r.nextID++
	wo.ID = r.nextID
	wo.CreatedAt = time.Now()
	wo.UpdatedAt = wo.CreatedAt
	r.orders[wo.ID] = wo
	return wo, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (WorkOrder, error) {
	wo, ok := r.orders[id]
	if !ok {
		return WorkOrder{}, httpx.ErrNotFound
	}
	return wo, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error) {
	var out []WorkOrder
	for _, wo := range r.orders {
		if filter.Search != "" {
			searchText := shared.SearchText(wo.OrderNo, wo.ProductCode, wo.ProductName, wo.CustomerName)
			if !strings.Contains(searchText, shared.FoldSearch(filter.Search)) {
				continue
			}
		}
		if filter.Status != nil && wo.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && wo.Priority != *filter.Priority {
			continue
		}
		if filter.AssignedToMobile != nil && wo.AssignedToMobile != *filter.AssignedToMobile {
			continue
		}
		out = append(out, wo)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListMobile(ctx context.Context, filter MobileFilter) ([]MobileWorkOrder, error) {
	var out []MobileWorkOrder
	for _, wo := range r.orders {
		if !wo.AssignedToMobile {
			continue
		}
		if filter.Status != nil && wo.Status != *filter.Status {
			continue
		}
		out = append(out, MobileWorkOrder{
			ID:          wo.ID,
			OrderNo:     wo.OrderNo,
			Quantity:    wo.Quantity,
			Status:      wo.Status,
			StatusLabel: wo.Status.Label(),
		})
	}
	return out, nil
}

func (r *memoryRepo) UpdateFields(ctx context.Context, id int64, updates map[string]any) error {
	wo, ok := r.orders[id]
	if !ok {
		return httpx.ErrNotFound
	}
	for col, val := range updates {
		switch col {
		case "order_no":
			wo.OrderNo = val.(string)
		case "product_code":
			wo.ProductCode = val.(string)
		case "product_name":
			wo.ProductName = val.(string)
		case "quantity":
			wo.Quantity = val.(int)
		case "customer_name":
			wo.CustomerName = val.(string)
		case "priority":
			wo.Priority = val.(Priority)
		case "delivery_date":
			d := val.(time.Time)
			wo.DeliveryDate = &d
		case "notes":
			n := val.(string)
			wo.Notes = &n
		}
	}
	wo.UpdatedAt = time.Now()
	r.orders[id] = wo
	return nil
}

func (r *memoryRepo) SetAssignedTracker(ctx context.Context, id int64, trackerID *int64) error {
	wo, ok := r.orders[id]
	if !ok {
		return httpx.ErrNotFound
	}
	wo.AssignedTrackerID = trackerID
	r.orders[id] = wo
	return nil
}

func (r *memoryRepo) SetMobileVisibility(ctx context.Context, id int64, visible bool) error {
	wo, ok := r.orders[id]
	if !ok {
		return httpx.ErrNotFound
	}
	wo.AssignedToMobile = visible
	r.orders[id] = wo
	return nil
}

func (r *memoryRepo) CountProgressEvents(ctx context.Context, id int64) (int, error) {
	return r.eventCount[id], nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.orders[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *memoryRepo) DeleteCascade(ctx context.Context, id int64) error {
	if _, ok := r.orders[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.orders, id)
	delete(r.eventCount, id)
	return nil
}

type fakeTrackers struct {
	known map[int64]bool
}

func (f fakeTrackers) Exists(ctx context.Context, id int64) (bool, error) {
	return f.known[id], nil
}

func newTestService(repo *memoryRepo) *Service {
	trackers := fakeTrackers{known: map[int64]bool{7: true}}
	return NewService(repo, NewCache(nil, time.Minute), trackers, slog.New(slog.DiscardHandler))
}

func TestCreateDefaultsToPending(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	wo, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-100", ProductCode: "TSH-001", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, StatusPending, wo.Status)
	require.Equal(t, PriorityMedium, wo.Priority)
	require.False(t, wo.AssignedToMobile)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for _, qty := range []int{0, -5} {
		_, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-101", ProductCode: "TSH-001", Quantity: qty})
		require.ErrorIs(t, err, httpx.ErrValidation, "quantity %d", qty)
	}
}

func TestCreateRejectsDuplicateOrderNo(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-102", ProductCode: "TSH-001", Quantity: 10})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-102", ProductCode: "GML-002", Quantity: 5})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateIgnoresEchoedStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	wo, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-103", ProductCode: "TSH-001", Quantity: 10})
	require.NoError(t, err)

	echoed := StatusDelivered
	qty := 25
	updated, err := svc.Update(ctx, wo.ID, UpdateWorkOrderRequest{Quantity: &qty, Status: &echoed})
	require.NoError(t, err)
	require.Equal(t, 25, updated.Quantity)
	require.Equal(t, StatusPending, updated.Status, "status must only move through progress events")
}

func TestAssignTrackerPreservesStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	wo, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-104", ProductCode: "TSH-001", Quantity: 10})
	require.NoError(t, err)

	// Simulate a concurrent status advance between read and assign.
	stored := repo.orders[wo.ID]
	stored.Status = StatusAtWorkshop
	repo.orders[wo.ID] = stored

	trackerID := int64(7)
	require.NoError(t, svc.AssignTracker(ctx, wo.ID, &trackerID))

	after, err := svc.Get(ctx, wo.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAtWorkshop, after.Status)
	require.NotNil(t, after.AssignedTrackerID)
	require.Equal(t, int64(7), *after.AssignedTrackerID)
}

func TestAssignUnknownTrackerFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	wo, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-105", ProductCode: "TSH-001", Quantity: 10})
	require.NoError(t, err)

	trackerID := int64(99)
	err = svc.AssignTracker(ctx, wo.ID, &trackerID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateClearsTrackerWithNull(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	wo, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-106", ProductCode: "TSH-001", Quantity: 10})
	require.NoError(t, err)
	trackerID := int64(7)
	require.NoError(t, svc.AssignTracker(ctx, wo.ID, &trackerID))

	updated, err := svc.Update(ctx, wo.ID, UpdateWorkOrderRequest{AssignedTracker: OptionalTrackerID{Set: true, Value: nil}})
	require.NoError(t, err)
	require.Nil(t, updated.AssignedTrackerID)
}

func TestUpdateWithUnknownTrackerAppliesNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	wo, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-110", ProductCode: "TSH-001", Quantity: 10})
	require.NoError(t, err)

	visible := true
	qty := 50
	unknown := int64(99)
	_, err = svc.Update(ctx, wo.ID, UpdateWorkOrderRequest{
		Quantity:         &qty,
		AssignedToMobile: &visible,
		AssignedTracker:  OptionalTrackerID{Set: true, Value: &unknown},
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	after, err := svc.Get(ctx, wo.ID)
	require.NoError(t, err)
	require.Equal(t, 10, after.Quantity, "rejected update must not change fields")
	require.False(t, after.AssignedToMobile, "rejected update must not change visibility")
	require.Nil(t, after.AssignedTrackerID)
}

func TestListCombinesFilters(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	visible := true
	high := PriorityHigh
	_, err := svc.Create(ctx, CreateWorkOrderRequest{
		OrderNo: "SIP-200", ProductCode: "TSH-001", ProductName: "Tişört",
		CustomerName: "Moda Tekstil", Quantity: 10, Priority: &high, AssignedToMobile: &visible,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateWorkOrderRequest{
		OrderNo: "SIP-201", ProductCode: "TSH-002", ProductName: "Tişört",
		CustomerName: "Ege Konfeksiyon", Quantity: 20, Priority: &high,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateWorkOrderRequest{
		OrderNo: "SIP-202", ProductCode: "GML-001", ProductName: "Gömlek",
		CustomerName: "Moda Tekstil", Quantity: 5, Priority: &high, AssignedToMobile: &visible,
	})
	require.NoError(t, err)

	// Turkish fold: a search typed with dotted capital İ must match the
	// stored lowercase form.
	orders, total, err := svc.List(ctx, ListFilter{Search: "TİŞÖRT", Priority: &high, AssignedToMobile: &visible})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, orders, 1)
	require.Equal(t, "SIP-200", orders[0].OrderNo)

	orders, total, err = svc.List(ctx, ListFilter{Search: "moda"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, orders, 2)
}

func TestMobileListOnlyShowsVisibleOrders(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	visible := true
	_, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-107", ProductCode: "TSH-001", Quantity: 10, AssignedToMobile: &visible})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-108", ProductCode: "TSH-002", Quantity: 20})
	require.NoError(t, err)

	orders, err := svc.ListMobile(ctx, MobileFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "SIP-107", orders[0].OrderNo)
	require.Equal(t, "Bekliyor", orders[0].StatusLabel)
}

func TestDeleteBlockedByProgressEvents(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	wo, err := svc.Create(ctx, CreateWorkOrderRequest{OrderNo: "SIP-109", ProductCode: "TSH-001", Quantity: 10})
	require.NoError(t, err)
	repo.eventCount[wo.ID] = 3

	err = svc.Delete(ctx, wo.ID, false)
	require.ErrorIs(t, err, httpx.ErrConflict)

	require.NoError(t, svc.Delete(ctx, wo.ID, true))
	_, err = svc.Get(ctx, wo.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestOptionalTrackerIDUnmarshal(t *testing.T) {
	var req UpdateWorkOrderRequest
	require.NoError(t, unmarshal(`{"assignedTrackerId": 5}`, &req))
	require.True(t, req.AssignedTracker.Set)
	require.NotNil(t, req.AssignedTracker.Value)
	require.Equal(t, int64(5), *req.AssignedTracker.Value)

	req = UpdateWorkOrderRequest{}
	require.NoError(t, unmarshal(`{"assignedTrackerId": null}`, &req))
	require.True(t, req.AssignedTracker.Set)
	require.Nil(t, req.AssignedTracker.Value)

	req = UpdateWorkOrderRequest{}
	require.NoError(t, unmarshal(`{"quantity": 5}`, &req))
	require.False(t, req.AssignedTracker.Set)
}

func unmarshal(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}
