package workorders

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
	"github.com/fasontrack/fasontrack/internal/shared"
)

// Handler exposes the work order store over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	auth    func(http.Handler) http.Handler
}

// NewHandler constructs a work order handler.
func NewHandler(logger *slog.Logger, service *Service, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, auth: auth}
}

// MountRoutes wires the work order endpoints. The mobile listing is
// public; everything else requires an upstream credential.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/mobile", h.ListMobile)
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		priority := Priority(v)
		filter.Priority = &priority
	}
	if v := r.URL.Query().Get("assigned"); v != "" {
		assigned, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "assigned must be a boolean")
			return
		}
		filter.AssignedToMobile = &assigned
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "offset must be an integer")
			return
		}
		filter.Offset = offset
	}

	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list work orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if orders == nil {
		orders = []WorkOrder{}
	}

	perPage := filter.Limit
	page := 1
	if perPage > 0 {
		page = filter.Offset/perPage + 1
	}
	httpx.JSON(w, http.StatusOK, ListWorkOrdersResponse{
		WorkOrders: orders,
		Total:      total,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) ListMobile(w http.ResponseWriter, r *http.Request) {
	filter := MobileFilter{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("status"); v != "" && v != "ALL" {
		status := Status(v)
		filter.Status = &status
	}

	orders, err := h.service.ListMobile(r.Context(), filter)
	if err != nil {
		h.logger.Error("list mobile work orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if orders == nil {
		orders = []MobileWorkOrder{}
	}
	httpx.JSON(w, http.StatusOK, MobileListResponse{WorkOrders: orders})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}

	wo, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}

	var req UpdateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return
	}
	cascade, _ := strconv.ParseBool(r.URL.Query().Get("cascade"))

	if err := h.service.Delete(r.Context(), id, cascade); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
