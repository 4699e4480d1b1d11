package tracking

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
	"github.com/fasontrack/fasontrack/internal/shared"
)

// Handler exposes the progress ledger over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a tracking handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes wires the ledger endpoints. Callers are authenticated
// upstream; the tracker identity comes from the request context.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Record)
	r.Get("/", h.List)
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.CallerFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing caller identity")
		return
	}

	var req RecordProgressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}

	event, err := h.service.RecordProgress(r.Context(), req, caller.ID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.logger.Error("record progress", slog.Any("error", err), slog.Int64("workOrderId", req.WorkOrderID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, event)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	workOrderID, err := strconv.ParseInt(r.URL.Query().Get("workOrderId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "workOrderId is required")
		return
	}

	events, err := h.service.ListProgress(r.Context(), workOrderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if events == nil {
		events = []ProgressEvent{}
	}
	httpx.JSON(w, http.StatusOK, ListProgressResponse{Events: events})
}
