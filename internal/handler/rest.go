package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nnizic/unipu-ds/internal/model"
	"github.com/nnizic/unipu-ds/internal/service"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	items  ItemService
	logger *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(items ItemService, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		items:  items,
		logger: logger,
	}
}

// RegisterRoutes registers the item and probe routes with the router.
// The collection routes answer both with and without the trailing slash.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)

	for _, path := range []string{"/items/", "/items"} {
		router.HandleFunc(path, h.ListItems).Methods(http.MethodGet)
		router.HandleFunc(path, h.CreateItem).Methods(http.MethodPost)
	}
	router.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ReadyCheck handles GET /ready requests by pinging the store.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.items.Ready(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// ListItems handles GET /items/ requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewItemList(items))
}

// GetItem handles GET /items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// CreateItem handles POST /items/ requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req model.CreateItemRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	item, err := h.items.Create(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "create item")
		return
	}

	h.writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /items/{id} requests. Only fields present in the
// body are changed; an empty body object returns the item unchanged.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if !h.decodeBody(w, r, &patch) {
		return
	}

	item, err := h.items.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		h.handleServiceError(w, err, "update item")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.items.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.handleServiceError(w, err, "delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeBody decodes a JSON body into dst, writing a 400 response on failure.
func (h *RESTHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	return true
}

// handleServiceError maps service errors onto HTTP responses.
func (h *RESTHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var notFound *service.NotFoundError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &notFound):
		h.writeError(w, http.StatusNotFound, notFound.Error(), "")
	case errors.As(err, &invalid):
		h.logger.Warn("validation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, invalid.Error(), "")
	default:
		h.logger.Error("item operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message, details string) {
	h.writeJSON(w, status, model.ErrorResponse{
		Code:    status,
		Message: message,
		Details: details,
	})
}
