package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/altastore/stock-service/internal/apperr"
	"github.com/altastore/stock-service/internal/inventory"
	"github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/pkg/logger"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.Logger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /inventory", h.create)
	mux.HandleFunc("GET /inventory", h.list)
	mux.HandleFunc("GET /inventory/low-stock", h.lowStock)
	mux.HandleFunc("GET /inventory/out-of-stock", h.outOfStock)
	mux.HandleFunc("GET /inventory/stats", h.stats)
	mux.HandleFunc("GET /inventory/product/{productId}", h.byProduct)
	mux.HandleFunc("GET /inventory/{id}", h.get)
	mux.HandleFunc("PATCH /inventory/{id}", h.update)
	mux.HandleFunc("DELETE /inventory/{id}", h.delete)
	mux.HandleFunc("POST /inventory/{id}/adjust", h.adjust)
	mux.HandleFunc("POST /inventory/{id}/transfer", h.transfer)
	mux.HandleFunc("GET /inventory/{id}/movements", h.movements)
}

func (h *InventoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateInventoryInput
	if !h.decode(w, r, &input) {
		return
	}

	rec, err := h.uc.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, rec)
}

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request) {
	f := &dto.InventoryFilters{
		ProductID: r.URL.Query().Get("product_id"),
		Warehouse: r.URL.Query().Get("warehouse"),
		Status:    model.StockStatus(r.URL.Query().Get("status")),
		Page:      queryInt(r, "page", 1),
		PageSize:  queryInt(r, "page_size", 20),
	}

	recs, total, err := h.uc.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, listResponse{Items: recs, Total: total, Page: f.Page, PageSize: f.PageSize})
}

func (h *InventoryHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	recs, err := h.uc.FindLowStock(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, recs)
}

func (h *InventoryHandler) outOfStock(w http.ResponseWriter, r *http.Request) {
	recs, err := h.uc.FindOutOfStock(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, recs)
}

func (h *InventoryHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.uc.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, stats)
}

func (h *InventoryHandler) byProduct(w http.ResponseWriter, r *http.Request) {
	recs, err := h.uc.FindByProduct(r.Context(), r.PathValue("productId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, recs)
}

func (h *InventoryHandler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.uc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, rec)
}

func (h *InventoryHandler) update(w http.ResponseWriter, r *http.Request) {
	var input dto.UpdateInventoryInput
	if !h.decode(w, r, &input) {
		return
	}
	input.ID = r.PathValue("id")

	rec, err := h.uc.Update(r.Context(), &input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, rec)
}

func (h *InventoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) adjust(w http.ResponseWriter, r *http.Request) {
	var input dto.AdjustStockInput
	if !h.decode(w, r, &input) {
		return
	}
	input.InventoryID = r.PathValue("id")

	rec, err := h.uc.Adjust(r.Context(), &input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, rec)
}

func (h *InventoryHandler) transfer(w http.ResponseWriter, r *http.Request) {
	var input dto.TransferStockInput
	if !h.decode(w, r, &input) {
		return
	}
	input.SourceID = r.PathValue("id")

	result, err := h.uc.Transfer(r.Context(), &input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, result)
}

func (h *InventoryHandler) movements(w http.ResponseWriter, r *http.Request) {
	f := &dto.MovementFilters{
		InventoryID: r.PathValue("id"),
		Type:        model.MovementType(r.URL.Query().Get("type")),
		Page:        queryInt(r, "page", 1),
		PageSize:    queryInt(r, "page_size", 50),
	}

	movements, total, err := h.uc.Movements(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, listResponse{Items: movements, Total: total, Page: f.Page, PageSize: f.PageSize})
}

type listResponse struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *InventoryHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Details: err.Error()})
		return false
	}
	return true
}

func (h *InventoryHandler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.respond(w, http.StatusNotFound, errorResponse{Error: "not_found", Details: err.Error()})
	case errors.Is(err, apperr.ErrInsufficientStock):
		h.respond(w, http.StatusConflict, errorResponse{Error: "insufficient_stock", Details: err.Error()})
	case apperr.IsValidation(err):
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Details: err.Error()})
	default:
		h.logger.Error("inventory request failed", zap.Error(err))
		h.respond(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
