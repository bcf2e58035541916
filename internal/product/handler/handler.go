package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/altastore/stock-service/internal/apperr"
	"github.com/altastore/stock-service/internal/product"
	"github.com/altastore/stock-service/internal/product/dto"
	"github.com/altastore/stock-service/pkg/logger"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.Logger
}

func NewProductHandler(uc product.UseCase, log logger.Logger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /products", h.create)
	mux.HandleFunc("GET /products", h.list)
	mux.HandleFunc("GET /products/{id}", h.get)
	mux.HandleFunc("PATCH /products/{id}", h.update)
	mux.HandleFunc("DELETE /products/{id}", h.delete)
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateProductInput
	if !h.decode(w, r, &input) {
		return
	}

	p, err := h.uc.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, p)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	f := &dto.ProductFilters{
		SearchQuery: r.URL.Query().Get("q"),
		SortBy:      r.URL.Query().Get("sort_by"),
		SortOrder:   r.URL.Query().Get("sort_order"),
		Page:        queryInt(r, "page", 1),
		PageSize:    queryInt(r, "page_size", 20),
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		f.IsActive = &active
	}

	products, total, err := h.uc.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, listResponse{Items: products, Total: total, Page: f.Page, PageSize: f.PageSize})
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, p)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	var input dto.UpdateProductInput
	if !h.decode(w, r, &input) {
		return
	}
	input.ID = r.PathValue("id")

	p, err := h.uc.Update(r.Context(), &input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, p)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Details: err.Error()})
		return false
	}
	return true
}

func (h *ProductHandler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *ProductHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.respond(w, http.StatusNotFound, errorResponse{Error: "not_found", Details: err.Error()})
	case apperr.IsValidation(err):
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Details: err.Error()})
	default:
		h.logger.Error("product request failed", zap.Error(err))
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
