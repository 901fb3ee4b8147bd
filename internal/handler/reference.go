package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ReferenceStore defines the database methods used by reference lookups.
// Satisfied by *database.Queries; narrow interface for testability.
type ReferenceStore interface {
	ListRejectionReasons(ctx context.Context) ([]string, error)
	ListSpecialDiscountReasons(ctx context.Context) ([]string, error)
	ListPaymentMethods(ctx context.Context) ([]string, error)
}

// ReferenceHandler serves the dropdown reference tables.
type ReferenceHandler struct {
	store ReferenceStore
}

func NewReferenceHandler(store ReferenceStore) *ReferenceHandler {
	return &ReferenceHandler{store: store}
}

func (h *ReferenceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/fetchOrderRejectionReasons", h.RejectionReasons)
	r.Get("/getAllSpecialDiscountReasons", h.SpecialDiscountReasons)
	r.Get("/getPaymentMethods", h.PaymentMethods)
}

func (h *ReferenceHandler) respondList(w http.ResponseWriter, items []string, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []string{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ReferenceHandler) RejectionReasons(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListRejectionReasons(r.Context())
	h.respondList(w, items, err)
}

func (h *ReferenceHandler) SpecialDiscountReasons(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListSpecialDiscountReasons(r.Context())
	h.respondList(w, items, err)
}

func (h *ReferenceHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListPaymentMethods(r.Context())
	h.respondList(w, items, err)
}
