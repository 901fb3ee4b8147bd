package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tammydufil/moodlagosapi/internal/middleware"
	"github.com/tammydufil/moodlagosapi/internal/service"
)

// OrderWorkflow is the slice of the order service used by these handlers.
type OrderWorkflow interface {
	PlaceOrder(ctx context.Context, items []service.OrderItemInput) error
	TopUpOrder(ctx context.Context, items []service.OrderItemInput) (int, error)
	UpdateItemStatus(ctx context.Context, req service.UpdateItemStatusRequest) error
	DeleteItem(ctx context.Context, itemOrderID string) error
	RequestItemRemoval(ctx context.Context, itemOrderID, value string) error
	ChangeTable(ctx context.Context, orderID, newTable, username string) error
}

// OrdersStore defines the database methods used directly by order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrdersStore interface {
	CancelOrders(ctx context.Context, orderIDs []string) (int64, error)
	UpdateOrderItemQuantity(ctx context.Context, itemOrderID string, quantity int32) (int64, error)
}

// OrderHandler handles waiter-facing order endpoints.
type OrderHandler struct {
	svc   OrderWorkflow
	store OrdersStore
}

func NewOrderHandler(svc OrderWorkflow, store OrdersStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/placeorder", h.PlaceOrder)
	r.Post("/updateexistingorder", h.UpdateExistingOrder)
	r.Post("/cancelOrder", h.CancelOrder)
	r.Post("/updateiteminorder", h.UpdateItemInOrder)
	r.Post("/updateItemQuantity", h.UpdateItemQuantity)
	r.Post("/deleteItemByOrderId", h.DeleteItemByOrderID)
	r.Post("/updateManagerRemoval", h.UpdateManagerRemoval)
	r.Post("/updateTableChange", h.UpdateTableChange)
}

// --- Request types ---

type orderItemRequest struct {
	OrderID         string          `json:"orderid"`
	ItemName        string          `json:"itemname"`
	Category        string          `json:"category"`
	ItemOrderID     string          `json:"itemorderid"`
	Table           string          `json:"table"`
	Quantity        int32           `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	ProductDiscount decimal.Decimal `json:"productDiscount"`
	Note            string          `json:"note"`
	Username        string          `json:"username"`
	Location        string          `json:"location"`
	Status          string          `json:"status"`
	OrderType       string          `json:"ordertype"`
}

type placeOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

// decodeOrderItems reads the request body as a bare JSON array of items, the
// form the dashboards send. A wrapped {"items": [...]} object is also
// accepted.
func decodeOrderItems(r *http.Request) ([]orderItemRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	var items []orderItemRequest
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var wrapped placeOrderRequest
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

func toServiceItems(items []orderItemRequest) []service.OrderItemInput {
	out := make([]service.OrderItemInput, len(items))
	for i, it := range items {
		out[i] = service.OrderItemInput{
			OrderID:         it.OrderID,
			ItemName:        it.ItemName,
			Category:        it.Category,
			ItemOrderID:     it.ItemOrderID,
			TableNumber:     it.Table,
			Quantity:        it.Quantity,
			Price:           it.Price,
			ProductDiscount: it.ProductDiscount,
			Note:            it.Note,
			Username:        it.Username,
			Location:        it.Location,
			Status:          it.Status,
			OrderType:       it.OrderType,
		}
	}
	return out
}

// --- Handlers ---

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	items, err := decodeOrderItems(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.PlaceOrder(r.Context(), toServiceItems(items)); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Order placed successfully"})
}

func (h *OrderHandler) UpdateExistingOrder(w http.ResponseWriter, r *http.Request) {
	items, err := decodeOrderItems(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	inserted, err := h.svc.TopUpOrder(r.Context(), toServiceItems(items))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Order updated successfully",
		"inserted": inserted,
	})
}

type cancelOrderRequest struct {
	OrderIDs []string `json:"orderIds"`
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "orderIds are required"})
		return
	}
	for _, id := range req.OrderIDs {
		if id == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "orderIds must be non-empty strings"})
			return
		}
	}

	rows, err := h.store.CancelOrders(r.Context(), req.OrderIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Orders cancelled successfully",
		"cancelled": rows,
	})
}

type updateItemInOrderRequest struct {
	OrderID          string `json:"orderId"`
	ItemName         string `json:"itemname"`
	ItemOrderID      string `json:"itemorderid"`
	Status           string `json:"status"`
	Reason           string `json:"reason"`
	CurrentOrderType string `json:"currentOrderType"`
}

func (h *OrderHandler) UpdateItemInOrder(w http.ResponseWriter, r *http.Request) {
	var req updateItemInOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var actionUsername string
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		actionUsername = claims.Username
	}

	err := h.svc.UpdateItemStatus(r.Context(), service.UpdateItemStatusRequest{
		OrderID:          req.OrderID,
		ItemOrderID:      req.ItemOrderID,
		ItemName:         req.ItemName,
		Status:           req.Status,
		Reason:           req.Reason,
		CurrentOrderType: req.CurrentOrderType,
		ActionUsername:   actionUsername,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item status updated successfully"})
}

type updateItemQuantityRequest struct {
	ItemOrderID string `json:"itemorderid"`
	Quantity    int32  `json:"quantity"`
}

func (h *OrderHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateItemQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.ItemOrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "itemorderid is required"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	rows, err := h.store.UpdateOrderItemQuantity(r.Context(), req.ItemOrderID, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item quantity updated successfully"})
}

type deleteItemRequest struct {
	ItemOrderID string `json:"itemorderid"`
}

func (h *OrderHandler) DeleteItemByOrderID(w http.ResponseWriter, r *http.Request) {
	var req deleteItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.DeleteItem(r.Context(), req.ItemOrderID); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

type managerRemovalRequest struct {
	ItemOrderID string `json:"itemOrderId"`
	Value       string `json:"value"`
}

func (h *OrderHandler) UpdateManagerRemoval(w http.ResponseWriter, r *http.Request) {
	var req managerRemovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.RequestItemRemoval(r.Context(), req.ItemOrderID, req.Value); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Removal request recorded"})
}

type tableChangeRequest struct {
	OrderID string `json:"orderid"`
	Table   string `json:"table"`
}

func (h *OrderHandler) UpdateTableChange(w http.ResponseWriter, r *http.Request) {
	var req tableChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var username string
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		username = claims.Username
	}

	if err := h.svc.ChangeTable(r.Context(), req.OrderID, req.Table, username); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Table updated successfully"})
}
