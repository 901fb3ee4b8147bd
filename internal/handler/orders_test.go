package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/tammydufil/moodlagosapi/internal/auth"
	"github.com/tammydufil/moodlagosapi/internal/handler"
	"github.com/tammydufil/moodlagosapi/internal/middleware"
	"github.com/tammydufil/moodlagosapi/internal/service"
)

// --- Mock OrderWorkflow ---

type mockOrderWorkflow struct {
	placeOrderFn         func(ctx context.Context, items []service.OrderItemInput) error
	topUpOrderFn         func(ctx context.Context, items []service.OrderItemInput) (int, error)
	updateItemStatusFn   func(ctx context.Context, req service.UpdateItemStatusRequest) error
	deleteItemFn         func(ctx context.Context, itemOrderID string) error
	requestItemRemovalFn func(ctx context.Context, itemOrderID, value string) error
	changeTableFn        func(ctx context.Context, orderID, newTable, username string) error
}

func (m *mockOrderWorkflow) PlaceOrder(ctx context.Context, items []service.OrderItemInput) error {
	if m.placeOrderFn != nil {
		return m.placeOrderFn(ctx, items)
	}
	return nil
}

func (m *mockOrderWorkflow) TopUpOrder(ctx context.Context, items []service.OrderItemInput) (int, error) {
	if m.topUpOrderFn != nil {
		return m.topUpOrderFn(ctx, items)
	}
	return 0, nil
}

func (m *mockOrderWorkflow) UpdateItemStatus(ctx context.Context, req service.UpdateItemStatusRequest) error {
	if m.updateItemStatusFn != nil {
		return m.updateItemStatusFn(ctx, req)
	}
	return nil
}

func (m *mockOrderWorkflow) DeleteItem(ctx context.Context, itemOrderID string) error {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(ctx, itemOrderID)
	}
	return nil
}

func (m *mockOrderWorkflow) RequestItemRemoval(ctx context.Context, itemOrderID, value string) error {
	if m.requestItemRemovalFn != nil {
		return m.requestItemRemovalFn(ctx, itemOrderID, value)
	}
	return nil
}

func (m *mockOrderWorkflow) ChangeTable(ctx context.Context, orderID, newTable, username string) error {
	if m.changeTableFn != nil {
		return m.changeTableFn(ctx, orderID, newTable, username)
	}
	return nil
}

// --- Mock OrdersStore ---

type mockOrdersStore struct {
	cancelOrdersFn            func(ctx context.Context, orderIDs []string) (int64, error)
	updateOrderItemQuantityFn func(ctx context.Context, itemOrderID string, quantity int32) (int64, error)
}

func (m *mockOrdersStore) CancelOrders(ctx context.Context, orderIDs []string) (int64, error) {
	if m.cancelOrdersFn != nil {
		return m.cancelOrdersFn(ctx, orderIDs)
	}
	return int64(len(orderIDs)), nil
}

func (m *mockOrdersStore) UpdateOrderItemQuantity(ctx context.Context, itemOrderID string, quantity int32) (int64, error) {
	if m.updateOrderItemQuantityFn != nil {
		return m.updateOrderItemQuantityFn(ctx, itemOrderID, quantity)
	}
	return 1, nil
}

// --- Test helpers ---

const testJWTSecret = "test-secret"

func testClaims(username string) *auth.Claims {
	return &auth.Claims{
		Username: username,
		Role:     "staff",
		Modules: auth.Modules{
			CashierManage:         true,
			SpecialDiscountManage: true,
			BarManage:             true,
			KitchenManage:         true,
			ShishaManage:          true,
			ManageUserOrders:      true,
			OrderManage:           true,
		},
	}
}

// testClaimsWithModules mints claims carrying only the given module flags.
func testClaimsWithModules(username string, modules auth.Modules) *auth.Claims {
	return &auth.Claims{Username: username, Role: "staff", Modules: modules}
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if claims != nil {
		token, err := auth.GenerateToken(testJWTSecret, claims.Username, claims.Role, claims.Modules)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeJSONList(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func setupOrderRouter(svc *mockOrderWorkflow, store *mockOrdersStore) chi.Router {
	h := handler.NewOrderHandler(svc, store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func sampleItem() map[string]interface{} {
	return map[string]interface{}{
		"orderid":         "ORD-1",
		"itemname":        "Jollof Rice",
		"category":        "Mains",
		"itemorderid":     "ORD-1-1",
		"table":           "T4",
		"quantity":        2,
		"price":           "4500.00",
		"productDiscount": "200.00",
		"note":            "No pepper",
		"username":        "amaka",
		"location":        "kitchen",
		"status":          "Pending",
		"ordertype":       "Dine In",
	}
}

// --- Tests ---

func TestPlaceOrder_HappyPath(t *testing.T) {
	var received []service.OrderItemInput
	svc := &mockOrderWorkflow{
		placeOrderFn: func(ctx context.Context, items []service.OrderItemInput) error {
			received = items
			return nil
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/placeorder",
		[]map[string]interface{}{sampleItem()}, testClaims("amaka"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if len(received) != 1 {
		t.Fatalf("items: got %d, want 1", len(received))
	}
	if received[0].OrderID != "ORD-1" || received[0].TableNumber != "T4" {
		t.Errorf("item mapping wrong: %+v", received[0])
	}
	if received[0].Price.String() != "4500" {
		t.Errorf("price: got %s, want 4500", received[0].Price.String())
	}
	if received[0].Category != "Mains" {
		t.Errorf("category: got %q, want Mains", received[0].Category)
	}
	if received[0].ProductDiscount.String() != "200" {
		t.Errorf("product discount: got %s, want 200", received[0].ProductDiscount.String())
	}
	if received[0].Note != "No pepper" {
		t.Errorf("note: got %q", received[0].Note)
	}
}

func TestPlaceOrder_AcceptsWrappedItems(t *testing.T) {
	var received []service.OrderItemInput
	svc := &mockOrderWorkflow{
		placeOrderFn: func(ctx context.Context, items []service.OrderItemInput) error {
			received = items
			return nil
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/placeorder", map[string]interface{}{
		"items": []map[string]interface{}{sampleItem()},
	}, testClaims("amaka"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if len(received) != 1 || received[0].OrderID != "ORD-1" {
		t.Errorf("items: got %+v, want one ORD-1 item", received)
	}
}

func TestPlaceOrder_ValidationError(t *testing.T) {
	svc := &mockOrderWorkflow{
		placeOrderFn: func(ctx context.Context, items []service.OrderItemInput) error {
			return service.ErrInvalidQuantity
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/placeorder",
		[]map[string]interface{}{sampleItem()}, testClaims("amaka"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPlaceOrder_Unauthenticated(t *testing.T) {
	router := setupOrderRouter(&mockOrderWorkflow{}, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/placeorder",
		[]map[string]interface{}{sampleItem()}, nil)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestUpdateExistingOrder_ReportsInsertedCount(t *testing.T) {
	svc := &mockOrderWorkflow{
		topUpOrderFn: func(ctx context.Context, items []service.OrderItemInput) (int, error) {
			return 2, nil
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/updateexistingorder",
		[]map[string]interface{}{sampleItem()}, testClaims("amaka"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["inserted"] != float64(2) {
		t.Errorf("inserted: got %v, want 2", resp["inserted"])
	}
}

func TestCancelOrder_RequiresOrderIDs(t *testing.T) {
	router := setupOrderRouter(&mockOrderWorkflow{}, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/cancelOrder", map[string]interface{}{
		"orderIds": []string{},
	}, testClaims("amaka"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCancelOrder_HappyPath(t *testing.T) {
	var cancelled []string
	store := &mockOrdersStore{
		cancelOrdersFn: func(ctx context.Context, orderIDs []string) (int64, error) {
			cancelled = orderIDs
			return int64(len(orderIDs)), nil
		},
	}
	router := setupOrderRouter(&mockOrderWorkflow{}, store)

	rr := doAuthRequest(t, router, "POST", "/cancelOrder", map[string]interface{}{
		"orderIds": []string{"ORD-1", "ORD-2"},
	}, testClaims("amaka"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(cancelled) != 2 {
		t.Errorf("cancelled: got %v, want 2 ids", cancelled)
	}
	resp := decodeResponse(t, rr)
	if resp["cancelled"] != float64(2) {
		t.Errorf("cancelled count: got %v, want 2", resp["cancelled"])
	}
}

func TestUpdateItemInOrder_UsesClaimsUsername(t *testing.T) {
	var received service.UpdateItemStatusRequest
	svc := &mockOrderWorkflow{
		updateItemStatusFn: func(ctx context.Context, req service.UpdateItemStatusRequest) error {
			received = req
			return nil
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/updateiteminorder", map[string]interface{}{
		"orderId":          "ORD-1",
		"itemname":         "Jollof Rice",
		"itemorderid":      "ORD-1-1",
		"status":           "Rejected",
		"reason":           "Out of stock",
		"currentOrderType": "Updated-Awaiting Response",
	}, testClaims("chef"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if received.ActionUsername != "chef" {
		t.Errorf("action username: got %q, want chef", received.ActionUsername)
	}
	if received.Reason != "Out of stock" {
		t.Errorf("reason: got %q", received.Reason)
	}
}

func TestUpdateItemInOrder_StatusUnchanged(t *testing.T) {
	svc := &mockOrderWorkflow{
		updateItemStatusFn: func(ctx context.Context, req service.UpdateItemStatusRequest) error {
			return service.ErrStatusUnchanged
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/updateiteminorder", map[string]interface{}{
		"orderId":     "ORD-1",
		"itemname":    "Jollof Rice",
		"itemorderid": "ORD-1-1",
		"status":      "In Progress",
	}, testClaims("chef"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateItemQuantity_NotFound(t *testing.T) {
	store := &mockOrdersStore{
		updateOrderItemQuantityFn: func(ctx context.Context, itemOrderID string, quantity int32) (int64, error) {
			return 0, nil
		},
	}
	router := setupOrderRouter(&mockOrderWorkflow{}, store)

	rr := doAuthRequest(t, router, "POST", "/updateItemQuantity", map[string]interface{}{
		"itemorderid": "ORD-404-1",
		"quantity":    3,
	}, testClaims("amaka"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestUpdateItemQuantity_RejectsZero(t *testing.T) {
	router := setupOrderRouter(&mockOrderWorkflow{}, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/updateItemQuantity", map[string]interface{}{
		"itemorderid": "ORD-1-1",
		"quantity":    0,
	}, testClaims("amaka"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateTableChange_SameTable(t *testing.T) {
	svc := &mockOrderWorkflow{
		changeTableFn: func(ctx context.Context, orderID, newTable, username string) error {
			return service.ErrSameTable
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/updateTableChange", map[string]interface{}{
		"orderid": "ORD-1",
		"table":   "T4",
	}, testClaims("tunde"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateTableChange_PassesUsername(t *testing.T) {
	var gotUsername string
	svc := &mockOrderWorkflow{
		changeTableFn: func(ctx context.Context, orderID, newTable, username string) error {
			gotUsername = username
			return nil
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/updateTableChange", map[string]interface{}{
		"orderid": "ORD-1",
		"table":   "T7",
	}, testClaims("tunde"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotUsername != "tunde" {
		t.Errorf("username: got %q, want tunde", gotUsername)
	}
}

func TestDeleteItemByOrderID_NotFound(t *testing.T) {
	svc := &mockOrderWorkflow{
		deleteItemFn: func(ctx context.Context, itemOrderID string) error {
			return service.ErrItemNotFound
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/deleteItemByOrderId", map[string]interface{}{
		"itemorderid": "ORD-404-1",
	}, testClaims("manager"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestUpdateManagerRemoval_HappyPath(t *testing.T) {
	var gotItem, gotValue string
	svc := &mockOrderWorkflow{
		requestItemRemovalFn: func(ctx context.Context, itemOrderID, value string) error {
			gotItem, gotValue = itemOrderID, value
			return nil
		},
	}
	router := setupOrderRouter(svc, &mockOrdersStore{})

	rr := doAuthRequest(t, router, "POST", "/updateManagerRemoval", map[string]interface{}{
		"itemOrderId": "ORD-1-1",
		"value":       "pending",
	}, testClaims("amaka"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotItem != "ORD-1-1" || gotValue != "pending" {
		t.Errorf("removal request: got %q/%q", gotItem, gotValue)
	}
}
