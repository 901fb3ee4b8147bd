package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tammydufil/moodlagosapi/internal/auth"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/enum"
	"github.com/tammydufil/moodlagosapi/internal/middleware"
	"github.com/tammydufil/moodlagosapi/internal/service"
)

// CheckoutWorkflow is the slice of the checkout service used by these handlers.
type CheckoutWorkflow interface {
	SendToCashier(ctx context.Context, orderID, sender string) error
	ApplySpecialDiscount(ctx context.Context, req service.SpecialDiscountRequest) error
	ResolveSpecialDiscount(ctx context.Context, orderID, status, approvedBy string) error
	MergeOrders(ctx context.Context, req service.MergeOrdersRequest) error
	SplitMergedOrders(ctx context.Context, mergedOrderID string) (bool, error)
	SplitBill(ctx context.Context, req service.SplitBillRequest) error
	MergeBill(ctx context.Context, orderID string) error
	CompleteSale(ctx context.Context, req service.CompleteSaleRequest) error
}

// CheckoutStore defines the database methods used by checkout views.
// Satisfied by *database.Queries; narrow interface for testability.
type CheckoutStore interface {
	PendingCheckoutItems(ctx context.Context, f *database.Filter) ([]database.PendingCheckoutItem, error)
}

// CheckoutHandler handles the cashier-facing endpoints.
type CheckoutHandler struct {
	svc   CheckoutWorkflow
	store CheckoutStore
}

func NewCheckoutHandler(svc CheckoutWorkflow, store CheckoutStore) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, store: store}
}

func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	// Staging and discount requests come from the floor; everything the
	// cashier till does is gated by the cashier module, and discount
	// approvals by the special discount module.
	cashier := r.With(middleware.RequireModule(func(m auth.Modules) bool { return m.CashierManage }))
	discounts := r.With(middleware.RequireModule(func(m auth.Modules) bool { return m.SpecialDiscountManage }))

	r.Post("/insertIntoCasierPending", h.SendToCashier)
	r.Post("/applySpecialDiscount", h.ApplySpecialDiscount)
	discounts.Post("/updateSpecialDiscountStatus", h.UpdateSpecialDiscountStatus)
	cashier.Post("/mergeOrders", h.MergeOrders)
	cashier.Post("/splitMergedOrders", h.SplitMergedOrders)
	cashier.Post("/duplicateAndDeleteOrder", h.DuplicateAndDeleteOrder)
	cashier.Post("/mergeBill", h.MergeBill)
	cashier.Post("/completeSale", h.CompleteSale)

	cashier.Get("/getCasierPendingData", h.GetPendingData)
	discounts.Get("/getCasierPendingDiscountApproval", h.GetPendingDiscountApproval)
	r.Get("/getPendingSalesForEmployee", h.GetPendingSalesForEmployee)
	cashier.Get("/getPendingSalesForLocation", h.GetPendingSalesForLocation)
}

// --- Response types ---

type pendingItemResponse struct {
	OrderID                   string     `json:"orderid"`
	ItemName                  string     `json:"itemname"`
	Category                  string     `json:"category"`
	ItemOrderID               string     `json:"itemorderid"`
	Table                     string     `json:"table"`
	Quantity                  int32      `json:"quantity"`
	Price                     string     `json:"price"`
	ProductDiscount           *string    `json:"productDiscount,omitempty"`
	Note                      *string    `json:"note,omitempty"`
	Username                  string     `json:"username"`
	Location                  string     `json:"location"`
	Status                    string     `json:"status"`
	OrderType                 string     `json:"ordertype"`
	SentBy                    string     `json:"sentby"`
	SentDate                  time.Time  `json:"sentdate"`
	CashierStatus             *string    `json:"cashierstatus,omitempty"`
	SpecialDiscountValue      *string    `json:"specialdiscountvalue,omitempty"`
	SpecialDiscountStatus     *string    `json:"specialdiscountstatus,omitempty"`
	SpecialDiscountReason     *string    `json:"specialdiscountreason,omitempty"`
	SpecialDiscountApprovedBy *string    `json:"specialdiscountapprovedby,omitempty"`
	Image                     *string    `json:"image,omitempty"`
	CreatedDate               time.Time  `json:"createddate"`
}

func toPendingItemResponse(i database.PendingCheckoutItem) pendingItemResponse {
	return pendingItemResponse{
		OrderID:                   i.OrderID,
		ItemName:                  i.ItemName,
		Category:                  i.Category,
		ItemOrderID:               i.ItemOrderID,
		Table:                     i.TableNumber,
		Quantity:                  i.Quantity,
		Price:                     database.NumericToString(i.Price),
		ProductDiscount:           numericOrNil(i.ProductDiscount),
		Note:                      textOrNil(i.Note),
		Username:                  i.Username,
		Location:                  i.Location,
		Status:                    i.Status,
		OrderType:                 i.OrderType,
		SentBy:                    i.SentBy,
		SentDate:                  i.SentDate,
		CashierStatus:             textOrNil(i.CashierStatus),
		SpecialDiscountValue:      numericOrNil(i.SpecialDiscountValue),
		SpecialDiscountStatus:     textOrNil(i.SpecialDiscountStatus),
		SpecialDiscountReason:     textOrNil(i.SpecialDiscountReason),
		SpecialDiscountApprovedBy: textOrNil(i.SpecialDiscountApprovedBy),
		Image:                     textOrNil(i.ProductImage),
		CreatedDate:               i.CreatedDate,
	}
}

// --- Mutation handlers ---

type sendToCashierRequest struct {
	OrderID string `json:"orderid"`
}

func (h *CheckoutHandler) SendToCashier(w http.ResponseWriter, r *http.Request) {
	var req sendToCashierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var sender string
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		sender = claims.Username
	}

	if err := h.svc.SendToCashier(r.Context(), req.OrderID, sender); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Order sent to cashier successfully"})
}

type specialDiscountRequest struct {
	OrderID string           `json:"orderid"`
	Value   *decimal.Decimal `json:"value"`
	Status  string           `json:"status"`
	Reason  string           `json:"reason"`
}

func (h *CheckoutHandler) ApplySpecialDiscount(w http.ResponseWriter, r *http.Request) {
	var req specialDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Zero is a legitimate discount value; only absence is rejected.
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value is required"})
		return
	}

	err := h.svc.ApplySpecialDiscount(r.Context(), service.SpecialDiscountRequest{
		OrderID: req.OrderID,
		Value:   *req.Value,
		Status:  req.Status,
		Reason:  req.Reason,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Special discount applied successfully"})
}

type discountStatusRequest struct {
	OrderID string `json:"orderid"`
	Status  string `json:"status"`
}

func (h *CheckoutHandler) UpdateSpecialDiscountStatus(w http.ResponseWriter, r *http.Request) {
	var req discountStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var approvedBy string
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		approvedBy = claims.Username
	}

	if err := h.svc.ResolveSpecialDiscount(r.Context(), req.OrderID, req.Status, approvedBy); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Special discount status updated successfully"})
}

type mergeOrdersRequest struct {
	OrderID1   string `json:"orderid1"`
	OrderID2   string `json:"orderid2"`
	NewOrderID string `json:"newOrderId"`
}

func (h *CheckoutHandler) MergeOrders(w http.ResponseWriter, r *http.Request) {
	var req mergeOrdersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var mergedBy string
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		mergedBy = claims.Username
	}

	err := h.svc.MergeOrders(r.Context(), service.MergeOrdersRequest{
		OrderID1:   req.OrderID1,
		OrderID2:   req.OrderID2,
		NewOrderID: req.NewOrderID,
		MergedBy:   mergedBy,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Orders merged successfully"})
}

type splitMergedRequest struct {
	MergedOrderID string `json:"mergedOrderId"`
}

func (h *CheckoutHandler) SplitMergedOrders(w http.ResponseWriter, r *http.Request) {
	var req splitMergedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fullSplit, err := h.svc.SplitMergedOrders(r.Context(), req.MergedOrderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	message := "Orders split successfully"
	if !fullSplit {
		message = "Orders split partially; some items had no original order"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

type splitBillRequest struct {
	OrderID   string `json:"orderid"`
	Customers []struct {
		CustomerSplits []int32 `json:"customerSplits"`
	} `json:"customers"`
}

func (h *CheckoutHandler) DuplicateAndDeleteOrder(w http.ResponseWriter, r *http.Request) {
	var req splitBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	customers := make([][]int32, len(req.Customers))
	for i, c := range req.Customers {
		customers[i] = c.CustomerSplits
	}

	err := h.svc.SplitBill(r.Context(), service.SplitBillRequest{
		OrderID:   req.OrderID,
		Customers: customers,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Bill split successfully"})
}

type mergeBillRequest struct {
	OrderID string `json:"orderid"`
}

func (h *CheckoutHandler) MergeBill(w http.ResponseWriter, r *http.Request) {
	var req mergeBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.MergeBill(r.Context(), req.OrderID); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Bill merged successfully"})
}

type completeSaleRequest struct {
	OrderID       string          `json:"orderid"`
	PaymentType   string          `json:"paymentType"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Vat           decimal.Decimal `json:"vat"`
	OrderDiscount decimal.Decimal `json:"orderdiscount"`
	Total         decimal.Decimal `json:"total"`
	Delivery      decimal.Decimal `json:"delivery"`
}

func (h *CheckoutHandler) CompleteSale(w http.ResponseWriter, r *http.Request) {
	var req completeSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	err := h.svc.CompleteSale(r.Context(), service.CompleteSaleRequest{
		OrderID:       req.OrderID,
		PaymentType:   req.PaymentType,
		Subtotal:      req.Subtotal,
		Vat:           req.Vat,
		OrderDiscount: req.OrderDiscount,
		Total:         req.Total,
		Delivery:      req.Delivery,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Sale completed successfully"})
}

// --- Query handlers ---

func (h *CheckoutHandler) respondPendingItems(w http.ResponseWriter, r *http.Request, f *database.Filter) {
	items, err := h.store.PendingCheckoutItems(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if len(items) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no pending orders found"})
		return
	}

	resp := make([]pendingItemResponse, 0, len(items))
	for _, i := range items {
		resp = append(resp, toPendingItemResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) GetPendingData(w http.ResponseWriter, r *http.Request) {
	f := database.NewFilter(1)
	if orderID := r.URL.Query().Get("orderid"); orderID != "" {
		// Prefix match so a split order pulls in its per-customer slices.
		f.ILike("ci.order_id", orderID+"%")
	}
	if username := r.URL.Query().Get("username"); username != "" {
		f.Equal("ci.username", username)
	}
	h.respondPendingItems(w, r, f)
}

func (h *CheckoutHandler) GetPendingDiscountApproval(w http.ResponseWriter, r *http.Request) {
	f := database.NewFilter(1).Equal("ci.special_discount_status", enum.SpecialDiscountPending)
	h.respondPendingItems(w, r, f)
}

// parseDateRange reads startDate/endDate query params (YYYY-MM-DD).
func parseDateRange(r *http.Request) (time.Time, time.Time, bool) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("startDate"))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("endDate"))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *CheckoutHandler) GetPendingSalesForEmployee(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	start, end, ok := parseDateRange(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "startDate and endDate are required (YYYY-MM-DD)"})
		return
	}

	f := database.NewFilter(1).
		Equal("ci.username", claims.Username).
		Between("ci.created_date", start, end.AddDate(0, 0, 1))
	h.respondPendingItems(w, r, f)
}

func (h *CheckoutHandler) GetPendingSalesForLocation(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "startDate and endDate are required (YYYY-MM-DD)"})
		return
	}

	f := database.NewFilter(1)
	if location := r.URL.Query().Get("location"); location != "" {
		f.Equal("ci.location", location)
	}
	f.Between("ci.created_date", start, end.AddDate(0, 0, 1))
	h.respondPendingItems(w, r, f)
}
