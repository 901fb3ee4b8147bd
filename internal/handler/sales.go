package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/enum"
	"github.com/tammydufil/moodlagosapi/internal/middleware"
)

// SalesStore defines the database methods used by sales reports.
// Satisfied by *database.Queries; narrow interface for testability.
type SalesStore interface {
	CompletedSalesInWindow(ctx context.Context, arg database.CompletedSalesWindowParams, f *database.Filter) ([]database.CompletedSaleItem, error)
}

// SalesHandler serves the completed-sales reports.
type SalesHandler struct {
	store SalesStore
}

func NewSalesHandler(store SalesStore) *SalesHandler {
	return &SalesHandler{store: store}
}

func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/getAllCompletedSales", h.allSales(nil))
	r.Get("/getCompletedSalesKitchen", h.allSales(locationFilter(enum.LocationKitchen)))
	r.Get("/getCompletedSalesBar", h.allSales(locationFilter(enum.LocationBar)))
	r.Get("/getCompletedSalesShisha", h.allSales(locationFilter(enum.LocationShisha)))
	r.Get("/getCompletedSalesForEmployee", h.EmployeeSales)
}

type completedSaleResponse struct {
	OrderID       string    `json:"orderid"`
	PaymentType   string    `json:"paymentType"`
	Subtotal      string    `json:"subtotal"`
	Vat           string    `json:"vat"`
	OrderDiscount string    `json:"orderdiscount"`
	Total         string    `json:"total"`
	Delivery      string    `json:"delivery"`
	SaleDate      time.Time `json:"saledate"`
	ItemName      string    `json:"itemname"`
	ItemOrderID   string    `json:"itemorderid"`
	Quantity      int32     `json:"quantity"`
	Price         string    `json:"price"`
	Location      string    `json:"location"`
	Username      string    `json:"username"`
	Table         string    `json:"table"`
}

func toCompletedSaleResponse(i database.CompletedSaleItem) completedSaleResponse {
	return completedSaleResponse{
		OrderID:       i.OrderID,
		PaymentType:   i.PaymentType,
		Subtotal:      database.NumericToString(i.Subtotal),
		Vat:           database.NumericToString(i.Vat),
		OrderDiscount: database.NumericToString(i.OrderDiscount),
		Total:         database.NumericToString(i.Total),
		Delivery:      database.NumericToString(i.Delivery),
		SaleDate:      i.SaleDate,
		ItemName:      i.ItemName,
		ItemOrderID:   i.ItemOrderID,
		Quantity:      i.Quantity,
		Price:         database.NumericToString(i.Price),
		Location:      i.Location,
		Username:      i.Username,
		Table:         i.TableNumber,
	}
}

// businessWindow maps calendar dates onto trading hours: a business day runs
// from 14:00 on the start date to 06:00 the morning after the end date.
func businessWindow(start, end time.Time) (time.Time, time.Time) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 14, 0, 0, 0, time.Local)
	endNext := end.AddDate(0, 0, 1)
	to := time.Date(endNext.Year(), endNext.Month(), endNext.Day(), 6, 0, 0, 0, time.Local)
	return from, to
}

func locationFilter(location string) func() *database.Filter {
	return func() *database.Filter {
		return database.NewFilter(3).Equal("oi.location", location)
	}
}

func (h *SalesHandler) respondSales(w http.ResponseWriter, r *http.Request, f *database.Filter) {
	start, end, ok := parseDateRange(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "startDate and endDate are required (YYYY-MM-DD)"})
		return
	}
	from, to := businessWindow(start, end)

	items, err := h.store.CompletedSalesInWindow(r.Context(), database.CompletedSalesWindowParams{
		From: from,
		To:   to,
	}, f)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]completedSaleResponse, 0, len(items))
	for _, i := range items {
		resp = append(resp, toCompletedSaleResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SalesHandler) allSales(makeFilter func() *database.Filter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := database.NewFilter(3)
		if makeFilter != nil {
			f = makeFilter()
		}
		h.respondSales(w, r, f)
	}
}

func (h *SalesHandler) EmployeeSales(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	h.respondSales(w, r, database.NewFilter(3).Equal("oi.username", claims.Username))
}
