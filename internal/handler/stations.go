package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tammydufil/moodlagosapi/internal/auth"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/enum"
	"github.com/tammydufil/moodlagosapi/internal/middleware"
	"github.com/tammydufil/moodlagosapi/internal/service"
)

// StationWorkflow is the slice of the order service used by station handlers.
type StationWorkflow interface {
	AcceptStationItems(ctx context.Context, req service.AcceptStationRequest) (database.OrderPlacement, error)
	ServeStationItems(ctx context.Context, req service.ServeStationRequest) (database.OrderPlacement, error)
	ServeItem(ctx context.Context, orderID, itemOrderID string) error
}

// StationStore defines the database methods used by station queue views.
// Satisfied by *database.Queries; narrow interface for testability.
type StationStore interface {
	ActiveCounts(ctx context.Context, f *database.Filter) (database.QueueCounts, error)
	ActiveItems(ctx context.Context, f *database.Filter) ([]database.ActiveOrderItem, error)
}

// StationHandler handles the kitchen, bar and shisha dashboards.
type StationHandler struct {
	svc   StationWorkflow
	store StationStore
}

func NewStationHandler(svc StationWorkflow, store StationStore) *StationHandler {
	return &StationHandler{svc: svc, store: store}
}

func (h *StationHandler) RegisterRoutes(r chi.Router) {
	// Each station dashboard is gated by its own module flag.
	kitchen := r.With(middleware.RequireModule(func(m auth.Modules) bool { return m.KitchenManage }))
	bar := r.With(middleware.RequireModule(func(m auth.Modules) bool { return m.BarManage }))
	shisha := r.With(middleware.RequireModule(func(m auth.Modules) bool { return m.ShishaManage }))

	kitchen.Post("/acceptallitemsinorder", h.acceptAll(enum.LocationKitchen))
	bar.Post("/acceptAllBarItemsInOrder", h.acceptAll(enum.LocationBar))
	shisha.Post("/acceptAllShishaItemsInOrder", h.acceptAll(enum.LocationShisha))

	kitchen.Post("/serveallitemsinorder", h.serveAll(enum.LocationKitchen))
	bar.Post("/serveBarItemsInOrder", h.serveAll(enum.LocationBar))
	bar.Post("/serveAllItemsBarInOrder", h.serveAll(enum.LocationBar))
	shisha.Post("/serveShishaItemsInOrder", h.serveAll(enum.LocationShisha))
	r.Post("/serveindividualitem", h.ServeIndividualItem)

	kitchen.Get("/getkitchentransactionlog", h.stationLog(enum.LocationKitchen))
	bar.Get("/getbartransactionlog", h.stationLog(enum.LocationBar))
	shisha.Get("/getShishaTransactionsByStatus", h.stationLog(enum.LocationShisha))
	r.Get("/getstafftransactionlog", h.StaffLog)
	r.Get("/getallFloortransactionlog", h.FloorLog)

	managers := r.With(middleware.RequireModule(func(m auth.Modules) bool { return m.ManageUserOrders }))
	managers.Get("/getAllFloorManagerActionTransactionLog", h.ManagerActionLog)
}

// --- Response types ---

type activeItemResponse struct {
	OrderID            string     `json:"orderid"`
	ItemName           string     `json:"itemname"`
	Category           string     `json:"category"`
	ItemOrderID        string     `json:"itemorderid"`
	Table              string     `json:"table"`
	Quantity           int32      `json:"quantity"`
	Price              string     `json:"price"`
	ProductDiscount    *string    `json:"productDiscount,omitempty"`
	Note               *string    `json:"note,omitempty"`
	Username           string     `json:"username"`
	Location           string     `json:"location"`
	Status             string     `json:"status"`
	OrderType          string     `json:"ordertype"`
	Updated            bool       `json:"updated"`
	RejectionReason    *string    `json:"rejectionreason,omitempty"`
	ActionUsername     *string    `json:"actionusername,omitempty"`
	ItemRemoval        *string    `json:"itemremoval,omitempty"`
	ServedTime         *time.Time `json:"servedtime,omitempty"`
	AcceptOrRejectTime *time.Time `json:"acceptorrejecttime,omitempty"`
	Image              *string    `json:"image,omitempty"`
	CreatedDate        time.Time  `json:"createddate"`
}

func toActiveItemResponse(i database.ActiveOrderItem) activeItemResponse {
	return activeItemResponse{
		OrderID:            i.OrderID,
		ItemName:           i.ItemName,
		Category:           i.Category,
		ItemOrderID:        i.ItemOrderID,
		Table:              i.TableNumber,
		Quantity:           i.Quantity,
		Price:              database.NumericToString(i.Price),
		ProductDiscount:    numericOrNil(i.ProductDiscount),
		Note:               textOrNil(i.Note),
		Username:           i.Username,
		Location:           i.Location,
		Status:             i.Status,
		OrderType:          i.OrderType,
		Updated:            i.Updated,
		RejectionReason:    textOrNil(i.RejectionReason),
		ActionUsername:     textOrNil(i.ActionUsername),
		ItemRemoval:        textOrNil(i.ItemRemoval),
		ServedTime:         timeOrNil(i.ServedTime),
		AcceptOrRejectTime: timeOrNil(i.AcceptOrRejectTime),
		Image:              textOrNil(i.ProductImage),
		CreatedDate:        i.CreatedDate,
	}
}

type queueLogResponse struct {
	Pending    int64                `json:"pending"`
	InProgress int64                `json:"inprogress"`
	Served     int64                `json:"served"`
	Rejected   int64                `json:"rejected"`
	Items      []activeItemResponse `json:"items"`
}

// --- Handlers ---

type acceptOrderRequest struct {
	OrderID          string `json:"orderId"`
	CurrentOrderType string `json:"currentOrderType"`
}

func (h *StationHandler) acceptAll(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req acceptOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		var actionUsername string
		if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
			actionUsername = claims.Username
		}

		placement, err := h.svc.AcceptStationItems(r.Context(), service.AcceptStationRequest{
			OrderID:          req.OrderID,
			Location:         location,
			ActionUsername:   actionUsername,
			CurrentOrderType: req.CurrentOrderType,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message":  "Items accepted successfully",
			"username": placement.Username,
			"table":    placement.TableNumber,
		})
	}
}

type serveOrderRequest struct {
	OrderID string `json:"orderId"`
}

func (h *StationHandler) serveAll(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req serveOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		placement, err := h.svc.ServeStationItems(r.Context(), service.ServeStationRequest{
			OrderID:  req.OrderID,
			Location: location,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message":  "Items served successfully",
			"username": placement.Username,
			"table":    placement.TableNumber,
		})
	}
}

type serveItemRequest struct {
	OrderID     string `json:"orderId"`
	ItemOrderID string `json:"itemOrderId"`
}

func (h *StationHandler) ServeIndividualItem(w http.ResponseWriter, r *http.Request) {
	var req serveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.ServeItem(r.Context(), req.OrderID, req.ItemOrderID); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item served successfully"})
}

func (h *StationHandler) respondQueueLog(w http.ResponseWriter, r *http.Request, countsFilter, itemsFilter *database.Filter) {
	counts, err := h.store.ActiveCounts(r.Context(), countsFilter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	items, err := h.store.ActiveItems(r.Context(), itemsFilter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := queueLogResponse{
		Pending:    counts.Pending,
		InProgress: counts.InProgress,
		Served:     counts.Served,
		Rejected:   counts.Rejected,
		Items:      make([]activeItemResponse, 0, len(items)),
	}
	for _, i := range items {
		resp.Items = append(resp.Items, toActiveItemResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StationHandler) stationLog(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respondQueueLog(w, r,
			database.NewFilter(1).Equal("oi.location", location),
			database.NewFilter(1).Equal("oi.location", location),
		)
	}
}

// StaffLog shows the caller their own active items across all stations.
func (h *StationHandler) StaffLog(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	h.respondQueueLog(w, r,
		database.NewFilter(1).Equal("oi.username", claims.Username),
		database.NewFilter(1).Equal("oi.username", claims.Username),
	)
}

// FloorLog shows every active item regardless of station.
func (h *StationHandler) FloorLog(w http.ResponseWriter, r *http.Request) {
	h.respondQueueLog(w, r, database.NewFilter(1), database.NewFilter(1))
}

// ManagerActionLog lists items with a pending removal request.
func (h *StationHandler) ManagerActionLog(w http.ResponseWriter, r *http.Request) {
	h.respondQueueLog(w, r,
		database.NewFilter(1).IsNotNull("oi.item_removal"),
		database.NewFilter(1).IsNotNull("oi.item_removal"),
	)
}
