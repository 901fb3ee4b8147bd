package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tammydufil/moodlagosapi/internal/auth"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/enum"
	"github.com/tammydufil/moodlagosapi/internal/middleware"
)

// NotificationStore defines the database methods used by notification
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type NotificationStore interface {
	UnreadNotifications(ctx context.Context, arg database.UnreadNotificationsParams) ([]database.Notification, error)
	MarkNotificationRead(ctx context.Context, sid int64) (int64, error)
	MarkNotificationsRead(ctx context.Context, sids []int64) (int64, error)
}

// NotificationHandler serves the notification inbox.
type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/getUnreadNotifications", h.GetUnread)
	r.Post("/markNotificationAsRead", h.MarkRead)
	r.Post("/markAllNotificationsAsRead", h.MarkAllRead)
}

// channelsForModules maps a user's module flags to the broadcast channels
// they should hear.
func channelsForModules(m auth.Modules) []string {
	var channels []string
	if m.CashierManage {
		channels = append(channels, enum.ChannelCashier)
	}
	if m.SpecialDiscountManage {
		channels = append(channels, enum.ChannelSpecialDiscount)
	}
	if m.BarManage {
		channels = append(channels, enum.ChannelBar)
	}
	if m.KitchenManage {
		channels = append(channels, enum.ChannelKitchen)
	}
	if m.ShishaManage {
		channels = append(channels, enum.ChannelShisha)
	}
	if m.ManageUserOrders {
		channels = append(channels, enum.ChannelOrderItemsManage)
	}
	return channels
}

type notificationResponse struct {
	Sid       int64     `json:"sid"`
	ID        string    `json:"id"`
	Username  *string   `json:"username,omitempty"`
	Location  string    `json:"location"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *NotificationHandler) GetUnread(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	params := database.UnreadNotificationsParams{
		Channels: channelsForModules(claims.Modules),
	}
	if claims.Modules.OrderManage {
		params.Username = pgtype.Text{String: claims.Username, Valid: true}
	}

	items, err := h.store.UnreadNotifications(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, notificationResponse{
			Sid:       n.Sid,
			ID:        n.ID.String(),
			Username:  textOrNil(n.Username),
			Location:  n.Location,
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type markReadRequest struct {
	Sid int64 `json:"sid"`
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rows, err := h.store.MarkNotificationRead(r.Context(), req.Sid)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

type markAllReadRequest struct {
	Sids []int64 `json:"sids"`
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	var req markAllReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Sids) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sids are required"})
		return
	}

	if _, err := h.store.MarkNotificationsRead(r.Context(), req.Sids); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked as read"})
}
