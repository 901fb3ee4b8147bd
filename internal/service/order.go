package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/enum"
	"github.com/tammydufil/moodlagosapi/internal/ws"
)

// Errors returned by the order service.
var (
	ErrEmptyItems      = errors.New("items are required")
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	ErrNoMatchingItems = errors.New("no matching items found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidStatus   = errors.New("status must be 'Rejected' or 'In Progress'")
	ErrStatusUnchanged = errors.New("item already has this status")
	ErrSameTable       = errors.New("order is already on this table")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by order workflows.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	InsertOrderItem(ctx context.Context, arg database.InsertOrderItemParams) error
	ListOrderItemsByOrderAndItem(ctx context.Context, orderID, itemName string) ([]database.OrderItem, error)
	GetOrderPlacement(ctx context.Context, orderID string) (database.OrderPlacement, error)
	AcceptStationItems(ctx context.Context, arg database.AcceptStationItemsParams) (int64, error)
	ServeStationItems(ctx context.Context, arg database.ServeStationItemsParams) (int64, error)
	ServeOrderItem(ctx context.Context, arg database.ServeOrderItemParams) (int64, error)
	GetOrderItemStatus(ctx context.Context, arg database.GetOrderItemStatusParams) (string, error)
	ClearUpdatedFlag(ctx context.Context, orderID string) error
	UpdateOrderItemStatus(ctx context.Context, arg database.UpdateOrderItemStatusParams) (int64, error)
	DeleteOrderItem(ctx context.Context, itemOrderID string) (int64, error)
	SetItemRemoval(ctx context.Context, itemOrderID string, value pgtype.Text) (int64, error)
	GetOrderTable(ctx context.Context, orderID string) (database.OrderTableInfo, error)
	UpdateOrderTable(ctx context.Context, arg database.UpdateOrderTableParams) (int64, error)
	InsertNotification(ctx context.Context, arg database.InsertNotificationParams) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

type notificationStore interface {
	InsertNotification(ctx context.Context, arg database.InsertNotificationParams) error
}

// queueNotification writes an outbox row and returns the event to broadcast
// once the surrounding transaction commits. An empty username broadcasts to
// the whole channel.
func queueNotification(ctx context.Context, store notificationStore, username, location, message string) (ws.Event, error) {
	id := uuid.New()
	var u pgtype.Text
	if username != "" {
		u = pgtype.Text{String: username, Valid: true}
	}
	err := store.InsertNotification(ctx, database.InsertNotificationParams{
		ID:       id,
		Username: u,
		Location: location,
		Message:  message,
	})
	if err != nil {
		return ws.Event{}, fmt.Errorf("insert notification: %w", err)
	}
	return ws.Event{ID: id.String(), Channel: location, Username: username, Message: message}, nil
}

// OrderService handles order lifecycle business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	hub      *ws.Hub
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore, hub *ws.Hub) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, hub: hub}
}

func (s *OrderService) broadcast(events []ws.Event) {
	if s.hub == nil {
		return
	}
	for _, e := range events {
		s.hub.Broadcast(e)
	}
}

// OrderItemInput is one item of a placed (or topped-up) order. Category,
// price and product discount are stored on the row as order-time snapshots.
type OrderItemInput struct {
	OrderID         string
	ItemName        string
	Category        string
	ItemOrderID     string
	TableNumber     string
	Quantity        int32
	Price           decimal.Decimal
	ProductDiscount decimal.Decimal
	Note            string
	Username        string
	Location        string
	Status          string
	OrderType       string
}

func (it OrderItemInput) validate(i int) error {
	if it.OrderID == "" || it.ItemName == "" || it.Category == "" ||
		it.ItemOrderID == "" || it.TableNumber == "" || it.Username == "" ||
		it.Location == "" || it.Status == "" {
		return fmt.Errorf("item[%d]: %w", i, ErrMissingFields)
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
	}
	return nil
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func isStationLocation(location string) bool {
	switch strings.ToLower(location) {
	case enum.LocationKitchen, enum.LocationBar, enum.LocationShisha:
		return true
	}
	return false
}

// PlaceOrder inserts a batch of ledger rows atomically. Any invalid item
// rejects the whole batch. Space-located items skip the station queues and
// are inserted already served. One broadcast notification goes out per
// distinct station location.
func (s *OrderService) PlaceOrder(ctx context.Context, items []OrderItemInput) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	for i, it := range items {
		if err := it.validate(i); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}

	stations := make(map[string]bool)
	for _, it := range items {
		params := database.InsertOrderItemParams{
			OrderID:         it.OrderID,
			ItemName:        it.ItemName,
			Category:        it.Category,
			ItemOrderID:     it.ItemOrderID,
			TableNumber:     it.TableNumber,
			Quantity:        it.Quantity,
			Price:           database.DecimalToNumeric(it.Price),
			ProductDiscount: database.DecimalToNumeric(it.ProductDiscount),
			Note:            optionalText(it.Note),
			Username:        it.Username,
			Location:        it.Location,
			Status:          it.Status,
			OrderType:       it.OrderType,
		}
		if strings.EqualFold(it.Location, enum.LocationSpace) {
			params.Status = enum.StatusServed
			params.ServedTime = now
			params.AcceptOrRejectTime = now
		} else if isStationLocation(it.Location) {
			stations[strings.ToLower(it.Location)] = true
		}
		if err := store.InsertOrderItem(ctx, params); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	var events []ws.Event
	for station := range stations {
		event, err := queueNotification(ctx, store, "", station,
			fmt.Sprintf("New order placed for %s", station))
		if err != nil {
			return err
		}
		events = append(events, event)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast(events)
	return nil
}

// TopUpOrder adds quantity to an existing order without touching earlier
// rows. Per item: any rejected existing row skips the item entirely, and
// only a positive delta over the already-ordered quantity is inserted, as a
// fresh row flagged updated.
func (s *OrderService) TopUpOrder(ctx context.Context, items []OrderItemInput) (int, error) {
	if len(items) == 0 {
		return 0, ErrEmptyItems
	}
	for i, it := range items {
		if err := it.validate(i); err != nil {
			return 0, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	inserted := 0
	notified := make(map[string]bool)
	var events []ws.Event
	for _, it := range items {
		existing, err := store.ListOrderItemsByOrderAndItem(ctx, it.OrderID, it.ItemName)
		if err != nil {
			return 0, fmt.Errorf("list existing items: %w", err)
		}

		rejected := false
		var existingQty int32
		for _, row := range existing {
			if strings.EqualFold(row.Status, enum.StatusRejected) {
				rejected = true
				break
			}
			existingQty += row.Quantity
		}
		if rejected {
			continue
		}

		delta := it.Quantity - existingQty
		if delta <= 0 {
			continue
		}

		err = store.InsertOrderItem(ctx, database.InsertOrderItemParams{
			OrderID:         it.OrderID,
			ItemName:        it.ItemName,
			Category:        it.Category,
			ItemOrderID:     it.ItemOrderID,
			TableNumber:     it.TableNumber,
			Quantity:        delta,
			Price:           database.DecimalToNumeric(it.Price),
			ProductDiscount: database.DecimalToNumeric(it.ProductDiscount),
			Note:            optionalText(it.Note),
			Username:        it.Username,
			Location:        it.Location,
			Status:          enum.StatusPending,
			OrderType:       it.OrderType,
			Updated:         true,
		})
		if err != nil {
			return 0, fmt.Errorf("insert top-up item: %w", err)
		}
		inserted++

		location := strings.ToLower(it.Location)
		if isStationLocation(location) && !notified[location] {
			event, err := queueNotification(ctx, store, "", location,
				fmt.Sprintf("Order %s (%s) has been updated.", it.OrderID, it.TableNumber))
			if err != nil {
				return 0, err
			}
			events = append(events, event)
			notified[location] = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.broadcast(events)
	return inserted, nil
}

// AcceptStationRequest moves a station's items on one order into progress.
type AcceptStationRequest struct {
	OrderID        string
	Location       string
	ActionUsername string
	// CurrentOrderType as seen by the station client; a re-acknowledgment
	// of an updated order accepts rows in any status.
	CurrentOrderType string
}

func (s *OrderService) AcceptStationItems(ctx context.Context, req AcceptStationRequest) (database.OrderPlacement, error) {
	if req.OrderID == "" {
		return database.OrderPlacement{}, ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderPlacement{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.AcceptStationItems(ctx, database.AcceptStationItemsParams{
		OrderID:        req.OrderID,
		Location:       req.Location,
		ActionUsername: req.ActionUsername,
		IncludeAll:     strings.EqualFold(req.CurrentOrderType, enum.OrderTypeUpdatedAwaitingResponse),
	})
	if err != nil {
		return database.OrderPlacement{}, fmt.Errorf("accept station items: %w", err)
	}
	if rows == 0 {
		return database.OrderPlacement{}, ErrNoMatchingItems
	}

	placement, err := store.GetOrderPlacement(ctx, req.OrderID)
	if err != nil {
		return database.OrderPlacement{}, fmt.Errorf("get order placement: %w", err)
	}

	event, err := queueNotification(ctx, store, placement.Username, enum.ChannelOrder,
		fmt.Sprintf("Order %s at table %s status has been updated to 'In Progress'", req.OrderID, placement.TableNumber))
	if err != nil {
		return database.OrderPlacement{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderPlacement{}, fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return placement, nil
}

// UpdateItemStatusRequest accepts or rejects a single ledger row.
type UpdateItemStatusRequest struct {
	OrderID          string
	ItemOrderID      string
	ItemName         string
	Status           string
	Reason           string
	CurrentOrderType string
	ActionUsername   string
}

func (s *OrderService) UpdateItemStatus(ctx context.Context, req UpdateItemStatusRequest) error {
	if req.OrderID == "" || req.ItemOrderID == "" || req.ItemName == "" || req.Status == "" {
		return ErrMissingFields
	}
	if req.Status != enum.StatusRejected && req.Status != enum.StatusInProgress {
		return ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrderItemStatus(ctx, database.GetOrderItemStatusParams{
		OrderID:     req.OrderID,
		ItemOrderID: req.ItemOrderID,
		ItemName:    req.ItemName,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("get item status: %w", err)
	}
	if current == req.Status {
		return ErrStatusUnchanged
	}

	// A station answering an updated order re-acknowledges the whole order.
	if strings.EqualFold(req.CurrentOrderType, enum.OrderTypeUpdatedAwaitingResponse) {
		if err := store.ClearUpdatedFlag(ctx, req.OrderID); err != nil {
			return fmt.Errorf("clear updated flag: %w", err)
		}
	}

	var reason pgtype.Text
	if req.Status == enum.StatusRejected && req.Reason != "" {
		reason = pgtype.Text{String: req.Reason, Valid: true}
	}

	rows, err := store.UpdateOrderItemStatus(ctx, database.UpdateOrderItemStatusParams{
		OrderID:         req.OrderID,
		ItemOrderID:     req.ItemOrderID,
		ItemName:        req.ItemName,
		Status:          req.Status,
		RejectionReason: reason,
		ActionUsername:  req.ActionUsername,
	})
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	if rows == 0 {
		return ErrItemNotFound
	}

	placement, err := store.GetOrderPlacement(ctx, req.OrderID)
	if err != nil {
		return fmt.Errorf("get order placement: %w", err)
	}

	event, err := queueNotification(ctx, store, placement.Username, enum.ChannelOrder,
		fmt.Sprintf("%s in order %s at table %s has been updated to '%s'", req.ItemName, req.OrderID, placement.TableNumber, req.Status))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return nil
}

// ServeStationRequest marks a station's in-progress items served.
type ServeStationRequest struct {
	OrderID  string
	Location string
}

func (s *OrderService) ServeStationItems(ctx context.Context, req ServeStationRequest) (database.OrderPlacement, error) {
	if req.OrderID == "" {
		return database.OrderPlacement{}, ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderPlacement{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.ServeStationItems(ctx, database.ServeStationItemsParams{
		OrderID:  req.OrderID,
		Location: req.Location,
	})
	if err != nil {
		return database.OrderPlacement{}, fmt.Errorf("serve station items: %w", err)
	}
	if rows == 0 {
		return database.OrderPlacement{}, ErrNoMatchingItems
	}

	placement, err := store.GetOrderPlacement(ctx, req.OrderID)
	if err != nil {
		return database.OrderPlacement{}, fmt.Errorf("get order placement: %w", err)
	}

	event, err := queueNotification(ctx, store, placement.Username, enum.ChannelOrder,
		fmt.Sprintf("Some items in %s have been served for table %s", req.Location, placement.TableNumber))
	if err != nil {
		return database.OrderPlacement{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderPlacement{}, fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return placement, nil
}

// ServeItem serves one in-progress row.
func (s *OrderService) ServeItem(ctx context.Context, orderID, itemOrderID string) error {
	if orderID == "" || itemOrderID == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.ServeOrderItem(ctx, database.ServeOrderItemParams{
		OrderID:     orderID,
		ItemOrderID: itemOrderID,
	})
	if err != nil {
		return fmt.Errorf("serve order item: %w", err)
	}
	if rows == 0 {
		return ErrItemNotFound
	}

	placement, err := store.GetOrderPlacement(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order placement: %w", err)
	}

	event, err := queueNotification(ctx, store, placement.Username, enum.ChannelOrder,
		fmt.Sprintf("An item in order %s at table %s has been served", orderID, placement.TableNumber))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return nil
}

// DeleteItem removes one ledger row and tells the order managers.
func (s *OrderService) DeleteItem(ctx context.Context, itemOrderID string) error {
	if itemOrderID == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.DeleteOrderItem(ctx, itemOrderID)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	if rows == 0 {
		return ErrItemNotFound
	}

	event, err := queueNotification(ctx, store, "", enum.ChannelOrderItemsManage,
		fmt.Sprintf("Item %s has been removed from its order", itemOrderID))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return nil
}

// RequestItemRemoval records a manager-removal request on one row and
// notifies the order managers.
func (s *OrderService) RequestItemRemoval(ctx context.Context, itemOrderID, value string) error {
	if itemOrderID == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	var v pgtype.Text
	if value != "" {
		v = pgtype.Text{String: value, Valid: true}
	}
	rows, err := store.SetItemRemoval(ctx, itemOrderID, v)
	if err != nil {
		return fmt.Errorf("set item removal: %w", err)
	}
	if rows == 0 {
		return ErrItemNotFound
	}

	event, err := queueNotification(ctx, store, "", enum.ChannelOrderItemsManage,
		"A new order modification was requested")
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return nil
}

// ChangeTable moves an order to a new table and appends to its audit trail.
func (s *OrderService) ChangeTable(ctx context.Context, orderID, newTable, username string) error {
	if orderID == "" || newTable == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	info, err := store.GetOrderTable(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order table: %w", err)
	}
	if info.TableNumber == newTable {
		return ErrSameTable
	}

	audit := append(info.TableChangeInfo,
		fmt.Sprintf("%s changed from %s to %s", username, info.TableNumber, newTable))
	_, err = store.UpdateOrderTable(ctx, database.UpdateOrderTableParams{
		OrderID:         orderID,
		TableNumber:     newTable,
		TableChangeInfo: audit,
	})
	if err != nil {
		return fmt.Errorf("update order table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
