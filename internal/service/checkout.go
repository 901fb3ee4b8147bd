package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/enum"
	"github.com/tammydufil/moodlagosapi/internal/ws"
)

// Errors returned by the checkout service.
var (
	ErrMissingDiscountFields = errors.New("orderid, value, status and reason are required")
	ErrMergeNeedsTwoOrders   = errors.New("both orders must exist to merge")
	ErrNotMergedOrder        = errors.New("order is not a merged order")
	ErrEmptyCustomers        = errors.New("at least one customer is required")
	ErrSplitBillCompleted    = errors.New("order can't be merged because one of the split items has been completed")
	ErrSaleAlreadyCompleted  = errors.New("sale already completed for this order")
)

// CheckoutStore defines the DB methods needed by checkout workflows.
// Satisfied by *database.Queries (and its WithTx variant).
type CheckoutStore interface {
	ListOrderItemsByOrder(ctx context.Context, orderID string) ([]database.OrderItem, error)
	InsertCheckoutItem(ctx context.Context, arg database.InsertCheckoutItemParams) error
	MarkOrderSent(ctx context.Context, orderID string) (int64, error)
	MarkOrderCompleted(ctx context.Context, orderID string) (int64, error)
	ResetSpecialDiscount(ctx context.Context, orderID string) (int64, error)
	ApplySpecialDiscount(ctx context.Context, arg database.ApplySpecialDiscountParams) (int64, error)
	UpdateSpecialDiscountStatus(ctx context.Context, arg database.UpdateSpecialDiscountStatusParams) (int64, error)
	GetCheckoutPlacement(ctx context.Context, orderID string) (database.OrderPlacement, error)
	CountDistinctOrders(ctx context.Context, orderIDs []string) (int64, error)
	InsertMergedOrderCopies(ctx context.Context, arg database.InsertMergedOrderCopiesParams) (int64, error)
	MarkOrdersMerged(ctx context.Context, orderIDs []string) (int64, error)
	OrderItemExists(ctx context.Context, orderID, itemOrderID string) (bool, error)
	ClearMergeFields(ctx context.Context, orderID, itemOrderID string) error
	DeleteOrderItemRow(ctx context.Context, orderID, itemOrderID string) error
	DeleteOrderItemsByOrder(ctx context.Context, orderID string) (int64, error)
	ListCheckoutItemsByOrder(ctx context.Context, orderID string) ([]database.CheckoutItem, error)
	DeleteCheckoutItemsByOrder(ctx context.Context, orderID string) (int64, error)
	HasCompletedSplit(ctx context.Context, baseOrderID string) (bool, error)
	RenameSplitOrders(ctx context.Context, baseOrderID string) (int64, error)
	InsertCompletedSale(ctx context.Context, arg database.InsertCompletedSaleParams) error
	MarkCheckoutComplete(ctx context.Context, orderID string) (int64, error)
	InsertNotification(ctx context.Context, arg database.InsertNotificationParams) error
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx).
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// CheckoutService handles everything between "order finished" and "sale
// recorded": staging, discounts, merging, bill splitting and finalization.
type CheckoutService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
	hub      *ws.Hub
}

func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore, hub *ws.Hub) *CheckoutService {
	return &CheckoutService{pool: pool, newStore: newStore, hub: hub}
}

func (s *CheckoutService) broadcast(events []ws.Event) {
	if s.hub == nil {
		return
	}
	for _, e := range events {
		s.hub.Broadcast(e)
	}
}

// SendToCashier copies an order's ledger rows into the checkout staging
// table, closes the ledger side, and tells the cashiers.
func (s *CheckoutService) SendToCashier(ctx context.Context, orderID, sender string) error {
	if orderID == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	if len(items) == 0 {
		return ErrOrderNotFound
	}

	now := time.Now()
	sent := pgtype.Text{String: enum.FinalStatusSent, Valid: true}
	completedAt := pgtype.Timestamptz{Time: now, Valid: true}
	for _, item := range items {
		err := store.InsertCheckoutItem(ctx, database.InsertCheckoutItemParams{
			OrderID:         item.OrderID,
			ItemName:        item.ItemName,
			Category:        item.Category,
			ItemOrderID:     item.ItemOrderID,
			TableNumber:     item.TableNumber,
			Quantity:        item.Quantity,
			Price:           item.Price,
			ProductDiscount: item.ProductDiscount,
			Note:            item.Note,
			Username:        item.Username,
			Location:        item.Location,
			Status:          item.Status,
			OrderType:       item.OrderType,
			FinalStatus:     sent,
			CompletedTime:   completedAt,
			SentBy:          sender,
			SentDate:        now,
			CreatedDate:     now,
		})
		if err != nil {
			return fmt.Errorf("insert checkout item: %w", err)
		}
	}

	if _, err := store.MarkOrderSent(ctx, orderID); err != nil {
		return fmt.Errorf("mark order sent: %w", err)
	}

	event, err := queueNotification(ctx, store, "", enum.ChannelCashier,
		fmt.Sprintf("%s just sent a new order to the cashier from table %s", sender, items[0].TableNumber))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return nil
}

// SpecialDiscountRequest asks for a discount on a staged order. Value may be
// zero; the approval workflow decides what sticks.
type SpecialDiscountRequest struct {
	OrderID string
	Value   decimal.Decimal
	Status  string
	Reason  string
}

// ApplySpecialDiscount resets any previous discount state on the order and
// records the new request, so exactly one request is ever live.
func (s *CheckoutService) ApplySpecialDiscount(ctx context.Context, req SpecialDiscountRequest) error {
	if req.OrderID == "" || req.Status == "" || req.Reason == "" {
		return ErrMissingDiscountFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.ResetSpecialDiscount(ctx, req.OrderID)
	if err != nil {
		return fmt.Errorf("reset special discount: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	_, err = store.ApplySpecialDiscount(ctx, database.ApplySpecialDiscountParams{
		OrderID: req.OrderID,
		Value:   database.DecimalToNumeric(req.Value),
		Status:  req.Status,
		Reason:  req.Reason,
	})
	if err != nil {
		return fmt.Errorf("apply special discount: %w", err)
	}

	event, err := queueNotification(ctx, store, "", enum.ChannelSpecialDiscount,
		"A new special discount request has been received")
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return nil
}

// ResolveSpecialDiscount approves or rejects a pending discount request.
func (s *CheckoutService) ResolveSpecialDiscount(ctx context.Context, orderID, status, approvedBy string) error {
	if orderID == "" || status == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rows, err := store.UpdateSpecialDiscountStatus(ctx, database.UpdateSpecialDiscountStatusParams{
		OrderID:    orderID,
		Status:     status,
		ApprovedBy: approvedBy,
	})
	if err != nil {
		return fmt.Errorf("update special discount status: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	placement, err := store.GetCheckoutPlacement(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get checkout placement: %w", err)
	}

	event, err := queueNotification(ctx, store, placement.Username, enum.ChannelOrder,
		fmt.Sprintf("The status of the special discount for order %s (%s) has been updated", orderID, placement.TableNumber))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.broadcast([]ws.Event{event})
	return nil
}

// MergeOrdersRequest combines two open orders under a new id.
type MergeOrdersRequest struct {
	OrderID1   string
	OrderID2   string
	NewOrderID string
	MergedBy   string
}

// MergeOrders clones both orders' rows under the new id and soft-tombstones
// the originals, so a later split can restore them untouched.
func (s *CheckoutService) MergeOrders(ctx context.Context, req MergeOrdersRequest) error {
	if req.OrderID1 == "" || req.OrderID2 == "" || req.NewOrderID == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	sources := []string{req.OrderID1, req.OrderID2}
	distinct, err := store.CountDistinctOrders(ctx, sources)
	if err != nil {
		return fmt.Errorf("count orders: %w", err)
	}
	if distinct < 2 {
		return ErrMergeNeedsTwoOrders
	}

	_, err = store.InsertMergedOrderCopies(ctx, database.InsertMergedOrderCopiesParams{
		NewOrderID:     req.NewOrderID,
		MergeOrderID:   req.OrderID1 + "," + req.OrderID2,
		MergedBy:       req.MergedBy,
		SourceOrderIDs: sources,
	})
	if err != nil {
		return fmt.Errorf("insert merged copies: %w", err)
	}

	if _, err := store.MarkOrdersMerged(ctx, sources); err != nil {
		return fmt.Errorf("mark orders merged: %w", err)
	}

	return tx.Commit(ctx)
}

// SplitMergedOrders reverses a merge. Returns true when every merged row was
// matched back to an original and the merged order was removed entirely.
func (s *CheckoutService) SplitMergedOrders(ctx context.Context, mergedOrderID string) (bool, error) {
	if mergedOrderID == "" {
		return false, ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	items, err := store.ListOrderItemsByOrder(ctx, mergedOrderID)
	if err != nil {
		return false, fmt.Errorf("list merged items: %w", err)
	}
	if len(items) == 0 {
		return false, ErrOrderNotFound
	}

	if !items[0].MergeOrderID.Valid {
		return false, ErrNotMergedOrder
	}
	originals := strings.Split(items[0].MergeOrderID.String, ",")
	if len(originals) != 2 {
		return false, ErrNotMergedOrder
	}

	allFound := true
	for _, item := range items {
		found := false
		for _, original := range originals {
			exists, err := store.OrderItemExists(ctx, original, item.ItemOrderID)
			if err != nil {
				return false, fmt.Errorf("check original item: %w", err)
			}
			if exists {
				if err := store.ClearMergeFields(ctx, original, item.ItemOrderID); err != nil {
					return false, fmt.Errorf("restore original item: %w", err)
				}
				found = true
			}
		}
		if found {
			if err := store.DeleteOrderItemRow(ctx, mergedOrderID, item.ItemOrderID); err != nil {
				return false, fmt.Errorf("delete merged item: %w", err)
			}
		} else {
			// No original to restore; the merged row keeps living on its own.
			if err := store.ClearMergeFields(ctx, mergedOrderID, item.ItemOrderID); err != nil {
				return false, fmt.Errorf("detach merged item: %w", err)
			}
			allFound = false
		}
	}

	if allFound {
		if _, err := store.DeleteOrderItemsByOrder(ctx, mergedOrderID); err != nil {
			return false, fmt.Errorf("delete merged order: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return allFound, nil
}

// SplitBillRequest divides a staged order between customers. Each customer
// carries one quantity per staged row, positionally; zero means the customer
// takes none of that row.
type SplitBillRequest struct {
	OrderID   string
	Customers [][]int32
}

// SplitBill rewrites the staged rows as per-customer orders named
// "{orderid}_customerN" and removes the originals.
func (s *CheckoutService) SplitBill(ctx context.Context, req SplitBillRequest) error {
	if req.OrderID == "" {
		return ErrMissingFields
	}
	if len(req.Customers) == 0 {
		return ErrEmptyCustomers
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	items, err := store.ListCheckoutItemsByOrder(ctx, req.OrderID)
	if err != nil {
		return fmt.Errorf("list checkout items: %w", err)
	}
	if len(items) == 0 {
		return ErrOrderNotFound
	}

	now := time.Now()
	for ci, splits := range req.Customers {
		newOrderID := fmt.Sprintf("%s_customer%d", req.OrderID, ci+1)
		for idx, item := range items {
			var qty int32
			if idx < len(splits) {
				qty = splits[idx]
			}
			if qty <= 0 {
				continue
			}
			err := store.InsertCheckoutItem(ctx, database.InsertCheckoutItemParams{
				OrderID:         newOrderID,
				ItemName:        item.ItemName,
				Category:        item.Category,
				ItemOrderID:     item.ItemOrderID,
				TableNumber:     item.TableNumber,
				Quantity:        qty,
				Price:           item.Price,
				ProductDiscount: item.ProductDiscount,
				Note:            item.Note,
				Username:        item.Username,
				Location:        item.Location,
				Status:          item.Status,
				OrderType:       item.OrderType,
				FinalStatus:     item.FinalStatus,
				CompletedTime:   item.CompletedTime,
				SentBy:          item.SentBy,
				SentDate:        item.SentDate,
				CreatedDate:     now,
			})
			if err != nil {
				return fmt.Errorf("insert split item: %w", err)
			}
		}
	}

	if _, err := store.DeleteCheckoutItemsByOrder(ctx, req.OrderID); err != nil {
		return fmt.Errorf("delete original items: %w", err)
	}

	return tx.Commit(ctx)
}

// MergeBill undoes a bill split, folding "{base}_customerN" rows back onto
// the base order. Refused once any slice of the split has been completed.
func (s *CheckoutService) MergeBill(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrMissingFields
	}
	baseOrderID := strings.SplitN(orderID, "_", 2)[0]

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	completed, err := store.HasCompletedSplit(ctx, baseOrderID)
	if err != nil {
		return fmt.Errorf("check completed splits: %w", err)
	}
	if completed {
		return ErrSplitBillCompleted
	}

	rows, err := store.RenameSplitOrders(ctx, baseOrderID)
	if err != nil {
		return fmt.Errorf("rename split orders: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	return tx.Commit(ctx)
}

// CompleteSaleRequest finalizes an order at the till.
type CompleteSaleRequest struct {
	OrderID       string
	PaymentType   string
	Subtotal      decimal.Decimal
	Vat           decimal.Decimal
	OrderDiscount decimal.Decimal
	Total         decimal.Decimal
	Delivery      decimal.Decimal
}

// CompleteSale records the sale, closes the ledger rows and the staged rows.
// A second finalization of the same order hits the unique constraint and is
// reported as a conflict.
func (s *CheckoutService) CompleteSale(ctx context.Context, req CompleteSaleRequest) error {
	if req.OrderID == "" || req.PaymentType == "" {
		return ErrMissingFields
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	err = store.InsertCompletedSale(ctx, database.InsertCompletedSaleParams{
		OrderID:       req.OrderID,
		PaymentType:   req.PaymentType,
		Subtotal:      database.DecimalToNumeric(req.Subtotal),
		Vat:           database.DecimalToNumeric(req.Vat),
		OrderDiscount: database.DecimalToNumeric(req.OrderDiscount),
		Total:         database.DecimalToNumeric(req.Total),
		Delivery:      database.DecimalToNumeric(req.Delivery),
	})
	if err != nil {
		if isDuplicateSale(err) {
			return ErrSaleAlreadyCompleted
		}
		return fmt.Errorf("insert completed sale: %w", err)
	}

	if _, err := store.MarkOrderCompleted(ctx, req.OrderID); err != nil {
		return fmt.Errorf("mark order completed: %w", err)
	}
	if _, err := store.MarkCheckoutComplete(ctx, req.OrderID); err != nil {
		return fmt.Errorf("mark checkout complete: %w", err)
	}

	return tx.Commit(ctx)
}

// isDuplicateSale checks for a unique constraint violation on
// completed_sales.order_id (pgconn error code 23505).
func isDuplicateSale(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
