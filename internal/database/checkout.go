package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const checkoutItemColumns = `id, order_id, item_name, category, item_order_id,
	table_number, quantity, price, product_discount, note, username, location,
	status, order_type, final_status, completed_time, sent_by, sent_date,
	cashier_status, special_discount_value, special_discount_status,
	special_discount_reason, special_discount_approved_by,
	special_discount_applied, created_date`

func scanCheckoutItem(row pgx.Row, i *CheckoutItem) error {
	return row.Scan(
		&i.ID, &i.OrderID, &i.ItemName, &i.Category, &i.ItemOrderID,
		&i.TableNumber, &i.Quantity, &i.Price, &i.ProductDiscount, &i.Note,
		&i.Username, &i.Location, &i.Status, &i.OrderType, &i.FinalStatus,
		&i.CompletedTime, &i.SentBy, &i.SentDate, &i.CashierStatus,
		&i.SpecialDiscountValue, &i.SpecialDiscountStatus,
		&i.SpecialDiscountReason, &i.SpecialDiscountApprovedBy,
		&i.SpecialDiscountApplied, &i.CreatedDate,
	)
}

type InsertCheckoutItemParams struct {
	OrderID         string
	ItemName        string
	Category        string
	ItemOrderID     string
	TableNumber     string
	Quantity        int32
	Price           pgtype.Numeric
	ProductDiscount pgtype.Numeric
	Note            pgtype.Text
	Username        string
	Location        string
	Status          string
	OrderType       string
	FinalStatus     pgtype.Text
	CompletedTime   pgtype.Timestamptz
	SentBy          string
	SentDate        time.Time
	CreatedDate     time.Time
}

func (q *Queries) InsertCheckoutItem(ctx context.Context, arg InsertCheckoutItemParams) error {
	const sql = `
		INSERT INTO checkout_items (
			order_id, item_name, category, item_order_id, table_number,
			quantity, price, product_discount, note, username, location,
			status, order_type, final_status, completed_time, sent_by,
			sent_date, created_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := q.db.Exec(ctx, sql,
		arg.OrderID, arg.ItemName, arg.Category, arg.ItemOrderID,
		arg.TableNumber, arg.Quantity, arg.Price, arg.ProductDiscount,
		arg.Note, arg.Username, arg.Location, arg.Status, arg.OrderType,
		arg.FinalStatus, arg.CompletedTime, arg.SentBy, arg.SentDate,
		arg.CreatedDate,
	)
	return err
}

func (q *Queries) ListCheckoutItemsByOrder(ctx context.Context, orderID string) ([]CheckoutItem, error) {
	sql := `SELECT ` + checkoutItemColumns + ` FROM checkout_items WHERE order_id = $1 ORDER BY id`
	rows, err := q.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CheckoutItem
	for rows.Next() {
		var i CheckoutItem
		if err := scanCheckoutItem(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// GetCheckoutPlacement returns the placer and table of a staged order.
func (q *Queries) GetCheckoutPlacement(ctx context.Context, orderID string) (OrderPlacement, error) {
	const sql = `SELECT username, table_number FROM checkout_items WHERE order_id = $1 LIMIT 1`
	var p OrderPlacement
	err := q.db.QueryRow(ctx, sql, orderID).Scan(&p.Username, &p.TableNumber)
	return p, err
}

// ResetSpecialDiscount returns every discount field to its initial state so a
// fresh request starts clean.
func (q *Queries) ResetSpecialDiscount(ctx context.Context, orderID string) (int64, error) {
	const sql = `
		UPDATE checkout_items
		SET special_discount_value = NULL, special_discount_reason = NULL,
			special_discount_approved_by = NULL, special_discount_applied = NULL,
			special_discount_status = 'Pending'
		WHERE order_id = $1
	`
	tag, err := q.db.Exec(ctx, sql, orderID)
	return tag.RowsAffected(), err
}

type ApplySpecialDiscountParams struct {
	OrderID string
	Value   pgtype.Numeric
	Status  string
	Reason  string
}

func (q *Queries) ApplySpecialDiscount(ctx context.Context, arg ApplySpecialDiscountParams) (int64, error) {
	const sql = `
		UPDATE checkout_items
		SET special_discount_value = $2, special_discount_status = $3,
			special_discount_reason = $4, special_discount_applied = true
		WHERE order_id = $1
	`
	tag, err := q.db.Exec(ctx, sql, arg.OrderID, arg.Value, arg.Status, arg.Reason)
	return tag.RowsAffected(), err
}

type UpdateSpecialDiscountStatusParams struct {
	OrderID    string
	Status     string
	ApprovedBy string
}

func (q *Queries) UpdateSpecialDiscountStatus(ctx context.Context, arg UpdateSpecialDiscountStatusParams) (int64, error) {
	const sql = `
		UPDATE checkout_items
		SET special_discount_status = $2, special_discount_applied = true,
			special_discount_approved_by = $3
		WHERE order_id = $1
	`
	tag, err := q.db.Exec(ctx, sql, arg.OrderID, arg.Status, arg.ApprovedBy)
	return tag.RowsAffected(), err
}

// PendingCheckoutItems lists staged rows the cashier has not closed, joined
// with the product catalog. The filter narrows by order id, username, or
// discount approval state.
func (q *Queries) PendingCheckoutItems(ctx context.Context, f *Filter) ([]PendingCheckoutItem, error) {
	sql := `
		SELECT ci.id, ci.order_id, ci.item_name, ci.category, ci.item_order_id,
			ci.table_number, ci.quantity, ci.price, ci.product_discount,
			ci.note, ci.username, ci.location, ci.status, ci.order_type,
			ci.final_status, ci.completed_time, ci.sent_by, ci.sent_date,
			ci.cashier_status, ci.special_discount_value,
			ci.special_discount_status, ci.special_discount_reason,
			ci.special_discount_approved_by, ci.special_discount_applied,
			ci.created_date, p.image
		FROM checkout_items ci
		LEFT JOIN products p ON p.product_name = ci.item_name
		WHERE ci.cashier_status IS NULL` + f.Clause() + `
		ORDER BY ci.sent_date, ci.id`

	rows, err := q.db.Query(ctx, sql, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PendingCheckoutItem
	for rows.Next() {
		var i PendingCheckoutItem
		err := rows.Scan(
			&i.ID, &i.OrderID, &i.ItemName, &i.Category, &i.ItemOrderID,
			&i.TableNumber, &i.Quantity, &i.Price, &i.ProductDiscount,
			&i.Note, &i.Username, &i.Location, &i.Status, &i.OrderType,
			&i.FinalStatus, &i.CompletedTime, &i.SentBy, &i.SentDate,
			&i.CashierStatus, &i.SpecialDiscountValue,
			&i.SpecialDiscountStatus, &i.SpecialDiscountReason,
			&i.SpecialDiscountApprovedBy, &i.SpecialDiscountApplied,
			&i.CreatedDate, &i.ProductImage,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// HasCompletedSplit reports whether any staged row under the base order id
// (including its per-customer splits) has already been closed by a cashier.
func (q *Queries) HasCompletedSplit(ctx context.Context, baseOrderID string) (bool, error) {
	const sql = `
		SELECT EXISTS (
			SELECT 1 FROM checkout_items
			WHERE order_id LIKE $1 || '%' AND cashier_status = 'Complete'
		)
	`
	var exists bool
	err := q.db.QueryRow(ctx, sql, baseOrderID).Scan(&exists)
	return exists, err
}

// RenameSplitOrders folds per-customer split rows back onto the base id.
func (q *Queries) RenameSplitOrders(ctx context.Context, baseOrderID string) (int64, error) {
	const sql = `
		UPDATE checkout_items SET order_id = $1
		WHERE order_id LIKE $1 || '\_customer%'
	`
	tag, err := q.db.Exec(ctx, sql, baseOrderID)
	return tag.RowsAffected(), err
}

func (q *Queries) DeleteCheckoutItemsByOrder(ctx context.Context, orderID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM checkout_items WHERE order_id = $1`, orderID)
	return tag.RowsAffected(), err
}

// MarkCheckoutComplete closes the staged rows once the sale is recorded.
func (q *Queries) MarkCheckoutComplete(ctx context.Context, orderID string) (int64, error) {
	const sql = `UPDATE checkout_items SET cashier_status = 'Complete' WHERE order_id = $1`
	tag, err := q.db.Exec(ctx, sql, orderID)
	return tag.RowsAffected(), err
}
