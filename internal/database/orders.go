package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, item_name, category, item_order_id,
	table_number, quantity, price, product_discount, note, username, location,
	status, order_type, final_status, completed_time, served_time,
	accept_or_reject_time, action_username, rejection_reason, updated,
	item_removal, merge_order_id, merge_status, merged_by, table_change_info,
	created_date`

func scanOrderItem(row pgx.Row, i *OrderItem) error {
	return row.Scan(
		&i.ID, &i.OrderID, &i.ItemName, &i.Category, &i.ItemOrderID,
		&i.TableNumber, &i.Quantity, &i.Price, &i.ProductDiscount, &i.Note,
		&i.Username, &i.Location, &i.Status, &i.OrderType, &i.FinalStatus,
		&i.CompletedTime, &i.ServedTime, &i.AcceptOrRejectTime,
		&i.ActionUsername, &i.RejectionReason, &i.Updated, &i.ItemRemoval,
		&i.MergeOrderID, &i.MergeStatus, &i.MergedBy, &i.TableChangeInfo,
		&i.CreatedDate,
	)
}

type InsertOrderItemParams struct {
	OrderID            string
	ItemName           string
	Category           string
	ItemOrderID        string
	TableNumber        string
	Quantity           int32
	Price              pgtype.Numeric
	ProductDiscount    pgtype.Numeric
	Note               pgtype.Text
	Username           string
	Location           string
	Status             string
	OrderType          string
	ServedTime         pgtype.Timestamptz
	AcceptOrRejectTime pgtype.Timestamptz
	Updated            bool
}

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) error {
	const sql = `
		INSERT INTO order_items (
			order_id, item_name, category, item_order_id, table_number,
			quantity, price, product_discount, note, username, location,
			status, order_type, served_time, accept_or_reject_time, updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := q.db.Exec(ctx, sql,
		arg.OrderID, arg.ItemName, arg.Category, arg.ItemOrderID,
		arg.TableNumber, arg.Quantity, arg.Price, arg.ProductDiscount,
		arg.Note, arg.Username, arg.Location, arg.Status, arg.OrderType,
		arg.ServedTime, arg.AcceptOrRejectTime, arg.Updated,
	)
	return err
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID string) ([]OrderItem, error) {
	sql := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := q.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := scanOrderItem(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) ListOrderItemsByOrderAndItem(ctx context.Context, orderID, itemName string) ([]OrderItem, error) {
	sql := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 AND item_name = $2 ORDER BY id`
	rows, err := q.db.Query(ctx, sql, orderID, itemName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := scanOrderItem(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type OrderPlacement struct {
	Username    string
	TableNumber string
}

// GetOrderPlacement returns who placed an order and where it sits.
func (q *Queries) GetOrderPlacement(ctx context.Context, orderID string) (OrderPlacement, error) {
	const sql = `SELECT username, table_number FROM order_items WHERE order_id = $1 LIMIT 1`
	var p OrderPlacement
	err := q.db.QueryRow(ctx, sql, orderID).Scan(&p.Username, &p.TableNumber)
	return p, err
}

type AcceptStationItemsParams struct {
	OrderID        string
	Location       string
	ActionUsername string
	// IncludeAll lifts the Pending-only restriction when the client is
	// re-acknowledging an updated order.
	IncludeAll bool
}

func (q *Queries) AcceptStationItems(ctx context.Context, arg AcceptStationItemsParams) (int64, error) {
	const sql = `
		UPDATE order_items
		SET status = 'In Progress', updated = false,
			accept_or_reject_time = now(), action_username = $3
		WHERE order_id = $1 AND location = $2 AND (status = 'Pending' OR $4)
	`
	tag, err := q.db.Exec(ctx, sql, arg.OrderID, arg.Location, arg.ActionUsername, arg.IncludeAll)
	return tag.RowsAffected(), err
}

type ServeStationItemsParams struct {
	OrderID  string
	Location string
}

func (q *Queries) ServeStationItems(ctx context.Context, arg ServeStationItemsParams) (int64, error) {
	const sql = `
		UPDATE order_items
		SET status = 'Served', served_time = now()
		WHERE order_id = $1 AND location = $2 AND status = 'In Progress'
	`
	tag, err := q.db.Exec(ctx, sql, arg.OrderID, arg.Location)
	return tag.RowsAffected(), err
}

type GetOrderItemStatusParams struct {
	OrderID     string
	ItemOrderID string
	ItemName    string
}

func (q *Queries) GetOrderItemStatus(ctx context.Context, arg GetOrderItemStatusParams) (string, error) {
	const sql = `
		SELECT status FROM order_items
		WHERE order_id = $1 AND item_order_id = $2 AND item_name = $3
		LIMIT 1
	`
	var status string
	err := q.db.QueryRow(ctx, sql, arg.OrderID, arg.ItemOrderID, arg.ItemName).Scan(&status)
	return status, err
}

// ClearUpdatedFlag re-acknowledges an updated order across every row.
func (q *Queries) ClearUpdatedFlag(ctx context.Context, orderID string) error {
	_, err := q.db.Exec(ctx, `UPDATE order_items SET updated = false WHERE order_id = $1`, orderID)
	return err
}

type UpdateOrderItemStatusParams struct {
	OrderID         string
	ItemOrderID     string
	ItemName        string
	Status          string
	RejectionReason pgtype.Text
	ActionUsername  string
}

func (q *Queries) UpdateOrderItemStatus(ctx context.Context, arg UpdateOrderItemStatusParams) (int64, error) {
	const sql = `
		UPDATE order_items
		SET status = $4, rejection_reason = $5, updated = false,
			accept_or_reject_time = now(), action_username = $6
		WHERE order_id = $1 AND item_order_id = $2 AND item_name = $3
	`
	tag, err := q.db.Exec(ctx, sql,
		arg.OrderID, arg.ItemOrderID, arg.ItemName,
		arg.Status, arg.RejectionReason, arg.ActionUsername,
	)
	return tag.RowsAffected(), err
}

type ServeOrderItemParams struct {
	OrderID     string
	ItemOrderID string
}

func (q *Queries) ServeOrderItem(ctx context.Context, arg ServeOrderItemParams) (int64, error) {
	const sql = `
		UPDATE order_items
		SET status = 'Served', served_time = now()
		WHERE order_id = $1 AND item_order_id = $2 AND status = 'In Progress'
	`
	tag, err := q.db.Exec(ctx, sql, arg.OrderID, arg.ItemOrderID)
	return tag.RowsAffected(), err
}

func (q *Queries) CancelOrders(ctx context.Context, orderIDs []string) (int64, error) {
	const sql = `UPDATE order_items SET status = 'CANCELLED' WHERE order_id = ANY($1)`
	tag, err := q.db.Exec(ctx, sql, orderIDs)
	return tag.RowsAffected(), err
}

func (q *Queries) UpdateOrderItemQuantity(ctx context.Context, itemOrderID string, quantity int32) (int64, error) {
	const sql = `UPDATE order_items SET quantity = $2 WHERE item_order_id = $1`
	tag, err := q.db.Exec(ctx, sql, itemOrderID, quantity)
	return tag.RowsAffected(), err
}

func (q *Queries) DeleteOrderItem(ctx context.Context, itemOrderID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE item_order_id = $1`, itemOrderID)
	return tag.RowsAffected(), err
}

func (q *Queries) SetItemRemoval(ctx context.Context, itemOrderID string, value pgtype.Text) (int64, error) {
	const sql = `UPDATE order_items SET item_removal = $2 WHERE item_order_id = $1`
	tag, err := q.db.Exec(ctx, sql, itemOrderID, value)
	return tag.RowsAffected(), err
}

// activeCondition excludes finalized and merged-away rows from queue views.
const activeCondition = `(oi.final_status <> 'Completed' OR oi.final_status IS NULL) AND oi.merge_status IS NULL`

// ActiveCounts tallies active ledger rows by status, narrowed by the filter
// (location, username, or item_removal presence).
func (q *Queries) ActiveCounts(ctx context.Context, f *Filter) (QueueCounts, error) {
	sql := `
		SELECT
			COUNT(*) FILTER (WHERE oi.status = 'Pending'),
			COUNT(*) FILTER (WHERE oi.status = 'In Progress'),
			COUNT(*) FILTER (WHERE oi.status = 'Served'),
			COUNT(*) FILTER (WHERE oi.status = 'Rejected')
		FROM order_items oi
		WHERE ` + activeCondition + f.Clause()

	var c QueueCounts
	err := q.db.QueryRow(ctx, sql, f.Args()...).Scan(&c.Pending, &c.InProgress, &c.Served, &c.Rejected)
	return c, err
}

// ActiveItems lists active ledger rows, with the product image joined in for
// the dashboards. Category and price come from the row itself.
func (q *Queries) ActiveItems(ctx context.Context, f *Filter) ([]ActiveOrderItem, error) {
	sql := `
		SELECT oi.id, oi.order_id, oi.item_name, oi.category, oi.item_order_id,
			oi.table_number, oi.quantity, oi.price, oi.product_discount,
			oi.note, oi.username, oi.location, oi.status, oi.order_type,
			oi.final_status, oi.completed_time, oi.served_time,
			oi.accept_or_reject_time, oi.action_username, oi.rejection_reason,
			oi.updated, oi.item_removal, oi.merge_order_id, oi.merge_status,
			oi.merged_by, oi.table_change_info, oi.created_date,
			p.image
		FROM order_items oi
		LEFT JOIN products p ON p.product_name = oi.item_name
		WHERE ` + activeCondition + f.Clause() + `
		ORDER BY oi.created_date, oi.id`

	rows, err := q.db.Query(ctx, sql, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ActiveOrderItem
	for rows.Next() {
		var i ActiveOrderItem
		err := rows.Scan(
			&i.ID, &i.OrderID, &i.ItemName, &i.Category, &i.ItemOrderID,
			&i.TableNumber, &i.Quantity, &i.Price, &i.ProductDiscount,
			&i.Note, &i.Username, &i.Location, &i.Status, &i.OrderType,
			&i.FinalStatus, &i.CompletedTime, &i.ServedTime,
			&i.AcceptOrRejectTime, &i.ActionUsername, &i.RejectionReason,
			&i.Updated, &i.ItemRemoval, &i.MergeOrderID, &i.MergeStatus,
			&i.MergedBy, &i.TableChangeInfo, &i.CreatedDate,
			&i.ProductImage,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) CountDistinctOrders(ctx context.Context, orderIDs []string) (int64, error) {
	const sql = `SELECT COUNT(DISTINCT order_id) FROM order_items WHERE order_id = ANY($1)`
	var n int64
	err := q.db.QueryRow(ctx, sql, orderIDs).Scan(&n)
	return n, err
}

type InsertMergedOrderCopiesParams struct {
	NewOrderID     string
	MergeOrderID   string
	MergedBy       string
	SourceOrderIDs []string
}

// InsertMergedOrderCopies clones both source orders' rows under the merged
// order id. The sources are tombstoned separately via MarkOrdersMerged.
func (q *Queries) InsertMergedOrderCopies(ctx context.Context, arg InsertMergedOrderCopiesParams) (int64, error) {
	const sql = `
		INSERT INTO order_items (
			order_id, item_name, category, item_order_id, table_number,
			quantity, price, product_discount, note, username, location,
			status, order_type, final_status, completed_time, served_time,
			accept_or_reject_time, action_username, rejection_reason, updated,
			item_removal, merge_order_id, merged_by
		)
		SELECT $1, item_name, category, item_order_id, table_number,
			quantity, price, product_discount, note, username, location,
			status, order_type, final_status, completed_time, served_time,
			accept_or_reject_time, action_username, rejection_reason, updated,
			item_removal, $2, $3
		FROM order_items
		WHERE order_id = ANY($4)
	`
	tag, err := q.db.Exec(ctx, sql, arg.NewOrderID, arg.MergeOrderID, arg.MergedBy, arg.SourceOrderIDs)
	return tag.RowsAffected(), err
}

func (q *Queries) MarkOrdersMerged(ctx context.Context, orderIDs []string) (int64, error) {
	const sql = `UPDATE order_items SET merge_status = 'MERGED' WHERE order_id = ANY($1)`
	tag, err := q.db.Exec(ctx, sql, orderIDs)
	return tag.RowsAffected(), err
}

func (q *Queries) OrderItemExists(ctx context.Context, orderID, itemOrderID string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM order_items WHERE order_id = $1 AND item_order_id = $2)`
	var exists bool
	err := q.db.QueryRow(ctx, sql, orderID, itemOrderID).Scan(&exists)
	return exists, err
}

func (q *Queries) ClearMergeFields(ctx context.Context, orderID, itemOrderID string) error {
	const sql = `
		UPDATE order_items
		SET merge_order_id = NULL, merge_status = NULL, merged_by = NULL
		WHERE order_id = $1 AND item_order_id = $2
	`
	_, err := q.db.Exec(ctx, sql, orderID, itemOrderID)
	return err
}

func (q *Queries) DeleteOrderItemRow(ctx context.Context, orderID, itemOrderID string) error {
	const sql = `DELETE FROM order_items WHERE order_id = $1 AND item_order_id = $2`
	_, err := q.db.Exec(ctx, sql, orderID, itemOrderID)
	return err
}

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return tag.RowsAffected(), err
}

// MarkOrderSent stamps ledger rows when the order goes to the cashier.
func (q *Queries) MarkOrderSent(ctx context.Context, orderID string) (int64, error) {
	const sql = `UPDATE order_items SET final_status = 'completed', completed_time = now() WHERE order_id = $1`
	tag, err := q.db.Exec(ctx, sql, orderID)
	return tag.RowsAffected(), err
}

// MarkOrderCompleted stamps ledger rows when the sale is finalized.
func (q *Queries) MarkOrderCompleted(ctx context.Context, orderID string) (int64, error) {
	const sql = `UPDATE order_items SET final_status = 'Completed', completed_time = now() WHERE order_id = $1`
	tag, err := q.db.Exec(ctx, sql, orderID)
	return tag.RowsAffected(), err
}

type OrderTableInfo struct {
	TableNumber     string
	TableChangeInfo []string
}

func (q *Queries) GetOrderTable(ctx context.Context, orderID string) (OrderTableInfo, error) {
	const sql = `SELECT table_number, COALESCE(table_change_info, '[]'::jsonb) FROM order_items WHERE order_id = $1 LIMIT 1`
	var t OrderTableInfo
	err := q.db.QueryRow(ctx, sql, orderID).Scan(&t.TableNumber, &t.TableChangeInfo)
	return t, err
}

type UpdateOrderTableParams struct {
	OrderID         string
	TableNumber     string
	TableChangeInfo []string
}

func (q *Queries) UpdateOrderTable(ctx context.Context, arg UpdateOrderTableParams) (int64, error) {
	const sql = `UPDATE order_items SET table_number = $2, table_change_info = $3 WHERE order_id = $1`
	tag, err := q.db.Exec(ctx, sql, arg.OrderID, arg.TableNumber, arg.TableChangeInfo)
	return tag.RowsAffected(), err
}
