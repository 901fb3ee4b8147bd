package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type InsertCompletedSaleParams struct {
	OrderID       string
	PaymentType   string
	Subtotal      pgtype.Numeric
	Vat           pgtype.Numeric
	OrderDiscount pgtype.Numeric
	Total         pgtype.Numeric
	Delivery      pgtype.Numeric
}

// InsertCompletedSale records the finalized sale. The unique constraint on
// order_id surfaces as a 23505 when the same order is finalized twice.
func (q *Queries) InsertCompletedSale(ctx context.Context, arg InsertCompletedSaleParams) error {
	const sql = `
		INSERT INTO completed_sales (
			order_id, payment_type, subtotal, vat, order_discount, total, delivery, sale_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`
	_, err := q.db.Exec(ctx, sql,
		arg.OrderID, arg.PaymentType, arg.Subtotal, arg.Vat,
		arg.OrderDiscount, arg.Total, arg.Delivery,
	)
	return err
}

type CompletedSalesWindowParams struct {
	From time.Time
	To   time.Time
}

// CompletedSalesInWindow joins finalized sales with their ledger rows inside
// a business-day window. The filter narrows by ledger location or username.
func (q *Queries) CompletedSalesInWindow(ctx context.Context, arg CompletedSalesWindowParams, f *Filter) ([]CompletedSaleItem, error) {
	sql := `
		SELECT cs.id, cs.order_id, cs.payment_type, cs.subtotal, cs.vat,
			cs.order_discount, cs.total, cs.delivery, cs.sale_date,
			oi.item_name, oi.item_order_id, oi.quantity, oi.price,
			oi.location, oi.username, oi.table_number
		FROM completed_sales cs
		JOIN order_items oi ON oi.order_id = cs.order_id
		WHERE cs.sale_date BETWEEN $1 AND $2` + f.Clause() + `
		ORDER BY cs.sale_date, cs.order_id, oi.id`

	args := append([]any{arg.From, arg.To}, f.Args()...)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CompletedSaleItem
	for rows.Next() {
		var i CompletedSaleItem
		err := rows.Scan(
			&i.ID, &i.OrderID, &i.PaymentType, &i.Subtotal, &i.Vat,
			&i.OrderDiscount, &i.Total, &i.Delivery, &i.SaleDate,
			&i.ItemName, &i.ItemOrderID, &i.Quantity, &i.Price,
			&i.Location, &i.Username, &i.TableNumber,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
