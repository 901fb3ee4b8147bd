package database

import "context"

func (q *Queries) listStrings(ctx context.Context, sql string) ([]string, error) {
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) ListRejectionReasons(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, `SELECT reason FROM rejection_reasons ORDER BY reason`)
}

func (q *Queries) ListSpecialDiscountReasons(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, `SELECT reason FROM special_discount_reasons ORDER BY reason`)
}

func (q *Queries) ListPaymentMethods(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, `SELECT method FROM payment_methods ORDER BY method`)
}
