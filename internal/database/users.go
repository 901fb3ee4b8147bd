package database

import "context"

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const sql = `
		SELECT id, username, password_hash, role, is_active,
			cashier_manage, special_discount_manage, bar_manage,
			kitchen_manage, shisha_manage, manage_user_orders, order_manage
		FROM users
		WHERE username = $1
	`
	var u User
	err := q.db.QueryRow(ctx, sql, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.CashierManage, &u.SpecialDiscountManage, &u.BarManage,
		&u.KitchenManage, &u.ShishaManage, &u.ManageUserOrders, &u.OrderManage,
	)
	return u, err
}
