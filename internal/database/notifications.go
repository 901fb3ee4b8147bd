package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type InsertNotificationParams struct {
	ID       uuid.UUID
	Username pgtype.Text // NULL broadcasts to everyone on the location channel
	Location string
	Message  string
}

func (q *Queries) InsertNotification(ctx context.Context, arg InsertNotificationParams) error {
	const sql = `
		INSERT INTO notifications (id, username, location, message)
		VALUES ($1, $2, $3, $4)
	`
	_, err := q.db.Exec(ctx, sql, arg.ID, arg.Username, arg.Location, arg.Message)
	return err
}

type UnreadNotificationsParams struct {
	// Channels the caller's module flags grant, matched against broadcast
	// rows (username IS NULL).
	Channels []string
	// Username set when the caller manages their own orders; matches rows
	// targeted at them on the order channel.
	Username pgtype.Text
}

func (q *Queries) UnreadNotifications(ctx context.Context, arg UnreadNotificationsParams) ([]Notification, error) {
	const sql = `
		SELECT sid, id, username, location, message, is_read, created_at
		FROM notifications
		WHERE is_read = false
			AND (
				(location = ANY($1) AND username IS NULL)
				OR ($2::text IS NOT NULL AND location = 'order' AND username = $2)
			)
		ORDER BY created_at DESC
	`
	rows, err := q.db.Query(ctx, sql, arg.Channels, arg.Username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.Sid, &n.ID, &n.Username, &n.Location, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (q *Queries) MarkNotificationRead(ctx context.Context, sid int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE sid = $1`, sid)
	return tag.RowsAffected(), err
}

func (q *Queries) MarkNotificationsRead(ctx context.Context, sids []int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE sid = ANY($1)`, sids)
	return tag.RowsAffected(), err
}
