package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hausmate/hausmate-core/internal/data/pgxutil"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
	"github.com/hausmate/hausmate-core/internal/notify"
)

const notificationColumns = `
	id, user_id, title, description, kind, read, created_at`

// ErrNotificationNotFound is returned when a notification does not exist.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepo persists notifications to PostgreSQL so the portal inbox
// can render them. It doubles as a notify.Sink: the dispatcher writes each
// rendered message here alongside any push sinks.
type NotificationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ notify.Sink = (*NotificationRepo)(nil)

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewNotificationRepoWithTimeProvider creates a new NotificationRepo with a
// custom time provider.
func NewNotificationRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *NotificationRepo {
	return &NotificationRepo{DB: db, timeProvider: tp}
}

// Send implements notify.Sink by inserting an unread notification row.
func (r *NotificationRepo) Send(ctx context.Context, msg notify.Message) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, description, kind, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		uuid.NewString(), msg.UserID, msg.Title, msg.Description, msg.Kind,
		r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("insert notification: %w", err))
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var notifications []*model.Notification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		notifications, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Notification])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read. Returns ErrNotificationNotFound when
// the id does not belong to the user.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
