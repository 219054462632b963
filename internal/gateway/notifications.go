package gateway

import (
	"context"
	"fmt"

	"github.com/anonto42/feedback-loop/backend/internal/models"
)

// FetchMyNotifications lists a user's notifications, newest first. Without a user it is empty.
func (g *Gateway) FetchMyNotifications(ctx context.Context, userID string, limit, offset int) ([]models.NotificationWithMeta, error) {
	if userID == "" {
		return []models.NotificationWithMeta{}, nil
	}
	rows, err := g.notifications.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	out := make([]models.NotificationWithMeta, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		actor, err := oneText[models.AuthorSummary](r.Actor)
		if err != nil {
			return nil, fmt.Errorf("notification %s actor: %w", r.ID, err)
		}
		post, err := oneText[models.NotificationPost](r.Post)
		if err != nil {
			return nil, fmt.Errorf("notification %s post: %w", r.ID, err)
		}
		comment, err := oneText[models.NotificationComment](r.Comment)
		if err != nil {
			return nil, fmt.Errorf("notification %s comment: %w", r.ID, err)
		}
		out = append(out, models.NotificationWithMeta{
			Notification: r.Notification(),
			Actor:        actor,
			Post:         post,
			Comment:      comment,
		})
	}
	return out, nil
}

// CountUnreadNotifications returns the number of unread notifications. Without a user it is zero.
func (g *Gateway) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	n, err := g.notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return int(n), nil
}

func (g *Gateway) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	return g.notifications.MarkAsRead(ctx, userID, notificationID)
}

// MarkAllNotificationsRead is a no-op without a user.
func (g *Gateway) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := g.notifications.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// ClearMyNotifications deletes every notification of userID through the server-side procedure.
func (g *Gateway) ClearMyNotifications(ctx context.Context, userID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	if err := g.procs.ClearMyNotifications(ctx, userID); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
