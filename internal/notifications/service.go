package notifications

import (
	"context"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/query"
)

const (
	DefaultLimit = 30
	// BellLimit is the page size of the notification dropdown.
	BellLimit = 20
)

// Gateway is the subset of the data gateway used for notifications.
type Gateway interface {
	FetchMyNotifications(ctx context.Context, userID string, limit, offset int) ([]models.NotificationWithMeta, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	ClearMyNotifications(ctx context.Context, userID string) error
}

type Service struct {
	gw    Gateway
	cache *query.Client
}

func NewService(gw Gateway, cache *query.Client) *Service {
	return &Service{gw: gw, cache: cache}
}

func (s *Service) listFetcher(userID string, limit, offset int) func(context.Context) ([]models.NotificationWithMeta, error) {
	return func(ctx context.Context) ([]models.NotificationWithMeta, error) {
		return s.gw.FetchMyNotifications(ctx, userID, limit, offset)
	}
}

func (s *Service) countFetcher(userID string) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		return s.gw.CountUnreadNotifications(ctx, userID)
	}
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]models.NotificationWithMeta, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return query.Fetch(ctx, s.cache, query.NotificationsKey(userID, limit, offset), s.listFetcher(userID, limit, offset))
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return query.Fetch(ctx, s.cache, query.UnreadCountKey(userID), s.countFetcher(userID))
}

// Open is called when the notification dropdown opens. With unread notifications it marks them
// all read and refreshes the list and the count once each.
func (s *Service) Open(ctx context.Context, userID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	n, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := s.gw.MarkAllNotificationsRead(ctx, userID); err != nil {
		return err
	}
	s.Refresh(ctx, userID)
	return nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.gw.MarkNotificationRead(ctx, userID, notificationID); err != nil {
		return err
	}
	s.Refresh(ctx, userID)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.gw.MarkAllNotificationsRead(ctx, userID); err != nil {
		return err
	}
	s.Refresh(ctx, userID)
	return nil
}

// ClearAll deletes every notification of the user in one server-side operation.
func (s *Service) ClearAll(ctx context.Context, userID string) error {
	if err := s.gw.ClearMyNotifications(ctx, userID); err != nil {
		return err
	}
	s.Refresh(ctx, userID)
	return nil
}

// Refresh invalidates the user's notification pages and unread count.
func (s *Service) Refresh(ctx context.Context, userID string) {
	s.cache.Invalidate(ctx, query.NotificationsPrefix(userID))
	s.cache.Invalidate(ctx, query.UnreadCountKey(userID))
}

// Watch mounts observers on the first page and the unread count. Both are called with every
// successful value until the returned function is called.
func (s *Service) Watch(ctx context.Context, userID string, limit int, onList func([]models.NotificationWithMeta), onCount func(int)) func() {
	if limit <= 0 {
		limit = BellLimit
	}
	stopList := s.cache.Watch(ctx, query.NotificationsKey(userID, limit, 0),
		func(ctx context.Context) (any, error) { return s.listFetcher(userID, limit, 0)(ctx) },
		func(snap query.Snapshot) {
			if list, ok := snap.Value.([]models.NotificationWithMeta); ok && snap.Err == nil {
				onList(list)
			}
		})
	stopCount := s.cache.Watch(ctx, query.UnreadCountKey(userID),
		func(ctx context.Context) (any, error) { return s.countFetcher(userID)(ctx) },
		func(snap query.Snapshot) {
			if n, ok := snap.Value.(int); ok && snap.Err == nil {
				onCount(n)
			}
		})
	return func() {
		stopList()
		stopCount()
	}
}
