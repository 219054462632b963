package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/query"
	"github.com/anonto42/feedback-loop/backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu         sync.Mutex
	unread     int
	markAll    int
	cleared    int
	listCalls  int
	markedRead []string
}

func (f *fakeGateway) FetchMyNotifications(context.Context, string, int, int) ([]models.NotificationWithMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return []models.NotificationWithMeta{}, nil
}

func (f *fakeGateway) CountUnreadNotifications(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, nil
}

func (f *fakeGateway) MarkNotificationRead(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedRead = append(f.markedRead, id)
	if f.unread > 0 {
		f.unread--
	}
	return nil
}

func (f *fakeGateway) MarkAllNotificationsRead(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAll++
	f.unread = 0
	return nil
}

func (f *fakeGateway) ClearMyNotifications(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.unread = 0
	return nil
}

func invalidationCounter(c *query.Client) (func(query.Key) int, func()) {
	var mu sync.Mutex
	counts := map[string]int{}
	stop := c.Subscribe(func(ev query.Event) {
		if ev.Type != query.EventInvalidated {
			return
		}
		mu.Lock()
		counts[ev.Key.String()]++
		mu.Unlock()
	})
	return func(k query.Key) int {
		mu.Lock()
		defer mu.Unlock()
		return counts[k.String()]
	}, stop
}

func TestOpenMarksAllReadOnce(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{unread: 3}
	cache := query.NewClient(query.Config{StaleTime: time.Hour})
	svc := NewService(gw, cache)

	n, err := svc.UnreadCount(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	count, stop := invalidationCounter(cache)
	defer stop()

	require.NoError(t, svc.Open(ctx, "me"))
	assert.Equal(t, 1, gw.markAll)
	assert.Equal(t, 1, count(query.NotificationsPrefix("me")))
	assert.Equal(t, 1, count(query.UnreadCountKey("me")))

	n, err = svc.UnreadCount(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, svc.Open(ctx, "me"))
	assert.Equal(t, 1, gw.markAll, "nothing unread, nothing to mark")
	assert.Equal(t, 1, count(query.UnreadCountKey("me")))
}

func TestOpenRequiresUser(t *testing.T) {
	svc := NewService(&fakeGateway{}, query.NewClient(query.Config{}))
	assert.ErrorIs(t, svc.Open(context.Background(), ""), models.ErrUnauthenticated)
}

func TestMutationsRefreshBothKeys(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{unread: 2}
	cache := query.NewClient(query.Config{StaleTime: time.Hour})
	svc := NewService(gw, cache)
	count, stop := invalidationCounter(cache)
	defer stop()

	require.NoError(t, svc.MarkRead(ctx, "me", "n1"))
	require.NoError(t, svc.MarkAllRead(ctx, "me"))
	require.NoError(t, svc.ClearAll(ctx, "me"))

	assert.Equal(t, []string{"n1"}, gw.markedRead)
	assert.Equal(t, 1, gw.cleared)
	assert.Equal(t, 3, count(query.NotificationsPrefix("me")))
	assert.Equal(t, 3, count(query.UnreadCountKey("me")))
}

func TestListUsesCache(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	svc := NewService(gw, query.NewClient(query.Config{StaleTime: time.Hour}))

	_, err := svc.List(ctx, "me", 0, 0)
	require.NoError(t, err)
	_, err = svc.List(ctx, "me", DefaultLimit, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.listCalls)
}

func TestBadgeText(t *testing.T) {
	assert.Equal(t, "", BadgeText(0))
	assert.Equal(t, "7", BadgeText(7))
	assert.Equal(t, "99", BadgeText(99))
	assert.Equal(t, "99+", BadgeText(100))
}

func TestFormatText(t *testing.T) {
	name := "Bob"
	n := models.NotificationWithMeta{
		Actor: &models.AuthorSummary{Handle: "bob", DisplayName: &name},
		Post:  &models.NotificationPost{Title: "Sunset"},
	}
	assert.Equal(t, "Bob commented on Sunset", FormatText(n))

	n.Actor.DisplayName = nil
	n.Post = nil
	assert.Equal(t, "bob commented on your post", FormatText(n))

	assert.Equal(t, "Someone commented on your post", FormatText(models.NotificationWithMeta{}))
}

type fakeSub struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSub) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeFeed struct {
	mu       sync.Mutex
	subs     []*fakeSub
	filters  []realtime.Filter
	handlers []realtime.Handler
	fail     bool
}

func (f *fakeFeed) Subscribe(_ context.Context, filter realtime.Filter, h realtime.Handler) (realtime.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("listen refused")
	}
	s := &fakeSub{}
	f.subs = append(f.subs, s)
	f.filters = append(f.filters, filter)
	f.handlers = append(f.handlers, h)
	return s, nil
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeFeed) sub(i int) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i]
}

func newController(feed realtime.Feed, debounce time.Duration) (*Controller, *query.Client) {
	cache := query.NewClient(query.Config{StaleTime: time.Hour})
	return NewController(feed, NewService(&fakeGateway{}, cache), debounce), cache
}

func live(c *Controller) func() bool {
	return func() bool {
		_, ok := c.Bound()
		return ok
	}
}

func TestControllerBindIsIdempotent(t *testing.T) {
	feed := &fakeFeed{}
	c, _ := newController(feed, 0)

	c.Bind("u1")
	require.Eventually(t, live(c), time.Second, 5*time.Millisecond)
	c.Bind("u1")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, feed.count())
	assert.Equal(t, realtime.Filter{Table: "notifications", Event: realtime.EventInsert, Column: "user_id", Value: "u1"}, feed.filters[0])
}

func TestControllerSwitchesIdentity(t *testing.T) {
	feed := &fakeFeed{}
	c, _ := newController(feed, 0)

	c.Bind("u1")
	require.Eventually(t, live(c), time.Second, 5*time.Millisecond)
	c.Bind("u2")
	assert.True(t, feed.sub(0).isClosed())

	require.Eventually(t, func() bool { return feed.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, live(c), time.Second, 5*time.Millisecond)
	user, _ := c.Bound()
	assert.Equal(t, "u2", user)
	assert.Equal(t, "u2", feed.filters[1].Value)

	c.Unbind()
	assert.True(t, feed.sub(1).isClosed())
	user, ok := c.Bound()
	assert.Empty(t, user)
	assert.False(t, ok)
}

func TestControllerCancelsPendingSetup(t *testing.T) {
	feed := &fakeFeed{}
	c, _ := newController(feed, 50*time.Millisecond)

	c.Bind("u1")
	c.Unbind()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, feed.count())

	c.Bind("u1")
	c.Bind("u2")
	require.Eventually(t, func() bool { return feed.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "u2", feed.filters[0].Value)
}

func TestControllerSetupFailureDegrades(t *testing.T) {
	feed := &fakeFeed{fail: true}
	c, _ := newController(feed, 0)
	c.Bind("u1")
	time.Sleep(20 * time.Millisecond)
	user, ok := c.Bound()
	assert.Equal(t, "u1", user)
	assert.False(t, ok)
}

func TestControllerEventRefreshes(t *testing.T) {
	feed := &fakeFeed{}
	c, cache := newController(feed, 0)
	count, stop := invalidationCounter(cache)
	defer stop()

	c.Bind("u1")
	require.Eventually(t, live(c), time.Second, 5*time.Millisecond)

	feed.mu.Lock()
	h := feed.handlers[0]
	feed.mu.Unlock()
	h(realtime.Change{Type: realtime.EventInsert, Table: "notifications"})

	assert.Equal(t, 1, count(query.NotificationsPrefix("u1")))
	assert.Equal(t, 1, count(query.UnreadCountKey("u1")))
}
