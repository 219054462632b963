package notifications

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/realtime"
)

// Controller keeps one live subscription to new notifications for the bound user. Every
// event refreshes that user's notification queries.
type Controller struct {
	feed     realtime.Feed
	refresh  func(ctx context.Context, userID string)
	debounce time.Duration

	mu     sync.Mutex
	userID string
	gen    uint64
	cancel context.CancelFunc
	sub    realtime.Subscription
}

func NewController(feed realtime.Feed, svc *Service, debounce time.Duration) *Controller {
	return &Controller{feed: feed, refresh: svc.Refresh, debounce: debounce}
}

// Bind subscribes for userID after the debounce. Binding the bound user again does nothing;
// binding another user tears the previous subscription down first. An empty userID unbinds.
func (c *Controller) Bind(userID string) {
	c.mu.Lock()
	if userID != "" && userID == c.userID {
		c.mu.Unlock()
		return
	}
	old := c.teardownLocked()
	if userID != "" {
		ctx, cancel := context.WithCancel(context.Background())
		c.userID = userID
		c.cancel = cancel
		go c.setup(ctx, c.gen, userID)
	}
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Unbind drops the subscription, or a pending setup.
func (c *Controller) Unbind() {
	c.mu.Lock()
	old := c.teardownLocked()
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Bound returns the bound user and whether its subscription is live.
func (c *Controller) Bound() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.sub != nil
}

func (c *Controller) teardownLocked() realtime.Subscription {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	old := c.sub
	c.sub = nil
	c.userID = ""
	c.gen++
	return old
}

func (c *Controller) setup(ctx context.Context, gen uint64, userID string) {
	if c.debounce > 0 {
		t := time.NewTimer(c.debounce)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	filter := realtime.Filter{
		Table:  "notifications",
		Event:  realtime.EventInsert,
		Column: "user_id",
		Value:  userID,
	}
	sub, err := c.feed.Subscribe(ctx, filter, func(realtime.Change) {
		c.refresh(context.Background(), userID)
	})
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Notification subscription for %s failed, live updates disabled: %v", userID, err)
		}
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		sub.Close()
		return
	}
	c.sub = sub
	c.mu.Unlock()
}
