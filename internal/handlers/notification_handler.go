package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/notifications"
	"github.com/anonto42/feedback-loop/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *notifications.Service
	heartbeat     time.Duration
}

// NewNotificationHandler creates a new NotificationHandler. heartbeat is the keep-alive interval
// of the event stream.
func NewNotificationHandler(service *notifications.Service, heartbeat time.Duration) *NotificationHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &NotificationHandler{notifications: service, heartbeat: heartbeat}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.GET("/notifications/stream", h.Stream)
	g.POST("/notifications/open", h.Open)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.DELETE("/notifications", h.ClearAll)
}

// NotificationView is a notification with its rendered text
type NotificationView struct {
	models.NotificationWithMeta
	Text string `json:"text"`
}

func views(list []models.NotificationWithMeta) []NotificationView {
	out := make([]NotificationView, len(list))
	for i, n := range list {
		out[i] = NotificationView{NotificationWithMeta: n, Text: notifications.FormatText(n)}
	}
	return out
}

func unreadPayload(n int) echo.Map {
	return echo.Map{"count": n, "badge": notifications.BadgeText(n)}
}

// GetNotifications returns one page of the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return httpError(models.ErrUnauthenticated)
	}
	limit := intQuery(c, "limit", notifications.DefaultLimit)
	if limit < 1 || limit > 100 {
		limit = notifications.DefaultLimit
	}
	offset := intQuery(c, "offset", 0)

	list, err := h.notifications.List(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": views(list),
		},
		"meta": echo.Map{
			"limit":       limit,
			"offset":      offset,
			"hasNextPage": len(list) >= limit,
		},
	})
}

// GetUnreadCount returns the unread notification count and its badge label
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return httpError(models.ErrUnauthenticated)
	}
	n, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, unreadPayload(n))
}

// Open marks everything read when the notification dropdown opens
func (h *NotificationHandler) Open(c echo.Context) error {
	if err := h.notifications.Open(c.Request().Context(), middleware.UserID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAsRead marks a single notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	if err := h.notifications.MarkRead(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context(), middleware.UserID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearAll deletes all of the caller's notifications
func (h *NotificationHandler) ClearAll(c echo.Context) error {
	if err := h.notifications.ClearAll(c.Request().Context(), middleware.UserID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type streamEvent struct {
	name string
	data any
}

// Stream pushes the dropdown page and the unread count as server-sent events whenever they
// change. The stream ends when the client goes away or the session ends.
func (h *NotificationHandler) Stream(c echo.Context) error {
	s := middleware.Session(c)
	userID := middleware.UserID(c)
	if s == nil || userID == "" {
		return httpError(models.ErrUnauthenticated)
	}
	ctx := c.Request().Context()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	events := make(chan streamEvent, 16)
	push := func(ev streamEvent) {
		select {
		case events <- ev:
		default:
			// A slow client misses intermediate snapshots; the next change resends both.
		}
	}

	ended := make(chan struct{})
	var once sync.Once
	unsubscribe := s.Subscribe(func(ev session.Event) {
		if ev.Type != session.EventSignedIn {
			once.Do(func() { close(ended) })
		}
	})
	defer unsubscribe()

	stop := h.notifications.Watch(ctx, userID, notifications.BellLimit,
		func(list []models.NotificationWithMeta) { push(streamEvent{"notifications", views(list)}) },
		func(n int) { push(streamEvent{"unread_count", unreadPayload(n)}) })
	defer stop()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ended:
			return writeEvent(w, streamEvent{"end", echo.Map{"reason": "session ended"}})
		case ev := <-events:
			if err := writeEvent(w, ev); err != nil {
				return nil
			}
		case <-ticker.C:
			s.Touch(time.Now())
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeEvent(w *echo.Response, ev streamEvent) error {
	b, err := json.Marshal(ev.data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, b); err != nil {
		return err
	}
	w.Flush()
	return nil
}
