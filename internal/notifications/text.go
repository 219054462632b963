package notifications

import (
	"strconv"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/models"
)

// BadgeText is the unread badge label: empty for none, "99+" above 99.
func BadgeText(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > 99:
		return "99+"
	}
	return strconv.Itoa(unread)
}

// ActorName prefers the display name, then the handle.
func ActorName(a *models.AuthorSummary) string {
	if a == nil {
		return "Someone"
	}
	if a.DisplayName != nil && strings.TrimSpace(*a.DisplayName) != "" {
		return *a.DisplayName
	}
	if a.Handle != "" {
		return a.Handle
	}
	return "Someone"
}

// FormatText renders a notification as a single line.
func FormatText(n models.NotificationWithMeta) string {
	title := "your post"
	if n.Post != nil && n.Post.Title != "" {
		title = n.Post.Title
	}
	return ActorName(n.Actor) + " commented on " + title
}
