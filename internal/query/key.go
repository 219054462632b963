package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/models"
)

// Key identifies a cached query: an operation tag followed by its parameters.
// Every element holds the canonical JSON encoding of one part, so two keys built from
// equal parameters compare equal element by element.
type Key []string

// NewKey builds a key from an operation tag and ordered parameters.
func NewKey(op string, params ...any) Key {
	k := make(Key, 0, len(params)+1)
	k = append(k, encodePart(op))
	for _, p := range params {
		k = append(k, encodePart(p))
	}
	return k
}

func encodePart(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(fmt.Sprint(v))
	}
	return string(b)
}

// HasPrefix reports whether every element of prefix matches the leading elements of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Op returns the decoded operation tag.
func (k Key) Op() string {
	if len(k) == 0 {
		return ""
	}
	var op string
	if err := json.Unmarshal([]byte(k[0]), &op); err != nil {
		return k[0]
	}
	return op
}

// String renders the key as a JSON array.
func (k Key) String() string {
	return "[" + strings.Join(k, ",") + "]"
}

// ParseKey is the inverse of String.
func ParseKey(s string) (Key, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(s), &parts); err != nil {
		return nil, fmt.Errorf("parse query key: %w", err)
	}
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k, nil
}

const (
	OpPostsFeed       = "postsFeed"
	OpPostsByUser     = "postsByUser"
	OpPostDetail      = "postDetail"
	OpComments        = "commentsForPost"
	OpProfileByHandle = "profileByHandle"
	OpProfileByID     = "profileById"
	OpProfileStats    = "profileStats"
	OpUserMedals      = "userMedals"
	OpTags            = "tags"
	OpCurrentUser     = "currentUser"
	OpNotifications   = "myNotifications"
	OpUnreadCount     = "myNotificationsUnreadCount"
)

func FeedKey(f models.PostFilter, limit, offset int) Key {
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	return NewKey(OpPostsFeed, f.Sort, tags, f.SearchQuery, limit, offset)
}

func FeedPrefix() Key { return NewKey(OpPostsFeed) }

func PostsByUserKey(userID string, limit, offset int) Key {
	return NewKey(OpPostsByUser, userID, limit, offset)
}

func PostsByUserPrefix(userID string) Key { return NewKey(OpPostsByUser, userID) }

func PostDetailKey(postID string) Key { return NewKey(OpPostDetail, postID) }

// CommentsKey is scoped by viewer because the viewer's own reaction is part of the result.
func CommentsKey(postID, viewerID string) Key { return NewKey(OpComments, postID, viewerID) }

// CommentsPrefix matches the comments of a post for every viewer.
func CommentsPrefix(postID string) Key { return NewKey(OpComments, postID) }

func ProfileByHandleKey(handle string) Key { return NewKey(OpProfileByHandle, handle) }

func ProfileByHandlePrefix() Key { return NewKey(OpProfileByHandle) }

func ProfileByIDKey(id string) Key { return NewKey(OpProfileByID, id) }

func ProfileStatsKey(id string) Key { return NewKey(OpProfileStats, id) }

func UserMedalsKey(id string) Key { return NewKey(OpUserMedals, id) }

func TagsKey() Key { return NewKey(OpTags) }

func CurrentUserKey(userID string) Key { return NewKey(OpCurrentUser, userID) }

func NotificationsKey(userID string, limit, offset int) Key {
	return NewKey(OpNotifications, userID, limit, offset)
}

// NotificationsPrefix matches every page of a user's notification list.
func NotificationsPrefix(userID string) Key { return NewKey(OpNotifications, userID) }

func UnreadCountKey(userID string) Key { return NewKey(OpUnreadCount, userID) }
