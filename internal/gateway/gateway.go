package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/repositories"
	"github.com/anonto42/feedback-loop/backend/pkg/storage"
)

// Deps are the collaborators behind the gateway.
type Deps struct {
	Posts         repositories.PostRepository
	Comments      repositories.CommentRepository
	Reactions     repositories.ReactionRepository
	Medals        repositories.MedalRepository
	Notifications repositories.NotificationRepository
	Profiles      repositories.ProfileRepository
	Tags          repositories.TagRepository
	Procedures    repositories.Procedures
	Store         storage.ObjectStore
}

// Gateway turns repository rows into the app's display shapes. Joined relations are
// normalised here and nowhere else.
type Gateway struct {
	posts         repositories.PostRepository
	comments      repositories.CommentRepository
	reactions     repositories.ReactionRepository
	medals        repositories.MedalRepository
	notifications repositories.NotificationRepository
	profiles      repositories.ProfileRepository
	tags          repositories.TagRepository
	procs         repositories.Procedures
	store         storage.ObjectStore
	now           func() time.Time
}

func New(d Deps) *Gateway {
	return &Gateway{
		posts:         d.Posts,
		comments:      d.Comments,
		reactions:     d.Reactions,
		medals:        d.Medals,
		notifications: d.Notifications,
		profiles:      d.Profiles,
		tags:          d.Tags,
		procs:         d.Procedures,
		store:         d.Store,
		now:           time.Now,
	}
}

// One normalises a joined relation that may arrive as null, as a single object or as a
// one-element array. Null and empty arrays give nil; arrays give their first element.
func One[T any](raw json.RawMessage) (*T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		raw = bytes.TrimSpace(items[0])
		if bytes.Equal(raw, []byte("null")) {
			return nil, nil
		}
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func oneText[T any](s *string) (*T, error) {
	if s == nil {
		return nil, nil
	}
	return One[T](json.RawMessage(*s))
}

func listText[T any](s *string) ([]T, error) {
	out := []T{}
	if s == nil || *s == "" || *s == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(*s), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// refreshExploreScore recomputes a post's ranking. It is best effort: failures are logged only.
func (g *Gateway) refreshExploreScore(ctx context.Context, postID string) {
	if err := g.procs.UpdateExploreScore(ctx, postID); err != nil {
		log.Printf("update_explore_score(%s) failed (optional): %v", postID, err)
	}
}
