package comments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu        sync.Mutex
	comments  map[string]*models.Comment
	reactions map[string]models.ReactionValue // userID|commentID
	profiles  map[string]*models.Profile
	fetches   int
	deleted   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		comments:  map[string]*models.Comment{},
		reactions: map[string]models.ReactionValue{},
		profiles:  map[string]*models.Profile{},
	}
}

func (f *fakeGateway) FetchCommentsForPost(_ context.Context, postID, viewerID string) ([]models.CommentWithMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	var out []models.CommentWithMeta
	for _, c := range f.comments {
		if c.PostID == postID && !c.IsDeleted {
			out = append(out, models.CommentWithMeta{Comment: *c})
		}
	}
	return out, nil
}

func (f *fakeGateway) CreateComment(_ context.Context, actor *models.Identity, postID, body string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.Comment{ID: "c" + body, PostID: postID, AuthorID: actor.ID, Body: body, CreatedAt: time.Now()}
	f.comments[c.ID] = c
	return c, nil
}

func (f *fakeGateway) GetComment(_ context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeGateway) DeleteComment(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[id].IsDeleted = true
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGateway) GetCommentReaction(_ context.Context, userID, commentID string) (*models.ReactionValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.reactions[userID+"|"+commentID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeGateway) SetCommentReaction(_ context.Context, actor *models.Identity, commentID string, value *models.ReactionValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := actor.ID + "|" + commentID
	if value == nil {
		delete(f.reactions, k)
		return nil
	}
	f.reactions[k] = *value
	return nil
}

func (f *fakeGateway) GetProfileByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[id], nil
}

func (f *fakeGateway) reactionOf(userID, commentID string) *models.ReactionValue {
	v, _ := f.GetCommentReaction(context.Background(), userID, commentID)
	return v
}

func TestNextReaction(t *testing.T) {
	like, dislike := models.ReactionLike, models.ReactionDislike

	assert.Equal(t, &like, NextReaction(nil, like))
	assert.Nil(t, NextReaction(&like, like))
	assert.Equal(t, &dislike, NextReaction(&like, dislike))
	assert.Equal(t, &like, NextReaction(&dislike, like))
	assert.Nil(t, NextReaction(&dislike, dislike))
}

func TestReactionToggleExclusivity(t *testing.T) {
	gw := newFakeGateway()
	svc := NewService(gw, query.NewClient(query.Config{}))
	me := &models.Identity{ID: "me"}
	ctx := context.Background()
	like, dislike := models.ReactionLike, models.ReactionDislike

	steps := []struct {
		press models.ReactionValue
		want  *models.ReactionValue
	}{
		{like, &like},
		{like, nil},
		{dislike, &dislike},
		{like, &like},
		{dislike, &dislike},
		{dislike, nil},
	}
	for i, s := range steps {
		got, err := svc.React(ctx, me, "p1", "c1", s.press)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, s.want, got, "step %d", i)
		assert.Equal(t, s.want, gw.reactionOf("me", "c1"), "step %d", i)
	}

	_, err := svc.React(ctx, me, "p1", "c1", like)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, me, "p1", "c1"))
	assert.Nil(t, gw.reactionOf("me", "c1"))
}

func TestReactRejects(t *testing.T) {
	svc := NewService(newFakeGateway(), query.NewClient(query.Config{}))
	_, err := svc.React(context.Background(), nil, "p1", "c1", models.ReactionLike)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = svc.React(context.Background(), &models.Identity{ID: "me"}, "p1", "c1", models.ReactionValue(0))
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func withScore(id string, likes, dislikes int, at time.Time) models.CommentWithMeta {
	return models.CommentWithMeta{
		Comment:   models.Comment{ID: id, CreatedAt: at},
		Reactions: models.CommentReactionsSummary{LikeCount: likes, DislikeCount: dislikes},
	}
}

func ids(list []models.CommentWithMeta) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Comment.ID
	}
	return out
}

func TestSortStability(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2, t3 := t1.Add(time.Minute), t1.Add(2*time.Minute)
	list := []models.CommentWithMeta{
		withScore("a", 2, 0, t1),
		withScore("b", 3, 1, t2),
		withScore("c", 0, 0, t3),
	}

	assert.Equal(t, []string{"b", "a", "c"}, ids(Sort(list, SortTop)))
	assert.Equal(t, []string{"c", "b", "a"}, ids(Sort(list, SortNewest)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(list), "input must not be reordered")

	assert.Empty(t, Sort(nil, SortTop))
}

func TestSummarize(t *testing.T) {
	like, dislike := models.ReactionLike, models.ReactionDislike
	reactions := []models.CommentReaction{
		{UserID: "a", CommentID: "c1", Reaction: like},
		{UserID: "b", CommentID: "c1", Reaction: like},
		{UserID: "me", CommentID: "c1", Reaction: dislike},
		{UserID: "a", CommentID: "c2", Reaction: dislike},
	}

	got := Summarize([]string{"c1", "c2", "c3"}, reactions, "me")
	assert.Equal(t, 2, got["c1"].LikeCount)
	assert.Equal(t, 1, got["c1"].DislikeCount)
	require.NotNil(t, got["c1"].ViewerReaction)
	assert.Equal(t, dislike, *got["c1"].ViewerReaction)
	assert.Equal(t, 1, got["c1"].Score())
	assert.Nil(t, got["c2"].ViewerReaction)
	assert.Equal(t, models.CommentReactionsSummary{}, got["c3"])

	anon := Summarize([]string{"c1"}, reactions, "")
	assert.Nil(t, anon["c1"].ViewerReaction)
}

func TestCreateInvalidatesComments(t *testing.T) {
	gw := newFakeGateway()
	cache := query.NewClient(query.Config{StaleTime: time.Hour})
	svc := NewService(gw, cache)
	ctx := context.Background()
	me := &models.Identity{ID: "me"}

	list, err := svc.List(ctx, "p1", "me", SortNewest)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Create(ctx, me, "p1", "  hello  ")
	require.NoError(t, err)

	list, err = svc.List(ctx, "p1", "me", SortNewest)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Comment.Body)
	assert.Equal(t, 2, gw.fetches)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeGateway(), query.NewClient(query.Config{}))
	_, err := svc.Create(context.Background(), nil, "p1", "hi")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = svc.Create(context.Background(), &models.Identity{ID: "me"}, "p1", "   ")
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestDeletePermissions(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.comments["c1"] = &models.Comment{ID: "c1", PostID: "p1", AuthorID: "author"}
	gw.comments["c2"] = &models.Comment{ID: "c2", PostID: "p1", AuthorID: "author"}
	gw.profiles["admin"] = &models.Profile{ID: "admin", IsAdmin: true}
	svc := NewService(gw, query.NewClient(query.Config{}))

	assert.ErrorIs(t, svc.Delete(ctx, &models.Identity{ID: "stranger"}, "p1", "c1"), models.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, &models.Identity{ID: "author"}, "p2", "c1"), models.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, &models.Identity{ID: "author"}, "p1", "c1"))
	require.NoError(t, svc.Delete(ctx, &models.Identity{ID: "admin"}, "p1", "c2"))
	assert.Equal(t, []string{"c1", "c2"}, gw.deleted)

	assert.ErrorIs(t, svc.Delete(ctx, &models.Identity{ID: "author"}, "p1", "c1"), models.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, &models.Identity{ID: "author"}, "p1", "missing"), models.ErrNotFound)
}

func TestCanDelete(t *testing.T) {
	assert.False(t, CanDelete(nil, true, "a"))
	assert.True(t, CanDelete(&models.Identity{ID: "a"}, false, "a"))
	assert.False(t, CanDelete(&models.Identity{ID: "b"}, false, "a"))
	assert.True(t, CanDelete(&models.Identity{ID: "b"}, true, "a"))
}
