package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/repositories"
)

type fakePosts struct {
	tagIDs       []int64
	postIDs      []string
	rows         []repositories.PostRow
	feedCalls    []repositories.FeedQuery
	created      []*models.Post
	images       []*models.PostImage
	tags         map[string][]int64
	failAddImage bool
}

func (f *fakePosts) FeedRows(_ context.Context, q repositories.FeedQuery) ([]repositories.PostRow, error) {
	f.feedCalls = append(f.feedCalls, q)
	return f.rows, nil
}

func (f *fakePosts) DetailRow(_ context.Context, id string) (*repositories.PostRow, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakePosts) TagIDsByNames(context.Context, []string) ([]int64, error) { return f.tagIDs, nil }
func (f *fakePosts) PostIDsByTagIDs(context.Context, []int64) ([]string, error) {
	return f.postIDs, nil
}
func (f *fakePosts) GetPostByID(context.Context, string) (*models.Post, error) {
	return nil, models.ErrNotFound
}

func (f *fakePosts) CreatePost(_ context.Context, p *models.Post) error {
	p.ID = fmt.Sprintf("post-%d", len(f.created)+1)
	f.created = append(f.created, p)
	return nil
}

func (f *fakePosts) AddImage(_ context.Context, img *models.PostImage) error {
	if f.failAddImage {
		return errors.New("insert failed")
	}
	f.images = append(f.images, img)
	return nil
}

func (f *fakePosts) AddTags(_ context.Context, postID string, ids []int64) error {
	if f.tags == nil {
		f.tags = map[string][]int64{}
	}
	f.tags[postID] = ids
	return nil
}

func (f *fakePosts) SoftDeletePost(context.Context, string) error          { return nil }
func (f *fakePosts) CountByAuthor(context.Context, string) (int64, error) { return 3, nil }

type fakeComments struct {
	rows []repositories.CommentRow
}

func (f *fakeComments) CreateComment(_ context.Context, c *models.Comment) error {
	c.ID = "c-new"
	return nil
}
func (f *fakeComments) GetCommentByID(context.Context, string) (*models.Comment, error) {
	return nil, models.ErrNotFound
}
func (f *fakeComments) ListByPost(context.Context, string) ([]repositories.CommentRow, error) {
	return f.rows, nil
}
func (f *fakeComments) SoftDeleteComment(context.Context, string, string) error { return nil }
func (f *fakeComments) CountByAuthor(context.Context, string) (int64, error)    { return 5, nil }

type fakeReactions struct {
	list     []models.CommentReaction
	upserted []*models.CommentReaction
	deleted  []string
}

func (f *fakeReactions) ListForComments(context.Context, []string) ([]models.CommentReaction, error) {
	return f.list, nil
}
func (f *fakeReactions) GetReaction(_ context.Context, userID, commentID string) (*models.CommentReaction, error) {
	for i := range f.list {
		if f.list[i].UserID == userID && f.list[i].CommentID == commentID {
			return &f.list[i], nil
		}
	}
	return nil, nil
}
func (f *fakeReactions) UpsertReaction(_ context.Context, r *models.CommentReaction) error {
	f.upserted = append(f.upserted, r)
	return nil
}
func (f *fakeReactions) DeleteReaction(_ context.Context, _ string, commentID string) error {
	f.deleted = append(f.deleted, commentID)
	return nil
}
func (f *fakeReactions) CountLikesReceived(context.Context, string) (int64, error) { return 7, nil }

type fakeMedals struct {
	rows []repositories.UserMedalRow
}

func (f *fakeMedals) ForUsers(context.Context, []string) ([]repositories.UserMedalRow, error) {
	return f.rows, nil
}

type fakeNotifications struct {
	rows []repositories.NotificationRow
}

func (f *fakeNotifications) ListForUser(context.Context, string, int, int) ([]repositories.NotificationRow, error) {
	return f.rows, nil
}
func (f *fakeNotifications) GetUnreadCount(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeNotifications) MarkAsRead(context.Context, string, string) error      { return nil }
func (f *fakeNotifications) MarkAllAsRead(context.Context, string) error           { return nil }

type fakeProcedures struct {
	mu     sync.Mutex
	scored []string
	fail   bool
}

func (f *fakeProcedures) UpdateExploreScore(_ context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scored = append(f.scored, postID)
	if f.fail {
		return errors.New("function missing")
	}
	return nil
}
func (f *fakeProcedures) ClearMyNotifications(context.Context, string) error { return nil }

type fakeStore struct {
	uploads []string
	upserts []bool
	failAt  int
}

func (f *fakeStore) Upload(_ context.Context, bucket, objectPath string, _ []byte, _ string, upsert bool) error {
	if f.failAt > 0 && len(f.uploads)+1 == f.failAt {
		return errors.New("storage down")
	}
	f.uploads = append(f.uploads, bucket+"/"+objectPath)
	f.upserts = append(f.upserts, upsert)
	return nil
}

func (f *fakeStore) PublicURL(bucket, objectPath string) string {
	return "https://cdn.test/" + bucket + "/" + objectPath
}

type fixture struct {
	gw        *Gateway
	posts     *fakePosts
	comments  *fakeComments
	reactions *fakeReactions
	medals    *fakeMedals
	notifs    *fakeNotifications
	procs     *fakeProcedures
	store     *fakeStore
}

func newFixture() *fixture {
	f := &fixture{
		posts:     &fakePosts{},
		comments:  &fakeComments{},
		reactions: &fakeReactions{},
		medals:    &fakeMedals{},
		notifs:    &fakeNotifications{},
		procs:     &fakeProcedures{},
		store:     &fakeStore{},
	}
	f.gw = New(Deps{
		Posts:         f.posts,
		Comments:      f.comments,
		Reactions:     f.reactions,
		Medals:        f.medals,
		Notifications: f.notifs,
		Procedures:    f.procs,
		Store:         f.store,
	})
	return f
}

func strptr(s string) *string { return &s }
