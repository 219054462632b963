package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/repositories"
	"github.com/anonto42/feedback-loop/backend/pkg/storage"
)

type postTagRow struct {
	Tag json.RawMessage `json:"tag"`
}

func mapTags(s *string) ([]models.Tag, error) {
	rows, err := listText[postTagRow](s)
	if err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0, len(rows))
	for _, pt := range rows {
		tag, err := One[models.Tag](pt.Tag)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			continue
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func mapPostRow(row *repositories.PostRow) (models.PostFeedItem, error) {
	var item models.PostFeedItem
	author, err := oneText[models.AuthorSummary](row.Author)
	if err != nil {
		return item, fmt.Errorf("post %s author: %w", row.ID, err)
	}
	images, err := listText[models.PostImage](row.Images)
	if err != nil {
		return item, fmt.Errorf("post %s images: %w", row.ID, err)
	}
	tags, err := mapTags(row.PostTags)
	if err != nil {
		return item, fmt.Errorf("post %s tags: %w", row.ID, err)
	}

	item.Post = row.Post()
	if author != nil {
		item.Author = *author
	}
	item.Images = images
	item.Tags = tags
	item.Stats = models.PostStats{
		CommentCount:      item.Post.CommentCount,
		TotalCommentLikes: row.TotalCommentLikes,
	}
	return item, nil
}

func mapPostRows(rows []repositories.PostRow) ([]models.PostFeedItem, error) {
	items := make([]models.PostFeedItem, 0, len(rows))
	for i := range rows {
		item, err := mapPostRow(&rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// FetchPostsFeed returns one page of visible posts. With tags selected, a post matches when it
// carries any of them; when no tag or no post matches, the result is empty and the posts query
// is skipped.
func (g *Gateway) FetchPostsFeed(ctx context.Context, filter models.PostFilter, limit, offset int) ([]models.PostFeedItem, error) {
	q := repositories.FeedQuery{
		Sort:   filter.Sort,
		Search: filter.SearchQuery,
		Limit:  limit,
		Offset: offset,
	}

	if len(filter.Tags) > 0 {
		tagIDs, err := g.posts.TagIDsByNames(ctx, filter.Tags)
		if err != nil {
			return nil, fmt.Errorf("resolve tags: %w", err)
		}
		if len(tagIDs) == 0 {
			return []models.PostFeedItem{}, nil
		}
		postIDs, err := g.posts.PostIDsByTagIDs(ctx, tagIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve tagged posts: %w", err)
		}
		if len(postIDs) == 0 {
			return []models.PostFeedItem{}, nil
		}
		q.PostIDs = postIDs
	}

	rows, err := g.posts.FeedRows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch posts feed: %w", err)
	}
	return mapPostRows(rows)
}

// FetchPostsByUser returns a user's visible posts, newest first.
func (g *Gateway) FetchPostsByUser(ctx context.Context, userID string, limit, offset int) ([]models.PostFeedItem, error) {
	rows, err := g.posts.FeedRows(ctx, repositories.FeedQuery{
		Sort:     models.SortNewest,
		AuthorID: userID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch posts by user: %w", err)
	}
	return mapPostRows(rows)
}

// FetchPostDetail returns a single post. Deleted posts are reported as not found.
func (g *Gateway) FetchPostDetail(ctx context.Context, postID string) (*models.PostDetail, error) {
	row, err := g.posts.DetailRow(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", postID, err)
	}
	if row.IsDeleted {
		return nil, fmt.Errorf("post deleted: %w", models.ErrNotFound)
	}
	item, err := mapPostRow(row)
	if err != nil {
		return nil, err
	}
	return &models.PostDetail{
		Post:     item.Post,
		Author:   item.Author,
		Images:   item.Images,
		Tags:     item.Tags,
		Stats:    item.Stats,
		Comments: []models.CommentWithMeta{},
	}, nil
}

func (g *Gateway) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return g.posts.GetPostByID(ctx, postID)
}

// CreatePostWithImages inserts the post, uploads and attaches each image in order, attaches the
// tags, then refreshes the explore score. A failing step returns a StepError; the steps before it
// are not undone.
func (g *Gateway) CreatePostWithImages(ctx context.Context, actor *models.Identity, params models.CreatePostParams) (*models.CreatedPost, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}

	post := &models.Post{AuthorID: actor.ID, Title: params.Title, Body: params.Body}
	if err := g.posts.CreatePost(ctx, post); err != nil {
		return nil, &models.StepError{Step: "create post", Err: err}
	}

	urls := make([]string, 0, len(params.Files))
	for i, f := range params.Files {
		objectPath := storage.PostImagePath(actor.ID, post.ID, f.FileName)
		if err := g.store.Upload(ctx, storage.BucketPostImages, objectPath, f.Data, f.ContentType, false); err != nil {
			return nil, &models.StepError{Step: fmt.Sprintf("upload image %d", i), PostID: post.ID, Err: err}
		}
		url := g.store.PublicURL(storage.BucketPostImages, objectPath)
		img := &models.PostImage{PostID: post.ID, ImageURL: url, SortOrder: i}
		if err := g.posts.AddImage(ctx, img); err != nil {
			return nil, &models.StepError{Step: fmt.Sprintf("attach image %d", i), PostID: post.ID, Err: err}
		}
		urls = append(urls, url)
	}

	if err := g.posts.AddTags(ctx, post.ID, params.TagIDs); err != nil {
		return nil, &models.StepError{Step: "attach tags", PostID: post.ID, Err: err}
	}

	g.refreshExploreScore(ctx, post.ID)
	return &models.CreatedPost{Post: *post, ImageURLs: urls}, nil
}

func (g *Gateway) DeletePost(ctx context.Context, postID string) error {
	if err := g.posts.SoftDeletePost(ctx, postID); err != nil {
		return fmt.Errorf("delete post %s: %w", postID, err)
	}
	return nil
}

func (g *Gateway) GetTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := g.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tags: %w", err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}
