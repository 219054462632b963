package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRow is a post with its joined relations rendered as JSON text.
type PostRow struct {
	ID                string
	AuthorID          string
	Title             string
	Body              *string
	ExploreScore      *float64
	IsDeleted         bool
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	CommentCount      *int
	TotalCommentLikes int
	Author            *string
	Images            *string
	PostTags          *string
}

// Post returns the plain post columns.
func (r *PostRow) Post() models.Post {
	p := models.Post{
		ID:           r.ID,
		AuthorID:     r.AuthorID,
		Title:        r.Title,
		Body:         r.Body,
		ExploreScore: r.ExploreScore,
		IsDeleted:    r.IsDeleted,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.CommentCount != nil {
		p.CommentCount = *r.CommentCount
	}
	return p
}

// FeedQuery selects a page of posts. A nil PostIDs means no id restriction.
type FeedQuery struct {
	Sort     models.SortMode
	Search   string
	PostIDs  []string
	AuthorID string
	Limit    int
	Offset   int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	FeedRows(ctx context.Context, q FeedQuery) ([]PostRow, error)
	DetailRow(ctx context.Context, id string) (*PostRow, error)
	TagIDsByNames(ctx context.Context, names []string) ([]int64, error)
	PostIDsByTagIDs(ctx context.Context, tagIDs []int64) ([]string, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	AddImage(ctx context.Context, image *models.PostImage) error
	AddTags(ctx context.Context, postID string, tagIDs []int64) error
	SoftDeletePost(ctx context.Context, id string) error
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}

type postgresPostRepository struct {
	db *gorm.DB
}

func NewPostgresPostRepository(db *gorm.DB) PostRepository {
	return &postgresPostRepository{db: db}
}

const postColumns = `p.id, p.author_id, p.title, p.body, p.explore_score, p.is_deleted,
	p.created_at, p.updated_at, p.comment_count,
	(SELECT count(*) FROM comment_reactions cr JOIN comments c ON c.id = cr.comment_id
		WHERE c.post_id = p.id AND c.is_deleted = false AND cr.reaction = 1) AS total_comment_likes,
	(SELECT COALESCE(json_agg(i ORDER BY i.sort_order), '[]'::json)::text
		FROM post_images i WHERE i.post_id = p.id) AS images,
	(SELECT COALESCE(json_agg(json_build_object('tag', row_to_json(t)) ORDER BY t.name), '[]'::json)::text
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id) AS post_tags`

const feedAuthorColumn = `(SELECT row_to_json(a)::text FROM
	(SELECT pr.id, pr.handle, pr.display_name, pr.avatar_url FROM profiles pr WHERE pr.id = p.author_id) a) AS author`

const detailAuthorColumn = `(SELECT row_to_json(a)::text FROM
	(SELECT pr.id, pr.handle, pr.display_name, pr.avatar_url, pr.bio FROM profiles pr WHERE pr.id = p.author_id) a) AS author`

// EscapeLike escapes LIKE wildcards so user text matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *postgresPostRepository) FeedRows(ctx context.Context, q FeedQuery) ([]PostRow, error) {
	tx := r.db.WithContext(ctx).
		Table("posts AS p").
		Select(postColumns+",\n"+feedAuthorColumn).
		Where("p.is_deleted = ?", false)

	if q.AuthorID != "" {
		tx = tx.Where("p.author_id = ?", q.AuthorID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + EscapeLike(search) + "%"
		tx = tx.Where(`(p.title ILIKE ? ESCAPE '\' OR p.body ILIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if q.PostIDs != nil {
		tx = tx.Where("p.id IN ?", q.PostIDs)
	}
	if q.Sort == models.SortNewest {
		tx = tx.Order("p.created_at DESC")
	} else {
		tx = tx.Order("p.explore_score DESC NULLS LAST").Order("p.created_at DESC")
	}

	var rows []PostRow
	if err := tx.Limit(q.Limit).Offset(q.Offset).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *postgresPostRepository) DetailRow(ctx context.Context, id string) (*PostRow, error) {
	var rows []PostRow
	err := r.db.WithContext(ctx).
		Table("posts AS p").
		Select(postColumns+",\n"+detailAuthorColumn).
		Where("p.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.ErrNotFound
	}
	return &rows[0], nil
}

func (r *postgresPostRepository) TagIDsByNames(ctx context.Context, names []string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("name IN ?", names).Pluck("id", &ids).Error
	return ids, err
}

func (r *postgresPostRepository) PostIDsByTagIDs(ctx context.Context, tagIDs []int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.PostTag{}).
		Distinct("post_id").
		Where("tag_id IN ?", tagIDs).
		Pluck("post_id", &ids).Error
	return ids, err
}

func (r *postgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(post).Error
}

func (r *postgresPostRepository) AddImage(ctx context.Context, image *models.PostImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *postgresPostRepository) AddTags(ctx context.Context, postID string, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]models.PostTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, models.PostTag{PostID: postID, TagID: id})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *postgresPostRepository) SoftDeletePost(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *postgresPostRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ? AND is_deleted = false", authorID).
		Count(&count).Error
	return count, err
}
