package gateway

import (
	"context"
	"fmt"

	"github.com/anonto42/feedback-loop/backend/internal/comments"
	"github.com/anonto42/feedback-loop/backend/internal/models"
)

// medalsByUser loads the medals of each user in ids, in award order.
func (g *Gateway) medalsByUser(ctx context.Context, ids []string) (map[string][]models.Medal, error) {
	out := make(map[string][]models.Medal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := g.medals.ForUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		m, err := oneText[models.Medal](r.Medal)
		if err != nil {
			return nil, fmt.Errorf("medal for %s: %w", r.UserID, err)
		}
		if m == nil {
			continue
		}
		out[r.UserID] = append(out[r.UserID], *m)
	}
	return out, nil
}

// FetchCommentsForPost returns the visible comments of a post, oldest first, each with its
// author, the author's medals and the reaction summary for viewerID (which may be empty).
func (g *Gateway) FetchCommentsForPost(ctx context.Context, postID, viewerID string) ([]models.CommentWithMeta, error) {
	rows, err := g.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("fetch comments for %s: %w", postID, err)
	}
	if len(rows) == 0 {
		return []models.CommentWithMeta{}, nil
	}

	ids := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	authorIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		if !seen[r.AuthorID] {
			seen[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	reactions, err := g.reactions.ListForComments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch reactions: %w", err)
	}
	summaries := comments.Summarize(ids, reactions, viewerID)

	medals, err := g.medalsByUser(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch medals: %w", err)
	}

	out := make([]models.CommentWithMeta, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		author, err := oneText[models.AuthorSummary](r.Author)
		if err != nil {
			return nil, fmt.Errorf("comment %s author: %w", r.ID, err)
		}
		cm := models.CommentWithMeta{
			Comment:   r.Comment(),
			Medals:    medals[r.AuthorID],
			Reactions: summaries[r.ID],
		}
		if author != nil {
			cm.Author = *author
		}
		if cm.Medals == nil {
			cm.Medals = []models.Medal{}
		}
		out = append(out, cm)
	}
	return out, nil
}

// CreateComment adds a comment as actor and refreshes the post's explore score.
func (g *Gateway) CreateComment(ctx context.Context, actor *models.Identity, postID, body string) (*models.Comment, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	c := &models.Comment{PostID: postID, AuthorID: actor.ID, Body: body}
	if err := g.comments.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	g.refreshExploreScore(ctx, postID)
	return c, nil
}

func (g *Gateway) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	return g.comments.GetCommentByID(ctx, commentID)
}

// DeleteComment soft-deletes a comment and refreshes the post's explore score.
func (g *Gateway) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := g.comments.SoftDeleteComment(ctx, postID, commentID); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	g.refreshExploreScore(ctx, postID)
	return nil
}

// GetCommentReaction returns userID's reaction on a comment, or nil.
func (g *Gateway) GetCommentReaction(ctx context.Context, userID, commentID string) (*models.ReactionValue, error) {
	r, err := g.reactions.GetReaction(ctx, userID, commentID)
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	if r == nil {
		return nil, nil
	}
	v := r.Reaction
	return &v, nil
}

// SetCommentReaction stores value as actor's reaction. A nil value removes it.
func (g *Gateway) SetCommentReaction(ctx context.Context, actor *models.Identity, commentID string, value *models.ReactionValue) error {
	if actor == nil {
		return models.ErrUnauthenticated
	}
	if value == nil {
		if err := g.reactions.DeleteReaction(ctx, actor.ID, commentID); err != nil {
			return fmt.Errorf("clear reaction: %w", err)
		}
		return nil
	}
	if !value.Valid() {
		return &models.ValidationError{Field: "reaction", Message: "reaction must be 1 or -1"}
	}
	err := g.reactions.UpsertReaction(ctx, &models.CommentReaction{
		UserID:    actor.ID,
		CommentID: commentID,
		Reaction:  *value,
	})
	if err != nil {
		return fmt.Errorf("set reaction: %w", err)
	}
	return nil
}
