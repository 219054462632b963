package comments

import (
	"sort"

	"github.com/anonto42/feedback-loop/backend/internal/models"
)

// SortMode orders a comment list for display.
type SortMode string

const (
	SortTop    SortMode = "top"
	SortNewest SortMode = "newest"
)

func (m SortMode) Valid() bool {
	return m == SortTop || m == SortNewest
}

// Summarize folds raw reactions into per-comment counts, including the viewer's own choice.
// Every id in commentIDs gets an entry, even when nobody reacted.
func Summarize(commentIDs []string, reactions []models.CommentReaction, viewerID string) map[string]models.CommentReactionsSummary {
	out := make(map[string]models.CommentReactionsSummary, len(commentIDs))
	for _, id := range commentIDs {
		out[id] = models.CommentReactionsSummary{}
	}
	for _, r := range reactions {
		s := out[r.CommentID]
		switch r.Reaction {
		case models.ReactionLike:
			s.LikeCount++
		case models.ReactionDislike:
			s.DislikeCount++
		}
		if viewerID != "" && r.UserID == viewerID {
			v := r.Reaction
			s.ViewerReaction = &v
		}
		out[r.CommentID] = s
	}
	return out
}

// NextReaction is the stored reaction after the viewer presses desired. Pressing the active
// reaction again removes it (nil); anything else replaces it.
func NextReaction(existing *models.ReactionValue, desired models.ReactionValue) *models.ReactionValue {
	if existing != nil && *existing == desired {
		return nil
	}
	v := desired
	return &v
}

// Sort returns a sorted copy of list. Top orders by likes minus dislikes, newest first on ties.
// Newest orders by creation time only. Unknown modes behave like top.
func Sort(list []models.CommentWithMeta, mode SortMode) []models.CommentWithMeta {
	out := make([]models.CommentWithMeta, len(list))
	copy(out, list)

	newer := func(i, j int) bool {
		return out[i].Comment.CreatedAt.After(out[j].Comment.CreatedAt)
	}
	if mode == SortNewest {
		sort.SliceStable(out, newer)
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Reactions.Score(), out[j].Reactions.Score()
		if si != sj {
			return si > sj
		}
		return newer(i, j)
	})
	return out
}

// CanDelete reports whether actor may delete content written by authorID.
func CanDelete(actor *models.Identity, isAdmin bool, authorID string) bool {
	if actor == nil {
		return false
	}
	return actor.ID == authorID || isAdmin
}
