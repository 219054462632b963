package prefs

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
)

const (
	KeyExploreTags    = "explore_filters_tags"
	KeyExploreSort    = "explore_filters_sort"
	KeyWelcomeShownAt = "welcome_modal_last_shown_at"
	WelcomeCooldown   = 24 * time.Hour
	DefaultSort       = models.SortExplore
)

// LoadSavedTags returns the persisted tag selection. Anything that is not a JSON array reads
// as empty, and non-string elements are dropped.
func LoadSavedTags(ctx context.Context, s Storage) []string {
	raw, err := s.GetItem(ctx, KeyExploreTags)
	if err != nil {
		log.Printf("prefs: read %s: %v", KeyExploreTags, err)
		return []string{}
	}
	if raw == "" {
		return []string{}
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	tags := make([]string, 0, len(items))
	for _, it := range items {
		if tag, ok := it.(string); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// SaveTags persists the tag selection. Failures are logged and swallowed.
func SaveTags(ctx context.Context, s Storage, tags []string) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return
	}
	if err := s.SetItem(ctx, KeyExploreTags, string(b)); err != nil {
		log.Printf("prefs: write %s: %v", KeyExploreTags, err)
	}
}

// LoadSavedSort returns the persisted sort mode, or explore when absent or unknown.
func LoadSavedSort(ctx context.Context, s Storage) models.SortMode {
	raw, err := s.GetItem(ctx, KeyExploreSort)
	if err != nil {
		log.Printf("prefs: read %s: %v", KeyExploreSort, err)
		return DefaultSort
	}
	if mode := models.SortMode(raw); mode.Valid() {
		return mode
	}
	return DefaultSort
}

func SaveSort(ctx context.Context, s Storage, mode models.SortMode) {
	if err := s.SetItem(ctx, KeyExploreSort, string(mode)); err != nil {
		log.Printf("prefs: write %s: %v", KeyExploreSort, err)
	}
}

// ShouldShowWelcome reports whether the welcome modal is due at now: it is not due while less
// than 24h have passed since it was last shown. Missing or unreadable timestamps mean "due".
func ShouldShowWelcome(ctx context.Context, s Storage, now time.Time) bool {
	raw, err := s.GetItem(ctx, KeyWelcomeShownAt)
	if err != nil {
		log.Printf("prefs: read %s: %v", KeyWelcomeShownAt, err)
		return true
	}
	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || last <= 0 {
		return true
	}
	return now.UnixMilli()-last >= WelcomeCooldown.Milliseconds()
}

// MarkWelcomeShown records now as the last time the welcome modal was shown.
func MarkWelcomeShown(ctx context.Context, s Storage, now time.Time) {
	if err := s.SetItem(ctx, KeyWelcomeShownAt, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		log.Printf("prefs: write %s: %v", KeyWelcomeShownAt, err)
	}
}
