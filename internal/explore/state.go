package explore

import (
	"context"
	"strings"
	"sync"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/prefs"
)

// PageSize is the number of posts added by each "load more".
const PageSize = 12

// View is a read-only copy of the filter state.
type View struct {
	Sort   models.SortMode `json:"sort"`
	Tags   []string        `json:"tags"`
	Search string          `json:"search"`
	Limit  int             `json:"limit"`
}

// State is the explore page's filter and pagination state. Every change of sort, tags or
// search resets the limit to one page; sort and tags are persisted on each change.
type State struct {
	storage prefs.Storage

	mu     sync.Mutex
	sort   models.SortMode
	tags   []string
	search string
	limit  int
}

// NewState restores sort and tags from storage.
func NewState(ctx context.Context, storage prefs.Storage) *State {
	return &State{
		storage: storage,
		sort:    prefs.LoadSavedSort(ctx, storage),
		tags:    prefs.LoadSavedTags(ctx, storage),
		limit:   PageSize,
	}
}

func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Sort:   s.sort,
		Tags:   append([]string{}, s.tags...),
		Search: s.search,
		Limit:  s.limit,
	}
}

// Filter returns the filter sent with feed fetches.
func (s *State) Filter() models.PostFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.PostFilter{
		Sort:        s.sort,
		Tags:        append([]string{}, s.tags...),
		SearchQuery: strings.TrimSpace(s.search),
	}
}

func (s *State) Limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

func (s *State) SetSort(ctx context.Context, mode models.SortMode) error {
	if !mode.Valid() {
		return &models.ValidationError{Field: "sort", Message: "must be newest or explore"}
	}
	s.mu.Lock()
	s.sort = mode
	s.limit = PageSize
	s.mu.Unlock()
	prefs.SaveSort(ctx, s.storage, mode)
	return nil
}

// SetTags replaces the selection. Duplicates and blank names are dropped.
func (s *State) SetTags(ctx context.Context, tags []string) {
	next := dedupe(tags)
	s.mu.Lock()
	s.tags = next
	s.limit = PageSize
	s.mu.Unlock()
	prefs.SaveTags(ctx, s.storage, next)
}

// ToggleTag adds name to the selection, or removes it when already selected.
func (s *State) ToggleTag(ctx context.Context, name string) []string {
	s.mu.Lock()
	s.tags = ToggleName(s.tags, name)
	s.limit = PageSize
	next := append([]string{}, s.tags...)
	s.mu.Unlock()
	prefs.SaveTags(ctx, s.storage, next)
	return next
}

func (s *State) SetSearch(text string) {
	s.mu.Lock()
	s.search = text
	s.limit = PageSize
	s.mu.Unlock()
}

func (s *State) ClearSearch() {
	s.SetSearch("")
}

// LoadMore grows the limit by one page and returns it.
func (s *State) LoadMore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit += PageSize
	return s.limit
}

// ToggleName returns list with name removed if present, appended otherwise.
func ToggleName(list []string, name string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, n := range list {
		if n == name {
			found = true
			continue
		}
		out = append(out, n)
	}
	if !found {
		out = append(out, name)
	}
	return out
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
