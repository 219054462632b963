package explore

import (
	"context"
	"fmt"
	"testing"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateRestoresPersistedFilters(t *testing.T) {
	ctx := context.Background()
	storage := prefs.NewMemoryStorage()
	prefs.SaveSort(ctx, storage, models.SortNewest)
	prefs.SaveTags(ctx, storage, []string{"cats"})

	st := NewState(ctx, storage)
	v := st.View()
	assert.Equal(t, models.SortNewest, v.Sort)
	assert.Equal(t, []string{"cats"}, v.Tags)
	assert.Equal(t, PageSize, v.Limit)
}

func TestFilterChangesResetLimit(t *testing.T) {
	ctx := context.Background()
	mutations := map[string]func(*State){
		"sort":         func(s *State) { require.NoError(t, s.SetSort(ctx, models.SortNewest)) },
		"tags":         func(s *State) { s.SetTags(ctx, []string{"sky"}) },
		"toggle":       func(s *State) { s.ToggleTag(ctx, "sky") },
		"search":       func(s *State) { s.SetSearch("sunset") },
		"clear search": func(s *State) { s.ClearSearch() },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			st := NewState(ctx, prefs.NewMemoryStorage())
			st.LoadMore()
			st.LoadMore()
			assert.Equal(t, 3*PageSize, st.Limit())

			mutate(st)
			assert.Equal(t, PageSize, st.Limit())
		})
	}
}

func TestLoadMoreAddsOnePage(t *testing.T) {
	st := NewState(context.Background(), prefs.NewMemoryStorage())
	assert.Equal(t, 24, st.LoadMore())
	assert.Equal(t, 36, st.LoadMore())
}

func TestSortAndTagsArePersisted(t *testing.T) {
	ctx := context.Background()
	storage := prefs.NewMemoryStorage()
	st := NewState(ctx, storage)

	require.NoError(t, st.SetSort(ctx, models.SortNewest))
	st.ToggleTag(ctx, "cats")
	st.ToggleTag(ctx, "sky")
	st.ToggleTag(ctx, "cats")
	st.SetSearch("not persisted")

	restored := NewState(ctx, storage)
	assert.Equal(t, models.SortNewest, restored.View().Sort)
	assert.Equal(t, []string{"sky"}, restored.View().Tags)
	assert.Equal(t, "", restored.View().Search)
}

func TestSetSortRejectsUnknownMode(t *testing.T) {
	st := NewState(context.Background(), prefs.NewMemoryStorage())
	st.LoadMore()

	var verr *models.ValidationError
	assert.ErrorAs(t, st.SetSort(context.Background(), "oldest"), &verr)
	assert.Equal(t, models.SortExplore, st.View().Sort)
	assert.Equal(t, 2*PageSize, st.Limit())
}

func TestFilterTrimsSearch(t *testing.T) {
	st := NewState(context.Background(), prefs.NewMemoryStorage())
	st.SetTags(context.Background(), []string{"a", "a", " ", "b"})
	st.SetSearch("  cat  ")

	f := st.Filter()
	assert.Equal(t, "cat", f.SearchQuery)
	assert.Equal(t, []string{"a", "b"}, f.Tags)
}

func TestPartitionTags(t *testing.T) {
	var all []models.Tag
	for i := 1; i <= 14; i++ {
		all = append(all, models.Tag{ID: int64(i), Name: fmt.Sprintf("tag%02d", i)})
	}
	all = append(all, models.Tag{ID: 15, Name: "Sunset"})

	list := PartitionTags(all, []string{"tag03", "Sunset"}, "", false)
	assert.Equal(t, []string{"tag03", "Sunset"}, list.Selected)
	assert.Len(t, list.Unselected, CollapsedCount)
	assert.True(t, list.ShowExpand)
	assert.NotContains(t, list.Unselected, "tag03")

	expanded := PartitionTags(all, []string{"tag03", "Sunset"}, "", true)
	assert.Len(t, expanded.Unselected, 13)

	searched := PartitionTags(all, nil, "SUN", false)
	assert.Equal(t, []string{"Sunset"}, searched.Unselected)
	assert.False(t, searched.ShowExpand)
	assert.Equal(t, []string{}, searched.Selected)
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(12, 12))
	assert.False(t, HasMore(11, 12))
}
