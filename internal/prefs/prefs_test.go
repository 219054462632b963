package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStorage struct{}

func (brokenStorage) GetItem(context.Context, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func (brokenStorage) SetItem(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestTagsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	assert.Equal(t, []string{}, LoadSavedTags(ctx, s))

	SaveTags(ctx, s, []string{"cats", "sky"})
	assert.Equal(t, []string{"cats", "sky"}, LoadSavedTags(ctx, s))

	SaveTags(ctx, s, nil)
	assert.Equal(t, []string{}, LoadSavedTags(ctx, s))
}

func TestCorruptTagsFallBackToEmpty(t *testing.T) {
	ctx := context.Background()
	tests := map[string][]string{
		`not json`:                 {},
		`{"a":1}`:                  {},
		`"cats"`:                   {},
		`null`:                     {},
		`["cats", 3, null, "sky"]`: {"cats", "sky"},
	}
	for raw, want := range tests {
		s := NewMemoryStorage()
		require.NoError(t, s.SetItem(ctx, KeyExploreTags, raw))
		assert.Equal(t, want, LoadSavedTags(ctx, s), raw)
	}
}

func TestSortRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	assert.Equal(t, models.SortExplore, LoadSavedSort(ctx, s))

	SaveSort(ctx, s, models.SortNewest)
	assert.Equal(t, models.SortNewest, LoadSavedSort(ctx, s))

	require.NoError(t, s.SetItem(ctx, KeyExploreSort, "oldest"))
	assert.Equal(t, models.SortExplore, LoadSavedSort(ctx, s))
}

func TestStorageFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	var s brokenStorage

	SaveTags(ctx, s, []string{"cats"})
	SaveSort(ctx, s, models.SortNewest)
	MarkWelcomeShown(ctx, s, time.Now())

	assert.Equal(t, []string{}, LoadSavedTags(ctx, s))
	assert.Equal(t, models.SortExplore, LoadSavedSort(ctx, s))
	assert.True(t, ShouldShowWelcome(ctx, s, time.Now()))
}

func TestWelcomeCooldown(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	shown := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, ShouldShowWelcome(ctx, s, shown))

	MarkWelcomeShown(ctx, s, shown)
	assert.False(t, ShouldShowWelcome(ctx, s, shown.Add(time.Hour)))
	assert.False(t, ShouldShowWelcome(ctx, s, shown.Add(24*time.Hour-time.Millisecond)))
	assert.True(t, ShouldShowWelcome(ctx, s, shown.Add(24*time.Hour)))
	assert.True(t, ShouldShowWelcome(ctx, s, shown.Add(48*time.Hour)))

	require.NoError(t, s.SetItem(ctx, KeyWelcomeShownAt, "garbage"))
	assert.True(t, ShouldShowWelcome(ctx, s, shown))
}
