package query

import (
	"context"
	"testing"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedFilter() models.PostFilter {
	return models.PostFilter{Sort: models.SortExplore}
}

func TestKeyPrefix(t *testing.T) {
	assert.True(t, CommentsKey("p1", "u1").HasPrefix(CommentsPrefix("p1")))
	assert.False(t, CommentsKey("p10", "u1").HasPrefix(CommentsPrefix("p1")))
	assert.False(t, UnreadCountKey("u1").HasPrefix(NotificationsPrefix("u1")))
	assert.True(t, NotificationsKey("u1", 20, 0).HasPrefix(NotificationsPrefix("u1")))
	assert.True(t, FeedKey(feedFilter(), 12, 0).HasPrefix(FeedPrefix()))
	assert.False(t, FeedPrefix().HasPrefix(FeedKey(feedFilter(), 12, 0)))
}

func TestFeedKeyIsStructural(t *testing.T) {
	a := FeedKey(models.PostFilter{Sort: models.SortNewest}, 12, 0)
	b := FeedKey(models.PostFilter{Sort: models.SortNewest, Tags: []string{}}, 12, 0)
	assert.Equal(t, a.String(), b.String())

	c := FeedKey(models.PostFilter{Sort: models.SortNewest, Tags: []string{"a,b"}}, 12, 0)
	d := FeedKey(models.PostFilter{Sort: models.SortNewest, Tags: []string{"a", "b"}}, 12, 0)
	assert.NotEqual(t, c.String(), d.String())
}

func TestParseKeyRoundTrip(t *testing.T) {
	k := FeedKey(models.PostFilter{Sort: models.SortExplore, Tags: []string{"cats"}, SearchQuery: `say "hi"`}, 24, 0)
	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
	assert.Equal(t, OpPostsFeed, parsed.Op())

	_, err = ParseKey("not json")
	assert.Error(t, err)
}

type fakeBus struct {
	published []Key
	remote    chan Key
}

func (b *fakeBus) Publish(ctx context.Context, prefix Key) error {
	b.published = append(b.published, prefix)
	return nil
}

func (b *fakeBus) Listen(ctx context.Context, fn func(Key)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case k := <-b.remote:
			fn(k)
		}
	}
}

func TestBridgeForwardsLocalAndAppliesRemote(t *testing.T) {
	c := newTestClient()
	bus := &fakeBus{remote: make(chan Key)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = Bridge(ctx, c, bus)
		close(done)
	}()

	c.Set(TagsKey(), 1)
	bus.remote <- TagsKey()
	bus.remote <- TagsKey() // second send waits until the first was applied

	s, _ := c.Get(TagsKey())
	assert.True(t, s.Stale)

	// Bridge subscribed before Listen started, so this local invalidation is published.
	c.Invalidate(context.Background(), PostDetailKey("p1"))
	cancel()
	<-done

	require.NotEmpty(t, bus.published)
	assert.Equal(t, PostDetailKey("p1"), bus.published[len(bus.published)-1])
	for _, k := range bus.published {
		assert.NotEqual(t, TagsKey(), k, "remote invalidations must not be republished")
	}
}
