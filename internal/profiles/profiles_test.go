package profiles

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func medal(id int64) models.Medal {
	return models.Medal{ID: id, Code: "m", Name: "Medal"}
}

func TestGroupMedals(t *testing.T) {
	assert.Empty(t, GroupMedals(nil))

	got := GroupMedals([]models.Medal{medal(3), medal(1), medal(3), medal(2), medal(3), medal(1)})
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].Medal.ID)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, int64(1), got[1].Medal.ID)
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, int64(2), got[2].Medal.ID)
	assert.Equal(t, 1, got[2].Count)

	// Grouping a list without repeats changes nothing but adds counts of one.
	var distinct []models.Medal
	for _, g := range got {
		distinct = append(distinct, g.Medal)
	}
	again := GroupMedals(distinct)
	require.Len(t, again, 3)
	for i := range again {
		assert.Equal(t, got[i].Medal, again[i].Medal)
		assert.Equal(t, 1, again[i].Count)
	}
}

func TestParseSocialLink(t *testing.T) {
	tests := []struct {
		raw      string
		platform string
		display  string
		url      string
	}{
		{"https://instagram.com/ann", "instagram", "@ann", "https://instagram.com/ann"},
		{"  www.instagram.com/ann/  ", "instagram", "@ann", "https://www.instagram.com/ann/"},
		{"x.com/bob", "twitter", "@bob", "https://x.com/bob"},
		{"https://twitter.com", "twitter", "twitter.com", "https://twitter.com/"},
		{"https://www.youtube.com/channelname", "youtube", "channelname", "https://www.youtube.com/channelname"},
		{"discord.gg/abcd", "discord", "abcd", "https://discord.gg/abcd"},
		{"pinterest.co.uk/pins", "pinterest", "@pins", "https://pinterest.co.uk/pins"},
		{"https://netflix.com/me", "other", "https://netflix.com/me", "https://netflix.com/me"},
		{"https://example.com/a/very/long/path/that/goes/on", "other", "https://example.com/a/very/lon..", "https://example.com/a/very/long/path/that/goes/on"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseSocialLink(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.platform, got.Platform)
			assert.Equal(t, tt.display, got.DisplayText)
			assert.Equal(t, tt.url, got.URL)
		})
	}

	_, ok := ParseSocialLink("   ")
	assert.False(t, ok)

	other, ok := ParseSocialLink("example.org")
	require.True(t, ok)
	assert.Equal(t, "example.org", other.Label)

	assert.Len(t, ParseSocialLinks([]string{"", "instagram.com/a", "  "}), 1)
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	long := "https://café-münchen-straße.example/überall/ünd/mehr"
	got := truncate(long, 32)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 32, utf8.RuneCountInString(got))
	assert.Equal(t, "https://café-münchen-straße.ex..", got)

	assert.Equal(t, "kurz.de/ä", truncate("kurz.de/ä", 32))
}

func TestNormalizeSocialLinks(t *testing.T) {
	got, err := NormalizeSocialLinks([]string{" a ", "", "b", "a", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = NormalizeSocialLinks(nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = NormalizeSocialLinks([]string{"1", "2", "3", "4", "5", "6", "7"})
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

type fakeGateway struct {
	profiles map[string]*models.Profile
	byIDHits int
	updated  []models.UpdateProfileParams
}

func (f *fakeGateway) GetProfileByID(_ context.Context, id string) (*models.Profile, error) {
	f.byIDHits++
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGateway) GetProfileByHandle(_ context.Context, handle string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.Handle == handle {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeGateway) UpdateProfile(_ context.Context, actor *models.Identity, params models.UpdateProfileParams) (*models.Profile, error) {
	f.updated = append(f.updated, params)
	p := f.profiles[actor.ID]
	if params.Handle != nil {
		p.Handle = *params.Handle
	}
	if params.DisplayName != nil {
		p.DisplayName = params.DisplayName
	}
	if params.AvatarURL != nil {
		p.AvatarURL = params.AvatarURL
	}
	if params.SocialLinks != nil {
		p.SocialLinks = params.SocialLinks
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGateway) SearchProfilesByHandlePrefix(context.Context, string) ([]models.Profile, error) {
	return []models.Profile{}, nil
}

func (f *fakeGateway) GetMedalsForUser(context.Context, string) ([]models.Medal, error) {
	return []models.Medal{medal(1), medal(1), medal(2)}, nil
}

func (f *fakeGateway) GetProfileStats(context.Context, string) (models.ProfileStats, error) {
	return models.ProfileStats{PostCount: 1}, nil
}

func (f *fakeGateway) UploadAvatar(_ context.Context, actor *models.Identity, _ models.ImageUpload) (string, error) {
	return "https://cdn.test/avatars/" + actor.ID + "/avatar-1.png", nil
}

func (f *fakeGateway) FetchPostsByUser(context.Context, string, int, int) ([]models.PostFeedItem, error) {
	return []models.PostFeedItem{}, nil
}

func newService() (*Service, *fakeGateway) {
	gw := &fakeGateway{profiles: map[string]*models.Profile{
		"u1": {ID: "u1", Handle: "ann"},
	}}
	return NewService(gw, query.NewClient(query.Config{StaleTime: time.Hour}), time.Minute), gw
}

func TestPage(t *testing.T) {
	svc, _ := newService()
	page, err := svc.Page(context.Background(), " ANN ")
	require.NoError(t, err)
	assert.Equal(t, "u1", page.Profile.ID)
	require.Len(t, page.Medals, 2)
	assert.Equal(t, 2, page.Medals[0].Count)
	assert.Equal(t, 1, page.Stats.PostCount)

	_, err = svc.Page(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateInvalidatesProfileKeys(t *testing.T) {
	ctx := context.Background()
	svc, gw := newService()
	me := &models.Identity{ID: "u1"}

	p, err := svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ann", p.Handle)
	_, err = svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.byIDHits)

	handle := " Annie "
	links := []string{"instagram.com/annie", "instagram.com/annie", " "}
	p, err = svc.Update(ctx, me, models.UpdateProfileRequest{Handle: &handle, SocialLinks: links})
	require.NoError(t, err)
	assert.Equal(t, "annie", p.Handle)
	assert.Equal(t, []string{"instagram.com/annie"}, gw.updated[0].SocialLinks)

	p, err = svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "annie", p.Handle)
	assert.Equal(t, 2, gw.byIDHits)

	p, err = svc.UploadAvatar(ctx, me, models.ImageUpload{FileName: "a.png"})
	require.NoError(t, err)
	require.NotNil(t, p.AvatarURL)
	assert.Contains(t, *p.AvatarURL, "/avatars/u1/")

	_, err = svc.Update(ctx, nil, models.UpdateProfileRequest{})
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}
