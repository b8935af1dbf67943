package stories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pbaille/memoir/internal/domain"
	"github.com/pbaille/memoir/internal/metrics"
	"github.com/pbaille/memoir/internal/store"
	"github.com/pbaille/memoir/internal/theme"
	"github.com/pbaille/memoir/internal/timeline"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "memoir.db"))
	require.NoError(t, err)
	return s
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s := openStore(t)
	t.Cleanup(func() { s.Close() })
	return New(s, zaptest.NewLogger(t), metrics.New(s, nil)), s
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)

	st, err := svc.Create("  Home  ", "I grew up in a small town. I was so happy.")
	require.NoError(t, err)

	assert.Equal(t, "Home", st.Title)
	assert.Equal(t, string(theme.WhereIComeFrom), st.Chapter)
	assert.InDelta(t, 1.0, st.Confidence, 1e-9)
	assert.Equal(t, string(theme.Positive), st.Sentiment)
	assert.InDelta(t, 1.0, st.SentimentScore, 1e-9)
	assert.Equal(t, []string{"grew up", "small town"}, st.Tags)

	got, err := svc.Get(st.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, st.Tags, got.Tags)
	assert.Equal(t, st.Chapter, got.Chapter)
}

func TestCreateEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("title", "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCreateUnmatchedTextDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	st, err := svc.Create("", "dadaist art")
	require.NoError(t, err)
	assert.Equal(t, string(theme.DefaultChapter), st.Chapter)
	assert.Zero(t, st.Confidence)
	assert.Equal(t, string(theme.Neutral), st.Sentiment)
	assert.Empty(t, st.Tags)
}

func TestUpdateWithoutReclassify(t *testing.T) {
	svc, _ := newTestService(t)

	st, err := svc.Create("Home", "I grew up in a small town")
	require.NoError(t, err)

	updated, err := svc.Update(st.ID, UpdateInput{Title: strPtr("War"), Content: strPtr("The war was hard.")})
	require.NoError(t, err)
	assert.Equal(t, "War", updated.Title)
	assert.Equal(t, "The war was hard.", updated.Content)
	assert.Equal(t, string(theme.WhereIComeFrom), updated.Chapter)
	assert.Equal(t, []string{"grew up", "small town"}, updated.Tags)
}

func TestUpdateWithReclassify(t *testing.T) {
	svc, _ := newTestService(t)

	st, err := svc.Create("Home", "I grew up in a small town")
	require.NoError(t, err)

	updated, err := svc.Update(st.ID, UpdateInput{Content: strPtr("The war was hard. War, war."), Reclassify: true})
	require.NoError(t, err)
	assert.Equal(t, string(theme.WhatsBeenHard), updated.Chapter)
	assert.Equal(t, []string{"war", "hard"}, updated.Tags)
	assert.Equal(t, string(theme.Negative), updated.Sentiment)
	assert.InDelta(t, -1.0, updated.SentimentScore, 1e-9)

	got, err := svc.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Tags, got.Tags)
}

func TestUpdateErrors(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update("nope", UpdateInput{Reclassify: true})
	assert.ErrorIs(t, err, store.ErrNotFound)

	st, err := svc.Create("", "something about my dad")
	require.NoError(t, err)
	_, err = svc.Update(st.ID, UpdateInput{Content: strPtr("")})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)

	st, err := svc.Create("", "my dad")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(st.ID[:6]))

	_, err = svc.Get(st.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(st.ID), store.ErrNotFound)
}

func TestListSearchTags(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("Farm", "I grew up on a farm")
	require.NoError(t, err)
	_, err = svc.Create("Wedding", "We married in June 1960 and I loved the farm")
	require.NoError(t, err)

	list, err := svc.List(10, 0, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	found, err := svc.Search("married")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Wedding", found[0].Title)

	tags, err := svc.Tags()
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	assert.Equal(t, "farm", tags[0].Name)
	assert.Equal(t, 2, tags[0].Stories)
}

func TestReclassifyAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := openStore(t)
	defer s.Close()
	svc := New(s, zaptest.NewLogger(t), nil)

	home, err := svc.Create("", "I grew up in a small town")
	require.NoError(t, err)
	_, err = svc.Create("", "war war")
	require.NoError(t, err)
	_, err = svc.Create("", "nothing here")
	require.NoError(t, err)

	home.Chapter = string(theme.WhatIveLoved)
	_, err = s.UpdateStory(*home)
	require.NoError(t, err)

	changed, err := svc.ReclassifyAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := s.GetStory(home.ID)
	require.NoError(t, err)
	assert.Equal(t, string(theme.WhereIComeFrom), got.Chapter)

	changed, err = svc.ReclassifyAll(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestReclassifyAllCanceled(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("", "war")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.ReclassifyAll(ctx, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimeline(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("", "In 1972 we bought the farm")
	require.NoError(t, err)
	_, err = svc.Create("", "My dad, back in the 1950s")
	require.NoError(t, err)
	_, err = svc.Create("", "My dad, whenever")
	require.NoError(t, err)

	groups, err := svc.Timeline()
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "1950s", groups[0].Label)
	assert.Equal(t, "1970s", groups[1].Label)
	assert.Equal(t, timeline.Undated, groups[2].Label)
}

func TestListByChapter(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("", "The war was hard")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.Create("", "I grew up in a small town")
		require.NoError(t, err)
	}

	hard, err := svc.List(2, 0, string(theme.WhatsBeenHard))
	require.NoError(t, err)
	require.Len(t, hard, 1)

	_, err = svc.List(2, 0, "bogus")
	assert.ErrorIs(t, err, ErrInvalidChapter)
}

// failingWrites stores nothing; reads still go to the wrapped repository.
type failingWrites struct {
	Repository
}

var errWrite = errors.New("disk full")

func (failingWrites) AddStory(domain.Story) (*domain.Story, error) { return nil, errWrite }

func (failingWrites) UpdateStory(domain.Story) (*domain.Story, error) { return nil, errWrite }

func TestFailedWritesNotCounted(t *testing.T) {
	s := openStore(t)
	t.Cleanup(func() { s.Close() })

	seeded, err := New(s, nil, nil).Create("", "I grew up in a small town")
	require.NoError(t, err)

	rec := metrics.New(nil, nil)
	svc := New(failingWrites{Repository: s}, zaptest.NewLogger(t), rec)

	_, err = svc.Create("", "The war was hard")
	assert.ErrorIs(t, err, errWrite)

	_, err = svc.Update(seeded.ID, UpdateInput{Reclassify: true})
	assert.ErrorIs(t, err, errWrite)

	_, err = svc.ReclassifyAll(context.Background(), 2)
	assert.ErrorIs(t, err, errWrite)

	n, err := testutil.GatherAndCount(rec.Registry(), "memoir_classifications_total")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSuccessfulWritesCounted(t *testing.T) {
	s := openStore(t)
	t.Cleanup(func() { s.Close() })

	rec := metrics.New(nil, nil)
	svc := New(s, zaptest.NewLogger(t), rec)

	st, err := svc.Create("", "I grew up in a small town")
	require.NoError(t, err)
	_, err = svc.Update(st.ID, UpdateInput{Reclassify: true})
	require.NoError(t, err)
	_, err = svc.Update(st.ID, UpdateInput{})
	require.NoError(t, err)

	// one create plus one reclassify, both where-i-come-from/neutral
	n, err := testutil.GatherAndCount(rec.Registry(), "memoir_classifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "memoir_classifications_total" {
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
