package syncache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

type item struct {
	ID    string
	Likes int
}

func itemID(i item) string { return i.ID }

func newTestCache() *Cache[item] {
	return New[item]("items", itemID, WithPageSize(2))
}

// pagedSource отдает фиксированный набор элементов постранично и считает вызовы.
type pagedSource struct {
	items []item
	calls atomic.Int32
	err   error
}

func (s *pagedSource) load(_ context.Context, page, pageSize int) (models.Page[item], error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.Page[item]{}, s.err
	}
	start := page * pageSize
	end := start + pageSize
	if start > len(s.items) {
		start = len(s.items)
	}
	if end > len(s.items) {
		end = len(s.items)
	}
	totalPages := (len(s.items) + pageSize - 1) / pageSize
	return models.Page[item]{
		Content:       append([]item(nil), s.items[start:end]...),
		TotalElements: len(s.items),
		TotalPages:    totalPages,
		Number:        page,
		Last:          page >= totalPages-1,
	}, nil
}

func fiveItems() []item {
	return []item{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
}

func TestFetchPage_SecondCallServedFromCache(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{items: fiveItems()}

	first, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)
	second, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, []item{{ID: "a"}, {ID: "b"}}, second.Items)
	assert.True(t, second.Meta.HasMore)
	assert.Equal(t, 5, second.Meta.TotalElements)
}

func TestFetchPage_InvalidateForcesNetwork(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{items: fiveItems()}

	_, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)
	c.Invalidate("feed")
	_, err = c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestFetchPage_ValidatesArguments(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{items: fiveItems()}

	_, err := c.FetchPage(context.Background(), "feed", 0, 0, src.load)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = c.FetchPage(context.Background(), "feed", -1, 2, src.load)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestFetchPage_FailureWithoutCacheIsFetchError(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{err: apperr.ErrTransient}

	_, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	assert.ErrorIs(t, err, apperr.ErrFetch)
	assert.ErrorIs(t, err, apperr.ErrTransient)
}

func TestFetchPage_FailureServesStale(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{items: fiveItems()}

	_, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)

	src.err = errors.New("connection reset")
	got, err := c.FetchPage(context.Background(), "feed", 1, 2, src.load)
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "a"}, {ID: "b"}}, got.Items)
}

func TestFetchPage_RateLimitedIsSurfaced(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{items: fiveItems()}

	_, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)

	src.err = apperr.ErrRateLimited
	_, err = c.FetchPage(context.Background(), "feed", 1, 2, src.load)
	assert.ErrorIs(t, err, apperr.ErrRateLimited)
}

func TestFetchPage_NotFoundIsEmpty(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{err: apperr.ErrNotFound}

	got, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.False(t, got.Meta.HasMore)
}

func TestLoadMore_AppendsAndStopsAtEnd(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{items: fiveItems()}
	ctx := context.Background()

	got, err := c.LoadMore(ctx, "feed", src.load)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	got, err = c.LoadMore(ctx, "feed", src.load)
	require.NoError(t, err)
	assert.Len(t, got.Items, 4)

	got, err = c.LoadMore(ctx, "feed", src.load)
	require.NoError(t, err)
	assert.Len(t, got.Items, 5)
	assert.False(t, got.Meta.HasMore)
	assert.Equal(t, 2, got.Meta.Page)

	got, err = c.LoadMore(ctx, "feed", src.load)
	require.NoError(t, err)
	assert.Len(t, got.Items, 5)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestLoadMore_MergesByID(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	pages := map[int][]item{
		0: {{ID: "a", Likes: 1}, {ID: "b", Likes: 1}},
		1: {{ID: "b", Likes: 7}, {ID: "c", Likes: 1}},
	}
	load := func(_ context.Context, page, _ int) (models.Page[item], error) {
		return models.Page[item]{Content: pages[page], Number: page, TotalPages: 2, Last: page == 1}, nil
	}

	_, err := c.LoadMore(ctx, "feed", load)
	require.NoError(t, err)
	got, err := c.LoadMore(ctx, "feed", load)
	require.NoError(t, err)

	assert.Equal(t, []item{{ID: "a", Likes: 1}, {ID: "b", Likes: 7}, {ID: "c", Likes: 1}}, got.Items)
}

func TestLoadMore_NoopWhileInFlight(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	load := func(_ context.Context, page, _ int) (models.Page[item], error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return models.Page[item]{Content: []item{{ID: fmt.Sprintf("p%d", page)}}, Number: page, TotalPages: 5}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.LoadMore(ctx, "feed", load)
		assert.NoError(t, err)
	}()
	<-started

	got, err := c.LoadMore(ctx, "feed", load)
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidateDuringFetchDiscardsResult(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	load := func(_ context.Context, page, _ int) (models.Page[item], error) {
		close(started)
		<-release
		return models.Page[item]{Content: []item{{ID: "a"}}, Number: page, Last: true}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err := c.FetchPage(ctx, "feed", 0, 2, load)
		assert.NoError(t, err)
		assert.Len(t, got.Items, 1)
	}()
	<-started
	c.Invalidate("feed")
	close(release)
	<-done

	_, ok := c.Collection("feed")
	assert.False(t, ok)
}

func TestRefresh_RefetchesFirstPage(t *testing.T) {
	c := newTestCache()
	src := &pagedSource{items: fiveItems()}
	ctx := context.Background()

	_, err := c.FetchPage(ctx, "feed", 0, 2, src.load)
	require.NoError(t, err)
	_, err = c.FetchPage(ctx, "feed", 1, 2, src.load)
	require.NoError(t, err)

	got, err := c.Refresh(ctx, "feed", src.load)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestGet_CachesAndTreatsNotFoundAsAbsent(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	var calls atomic.Int32
	load := func(context.Context) (item, error) {
		calls.Add(1)
		return item{ID: "a", Likes: 3}, nil
	}

	got, ok, err := c.Get(ctx, "a", load)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, got.Likes)

	_, _, err = c.Get(ctx, "a", load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	_, ok, err = c.Get(ctx, "missing", func(context.Context) (item, error) {
		return item{}, apperr.ErrNotFound
	})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = c.Get(ctx, "boom", func(context.Context) (item, error) {
		return item{}, apperr.ErrTransient
	})
	assert.ErrorIs(t, err, apperr.ErrFetch)
}

func TestGet_MaxAgeRefetches(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := New[item]("items", itemID, WithMaxAge(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	likes := 1
	var fail error
	load := func(context.Context) (item, error) {
		if fail != nil {
			return item{}, fail
		}
		return item{ID: "a", Likes: likes}, nil
	}

	got, _, err := c.Get(ctx, "a", load)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)

	likes = 2
	got, _, _ = c.Get(ctx, "a", load)
	assert.Equal(t, 1, got.Likes, "свежая запись берется из кеша")

	now = now.Add(time.Minute)
	got, _, err = c.Get(ctx, "a", load)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Likes)

	now = now.Add(time.Minute)
	fail = apperr.ErrTransient
	got, ok, err := c.Get(ctx, "a", load)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, got.Likes, "при сбое отдается устаревшее значение")

	fail = apperr.ErrNotFound
	_, ok, err = c.Get(ctx, "a", load)
	require.NoError(t, err)
	assert.False(t, ok)
	_, cached := c.Peek("a")
	assert.False(t, cached)
}

func TestInvalidatePrefix(t *testing.T) {
	c := newTestCache()
	c.Put("u1:a", item{ID: "u1:a"})
	c.Put("u1:b", item{ID: "u1:b"})
	c.Put("u2:a", item{ID: "u2:a"})

	assert.Equal(t, 2, c.InvalidatePrefix("u1:"))
	_, ok := c.Peek("u1:a")
	assert.False(t, ok)
	_, ok = c.Peek("u2:a")
	assert.True(t, ok)
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New[item]("items", itemID, WithClock(func() time.Time { return now }))
	src := &pagedSource{items: fiveItems()}

	_, err := c.FetchPage(context.Background(), "feed", 0, 2, src.load)
	require.NoError(t, err)
	c.Put("solo", item{ID: "solo"})

	assert.Equal(t, 0, c.Sweep(now.Add(-time.Minute)))

	removed := c.Sweep(now.Add(time.Minute))
	assert.Equal(t, 4, removed)
	_, ok := c.Collection("feed")
	assert.False(t, ok)
	_, ok = c.Peek("solo")
	assert.False(t, ok)
}
