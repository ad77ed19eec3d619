package almanac

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ContentStore that counts fetches.
type memStore struct {
	mu      sync.Mutex
	entries map[Collection][]Entry
	fetches int
	err     error
}

func newMemStore(entries ...Entry) *memStore {
	s := &memStore{entries: make(map[Collection][]Entry)}
	for _, e := range entries {
		s.entries[e.Collection] = append(s.entries[e.Collection], e)
	}
	return s
}

func (s *memStore) FetchEntries(ctx context.Context, c Collection, pred func(Entry) bool) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	var out []Entry
	for _, e := range s.entries[c] {
		if pred == nil || pred(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// countingRenderer reports one word per body byte and counts its calls.
type countingRenderer struct {
	calls atomic.Int64
	fail  atomic.Bool
}

func (r *countingRenderer) Render(ctx context.Context, e Entry) (ReadingMeta, error) {
	r.calls.Add(1)
	if r.fail.Load() {
		return ReadingMeta{}, errors.New("render failed")
	}
	return ReadingMeta{Minutes: 1, Words: len(e.Body)}, nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func post(id, lang string, pub time.Time, tags ...string) Entry {
	return Entry{Collection: Posts, ID: id, Title: id, Lang: lang, PubDate: pub, Tags: tags, Body: "body of " + id}
}

func week(id, lang string, pub time.Time, tags ...string) Entry {
	return Entry{Collection: Weeks, ID: id, Title: id, Lang: lang, PubDate: pub, Tags: tags, Body: "week " + id}
}

func testConfig() SiteConfig {
	return SiteConfig{DefaultLocale: "zh", Locales: []string{"zh", "en"}}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPostsFiltersAndSorts(t *testing.T) {
	draft := post("draft", "zh", day(2024, 5, 1))
	draft.Draft = true
	store := newMemStore(
		post("old", "zh", day(2022, 1, 1)),
		post("new", "zh", day(2024, 3, 1)),
		post("everyone", "", day(2023, 6, 1)),
		post("english", "en", day(2024, 4, 1)),
		draft,
	)
	lib := NewLibrary(store, &countingRenderer{}, testConfig())

	posts, err := lib.Posts(context.Background(), "zh")
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "everyone", "old"}, ids(posts))

	en, err := lib.Posts(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"english", "everyone"}, ids(en))
}

func TestPostsIncludesDraftsInDev(t *testing.T) {
	draft := post("draft", "zh", day(2024, 5, 1))
	draft.Draft = true
	store := newMemStore(post("live", "zh", day(2024, 1, 1)), draft)
	cfg := testConfig()
	cfg.Dev = true
	lib := NewLibrary(store, &countingRenderer{}, cfg)

	posts, err := lib.Posts(context.Background(), "zh")
	require.NoError(t, err)
	assert.Equal(t, []string{"draft", "live"}, ids(posts))
}

func TestPostsDefaultLocaleSharesCache(t *testing.T) {
	store := newMemStore(post("a", "zh", day(2024, 1, 1)))
	lib := NewLibrary(store, &countingRenderer{}, testConfig())
	ctx := context.Background()

	first, err := lib.Posts(ctx, "")
	require.NoError(t, err)
	second, err := lib.Posts(ctx, "zh")
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, 1, store.fetchCount())
}

func TestPostsMetadataRenderedOnce(t *testing.T) {
	store := newMemStore(
		post("a", "zh", day(2024, 1, 1)),
		post("b", "", day(2024, 2, 1)),
	)
	r := &countingRenderer{}
	lib := NewLibrary(store, r, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := lib.Posts(ctx, "zh")
		require.NoError(t, err)
		_, err = lib.RegularPosts(ctx, "zh")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, r.calls.Load())

	// The universal post is shared between locales.
	_, err := lib.Posts(ctx, "en")
	require.NoError(t, err)
	assert.EqualValues(t, 2, r.calls.Load())

	posts, err := lib.Posts(ctx, "zh")
	require.NoError(t, err)
	assert.Equal(t, ReadingMeta{Minutes: 1, Words: len("body of b")}, posts[0].Meta)
}

func TestSharedMetaCacheAcrossLibraries(t *testing.T) {
	store := newMemStore(post("a", "zh", day(2024, 1, 1)))
	r := &countingRenderer{}
	cache := NewMetaCache()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		lib := NewLibrary(store, r, testConfig(), WithMetaCache(cache))
		_, err := lib.Posts(ctx, "zh")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestRenderErrorIsNotCached(t *testing.T) {
	store := newMemStore(post("a", "zh", day(2024, 1, 1)))
	r := &countingRenderer{}
	r.fail.Store(true)
	lib := NewLibrary(store, r, testConfig())
	ctx := context.Background()

	_, err := lib.Posts(ctx, "zh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render posts/a")

	r.fail.Store(false)
	posts, err := lib.Posts(ctx, "zh")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(posts))
}

func TestStoreErrorIsWrapped(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("disk gone")
	lib := NewLibrary(store, &countingRenderer{}, testConfig())

	_, err := lib.Weeks(context.Background(), "zh")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
	assert.Contains(t, err.Error(), "fetch weeks")
}

func TestRegularAndPinnedPartition(t *testing.T) {
	pinned := func(e Entry, pin int) Entry {
		e.Pin = pin
		return e
	}
	store := newMemStore(
		pinned(post("low", "zh", day(2024, 6, 1)), 1),
		pinned(post("high", "zh", day(2023, 1, 1)), 5),
		pinned(post("low-older", "zh", day(2022, 1, 1)), 1),
		pinned(post("negative", "zh", day(2021, 1, 1)), -1),
		post("plain", "zh", day(2024, 7, 1)),
	)
	lib := NewLibrary(store, &countingRenderer{}, testConfig())
	ctx := context.Background()

	all, err := lib.Posts(ctx, "zh")
	require.NoError(t, err)
	regular, err := lib.RegularPosts(ctx, "zh")
	require.NoError(t, err)
	pins, err := lib.PinnedPosts(ctx, "zh")
	require.NoError(t, err)

	assert.Equal(t, []string{"plain", "negative"}, ids(regular))
	assert.Equal(t, []string{"high", "low", "low-older"}, ids(pins))
	assert.Len(t, all, len(regular)+len(pins))
}

func TestPinnedWeeksEmpty(t *testing.T) {
	lib := NewLibrary(newMemStore(week("w1", "zh", day(2024, 1, 1))), &countingRenderer{}, testConfig())
	pins, err := lib.PinnedWeeks(context.Background(), "zh")
	require.NoError(t, err)
	assert.Empty(t, pins)

	regular, err := lib.RegularWeeks(context.Background(), "zh")
	require.NoError(t, err)
	assert.Equal(t, []string{"w1"}, ids(regular))
}

func TestPostsByYear(t *testing.T) {
	early := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	pinnedPost := post("pinned", "zh", day(2024, 12, 31))
	pinnedPost.Pin = 1
	store := newMemStore(
		post("mar-late", "zh", late),
		post("mar-early", "zh", early),
		post("jan", "zh", day(2024, 1, 20)),
		post("dec", "zh", day(2024, 12, 1)),
		post("last-year", "zh", day(2023, 8, 8)),
		post("long-ago", "zh", day(2019, 2, 2)),
		pinnedPost,
	)
	lib := NewLibrary(store, &countingRenderer{}, testConfig())

	archive, err := lib.PostsByYear(context.Background(), "zh")
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023, 2019}, archive.Years())
	assert.Equal(t, []string{"dec", "mar-late", "mar-early", "jan"}, ids(archive.Get(2024)))
	assert.Equal(t, []string{"last-year"}, ids(archive.Get(2023)))
	assert.Nil(t, archive.Get(2020))
}

func TestWeeksByYearEmpty(t *testing.T) {
	lib := NewLibrary(newMemStore(), &countingRenderer{}, testConfig())
	archive, err := lib.WeeksByYear(context.Background(), "zh")
	require.NoError(t, err)
	assert.Empty(t, archive)
	assert.Empty(t, archive.Years())
}

func TestResetRecomputes(t *testing.T) {
	store := newMemStore(post("a", "zh", day(2024, 1, 1)))
	r := &countingRenderer{}
	lib := NewLibrary(store, r, testConfig())
	ctx := context.Background()

	_, err := lib.Posts(ctx, "zh")
	require.NoError(t, err)
	lib.Reset()
	_, err = lib.Posts(ctx, "zh")
	require.NoError(t, err)

	assert.Equal(t, 2, store.fetchCount())
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestConcurrentReads(t *testing.T) {
	var entries []Entry
	for i := 0; i < 50; i++ {
		entries = append(entries, post(string(rune('a'+i%26))+string(rune('a'+i/26)), "zh", day(2020+i%5, time.Month(1+i%12), 1+i%28)))
	}
	lib := NewLibrary(newMemStore(entries...), &countingRenderer{}, testConfig())

	var wg sync.WaitGroup
	results := make([][]Item, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := lib.Posts(context.Background(), "zh")
			assert.NoError(t, err)
			results[i] = items
		}()
	}
	wg.Wait()
	for _, items := range results[1:] {
		assert.Equal(t, ids(results[0]), ids(items))
	}
	assert.Len(t, results[0], 50)
}
