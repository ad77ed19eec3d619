package almanac

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Library derives sorted, filtered and grouped views of the posts and weeks
// collections. Every view is memoized for the lifetime of the Library, so a
// Library should live for one build or one refresh cycle.
type Library struct {
	store    ContentStore
	renderer Renderer
	cfg      SiteConfig
	log      *zap.Logger
	meta     *MetaCache

	all      Memo[listKey, []Item]
	regular  Memo[listKey, []Item]
	pinned   Memo[listKey, []Item]
	years    Memo[listKey, Archive]
	tagIndex Memo[string, *TagIndex]
	allTags  Memo[string, []string]
	byTag    Memo[tagKey, []Item]
	tagLangs Memo[string, []string]
	seasons  Memo[string, SeasonalArchive]
	dupes    Memo[struct{}, []string]
}

type listKey struct {
	collection Collection
	lang       string
}

type tagKey struct {
	tag  string
	lang string
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLogger sets the logger used for cache misses.
func WithLogger(log *zap.Logger) LibraryOption {
	return func(l *Library) {
		if log != nil {
			l.log = log
		}
	}
}

// WithMetaCache shares an existing metadata cache with the Library.
func WithMetaCache(c *MetaCache) LibraryOption {
	return func(l *Library) {
		if c != nil {
			l.meta = c
		}
	}
}

// NewLibrary returns a Library reading from store and enriching entries with
// renderer. Only the locale settings and the dev flag of cfg are used.
func NewLibrary(store ContentStore, renderer Renderer, cfg SiteConfig, opts ...LibraryOption) *Library {
	cfg.setDefaults()
	l := &Library{
		store:    store,
		renderer: renderer,
		cfg:      cfg,
		log:      zap.NewNop(),
		meta:     NewMetaCache(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the configuration the Library was built with.
func (l *Library) Config() SiteConfig {
	return l.cfg
}

// Reset drops every memoized view and all cached metadata.
func (l *Library) Reset() {
	l.all.Reset()
	l.regular.Reset()
	l.pinned.Reset()
	l.years.Reset()
	l.tagIndex.Reset()
	l.allTags.Reset()
	l.byTag.Reset()
	l.tagLangs.Reset()
	l.seasons.Reset()
	l.dupes.Reset()
	l.meta.reset()
}

// Posts returns every visible post for lang, newest first.
func (l *Library) Posts(ctx context.Context, lang string) ([]Item, error) {
	return l.list(ctx, Posts, lang)
}

// Weeks returns every visible week for lang, newest first.
func (l *Library) Weeks(ctx context.Context, lang string) ([]Item, error) {
	return l.list(ctx, Weeks, lang)
}

// RegularPosts returns the posts of lang that are not pinned.
func (l *Library) RegularPosts(ctx context.Context, lang string) ([]Item, error) {
	return l.regularOf(ctx, Posts, lang)
}

// RegularWeeks returns the weeks of lang that are not pinned.
func (l *Library) RegularWeeks(ctx context.Context, lang string) ([]Item, error) {
	return l.regularOf(ctx, Weeks, lang)
}

// PinnedPosts returns the pinned posts of lang, highest pin first.
func (l *Library) PinnedPosts(ctx context.Context, lang string) ([]Item, error) {
	return l.pinnedOf(ctx, Posts, lang)
}

// PinnedWeeks returns the pinned weeks of lang, highest pin first.
func (l *Library) PinnedWeeks(ctx context.Context, lang string) ([]Item, error) {
	return l.pinnedOf(ctx, Weeks, lang)
}

// PostsByYear groups the regular posts of lang by publish year.
func (l *Library) PostsByYear(ctx context.Context, lang string) (Archive, error) {
	return l.byYear(ctx, Posts, lang)
}

// WeeksByYear groups the regular weeks of lang by publish year.
func (l *Library) WeeksByYear(ctx context.Context, lang string) (Archive, error) {
	return l.byYear(ctx, Weeks, lang)
}

func (l *Library) list(ctx context.Context, c Collection, lang string) ([]Item, error) {
	k := listKey{collection: c, lang: l.locale(lang)}
	return l.all.Do(ctx, k, func(ctx context.Context) ([]Item, error) {
		l.log.Debug("loading collection", zap.String("collection", string(c)), zap.String("lang", k.lang))
		entries, err := l.fetchEntries(ctx, c, k.lang)
		if err != nil {
			return nil, err
		}
		items, err := l.enrichAll(ctx, entries)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].PubDate.After(items[j].PubDate)
		})
		return items, nil
	})
}

// enrichAll renders metadata for every entry concurrently. The result keeps
// the order of entries.
func (l *Library) enrichAll(ctx context.Context, entries []Entry) ([]Item, error) {
	items := make([]Item, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			it, err := l.enrich(gctx, e)
			if err != nil {
				return err
			}
			items[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (l *Library) regularOf(ctx context.Context, c Collection, lang string) ([]Item, error) {
	k := listKey{collection: c, lang: l.locale(lang)}
	return l.regular.Do(ctx, k, func(ctx context.Context) ([]Item, error) {
		items, err := l.list(ctx, c, k.lang)
		if err != nil {
			return nil, err
		}
		var out []Item
		for _, it := range items {
			if it.Pin <= 0 {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

func (l *Library) pinnedOf(ctx context.Context, c Collection, lang string) ([]Item, error) {
	k := listKey{collection: c, lang: l.locale(lang)}
	return l.pinned.Do(ctx, k, func(ctx context.Context) ([]Item, error) {
		items, err := l.list(ctx, c, k.lang)
		if err != nil {
			return nil, err
		}
		var out []Item
		for _, it := range items {
			if it.Pin > 0 {
				out = append(out, it)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Pin > out[j].Pin
		})
		return out, nil
	})
}

func (l *Library) byYear(ctx context.Context, c Collection, lang string) (Archive, error) {
	k := listKey{collection: c, lang: l.locale(lang)}
	return l.years.Do(ctx, k, func(ctx context.Context) (Archive, error) {
		items, err := l.regularOf(ctx, c, k.lang)
		if err != nil {
			return nil, err
		}
		return groupByYear(items), nil
	})
}

// YearGroup holds the items published in one calendar year.
type YearGroup struct {
	Year  int
	Items []Item
}

// Archive is a list of year groups, latest year first.
type Archive []YearGroup

// Get returns the items of year, or nil when the year has none.
func (a Archive) Get(year int) []Item {
	for _, g := range a {
		if g.Year == year {
			return g.Items
		}
	}
	return nil
}

// Years returns the years of the archive in order.
func (a Archive) Years() []int {
	years := make([]int, len(a))
	for i, g := range a {
		years[i] = g.Year
	}
	return years
}

// groupByYear buckets items by publish year. Inside a year, items are
// ordered by month then day, both descending; the bucket fixes the year.
func groupByYear(items []Item) Archive {
	var archive Archive
	index := make(map[int]int)
	for _, it := range items {
		year := it.PubDate.Year()
		i, ok := index[year]
		if !ok {
			i = len(archive)
			index[year] = i
			archive = append(archive, YearGroup{Year: year})
		}
		archive[i].Items = append(archive[i].Items, it)
	}
	for i := range archive {
		group := archive[i].Items
		sort.SliceStable(group, func(a, b int) bool {
			ma, mb := group[a].PubDate.Month(), group[b].PubDate.Month()
			if ma != mb {
				return ma > mb
			}
			return group[a].PubDate.Day() > group[b].PubDate.Day()
		})
	}
	sort.SliceStable(archive, func(i, j int) bool {
		return archive[i].Year > archive[j].Year
	})
	return archive
}
