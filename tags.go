package almanac

import (
	"context"
	"fmt"
	"sort"
)

// TagIndex maps tag names to the items carrying them. Tags keep the order in
// which they were first seen.
type TagIndex struct {
	order []string
	items map[string][]Item
}

func newTagIndex() *TagIndex {
	return &TagIndex{items: make(map[string][]Item)}
}

func (t *TagIndex) add(tag string, it Item) {
	if _, ok := t.items[tag]; !ok {
		t.order = append(t.order, tag)
	}
	t.items[tag] = append(t.items[tag], it)
}

// Tags returns the tag names in first-seen order.
func (t *TagIndex) Tags() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Get returns the items tagged with tag. Unknown tags yield an empty slice.
func (t *TagIndex) Get(tag string) []Item {
	if items, ok := t.items[tag]; ok {
		return items
	}
	return []Item{}
}

// Count returns how many items carry tag.
func (t *TagIndex) Count(tag string) int {
	return len(t.items[tag])
}

// Len returns the number of distinct tags.
func (t *TagIndex) Len() int {
	return len(t.order)
}

// PostsGroupByTags indexes the posts and then the weeks of lang by tag.
func (l *Library) PostsGroupByTags(ctx context.Context, lang string) (*TagIndex, error) {
	lang = l.locale(lang)
	return l.tagIndex.Do(ctx, lang, func(ctx context.Context) (*TagIndex, error) {
		posts, err := l.Posts(ctx, lang)
		if err != nil {
			return nil, err
		}
		weeks, err := l.Weeks(ctx, lang)
		if err != nil {
			return nil, err
		}
		idx := newTagIndex()
		for _, list := range [][]Item{posts, weeks} {
			for _, it := range list {
				for _, tag := range it.Tags {
					idx.add(tag, it)
				}
			}
		}
		return idx, nil
	})
}

// AllTags returns the tags of lang, most used first. Tags with equal counts
// keep their first-seen order.
func (l *Library) AllTags(ctx context.Context, lang string) ([]string, error) {
	lang = l.locale(lang)
	return l.allTags.Do(ctx, lang, func(ctx context.Context) ([]string, error) {
		idx, err := l.PostsGroupByTags(ctx, lang)
		if err != nil {
			return nil, err
		}
		tags := idx.Tags()
		sort.SliceStable(tags, func(i, j int) bool {
			return idx.Count(tags[i]) > idx.Count(tags[j])
		})
		return tags, nil
	})
}

// PostsByTag returns the posts and weeks of lang tagged with tag.
func (l *Library) PostsByTag(ctx context.Context, tag, lang string) ([]Item, error) {
	k := tagKey{tag: tag, lang: l.locale(lang)}
	return l.byTag.Do(ctx, k, func(ctx context.Context) ([]Item, error) {
		idx, err := l.PostsGroupByTags(ctx, k.lang)
		if err != nil {
			return nil, err
		}
		return idx.Get(tag), nil
	})
}

// TagSupportedLangs returns the configured locales that have at least one
// published post or week tagged with tag. Drafts never count, even in dev
// mode.
func (l *Library) TagSupportedLangs(ctx context.Context, tag string) ([]string, error) {
	return l.tagLangs.Do(ctx, tag, func(ctx context.Context) ([]string, error) {
		published := func(e Entry) bool { return !e.Draft }
		var tagged []Entry
		for _, c := range []Collection{Posts, Weeks} {
			entries, err := l.store.FetchEntries(ctx, c, published)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", c, err)
			}
			for _, e := range entries {
				if e.HasTag(tag) {
					tagged = append(tagged, e)
				}
			}
		}
		langs := []string{}
		for _, locale := range l.cfg.Locales {
			for _, e := range tagged {
				if matchesLocale(e, locale) {
					langs = append(langs, locale)
					break
				}
			}
		}
		return langs, nil
	})
}
