package almanac

import (
	"context"
	"fmt"
)

// ContentStore supplies raw, unsorted entries of a collection.
// pred is called for every entry; only entries it accepts are returned.
type ContentStore interface {
	FetchEntries(ctx context.Context, c Collection, pred func(Entry) bool) ([]Entry, error)
}

// matchesLocale reports whether e is shown for lang. Universal entries match
// every locale.
func matchesLocale(e Entry, lang string) bool {
	return e.Lang == lang || e.Lang == ""
}

// fetchEntries returns the entries of c visible for lang. Drafts are only
// included in dev mode.
func (l *Library) fetchEntries(ctx context.Context, c Collection, lang string) ([]Entry, error) {
	lang = l.locale(lang)
	entries, err := l.store.FetchEntries(ctx, c, func(e Entry) bool {
		return (l.cfg.Dev || !e.Draft) && matchesLocale(e, lang)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c, err)
	}
	return entries, nil
}

// locale resolves an omitted language to the site default.
func (l *Library) locale(lang string) string {
	if lang == "" {
		return l.cfg.DefaultLocale
	}
	return lang
}
