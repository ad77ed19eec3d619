package almanac

import (
	"context"
	"errors"
	"fmt"
)

// ErrReservedSlug is returned for an entry whose slug names a listing route.
var ErrReservedSlug = errors.New("reserved slug")

// reservedSlugs are the static segments served under /api/posts and
// /api/weeks.
var reservedSlugs = map[string]bool{
	"regular": true,
	"pinned":  true,
	"archive": true,
	"seasons": true,
}

// CheckSlug returns ErrReservedSlug when e's effective slug would be shadowed
// by a listing route.
func CheckSlug(e Entry) error {
	if slug := e.Slug(); reservedSlugs[slug] {
		return fmt.Errorf("%w: %q", ErrReservedSlug, slug)
	}
	return nil
}

// CheckPostSlugDuplication reports every post whose effective slug was
// already used by an earlier post of the same language. Universal posts form
// their own group. It returns one message per duplicate and never fails.
func CheckPostSlugDuplication(posts []Entry) []string {
	seen := make(map[string]map[string]struct{})
	var duplicates []string
	for _, p := range posts {
		slug := p.Slug()
		slugs, ok := seen[p.Lang]
		if !ok {
			slugs = make(map[string]struct{})
			seen[p.Lang] = slugs
		}
		if _, dup := slugs[slug]; !dup {
			slugs[slug] = struct{}{}
			continue
		}
		if p.Lang == "" {
			duplicates = append(duplicates, fmt.Sprintf("Duplicate slug %q found in universal post (applies to all languages)", slug))
		} else {
			duplicates = append(duplicates, fmt.Sprintf("Duplicate slug %q found in %q language post", slug, p.Lang))
		}
	}
	return duplicates
}

// DuplicateSlugs checks every visible post, across all languages, for
// repeated slugs.
func (l *Library) DuplicateSlugs(ctx context.Context) ([]string, error) {
	return l.dupes.Do(ctx, struct{}{}, func(ctx context.Context) ([]string, error) {
		posts, err := l.store.FetchEntries(ctx, Posts, func(e Entry) bool {
			return l.cfg.Dev || !e.Draft
		})
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", Posts, err)
		}
		return CheckPostSlugDuplication(posts), nil
	})
}
