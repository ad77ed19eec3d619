package almanac

import "time"

// Collection names a content collection.
type Collection string

const (
	Posts Collection = "posts"
	Weeks Collection = "weeks"
)

// Entry is a single post or week as supplied by a ContentStore.
type Entry struct {
	Collection  Collection
	ID          string
	Title       string
	Lang        string // empty means the entry applies to every locale
	PubDate     time.Time
	Updated     time.Time
	Pin         int
	Tags        []string
	Draft       bool
	Description string
	Body        string
	Abbrlink    string
	TOC         *bool
}

// Slug returns the abbrlink override, or the entry ID when none is set.
func (e Entry) Slug() string {
	if e.Abbrlink != "" {
		return e.Abbrlink
	}
	return e.ID
}

// Universal reports whether the entry is shown for every locale.
func (e Entry) Universal() bool {
	return e.Lang == ""
}

// HasTag reports whether tag is one of the entry's tags.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ShowTOC returns the entry's table-of-contents override, or def.
func (e Entry) ShowTOC(def bool) bool {
	if e.TOC != nil {
		return *e.TOC
	}
	return def
}

// ReadingMeta is computed metadata attached to an entry.
type ReadingMeta struct {
	Minutes int
	Words   int
}

// Item is an Entry enriched with its reading metadata.
type Item struct {
	Entry
	Meta ReadingMeta
}
