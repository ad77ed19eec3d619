package almanac

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// frontMatter mirrors the YAML header of an entry file.
type frontMatter struct {
	Title       string   `yaml:"title"`
	PubDate     string   `yaml:"pubDate"`
	Updated     string   `yaml:"updated"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
	Pin         int      `yaml:"pin"`
	TOC         *bool    `yaml:"toc"`
	Lang        string   `yaml:"lang"`
	Abbrlink    string   `yaml:"abbrlink"`
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var errNoFrontMatter = errors.New("missing front matter")

// splitFrontMatter separates the YAML header delimited by "---" lines from
// the markdown body.
func splitFrontMatter(src []byte) (header, body []byte, err error) {
	src = bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(src, []byte("---\n")) {
		return nil, nil, errNoFrontMatter
	}
	rest := src[len("---\n"):]
	if bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")) {
		return nil, bytes.TrimPrefix(rest[3:], []byte("\n")), nil
	}
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, errNoFrontMatter
	}
	header = rest[:end]
	body = rest[end+len("\n---"):]
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}
	return header, body, nil
}

// ParseEntry builds an entry of collection c from a markdown file with YAML
// front matter. Dates without a zone are read in loc.
func ParseEntry(c Collection, id string, src []byte, loc *time.Location) (Entry, error) {
	header, body, err := splitFrontMatter(src)
	if err != nil {
		return Entry{}, err
	}
	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return Entry{}, fmt.Errorf("parse front matter: %w", err)
	}
	if fm.PubDate == "" {
		return Entry{}, errors.New("pubDate is required")
	}
	pub, err := parseDate(fm.PubDate, loc)
	if err != nil {
		return Entry{}, fmt.Errorf("pubDate: %w", err)
	}
	e := Entry{
		Collection:  c,
		ID:          id,
		Title:       fm.Title,
		Lang:        fm.Lang,
		PubDate:     pub,
		Pin:         fm.Pin,
		Tags:        fm.Tags,
		Draft:       fm.Draft,
		Description: fm.Description,
		Body:        string(body),
		Abbrlink:    fm.Abbrlink,
		TOC:         fm.TOC,
	}
	if strings.TrimSpace(fm.Updated) != "" {
		if e.Updated, err = parseDate(fm.Updated, loc); err != nil {
			return Entry{}, fmt.Errorf("updated: %w", err)
		}
	}
	if err := CheckSlug(e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// entryID derives an entry ID from a path relative to its collection
// directory: extension dropped, each segment slugified.
func entryID(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = Slugify(p)
	}
	return strings.Join(parts, "/")
}

// DirStore is a ContentStore that holds the markdown files of a content
// directory: <root>/posts and <root>/weeks.
type DirStore struct {
	root    string
	entries map[Collection][]Entry
}

// LoadDir reads every markdown file below root/posts and root/weeks. A
// missing collection directory yields an empty collection.
func LoadDir(root string, loc *time.Location) (*DirStore, error) {
	d := &DirStore{root: root, entries: make(map[Collection][]Entry)}
	for _, c := range []Collection{Posts, Weeks} {
		dir := filepath.Join(root, string(c))
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, de fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if de.IsDir() {
				if path != dir && strings.HasPrefix(de.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".md" && ext != ".markdown" {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			e, err := ParseEntry(c, entryID(rel), src, loc)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			d.entries[c] = append(d.entries[c], e)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", c, err)
		}
	}
	return d, nil
}

// Root returns the content directory.
func (d *DirStore) Root() string {
	return d.root
}

// FetchEntries returns the entries of c accepted by pred, in path order.
func (d *DirStore) FetchEntries(ctx context.Context, c Collection, pred func(Entry) bool) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range d.entries[c] {
		if pred == nil || pred(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Import copies every entry of the content directory, drafts included, into
// dst and returns how many entries were written.
func Import(ctx context.Context, dir string, loc *time.Location, dst *Store) (int, error) {
	src, err := LoadDir(dir, loc)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range []Collection{Posts, Weeks} {
		entries, err := src.FetchEntries(ctx, c, nil)
		if err != nil {
			return n, err
		}
		for _, e := range entries {
			if err := dst.SaveEntry(ctx, e); err != nil {
				return n, fmt.Errorf("save %s/%s: %w", c, e.ID, err)
			}
			n++
		}
	}
	return n, nil
}
