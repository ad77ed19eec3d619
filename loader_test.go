package almanac

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func contentDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "posts/hello.md", "---\ntitle: Hello\npubDate: 2024-03-01\ntags: [go, travel]\nlang: en\ntoc: false\n---\nBody text.\n")
	writeFile(t, root, "posts/nested/Second Post.md", "---\ntitle: Second\npubDate: 2024-04-01 08:00\ndraft: true\nabbrlink: second\n---\n\nMore.\n")
	writeFile(t, root, "posts/notes.txt", "not markdown")
	writeFile(t, root, "posts/.hidden/skip.md", "---\npubDate: 2024-01-01\n---\n")
	writeFile(t, root, "weeks/2024-w01.markdown", "---\ntitle: Week 1\npubDate: 2024-01-07 10:30\nupdated: 2024-01-08\npin: 1\n---\nA week.\n")
	return root
}

func TestParseEntry(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	src := []byte("---\r\ntitle: Hello\r\npubDate: 2024-03-01 09:15:00\r\ndescription: Short\r\ntags:\r\n  - go\r\n---\r\n# Heading\r\n\r\ntext\r\n")

	e, err := ParseEntry(Posts, "hello", src, loc)
	require.NoError(t, err)
	assert.Equal(t, "Hello", e.Title)
	assert.Equal(t, "Short", e.Description)
	assert.Equal(t, []string{"go"}, e.Tags)
	assert.True(t, e.PubDate.Equal(time.Date(2024, 3, 1, 9, 15, 0, 0, loc)))
	assert.Equal(t, "# Heading\n\ntext\n", e.Body)
	assert.Nil(t, e.TOC)
	assert.True(t, e.Updated.IsZero())
}

func TestParseEntryErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no front matter", "# just markdown\n"},
		{"unterminated", "---\ntitle: x\n"},
		{"missing pubDate", "---\ntitle: x\n---\nbody"},
		{"empty header", "---\n---\nbody"},
		{"bad date", "---\npubDate: yesterday\n---\n"},
		{"bad yaml", "---\ntitle: [unclosed\npubDate: 2024-01-01\n---\n"},
		{"reserved abbrlink", "---\npubDate: 2024-01-01\nabbrlink: archive\n---\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntry(Posts, "x", []byte(tt.src), time.UTC)
			assert.Error(t, err)
		})
	}
}

func TestParseEntryReservedID(t *testing.T) {
	src := []byte("---\npubDate: 2024-01-01\n---\n")
	_, err := ParseEntry(Weeks, "seasons", src, time.UTC)
	assert.ErrorIs(t, err, ErrReservedSlug)

	// An abbrlink takes over the route, so the reserved ID is reachable.
	e, err := ParseEntry(Posts, "pinned", []byte("---\npubDate: 2024-01-01\nabbrlink: pinned-notes\n---\n"), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "pinned-notes", e.Slug())
}

func TestParseDateLayouts(t *testing.T) {
	for _, s := range []string{"2024-01-02", "2024-01-02 03:04", "2024-01-02 03:04:05", "2024-01-02T03:04:05", "2024-01-02T03:04:05Z"} {
		got, err := parseDate(s, time.UTC)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, got.Year())
		assert.Equal(t, time.January, got.Month())
		assert.Equal(t, 2, got.Day())
	}
}

func TestEntryID(t *testing.T) {
	assert.Equal(t, "hello", entryID("hello.md"))
	assert.Equal(t, "nested/second-post", entryID(filepath.Join("nested", "Second Post.md")))
}

func TestLoadDir(t *testing.T) {
	root := contentDir(t)
	store, err := LoadDir(root, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, root, store.Root())

	ctx := context.Background()
	posts, err := store.FetchEntries(ctx, Posts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "nested/second-post"}, entryIDs(posts))
	assert.Equal(t, "second", posts[1].Slug())
	assert.True(t, posts[1].Draft)
	require.NotNil(t, posts[0].TOC)
	assert.False(t, posts[0].ShowTOC(true))

	weeks, err := store.FetchEntries(ctx, Weeks, nil)
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, "2024-w01", weeks[0].ID)
	assert.Equal(t, 1, weeks[0].Pin)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), weeks[0].Updated)
}

func TestLoadDirMissingCollections(t *testing.T) {
	store, err := LoadDir(t.TempDir(), time.UTC)
	require.NoError(t, err)
	posts, err := store.FetchEntries(context.Background(), Posts, nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestLoadDirReportsBadFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/broken.md", "no front matter")
	_, err := LoadDir(root, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.md")
}

func TestDirStoreHonorsContext(t *testing.T) {
	store, err := LoadDir(contentDir(t), time.UTC)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.FetchEntries(ctx, Posts, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImport(t *testing.T) {
	root := contentDir(t)
	db := newTestStore(t)
	ctx := context.Background()

	n, err := Import(ctx, root, time.UTC, db)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	e, err := db.GetEntry(ctx, Posts, "nested/second-post")
	require.NoError(t, err)
	assert.True(t, e.Draft)
	assert.Equal(t, "second", e.Abbrlink)
}
