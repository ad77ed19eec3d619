package almanac

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagLibrary() (*Library, *memStore) {
	draft := post("secret", "fr", day(2024, 9, 1), "hidden")
	draft.Draft = true
	store := newMemStore(
		post("go-intro", "zh", day(2024, 3, 1), "go", "tools"),
		post("travel-log", "zh", day(2024, 5, 1), "travel"),
		post("go-deep", "", day(2023, 1, 1), "go"),
		post("english-only", "en", day(2024, 1, 1), "english"),
		week("w1", "zh", day(2024, 6, 1), "life", "go"),
		week("w2", "zh", day(2024, 6, 8), "life"),
		draft,
	)
	cfg := testConfig()
	cfg.Locales = []string{"zh", "en", "fr"}
	return NewLibrary(store, &countingRenderer{}, cfg), store
}

func TestPostsGroupByTagsOrder(t *testing.T) {
	lib, _ := tagLibrary()
	idx, err := lib.PostsGroupByTags(context.Background(), "zh")
	require.NoError(t, err)

	// Posts newest first, then weeks newest first.
	want := []string{"travel", "go", "tools", "life"}
	if diff := cmp.Diff(want, idx.Tags()); diff != "" {
		t.Errorf("tag order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"go-intro", "go-deep", "w1"}, ids(idx.Get("go")))
	assert.Equal(t, []string{"w2", "w1"}, ids(idx.Get("life")))
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, 0, idx.Count("missing"))
	assert.NotNil(t, idx.Get("missing"))
	assert.Empty(t, idx.Get("missing"))
}

func TestTagIndexTagsIsCopy(t *testing.T) {
	lib, _ := tagLibrary()
	idx, err := lib.PostsGroupByTags(context.Background(), "zh")
	require.NoError(t, err)

	tags := idx.Tags()
	tags[0] = "changed"
	assert.Equal(t, "travel", idx.Tags()[0])
}

func TestAllTagsByCount(t *testing.T) {
	lib, _ := tagLibrary()
	tags, err := lib.AllTags(context.Background(), "zh")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "life", "travel", "tools"}, tags)
}

func TestPostsByTag(t *testing.T) {
	lib, _ := tagLibrary()
	ctx := context.Background()

	items, err := lib.PostsByTag(ctx, "go", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"go-deep"}, ids(items))

	missing, err := lib.PostsByTag(ctx, "nope", "zh")
	require.NoError(t, err)
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestTagSupportedLangs(t *testing.T) {
	lib, _ := tagLibrary()
	ctx := context.Background()

	tests := []struct {
		tag  string
		want []string
	}{
		{"go", []string{"zh", "en", "fr"}},
		{"travel", []string{"zh"}},
		{"english", []string{"en"}},
		{"hidden", []string{}},
		{"unknown", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := lib.TagSupportedLangs(ctx, tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagSupportedLangsIgnoresDevDrafts(t *testing.T) {
	draft := post("wip", "en", day(2024, 1, 1), "wip")
	draft.Draft = true
	cfg := testConfig()
	cfg.Dev = true
	lib := NewLibrary(newMemStore(draft), &countingRenderer{}, cfg)

	langs, err := lib.TagSupportedLangs(context.Background(), "wip")
	require.NoError(t, err)
	assert.Empty(t, langs)

	posts, err := lib.Posts(context.Background(), "en")
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
