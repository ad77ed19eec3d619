package almanac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathBuilders(t *testing.T) {
	root := Paths{}
	blog := Paths{Base: "/blog"}

	assert.Equal(t, "/tags/travel/", root.TagPath("travel"))
	assert.Equal(t, "/blog/tags/travel/", blog.TagPath("travel"))
	assert.Equal(t, "/posts/hello/", root.PostPath("hello"))
	assert.Equal(t, "/blog/weeks/2024-w01/", blog.WeekPath("2024-w01"))

	e := Entry{Collection: Weeks, ID: "2024/w01", Abbrlink: "w01"}
	assert.Equal(t, "/weeks/w01/", root.EntryPath(e))
	e = Entry{Collection: Posts, ID: "hello"}
	assert.Equal(t, "/blog/posts/hello/", blog.EntryPath(e))
}

func TestLocalizedPath(t *testing.T) {
	tests := []struct {
		base   string
		target string
		want   string
	}{
		{"", "", "/"},
		{"", "/", "/"},
		{"", "about", "/about/"},
		{"", "/about/", "/about/"},
		{"", "tags/go", "/tags/go/"},
		{"/blog", "", "/blog/"},
		{"/blog", "/weeks", "/blog/weeks/"},
	}
	for _, tt := range tests {
		got := Paths{Base: tt.base}.LocalizedPath(tt.target)
		assert.Equal(t, tt.want, got, "base %q target %q", tt.base, tt.target)
	}
}

func TestPageTypes(t *testing.T) {
	root := Paths{}
	assert.True(t, root.IsHomePage("/"))
	assert.True(t, root.IsHomePage(""))
	assert.False(t, root.IsHomePage("/about/"))
	assert.True(t, root.IsPostPage("/posts/hello/"))
	assert.True(t, root.IsTagPage("/tags/go/"))
	assert.True(t, root.IsAboutPage("/about/"))
	assert.True(t, root.IsWeeksPage("/weeks/"))
	assert.False(t, root.IsWeeksPage("/posts/weeks/"))

	blog := Paths{Base: "/blog"}
	assert.True(t, blog.IsHomePage("/blog/"))
	assert.True(t, blog.IsTagPage("/blog/tags/go/"))
	assert.False(t, blog.IsPostPage("/blog/about/"))
}

func TestPageInfo(t *testing.T) {
	info := Paths{Base: "/blog"}.PageInfo("/blog/weeks/w01/")
	assert.True(t, info.IsWeeks)
	assert.False(t, info.IsHome)
	assert.False(t, info.IsPost)
	assert.Equal(t, "/blog/tags/", info.Localize("tags"))
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"https://example.com", "/posts/a/", "https://example.com/posts/a/"},
		{"https://example.com/", "/", "https://example.com/"},
		{"https://example.com/sub/", "/feed.xml", "https://example.com/sub/feed.xml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildURL(tt.base, tt.path))
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"  Go 1.24 Release ", "go-1-24-release"},
		{"你好 世界", "你好-世界"},
		{"--x--", "x"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.input), tt.input)
	}
}
