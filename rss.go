package almanac

import (
	"encoding/xml"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// feedLimit caps the number of feed items.
const feedLimit = 50

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

// feedItems merges the posts and weeks of lang, newest first.
func feedItems(posts, weeks []Item) []Item {
	items := make([]Item, 0, len(posts)+len(weeks))
	items = append(items, posts...)
	items = append(items, weeks...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PubDate.After(items[j].PubDate)
	})
	if len(items) > feedLimit {
		items = items[:feedLimit]
	}
	return items
}

func (a *App) handleFeed(c echo.Context) error {
	lang, err := a.requestLang(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	lib := a.Library()
	posts, err := lib.Posts(ctx, lang)
	if err != nil {
		return err
	}
	weeks, err := lib.Weeks(ctx, lang)
	if err != nil {
		return err
	}
	return a.renderRSS(c, lib, lang, feedItems(posts, weeks))
}

func (a *App) renderRSS(c echo.Context, lib *Library, lang string, items []Item) error {
	paths := a.Config.Paths()
	out := make([]rssItem, 0, len(items))
	for _, it := range items {
		link := BuildURL(a.Config.URL, paths.EntryPath(it.Entry))
		out = append(out, rssItem{
			Title:       it.Title,
			Link:        link,
			Description: lib.Description(it.Entry, SceneFeed),
			PubDate:     it.PubDate.Format(time.RFC1123Z),
			GUID:        link,
			Categories:  it.Tags,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(a.Config.URL, paths.LocalizedPath("")),
			Description: a.Config.Description,
			Language:    lang,
			Items:       out,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}
