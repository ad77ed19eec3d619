package almanac

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// handleSitemap lists the home and about pages, every entry and every tag of
// the default locale.
func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	lib := a.Library()
	lang := a.Config.DefaultLocale

	posts, err := lib.Posts(ctx, lang)
	if err != nil {
		return err
	}
	weeks, err := lib.Weeks(ctx, lang)
	if err != nil {
		return err
	}
	tags, err := lib.AllTags(ctx, lang)
	if err != nil {
		return err
	}

	base := a.Config.URL
	paths := a.Config.Paths()
	urls := []sitemapURL{
		{Loc: BuildURL(base, paths.LocalizedPath(""))},
		{Loc: BuildURL(base, paths.LocalizedPath("about"))},
		{Loc: BuildURL(base, paths.LocalizedPath("weeks"))},
	}
	for _, list := range [][]Item{posts, weeks} {
		for _, it := range list {
			mod := it.PubDate
			if !it.Updated.IsZero() {
				mod = it.Updated
			}
			urls = append(urls, sitemapURL{
				Loc:     BuildURL(base, paths.EntryPath(it.Entry)),
				LastMod: mod.Format("2006-01-02"),
			})
		}
	}
	for _, t := range tags {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, paths.TagPath(t))})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
