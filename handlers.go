package almanac

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/almanac/markdown"
)

// ItemView is the JSON form of an entry in listings.
type ItemView struct {
	Collection  Collection `json:"collection"`
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Lang        string     `json:"lang"`
	PubDate     time.Time  `json:"pubDate"`
	Updated     *time.Time `json:"updated,omitempty"`
	Pin         int        `json:"pin,omitempty"`
	Tags        []string   `json:"tags"`
	Minutes     int        `json:"minutes"`
	Description string     `json:"description"`
	Path        string     `json:"path"`
}

// EntryView is the JSON form of a single entry.
type EntryView struct {
	ItemView
	OGDescription string `json:"ogDescription"`
	TOC           bool   `json:"toc"`
	Words         int    `json:"words"`
	HTML          string `json:"html"`
}

type yearView struct {
	Year  int        `json:"year"`
	Items []ItemView `json:"items"`
}

type seasonView struct {
	Season Season     `json:"season"`
	Name   string     `json:"name"`
	Items  []ItemView `json:"items"`
}

type seasonalYearView struct {
	Year    int          `json:"year"`
	Seasons []seasonView `json:"seasons"`
}

type tagView struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Path  string   `json:"path"`
	Langs []string `json:"langs,omitempty"`
}

type tagDetailView struct {
	tagView
	Items []ItemView `json:"items"`
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	api := e.Group("/api")
	for _, c := range []Collection{Posts, Weeks} {
		g := api.Group("/" + string(c))
		g.GET("", a.listHandler(c, (*Library).list))
		g.GET("/regular", a.listHandler(c, (*Library).regularOf))
		g.GET("/pinned", a.listHandler(c, (*Library).pinnedOf))
		g.GET("/archive", a.archiveHandler(c))
		g.GET("/:slug", a.entryHandler(c))
		g.GET("/:slug/body", a.bodyHandler(c))
	}
	api.GET("/weeks/seasons", a.handleSeasons)
	api.GET("/tags", a.handleTags)
	api.GET("/tags/:tag", a.handleTag)
	api.GET("/page", a.handlePage)

	a.setupAdminRoutes()
}

// requestLang returns the lang query parameter resolved against the
// configured locales.
func (a *App) requestLang(c echo.Context) (string, error) {
	lang := c.QueryParam("lang")
	if lang == "" {
		return a.Config.DefaultLocale, nil
	}
	for _, l := range a.Config.Locales {
		if l == lang {
			return lang, nil
		}
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "unknown language "+lang)
}

func (a *App) itemView(lib *Library, it Item, scene Scene) ItemView {
	v := ItemView{
		Collection:  it.Collection,
		ID:          it.ID,
		Slug:        it.Slug(),
		Title:       it.Title,
		Lang:        it.Lang,
		PubDate:     it.PubDate,
		Pin:         it.Pin,
		Tags:        it.Tags,
		Minutes:     it.Meta.Minutes,
		Description: lib.Description(it.Entry, scene),
		Path:        a.Config.Paths().EntryPath(it.Entry),
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if !it.Updated.IsZero() {
		updated := it.Updated
		v.Updated = &updated
	}
	return v
}

func (a *App) itemViews(lib *Library, items []Item) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, a.itemView(lib, it, SceneList))
	}
	return views
}

type listFunc func(l *Library, ctx context.Context, c Collection, lang string) ([]Item, error)

func (a *App) listHandler(coll Collection, list listFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		lang, err := a.requestLang(c)
		if err != nil {
			return err
		}
		lib := a.Library()
		items, err := list(lib, c.Request().Context(), coll, lang)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, a.itemViews(lib, items))
	}
}

func (a *App) archiveHandler(coll Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		lang, err := a.requestLang(c)
		if err != nil {
			return err
		}
		lib := a.Library()
		archive, err := lib.byYear(c.Request().Context(), coll, lang)
		if err != nil {
			return err
		}
		years := make([]yearView, 0, len(archive))
		for _, g := range archive {
			years = append(years, yearView{Year: g.Year, Items: a.itemViews(lib, g.Items)})
		}
		return c.JSON(http.StatusOK, years)
	}
}

func (a *App) handleSeasons(c echo.Context) error {
	lang, err := a.requestLang(c)
	if err != nil {
		return err
	}
	lib := a.Library()
	archive, err := lib.WeeksByYearAndSeason(c.Request().Context(), lang)
	if err != nil {
		return err
	}
	years := make([]seasonalYearView, 0, len(archive))
	for _, y := range archive {
		yv := seasonalYearView{Year: y.Year, Seasons: make([]seasonView, 0, len(y.Seasons))}
		for _, s := range y.Seasons {
			yv.Seasons = append(yv.Seasons, seasonView{Season: s.Season, Name: s.Name, Items: a.itemViews(lib, s.Items)})
		}
		years = append(years, yv)
	}
	return c.JSON(http.StatusOK, years)
}

// findItem looks up a visible entry of coll by slug.
func (a *App) findItem(c echo.Context, coll Collection) (*Library, Item, error) {
	lang, err := a.requestLang(c)
	if err != nil {
		return nil, Item{}, err
	}
	lib := a.Library()
	items, err := lib.list(c.Request().Context(), coll, lang)
	if err != nil {
		return nil, Item{}, err
	}
	slug := c.Param("slug")
	for _, it := range items {
		if it.Slug() == slug {
			return lib, it, nil
		}
	}
	return nil, Item{}, echo.NewHTTPError(http.StatusNotFound, "entry not found")
}

func (a *App) entryHandler(coll Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		lib, it, err := a.findItem(c, coll)
		if err != nil {
			return err
		}
		var body bytes.Buffer
		if err := markdown.Markdown(it.Body).Render(c.Request().Context(), &body); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, EntryView{
			ItemView:      a.itemView(lib, it, SceneMeta),
			OGDescription: lib.Description(it.Entry, SceneOG),
			TOC:           it.ShowTOC(a.Config.TOC),
			Words:         it.Meta.Words,
			HTML:          body.String(),
		})
	}
}

func (a *App) bodyHandler(coll Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, it, err := a.findItem(c, coll)
		if err != nil {
			return err
		}
		return Render(c, markdown.Markdown(it.Body))
	}
}

func (a *App) handleTags(c echo.Context) error {
	lang, err := a.requestLang(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	lib := a.Library()
	tags, err := lib.AllTags(ctx, lang)
	if err != nil {
		return err
	}
	idx, err := lib.PostsGroupByTags(ctx, lang)
	if err != nil {
		return err
	}
	paths := a.Config.Paths()
	views := make([]tagView, 0, len(tags))
	for _, t := range tags {
		langs, err := lib.TagSupportedLangs(ctx, t)
		if err != nil {
			return err
		}
		views = append(views, tagView{Name: t, Count: idx.Count(t), Path: paths.TagPath(t), Langs: langs})
	}
	return c.JSON(http.StatusOK, views)
}

func (a *App) handleTag(c echo.Context) error {
	lang, err := a.requestLang(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	lib := a.Library()
	tag := c.Param("tag")
	items, err := lib.PostsByTag(ctx, tag, lang)
	if err != nil {
		return err
	}
	langs, err := lib.TagSupportedLangs(ctx, tag)
	if err != nil {
		return err
	}
	if len(items) == 0 && len(langs) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "tag not found")
	}
	return c.JSON(http.StatusOK, tagDetailView{
		tagView: tagView{Name: tag, Count: len(items), Path: a.Config.Paths().TagPath(tag), Langs: langs},
		Items:   a.itemViews(lib, items),
	})
}

func (a *App) handlePage(c echo.Context) error {
	info := a.Config.Paths().PageInfo(c.QueryParam("path"))
	return c.JSON(http.StatusOK, map[string]bool{
		"isHome":  info.IsHome,
		"isPost":  info.IsPost,
		"isTag":   info.IsTag,
		"isAbout": info.IsAbout,
		"isWeeks": info.IsWeeks,
	})
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		a.log.Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		he = echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
	msg := he.Message
	if s, ok := msg.(string); ok {
		msg = map[string]string{"error": s}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, msg)
}
