package almanac

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	loginMaxFailures = 5
	loginWindow      = 15 * time.Minute
)

// entryForm is the admin representation of an entry. Dates use the same
// layouts as front matter.
type entryForm struct {
	Collection  Collection `json:"collection"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Lang        string     `json:"lang"`
	PubDate     string     `json:"pubDate"`
	Updated     string     `json:"updated"`
	Pin         int        `json:"pin"`
	Tags        []string   `json:"tags"`
	Draft       bool       `json:"draft"`
	Description string     `json:"description"`
	Body        string     `json:"body"`
	Abbrlink    string     `json:"abbrlink"`
	TOC         *bool      `json:"toc"`
}

type loginRequest struct {
	Password string `json:"password" form:"password"`
}

// adminEnabled reports whether the admin routes are served. They need
// credentials and a writable store.
func (a *App) adminEnabled() bool {
	return a.Config.AdminPassword != "" && a.Config.SessionSecret != "" && a.store != nil
}

func (a *App) setupAdminRoutes() {
	if !a.adminEnabled() {
		return
	}
	a.loginLimiter = newLoginLimiter(loginMaxFailures, loginWindow)

	g := a.Echo.Group("/admin", a.adminMiddleware()...)
	g.GET("/session", a.handleAdminSession)
	g.POST("/login", a.handleAdminLogin)
	g.POST("/logout", handleAdminLogout)
	g.GET("/entries/:collection", a.handleAdminList, requireAdmin)
	g.POST("/entries", a.handleAdminSave, requireAdmin)
	g.DELETE("/entries/:collection/:id", a.handleAdminDelete, requireAdmin)
	g.GET("/duplicates", a.handleAdminDuplicates, requireAdmin)
}

func (a *App) handleAdminSession(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"authenticated": IsAdmin(c),
		"csrf":          CsrfToken(c),
	})
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if a.loginLimiter.Blocked(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid login request")
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Fail(ip)
		a.log.Warn("failed admin login", zap.String("ip", ip))
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
	}
	a.loginLimiter.Reset(ip)
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func parseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case Posts, Weeks:
		return c, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "unknown collection "+s)
}

func (a *App) handleAdminList(c echo.Context) error {
	coll, err := parseCollection(c.Param("collection"))
	if err != nil {
		return err
	}
	entries, err := a.store.ListAll(c.Request().Context(), coll)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// toEntry validates the form and converts it to an Entry.
func (f entryForm) toEntry(loc *time.Location) (Entry, error) {
	coll, err := parseCollection(string(f.Collection))
	if err != nil {
		return Entry{}, err
	}
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return Entry{}, echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	id := strings.TrimSpace(f.ID)
	if id == "" {
		id = Slugify(title)
	}
	if id == "" {
		return Entry{}, echo.NewHTTPError(http.StatusBadRequest, "id is required, add a title or id")
	}
	e := Entry{
		Collection:  coll,
		ID:          id,
		Title:       title,
		Lang:        strings.TrimSpace(f.Lang),
		Pin:         f.Pin,
		Draft:       f.Draft,
		Description: f.Description,
		Body:        f.Body,
		Abbrlink:    strings.TrimSpace(f.Abbrlink),
		TOC:         f.TOC,
	}
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			e.Tags = append(e.Tags, t)
		}
	}
	if strings.TrimSpace(f.PubDate) == "" {
		e.PubDate = time.Now().In(loc)
	} else if e.PubDate, err = parseDate(f.PubDate, loc); err != nil {
		return Entry{}, echo.NewHTTPError(http.StatusBadRequest, "invalid pubDate")
	}
	if strings.TrimSpace(f.Updated) != "" {
		if e.Updated, err = parseDate(f.Updated, loc); err != nil {
			return Entry{}, echo.NewHTTPError(http.StatusBadRequest, "invalid updated date")
		}
	}
	if err := CheckSlug(e); err != nil {
		return Entry{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return e, nil
}

func (a *App) handleAdminSave(c echo.Context) error {
	var form entryForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry")
	}
	e, err := form.toEntry(a.Config.Location())
	if err != nil {
		return err
	}
	if err := a.store.SaveEntry(c.Request().Context(), e); err != nil {
		return err
	}
	a.log.Info("entry saved", zap.String("collection", string(e.Collection)), zap.String("id", e.ID))
	if err := a.Refresh(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (a *App) handleAdminDelete(c echo.Context) error {
	coll, err := parseCollection(c.Param("collection"))
	if err != nil {
		return err
	}
	id := c.Param("id")
	if err := a.store.DeleteEntry(c.Request().Context(), coll, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "entry not found")
		}
		return err
	}
	a.log.Info("entry deleted", zap.String("collection", string(coll)), zap.String("id", id))
	if err := a.Refresh(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAdminDuplicates(c echo.Context) error {
	dupes, err := a.Library().DuplicateSlugs(c.Request().Context())
	if err != nil {
		return err
	}
	if dupes == nil {
		dupes = []string{}
	}
	return c.JSON(http.StatusOK, dupes)
}
