package sitekit

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) handleHome(c echo.Context) error {
	featured := a.Cache.FeaturedPosts()
	if len(featured) == 0 {
		// Young sites have no featured posts yet; fall back to the latest.
		posts := a.Cache.ListPosts("")
		if len(posts) > 3 {
			posts = posts[:3]
		}
		featured = posts
	}
	return Render(c, a.Views.Home(featured, a.Cache.ListCategories(), a.Config.URL))
}

func (a *App) handleBlog(c echo.Context) error {
	category := c.QueryParam("category")
	posts := a.Cache.ListPosts(category)

	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 1 {
		page = p
	}
	perPage := a.Content.SiteSettings().PostsPerPage
	start := (page - 1) * perPage
	if start > len(posts) {
		start = len(posts)
	}
	end := start + perPage
	if end > len(posts) {
		end = len(posts)
	}
	posts = posts[start:end]

	return Render(c, a.Views.Blog(posts, category, a.Cache.ListCategories(), a.Config.URL))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}

	// Count at most one view per IP per post within the dedup window. The
	// cache intentionally keeps serving the previous count.
	if a.viewLimiter.Allow(c.RealIP() + "|" + post.ID) {
		if err := a.Content.IncrementViews(post.ID); err != nil {
			a.log.Warn("increment views", zap.String("post", post.ID), zap.Error(err))
		}
	}

	// A dangling author reference renders as an empty byline rather than
	// failing the page.
	author, _ := a.Content.AuthorByID(post.AuthorID)
	related := RelatedPosts(post, a.Cache.ListPosts(""))
	return Render(c, a.Views.Post(post, author, related, a.Config.URL))
}

// handleAdminEvents streams session-state changes to the admin dashboard as
// server-sent events.
func (a *App) handleAdminEvents(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.NoContent(http.StatusUnauthorized)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	client := a.events.Add()
	defer a.events.Delete(client)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-client.Msg:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", msg); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

// handleRobots generates robots.txt dynamically using the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.log.Error("server error", zap.Error(err))
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
