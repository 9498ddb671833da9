// Package sitekit is a product-site engine built with Go, Echo, and templ.
// It serves a marketing landing page plus a blog with an authenticated
// admin area, with all content kept in a pluggable key-value store.
//
// Users provide their own templ components via the ViewFuncs struct, and
// sitekit handles the handlers, middleware, content store, and sessions.
package sitekit

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zametka/sitekit/markdown"
)

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages. This is the inversion-of-control mechanism that lets
// users own and customize all templates.
type ViewFuncs struct {
	Home            func(featured []Post, categories []Category, siteURL string) templ.Component
	Blog            func(posts []Post, activeCategory string, categories []Category, siteURL string) templ.Component
	Post            func(post Post, author Author, related []Post, siteURL string) templ.Component
	AdminLogin      func(errMsg string, csrfToken string) templ.Component
	AdminDashboard  func(posts []Post, categories []Category, user User, message string, csrfToken string) templ.Component
	AdminPostForm   func(post Post, categories []Category, authors []Author, errs []string, csrfToken string) templ.Component
	AdminCategories func(categories []Category, errMsg string, csrfToken string) templ.Component
	AdminImages     func(images []Image, csrfToken string) templ.Component
	NotFound        func() templ.Component
	ServerError     func() templ.Component
}

// App is the central sitekit application. It wires together the storage,
// the content and session stores, the cache, handlers, middleware, and the
// user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Content  *ContentStore
	Sessions *SessionStore
	Cache    *PostCache
	Views    ViewFuncs

	storage      Storage
	log          *zap.Logger
	loginLimiter *RateLimiter
	viewLimiter  *RateLimiter
	events       *EventHub
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new sitekit App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes storage, stores, middleware, and routes, then starts
// the server. It blocks until the server stops.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("sitekit: SessionSecret is required")
	}

	if a.log == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("sitekit: init logger: %w", err)
		}
		a.log = logger
	}

	if a.storage == nil {
		storage, err := NewSQLiteStorage(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("sitekit: init storage: %w", err)
		}
		a.storage = storage
	}

	a.Content = NewContentStore(a.storage, a.log.Named("content"))
	a.Sessions = NewSessionStore(a.storage, a.Config.SessionSecret, a.log.Named("session"))
	a.Cache = NewPostCache(a.Content, a.Config.PostCacheTTL)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.viewLimiter = NewRateLimiter(1, 30*time.Minute)
	a.events = NewEventHub()

	// Admin dashboards follow auth changes live over SSE.
	a.Sessions.Subscribe(a.events.BroadcastSession)
	a.Sessions.Subscribe(func(state SessionState) {
		a.log.Info("session state changed", zap.Bool("authenticated", state.IsAuthenticated))
	})

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Serve embedded engine assets under /public/, falling through to the
	// user's static dir for everything else.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/admin-events.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handlePost)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", a.handleAdminLogout)
	e.GET("/admin/post/:id/", a.handleAdminPostForm)
	e.POST("/admin/save/", a.handleAdminSave)
	e.DELETE("/admin/post/:id/", a.handleAdminDelete)
	e.POST("/admin/category/save/", a.handleAdminCategorySave)
	e.DELETE("/admin/category/:id/", a.handleAdminCategoryDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.DELETE("/admin/images/:id/", a.handleImageDelete)
	e.GET("/admin/events/", a.handleAdminEvents)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.storage != nil {
		_ = a.storage.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
// This is a convenience function for use in scaffolded main.go files.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("sitekit: required environment variable %s is not set", key)
	}
	return v
}

// Markdown renders post content as a templ component. It is re-exported so
// user views don't need to import the markdown subpackage directly.
func Markdown(content string) templ.Component {
	return markdown.Render(content)
}
