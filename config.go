package sitekit

import (
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// SiteConfig holds all configuration for a sitekit site.
type SiteConfig struct {
	Name        string // Site name (default "Zametka")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/site.db")

	SessionSecret string // Required: secret for session tokens and cookies
	CookieSecure  bool   // Set true for HTTPS

	PostCacheTTL time.Duration // Published-post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Zametka"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// LoadEnv loads variables from a .env file if one exists. Missing files are
// not an error; real environment variables always win.
func LoadEnv() {
	_ = godotenv.Load()
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithStorage overrides the persistence backend. The default is SQLite at
// SiteConfig.DatabasePath; tests pass NewMemoryStorage().
func WithStorage(s Storage) Option {
	return func(a *App) {
		a.storage = s
	}
}

// WithLogger sets the structured logger used by the stores. The default is
// a production zap logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}
