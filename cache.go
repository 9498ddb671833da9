package sitekit

import (
	"sync"
	"time"
)

// PostCache is an in-memory snapshot of published posts and categories with
// TTL, refreshed lazily from the content store. Admin mutations call
// Invalidate so the public pages never serve stale content for long.
type PostCache struct {
	mu         sync.RWMutex
	posts      []Post
	categories []Category
	fetched    time.Time
	ttl        time.Duration
	store      *ContentStore
}

// NewPostCache creates a PostCache backed by the given ContentStore.
func NewPostCache(s *ContentStore, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.categories = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached posts and categories after ensuring the cache
// is fresh. It tries a read lock first; only takes a write lock on reload.
func (c *PostCache) ensureLoaded() ([]Post, []Category) {
	c.mu.RLock()
	if c.valid() {
		posts, categories := c.posts, c.categories
		c.mu.RUnlock()
		return posts, categories
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid() {
		c.posts = c.store.PublishedPosts()
		if c.posts == nil {
			c.posts = []Post{}
		}
		c.categories = c.store.AllCategories()
		c.fetched = time.Now()
	}
	return c.posts, c.categories
}

// ListPosts returns published posts newest first, optionally filtered by
// category slug.
func (c *PostCache) ListPosts(categorySlug string) []Post {
	posts, categories := c.ensureLoaded()
	if categorySlug == "" {
		return posts
	}
	var categoryID string
	for _, cat := range categories {
		if cat.Slug == categorySlug {
			categoryID = cat.ID
			break
		}
	}
	var filtered []Post
	for _, p := range posts {
		if p.CategoryID == categoryID {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// FeaturedPosts returns published posts flagged as featured, newest first.
func (c *PostCache) FeaturedPosts() []Post {
	posts, _ := c.ensureLoaded()
	var featured []Post
	for _, p := range posts {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return featured
}

// ListCategories returns all categories with their post counts.
func (c *PostCache) ListCategories() []Category {
	_, categories := c.ensureLoaded()
	return categories
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(slug string) (Post, error) {
	posts, _ := c.ensureLoaded()
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}
