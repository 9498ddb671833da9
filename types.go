package sitekit

import "time"

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
	StatusArchived  PostStatus = "archived"
)

// Post is the core content type. Derived fields (Slug, ReadTime,
// TableOfContents) are computed by the content store on every write and
// must not be set by callers.
type Post struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"` // markdown source
	Excerpt         string     `json:"excerpt"`
	HeroImage       string     `json:"heroImage,omitempty"`
	CategoryID      string     `json:"category"`
	Tags            []string   `json:"tags"`
	AuthorID        string     `json:"author"`
	Status          PostStatus `json:"status"`
	Featured        bool       `json:"featured"`
	SEOTitle        string     `json:"seoTitle,omitempty"`
	SEODescription  string     `json:"seoDescription,omitempty"`
	SEOKeywords     []string   `json:"seoKeywords,omitempty"`
	ReadTime        int        `json:"readTime"` // minutes
	TableOfContents []TOCEntry `json:"tableOfContents"`
	Views           int        `json:"views"`
	CreatedAt       time.Time  `json:"createdAt"`
	PublishedAt     time.Time  `json:"publishedAt,omitempty"`
}

// TOCEntry is one heading extracted from a post's content, in document order.
type TOCEntry struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// PostInput carries user-supplied post fields into CreatePost/UpdatePost.
type PostInput struct {
	Title          string
	Content        string
	Excerpt        string
	HeroImage      string
	CategoryID     string
	Tags           []string
	AuthorID       string
	Status         PostStatus
	Featured       bool
	SEOTitle       string
	SEODescription string
	SEOKeywords    []string
}

// Category groups posts. PostCount is derived at read time and never stored.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"` // presentational token, e.g. "emerald"
	Image       string `json:"image,omitempty"`
	PostCount   int    `json:"postCount"`
}

// CategoryInput carries user-supplied category fields.
type CategoryInput struct {
	Name        string
	Description string
	Color       string
	Image       string
}

// Author is read-only reference data seeded on first run.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
}

// Role grants admin-area permissions. Admin implies everything an editor can do.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// User is the currently authenticated admin-area account.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Role     Role   `json:"role"`
}

// Image is the metadata returned by the upload endpoint. Posts reference
// uploaded images by URL only.
type Image struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Name       string `json:"name"`
	Size       int    `json:"size"`
	Type       string `json:"type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	UploadedAt string `json:"uploadedAt"`
}

// Settings is the site-wide settings blob stored under blog_settings.
type Settings struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	PostsPerPage int    `json:"postsPerPage"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
