package sitekit

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zametka/sitekit/markdown"
)

// readingSpeedWPM is the assumed reading speed for the read-time estimate.
const readingSpeedWPM = 200

const (
	excerptMinLen = 50
	excerptMaxLen = 160
)

// ContentStore is the single source of truth for posts, categories, and
// authors. Collections are serialized as JSON under fixed storage keys, and
// every mutation persists the whole affected collection before returning.
//
// A mutex serializes read-modify-write sequences so concurrent handlers
// cannot interleave them; readers always observe a fully persisted state.
type ContentStore struct {
	mu      sync.Mutex
	storage Storage
	log     *zap.Logger
}

// NewContentStore creates a ContentStore over storage and seeds the author
// reference data on first run. A nil logger is replaced with a no-op one.
func NewContentStore(storage Storage, log *zap.Logger) *ContentStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ContentStore{storage: storage, log: log}
	s.ensureAuthors()
	return s
}

// --- Collection access ---

// AllPosts returns every post in insertion order. Absent or unreadable
// storage yields an empty collection, never an error.
func (s *ContentStore) AllPosts() []Post {
	var posts []Post
	s.loadJSON(keyPosts, &posts)
	return posts
}

// PublishedPosts returns published posts, newest first.
func (s *ContentStore) PublishedPosts() []Post {
	var published []Post
	for _, p := range s.AllPosts() {
		if p.Status == StatusPublished {
			published = append(published, p)
		}
	}
	for i, j := 0, len(published)-1; i < j; i, j = i+1, j-1 {
		published[i], published[j] = published[j], published[i]
	}
	return published
}

// PostByID returns the post with the given id.
func (s *ContentStore) PostByID(id string) (Post, error) {
	for _, p := range s.AllPosts() {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// PostBySlug returns the post with the given slug.
func (s *ContentStore) PostBySlug(slug string) (Post, error) {
	for _, p := range s.AllPosts() {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// AllCategories returns every category with its derived PostCount.
func (s *ContentStore) AllCategories() []Category {
	var categories []Category
	s.loadJSON(keyCategories, &categories)
	counts := make(map[string]int)
	for _, p := range s.AllPosts() {
		counts[p.CategoryID]++
	}
	for i := range categories {
		categories[i].PostCount = counts[categories[i].ID]
	}
	return categories
}

// CategoryByID returns the category with the given id, PostCount included.
func (s *ContentStore) CategoryByID(id string) (Category, error) {
	for _, c := range s.AllCategories() {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

// AllAuthors returns the read-only author reference data.
func (s *ContentStore) AllAuthors() []Author {
	var authors []Author
	s.loadJSON(keyAuthors, &authors)
	return authors
}

// AuthorByID returns the author with the given id.
func (s *ContentStore) AuthorByID(id string) (Author, error) {
	for _, a := range s.AllAuthors() {
		if a.ID == id {
			return a, nil
		}
	}
	return Author{}, ErrNotFound
}

// --- Post CRUD ---

// ValidatePost checks in against the write-time rules and returns a list of
// human-readable messages, one per problem. An empty list means valid. The
// same checks run again inside CreatePost/UpdatePost; callers use this to
// surface errors before submitting.
func (s *ContentStore) ValidatePost(in PostInput) []string {
	var errs []string
	if in.Title == "" {
		errs = append(errs, "Заголовок обязателен")
	} else if Slugify(in.Title) == "" {
		errs = append(errs, "Из заголовка не получается сформировать slug")
	}
	if n := utf8.RuneCountInString(in.Excerpt); n < excerptMinLen || n > excerptMaxLen {
		errs = append(errs, fmt.Sprintf("Краткое описание должно быть от %d до %d символов", excerptMinLen, excerptMaxLen))
	}
	if in.CategoryID == "" {
		errs = append(errs, "Выберите категорию")
	} else if _, err := s.CategoryByID(in.CategoryID); err != nil {
		errs = append(errs, "Выбранная категория не существует")
	}
	if in.AuthorID == "" {
		errs = append(errs, "Выберите автора")
	} else if _, err := s.AuthorByID(in.AuthorID); err != nil {
		errs = append(errs, "Выбранный автор не существует")
	}
	if len(FilterEmpty(in.Tags)) == 0 {
		errs = append(errs, "Добавьте хотя бы один тег")
	}
	return errs
}

// CreatePost validates in, derives slug, read time, and table of contents,
// appends the new post, and persists the collection. The created post is
// returned. Fails with *ValidationError or ErrDuplicateSlug.
func (s *ContentStore) CreatePost(in PostInput) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := s.ValidatePost(in); len(errs) > 0 {
		return Post{}, &ValidationError{Errors: errs}
	}

	posts := s.AllPosts()
	slug := Slugify(in.Title)
	for _, p := range posts {
		if p.Slug == slug {
			return Post{}, fmt.Errorf("slug %q: %w", slug, ErrDuplicateSlug)
		}
	}

	now := time.Now().UTC()
	post := s.derivedPost(in, slug)
	post.ID = uuid.NewString()
	post.CreatedAt = now
	if post.Status == StatusPublished {
		post.PublishedAt = now
	}

	posts = append(posts, post)
	if err := s.saveJSON(keyPosts, posts); err != nil {
		return Post{}, err
	}
	s.log.Info("post created", zap.String("id", post.ID), zap.String("slug", post.Slug))
	return post, nil
}

// UpdatePost applies in to the post with the given id, re-running the same
// validation and derivation as CreatePost. The id, view counter, and
// creation time are preserved; the first transition to published stamps
// PublishedAt. Fails with ErrNotFound, *ValidationError, or
// ErrDuplicateSlug (only against a different post).
func (s *ContentStore) UpdatePost(id string, in PostInput) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.AllPosts()
	idx := -1
	for i, p := range posts {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	if errs := s.ValidatePost(in); len(errs) > 0 {
		return Post{}, &ValidationError{Errors: errs}
	}

	slug := Slugify(in.Title)
	for _, p := range posts {
		if p.Slug == slug && p.ID != id {
			return Post{}, fmt.Errorf("slug %q: %w", slug, ErrDuplicateSlug)
		}
	}

	prev := posts[idx]
	post := s.derivedPost(in, slug)
	post.ID = prev.ID
	post.Views = prev.Views
	post.CreatedAt = prev.CreatedAt
	post.PublishedAt = prev.PublishedAt
	if post.Status == StatusPublished && prev.PublishedAt.IsZero() {
		post.PublishedAt = time.Now().UTC()
	}

	posts[idx] = post
	if err := s.saveJSON(keyPosts, posts); err != nil {
		return Post{}, err
	}
	return post, nil
}

// DeletePost removes the post with the given id. Deleting an id that does
// not exist returns ErrNotFound; repeated deletes are therefore not
// idempotent, and callers treat the second ErrNotFound as a stale view.
func (s *ContentStore) DeletePost(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.AllPosts()
	for i, p := range posts {
		if p.ID == id {
			posts = append(posts[:i], posts[i+1:]...)
			if err := s.saveJSON(keyPosts, posts); err != nil {
				return err
			}
			s.log.Info("post deleted", zap.String("id", id))
			return nil
		}
	}
	return fmt.Errorf("post %s: %w", id, ErrNotFound)
}

// IncrementViews bumps the view counter of the post with the given id.
func (s *ContentStore) IncrementViews(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.AllPosts()
	for i := range posts {
		if posts[i].ID == id {
			posts[i].Views++
			return s.saveJSON(keyPosts, posts)
		}
	}
	return fmt.Errorf("post %s: %w", id, ErrNotFound)
}

// derivedPost builds a Post from in with all derived fields computed.
func (s *ContentStore) derivedPost(in PostInput, slug string) Post {
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	return Post{
		Title:           in.Title,
		Slug:            slug,
		Content:         in.Content,
		Excerpt:         in.Excerpt,
		HeroImage:       in.HeroImage,
		CategoryID:      in.CategoryID,
		Tags:            FilterEmpty(in.Tags),
		AuthorID:        in.AuthorID,
		Status:          status,
		Featured:        in.Featured,
		SEOTitle:        in.SEOTitle,
		SEODescription:  in.SEODescription,
		SEOKeywords:     FilterEmpty(in.SEOKeywords),
		ReadTime:        CalculateReadTime(in.Content),
		TableOfContents: TableOfContents(in.Content),
	}
}

// --- Category CRUD ---

// CreateCategory validates and appends a new category. The derived slug
// must be unique across categories.
func (s *ContentStore) CreateCategory(in CategoryInput) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Name == "" {
		return Category{}, &ValidationError{Errors: []string{"Название категории обязательно"}}
	}
	slug := Slugify(in.Name)
	if slug == "" {
		return Category{}, &ValidationError{Errors: []string{"Из названия не получается сформировать slug"}}
	}

	var categories []Category
	s.loadJSON(keyCategories, &categories)
	for _, c := range categories {
		if c.Slug == slug {
			return Category{}, fmt.Errorf("slug %q: %w", slug, ErrDuplicateSlug)
		}
	}

	category := Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Color:       in.Color,
		Image:       in.Image,
	}
	categories = append(categories, category)
	if err := s.saveJSON(keyCategories, categories); err != nil {
		return Category{}, err
	}
	return category, nil
}

// UpdateCategory applies in to the category with the given id.
func (s *ContentStore) UpdateCategory(id string, in CategoryInput) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Name == "" {
		return Category{}, &ValidationError{Errors: []string{"Название категории обязательно"}}
	}
	slug := Slugify(in.Name)
	if slug == "" {
		return Category{}, &ValidationError{Errors: []string{"Из названия не получается сформировать slug"}}
	}

	var categories []Category
	s.loadJSON(keyCategories, &categories)
	idx := -1
	for i, c := range categories {
		if c.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	for i, c := range categories {
		if i != idx && c.Slug == slug {
			return Category{}, fmt.Errorf("slug %q: %w", slug, ErrDuplicateSlug)
		}
	}

	categories[idx].Name = in.Name
	categories[idx].Slug = slug
	categories[idx].Description = in.Description
	categories[idx].Color = in.Color
	categories[idx].Image = in.Image
	if err := s.saveJSON(keyCategories, categories); err != nil {
		return Category{}, err
	}
	return categories[idx], nil
}

// DeleteCategory removes the category with the given id. It refuses with
// ErrCategoryInUse while any post references the category.
func (s *ContentStore) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.AllPosts() {
		if p.CategoryID == id {
			return fmt.Errorf("category %s: %w", id, ErrCategoryInUse)
		}
	}

	var categories []Category
	s.loadJSON(keyCategories, &categories)
	for i, c := range categories {
		if c.ID == id {
			categories = append(categories[:i], categories[i+1:]...)
			return s.saveJSON(keyCategories, categories)
		}
	}
	return fmt.Errorf("category %s: %w", id, ErrNotFound)
}

// --- Settings ---

// SiteSettings returns the stored settings blob, with defaults filled in.
func (s *ContentStore) SiteSettings() Settings {
	settings := Settings{PostsPerPage: 10}
	s.loadJSON(keySettings, &settings)
	if settings.PostsPerPage <= 0 {
		settings.PostsPerPage = 10
	}
	return settings
}

// SaveSettings persists the settings blob.
func (s *ContentStore) SaveSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveJSON(keySettings, settings)
}

// --- Images ---

// ListImages returns the uploaded image metadata, newest last.
func (s *ContentStore) ListImages() []Image {
	var images []Image
	s.loadJSON(keyImages, &images)
	return images
}

// SaveImage appends image metadata to the collection.
func (s *ContentStore) SaveImage(img Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	images := s.ListImages()
	images = append(images, img)
	return s.saveJSON(keyImages, images)
}

// DeleteImage removes image metadata by id.
func (s *ContentStore) DeleteImage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	images := s.ListImages()
	for i, img := range images {
		if img.ID == id {
			images = append(images[:i], images[i+1:]...)
			return s.saveJSON(keyImages, images)
		}
	}
	return fmt.Errorf("image %s: %w", id, ErrNotFound)
}

// --- Persistence helpers ---

// loadJSON reads and decodes the collection under key into v. A missing key
// leaves v untouched; a backend or decode failure is logged and v is left
// untouched, favoring availability over strictness.
func (s *ContentStore) loadJSON(key string, v any) {
	raw, ok, err := s.storage.Get(key)
	if err != nil {
		s.log.Warn("storage read failed, falling back to empty collection",
			zap.String("key", key), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.log.Warn("corrupt collection, falling back to empty",
			zap.String("key", key), zap.Error(err))
	}
}

func (s *ContentStore) saveJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Key: key, Err: err}
	}
	if err := s.storage.Set(key, raw); err != nil {
		return &StorageError{Key: key, Err: err}
	}
	return nil
}

// ensureAuthors seeds the author collection on first run. Authors are
// read-only reference data from the store's perspective.
func (s *ContentStore) ensureAuthors() {
	if _, ok, err := s.storage.Get(keyAuthors); err != nil || ok {
		return
	}
	authors := []Author{
		{
			ID:    "anna-sokolova",
			Name:  "Анна Соколова",
			Email: "anna@zametka.app",
			Bio:   "Пишет о продуктивности встреч и работе с заметками",
		},
		{
			ID:    "dmitry-orlov",
			Name:  "Дмитрий Орлов",
			Email: "dmitry@zametka.app",
			Bio:   "Руководит разработкой распознавания речи",
		},
	}
	if err := s.saveJSON(keyAuthors, authors); err != nil {
		s.log.Warn("seed authors failed", zap.Error(err))
	}
}

// --- Pure derivation functions ---

// CalculateReadTime estimates reading time in minutes from the word count
// of content, rounding up with a minimum of one minute. It is monotonic
// non-decreasing in the word count.
func CalculateReadTime(content string) int {
	words := markdown.CountWords(content)
	minutes := (words + readingSpeedWPM - 1) / readingSpeedWPM
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// TableOfContents extracts the headings of content in document order, with
// stable per-heading ids matching the rendered anchors.
func TableOfContents(content string) []TOCEntry {
	headings := markdown.ExtractHeadings(content)
	entries := make([]TOCEntry, 0, len(headings))
	for _, h := range headings {
		entries = append(entries, TOCEntry{ID: h.ID, Text: h.Text, Level: h.Level})
	}
	return entries
}
