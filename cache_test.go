package sitekit

import (
	"errors"
	"testing"
	"time"
)

func newTestCache(t *testing.T) (*PostCache, *ContentStore, string) {
	t.Helper()
	store, _ := newTestStore(t)
	catID := withCategory(t, store, "Новости")
	return NewPostCache(store, time.Minute), store, catID
}

func TestCacheListAndGet(t *testing.T) {
	cache, store, catID := newTestCache(t)
	authorID := firstAuthorID(t, store)

	in := validPostInput(catID, authorID)
	in.Featured = true
	created, err := store.CreatePost(in)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	draft := validPostInput(catID, authorID)
	draft.Title = "Черновик"
	draft.Status = StatusDraft
	if _, err := store.CreatePost(draft); err != nil {
		t.Fatalf("CreatePost draft failed: %v", err)
	}

	posts := cache.ListPosts("")
	if len(posts) != 1 || posts[0].ID != created.ID {
		t.Fatalf("ListPosts = %v, want only the published post", posts)
	}
	if got := cache.ListPosts("новости"); len(got) != 1 {
		t.Errorf("ListPosts by category = %v", got)
	}
	if got := cache.ListPosts("другое"); len(got) != 0 {
		t.Errorf("ListPosts unknown category = %v, want empty", got)
	}

	featured := cache.FeaturedPosts()
	if len(featured) != 1 || featured[0].ID != created.ID {
		t.Errorf("FeaturedPosts = %v", featured)
	}

	got, err := cache.GetPost(created.Slug)
	if err != nil || got.ID != created.ID {
		t.Errorf("GetPost = %v, %v", got, err)
	}
	if _, err := cache.GetPost("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheServesStaleUntilInvalidated(t *testing.T) {
	cache, store, catID := newTestCache(t)
	authorID := firstAuthorID(t, store)

	if got := cache.ListPosts(""); len(got) != 0 {
		t.Fatalf("ListPosts = %v, want empty", got)
	}

	// The cache holds the empty snapshot until Invalidate.
	if _, err := store.CreatePost(validPostInput(catID, authorID)); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if got := cache.ListPosts(""); len(got) != 0 {
		t.Fatalf("cache refreshed early: %v", got)
	}

	cache.Invalidate()
	if got := cache.ListPosts(""); len(got) != 1 {
		t.Fatalf("ListPosts after invalidate = %v, want 1", got)
	}
}
