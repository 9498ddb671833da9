package sitekit

import (
	"reflect"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Новости", "новости"},
		{"Как вести заметки", "как-вести-заметки"},
		{"  Trim   me  ", "trim-me"},
		{"Snake_case_and-dash", "snake-case-and-dash"},
		{"Ёлки 2024!", "ёлки-2024"},
		{"???", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	for _, in := range []string{"Hello World", "Новости недели", "a--b__c"} {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestBuildURL(t *testing.T) {
	cases := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"blog"}, "https://example.com/blog/"},
		{"https://example.com/", []string{"blog", "пост"}, "https://example.com/blog/%D0%BF%D0%BE%D1%81%D1%82/"},
	}
	for _, tc := range cases {
		if got := BuildURL(tc.base, tc.segments...); got != tc.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tc.base, tc.segments, got, tc.want)
		}
	}
}

func TestFilterEmpty(t *testing.T) {
	got := FilterEmpty([]string{"a", "", "  ", "b "})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("FilterEmpty = %v", got)
	}
}

func TestRelatedPosts(t *testing.T) {
	current := Post{ID: "1", Tags: []string{"Заметки", "ai"}}
	posts := []Post{
		{ID: "1", Tags: []string{"заметки"}},        // self, skipped
		{ID: "2", Tags: []string{"заметки", "web"}}, // case-insensitive match
		{ID: "3", Tags: []string{"web"}},            // no shared tag
		{ID: "4", Tags: []string{" AI "}},           // whitespace tolerated
	}
	related := RelatedPosts(current, posts)
	if len(related) != 2 || related[0].ID != "2" || related[1].ID != "4" {
		t.Errorf("RelatedPosts = %v, want posts 2 and 4", related)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	cfg := SiteConfig{Name: "Заметка", URL: "https://example.com"}
	post := Post{
		Title:    "Обычный заголовок",
		SEOTitle: "SEO заголовок",
		Slug:     "post",
		Excerpt:  "Описание",
		Tags:     []string{"ai"},
	}
	out := BlogPostingJsonLD(post, Author{Name: "Анна"}, cfg)
	if !strings.Contains(out, `"headline":"SEO заголовок"`) {
		t.Errorf("SEO title should win: %s", out)
	}
	if !strings.Contains(out, `"keywords":"ai"`) {
		t.Errorf("tags should back keywords: %s", out)
	}
	if !strings.Contains(out, "https://example.com/blog/post/") {
		t.Errorf("url missing: %s", out)
	}
}
