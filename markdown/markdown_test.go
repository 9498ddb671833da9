package markdown

import (
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, content string) string {
	t.Helper()
	var b strings.Builder
	if err := Render(content).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return b.String()
}

func TestRenderBasics(t *testing.T) {
	html := render(t, "## Введение\n\nПервый **абзац**.")
	if !strings.Contains(html, `<h2 id="введение">Введение</h2>`) {
		t.Errorf("heading missing or without id: %q", html)
	}
	if !strings.Contains(html, "<strong>абзац</strong>") {
		t.Errorf("emphasis not rendered: %q", html)
	}
}

func TestRenderKeepsRawHTML(t *testing.T) {
	html := render(t, "<div class=\"callout\">текст</div>")
	if !strings.Contains(html, `<div class="callout">`) {
		t.Errorf("raw HTML should pass through: %q", html)
	}
}

func TestExtractHeadings(t *testing.T) {
	content := "# Заголовок\n\nтекст\n\n## Раздел один\n\n### Подраздел\n\n## Раздел один"
	headings := ExtractHeadings(content)
	if len(headings) != 4 {
		t.Fatalf("headings = %v, want 4", headings)
	}

	want := []Heading{
		{ID: "заголовок", Text: "Заголовок", Level: 1},
		{ID: "раздел-один", Text: "Раздел один", Level: 2},
		{ID: "подраздел", Text: "Подраздел", Level: 3},
		{ID: "раздел-один-2", Text: "Раздел один", Level: 2},
	}
	for i, h := range headings {
		if h != want[i] {
			t.Errorf("headings[%d] = %+v, want %+v", i, h, want[i])
		}
	}
}

func TestExtractHeadingsIgnoresInlineMarkup(t *testing.T) {
	headings := ExtractHeadings("## Про *курсив* и `код`")
	if len(headings) != 1 {
		t.Fatalf("headings = %v", headings)
	}
	if headings[0].Text != "Про курсив и код" {
		t.Errorf("Text = %q", headings[0].Text)
	}
}

func TestExtractHeadingsEmptyAnchor(t *testing.T) {
	headings := ExtractHeadings("## ...\n\n## !!!")
	if len(headings) != 2 {
		t.Fatalf("headings = %v", headings)
	}
	if headings[0].ID != "section" || headings[1].ID != "section-2" {
		t.Errorf("ids = %q, %q", headings[0].ID, headings[1].ID)
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"plain", "три простых слова", 3},
		{"markup does not count", "**два** [слова](https://example.com)", 2},
		{"heading counts", "## Раздел\n\nодно слово ещё", 4},
		{"code block counts", "```\nfunc main() {}\n```", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountWords(tc.content); got != tc.want {
				t.Errorf("CountWords(%q) = %d, want %d", tc.content, got, tc.want)
			}
		})
	}
}

func TestRenderIDsMatchExtractedHeadings(t *testing.T) {
	content := "## Начало\n\n## Начало"
	html := render(t, content)
	for _, h := range ExtractHeadings(content) {
		if !strings.Contains(html, `id="`+h.ID+`"`) {
			t.Errorf("rendered output missing id %q", h.ID)
		}
	}
}
