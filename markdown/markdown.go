// Package markdown renders post content and extracts document structure.
// Content is parsed with goldmark; the parser instance is shared because
// its configuration never changes and parsing creates per-call state.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

var (
	mdInstance goldmark.Markdown
	mdOnce     sync.Once
)

func instance() goldmark.Markdown {
	mdOnce.Do(func() {
		mdInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Post content comes from the admin editor, which may embed
			// raw HTML (video embeds, callouts).
			goldmark.WithRendererOptions(html.WithUnsafe()),
		)
	})
	return mdInstance
}

// Heading is one heading found in a document, in document order.
type Heading struct {
	ID    string
	Text  string
	Level int
}

// Render returns a templ.Component that renders content as HTML. Heading
// elements carry the same ids that ExtractHeadings reports, so a table of
// contents can link to them.
func Render(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		source := []byte(content)
		md := instance()
		doc := md.Parser().Parse(text.NewReader(source))
		assignHeadingIDs(doc, source)
		var buf bytes.Buffer
		if err := md.Renderer().Render(&buf, source, doc); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// ExtractHeadings returns every heading in content in document order. IDs
// are slugs of the heading text; duplicates get a numeric suffix, so ids
// are stable for a given document.
func ExtractHeadings(content string) []Heading {
	source := []byte(content)
	doc := instance().Parser().Parse(text.NewReader(source))
	var headings []Heading
	seen := make(map[string]int)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		txt := strings.TrimSpace(nodeText(h, source))
		headings = append(headings, Heading{
			ID:    uniqueAnchor(anchorID(txt), seen),
			Text:  txt,
			Level: h.Level,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// CountWords counts the words of the rendered text content, ignoring
// markup. Code blocks count too: readers read them.
func CountWords(content string) int {
	source := []byte(content)
	doc := instance().Parser().Parse(text.NewReader(source))
	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			b.WriteByte(' ')
		case *ast.String:
			b.Write(t.Value)
			b.WriteByte(' ')
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
				b.WriteByte(' ')
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return len(strings.Fields(b.String()))
}

// assignHeadingIDs sets the id attribute on every heading node using the
// same slug+suffix scheme as ExtractHeadings.
func assignHeadingIDs(doc ast.Node, source []byte) {
	seen := make(map[string]int)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		txt := strings.TrimSpace(nodeText(h, source))
		id := uniqueAnchor(anchorID(txt), seen)
		h.SetAttribute([]byte("id"), []byte(id))
		return ast.WalkSkipChildren, nil
	})
}

// nodeText concatenates the plain-text segments under n.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// anchorID lowercases txt and keeps Latin letters, Cyrillic letters, and
// digits; whitespace and hyphen runs collapse into one hyphen.
func anchorID(txt string) string {
	txt = strings.ToLower(strings.TrimSpace(txt))
	var b strings.Builder
	pendingHyphen := false
	for _, r := range txt {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r >= 'а' && r <= 'я', r == 'ё':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '-', r == '_':
			pendingHyphen = true
		}
	}
	if b.Len() == 0 {
		return "section"
	}
	return b.String()
}

// uniqueAnchor suffixes id with a counter when the document already used it.
func uniqueAnchor(id string, seen map[string]int) string {
	seen[id]++
	if n := seen[id]; n > 1 {
		return id + "-" + strconv.Itoa(n)
	}
	return id
}
