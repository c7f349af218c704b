package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_HeadingsAndBlocks(t *testing.T) {
	input := `<html><head><title>Jane Doe CV</title><style>p{}</style></head>
<body>
<header><h1>Jane   Doe</h1><p>jane@x.com<br>555-123-4567</p></header>
<nav><a href="/">Home</a></nav>
<h2>Experience</h2>
<ul><li>Led a <b>team</b>.</li><li>Shipped it.</li></ul>
<script>var x = 1;</script>
</body></html>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "cv.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Jane Doe CV" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}

	want := []struct {
		text  string
		style string
	}{
		{"Jane Doe", "Heading1"},
		{"jane@x.com", ""},
		{"555-123-4567", ""},
		{"Experience", "Heading2"},
		{"Led a team.", ""},
		{"Shipped it.", ""},
	}
	if len(doc.Paragraphs) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %+v", len(want), len(doc.Paragraphs), doc.Paragraphs)
	}
	for i, w := range want {
		got := doc.Paragraphs[i]
		if got.Text != w.text || got.Style != w.style {
			t.Errorf("paragraph[%d]: expected (%q, %q), got (%q, %q)", i, w.text, w.style, got.Text, got.Style)
		}
	}
}

func TestHTMLParser_TitleFallsBackToFilename(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<p>hi</p>"), "resume.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "resume" {
		t.Errorf("expected %q, got %q", "resume", doc.Title)
	}
}
