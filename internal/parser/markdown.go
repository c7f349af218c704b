package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/resumetailor/internal/docmodel"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings carry a
// "HeadingN" style; every other line of text becomes its own paragraph.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*docmodel.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	out := &docmodel.Document{
		Title:  titleFrom(filename, ".md", ".markdown"),
		Format: ".md",
	}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		out.Paragraphs = appendBlock(out.Paragraphs, n, src)
	}
	return out, nil
}

// appendBlock flattens one block node into paragraphs.
func appendBlock(out []docmodel.Paragraph, n ast.Node, src []byte) []docmodel.Paragraph {
	switch node := n.(type) {
	case *ast.Heading:
		return append(out, docmodel.Paragraph{
			Text:  inlineText(node, src),
			Style: fmt.Sprintf("Heading%d", node.Level),
		})
	case *ast.Paragraph, *ast.TextBlock:
		return appendLines(out, inlineText(node, src))
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return appendLines(out, blockLines(node, src))
	case *ast.ThematicBreak, *ast.HTMLBlock:
		return out
	}
	// Lists, list items and block quotes only contain other blocks.
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = appendBlock(out, c, src)
	}
	return out
}

func appendLines(out []docmodel.Paragraph, s string) []docmodel.Paragraph {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, docmodel.Paragraph{Text: line})
		}
	}
	return out
}

// inlineText gets the text of a node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.AutoLink:
			sb.Write(t.Label(src))
		default:
			sb.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(sb.String())
}

func blockLines(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(src))
	}
	return sb.String()
}
