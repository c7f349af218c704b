package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/resumetailor/internal/docmodel"
)

// Parser converts raw document bytes into a paragraph model.
type Parser interface {
	Parse(r io.Reader, filename string) (*docmodel.Document, error)
}

// Options tunes parser behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions that can be classified.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsRewritable reports whether documents of this type can be rebuilt with
// replaced text. Only .docx keeps run formatting.
func IsRewritable(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".docx")
}

func titleFrom(filename string, exts ...string) string {
	base := filepath.Base(filename)
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}

// linesToParagraphs turns each line into a paragraph. Trailing blank lines
// are dropped; inner blank lines become empty paragraphs.
func linesToParagraphs(text string) []docmodel.Paragraph {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n\r\t \f")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	out := make([]docmodel.Paragraph, 0, len(lines))
	for _, l := range lines {
		out = append(out, docmodel.Paragraph{Text: strings.TrimRight(l, "\r")})
	}
	return out
}
