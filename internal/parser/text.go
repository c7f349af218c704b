package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/resumetailor/internal/docmodel"
)

// TextParser handles plain text files. Every line is a paragraph.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*docmodel.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &docmodel.Document{
		Title:      titleFrom(filename, ".txt"),
		Format:     ".txt",
		Paragraphs: linesToParagraphs(sb.String()),
	}, nil
}
