package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/resumetailor/internal/docmodel"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*docmodel.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	f, err := OpenDOCX(data)
	if err != nil {
		return nil, err
	}
	return &docmodel.Document{
		Title:      titleFrom(filename, ".docx"),
		Format:     ".docx",
		Paragraphs: f.Paragraphs(),
	}, nil
}

// DOCXFile is an opened .docx package whose body paragraphs can be read as
// docmodel paragraphs and written back after a rewrite.
type DOCXFile struct {
	doc    *docx.Docx
	paras  []*docx.Paragraph
	styles map[string]string
	off    map[runKey]offToggles
}

// OpenDOCX parses a .docx package held in memory. The package keeps reading
// untouched parts from data, so data must not be modified afterwards.
func OpenDOCX(data []byte) (*DOCXFile, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	f := &DOCXFile{doc: doc}
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			f.paras = append(f.paras, para)
		}
	}

	// go-docx keeps neither style names nor the w:val of w:b and w:i.
	parts, err := readParts(data, documentPart, stylesPart)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	if part, ok := parts[stylesPart]; ok {
		if f.styles, err = styleNames(part); err != nil {
			return nil, err
		}
	}
	if f.off, err = offRuns(parts[documentPart]); err != nil {
		return nil, err
	}
	return f, nil
}

// Len returns the number of top-level body paragraphs.
func (f *DOCXFile) Len() int { return len(f.paras) }

// Paragraphs returns the current state of every top-level body paragraph.
// Paragraphs inside tables are not included.
func (f *DOCXFile) Paragraphs() []docmodel.Paragraph {
	out := make([]docmodel.Paragraph, len(f.paras))
	for i, p := range f.paras {
		out[i] = f.readParagraph(i, p)
	}
	return out
}

// Commit writes the runs of p into paragraph i. Run i of p replaces the text
// of the package's run i; runs beyond the existing ones are appended. Font
// attributes are written only where they differ from what the run already
// has, and paragraph properties are never touched. Hyperlink text is cleared
// so the paragraph shows exactly p's run text.
func (f *DOCXFile) Commit(i int, p docmodel.Paragraph) error {
	if i < 0 || i >= len(f.paras) {
		return fmt.Errorf("paragraph %d out of range [0, %d)", i, len(f.paras))
	}
	dp := f.paras[i]
	runs := directRuns(dp)

	for j, r := range p.Runs {
		var run *docx.Run
		if j < len(runs) {
			run = runs[j]
		} else {
			run = &docx.Run{RunProperties: &docx.RunProperties{}}
			dp.Children = append(dp.Children, run)
		}
		setRunText(run, r.Text)
		f.writeFont(runKey{i, j}, run, r.Font)
	}

	for _, child := range dp.Children {
		if h, ok := child.(*docx.Hyperlink); ok {
			setRunText(&h.Run, "")
		}
	}
	return nil
}

// Save serializes the package.
func (f *DOCXFile) Save(w io.Writer) error {
	if len(f.off) == 0 {
		if _, err := f.doc.WriteTo(w); err != nil {
			return fmt.Errorf("write docx: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	if _, err := f.doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	if err := restoreOffToggles(buf.Bytes(), f.off, w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func directRuns(p *docx.Paragraph) []*docx.Run {
	var runs []*docx.Run
	for _, child := range p.Children {
		if run, ok := child.(*docx.Run); ok {
			runs = append(runs, run)
		}
	}
	return runs
}

func (f *DOCXFile) readParagraph(i int, p *docx.Paragraph) docmodel.Paragraph {
	var out docmodel.Paragraph
	if p.Properties != nil && p.Properties.Style != nil {
		out.Style = f.styleName(p.Properties.Style.Val)
	}

	var text strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			t := runText(c)
			text.WriteString(t)
			font := f.runFont(runKey{i, len(out.Runs)}, c.RunProperties)
			out.Runs = append(out.Runs, docmodel.Run{Text: t, Font: font})
		case *docx.Hyperlink:
			text.WriteString(runText(&c.Run))
		}
	}
	out.Text = text.String()
	return out
}

// styleName returns the display name of a paragraph style, or the ID when
// styles.xml does not define it.
func (f *DOCXFile) styleName(id string) string {
	if name, ok := f.styles[id]; ok {
		return name
	}
	return id
}

// runFont reads a run's font with explicitly disabled toggles as Off.
func (f *DOCXFile) runFont(k runKey, rp *docx.RunProperties) docmodel.Font {
	font := readFont(rp)
	off := f.off[k]
	if off.bold && font.Bold == docmodel.On {
		font.Bold = docmodel.Off
	}
	if off.italic && font.Italic == docmodel.On {
		font.Italic = docmodel.Off
	}
	return font
}

func runText(r *docx.Run) string {
	var sb strings.Builder
	for _, rc := range r.Children {
		switch t := rc.(type) {
		case *docx.Text:
			sb.WriteString(t.Text)
		case *docx.Tab:
			sb.WriteByte('\t')
		case *docx.BarterRabbet:
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func readFont(rp *docx.RunProperties) docmodel.Font {
	var f docmodel.Font
	if rp == nil {
		return f
	}
	if rp.Fonts != nil {
		f.Name = rp.Fonts.ASCII
		if f.Name == "" {
			f.Name = rp.Fonts.HAnsi
		}
	}
	if rp.Size != nil {
		// w:sz is in half-points.
		if hp, err := strconv.ParseFloat(rp.Size.Val, 64); err == nil && hp > 0 {
			f.Size = hp / 2
		}
	}
	if rp.Bold != nil {
		f.Bold = docmodel.On
	}
	if rp.Italic != nil {
		f.Italic = docmodel.On
	}
	if rp.Color != nil {
		f.Color = docmodel.ParseColor(rp.Color.Val)
	}
	return f
}

// setRunText replaces the text-bearing children of r, keeping drawings and
// other inline objects in place.
func setRunText(r *docx.Run, text string) {
	kept := make([]interface{}, 0, len(r.Children))
	for _, rc := range r.Children {
		switch rc.(type) {
		case *docx.Text, *docx.Tab, *docx.BarterRabbet:
			continue
		}
		kept = append(kept, rc)
	}
	r.Children = append(kept, textChildren(text)...)
}

// textChildren mirrors how Word stores text: tabs and line breaks are
// separate elements.
func textChildren(text string) []interface{} {
	var out []interface{}
	text = strings.ReplaceAll(xmlText(text), "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out = append(out, &docx.BarterRabbet{})
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				out = append(out, &docx.Tab{})
			}
			if seg == "" {
				continue
			}
			t := &docx.Text{Text: seg}
			if strings.TrimSpace(seg) != seg {
				t.XMLSpace = "preserve"
			}
			out = append(out, t)
		}
	}
	return out
}

func (f *DOCXFile) writeFont(k runKey, r *docx.Run, font docmodel.Font) {
	have := f.runFont(k, r.RunProperties)
	if have == font {
		return
	}
	if r.RunProperties == nil {
		r.RunProperties = &docx.RunProperties{}
	}
	rp := r.RunProperties

	if font.Name != have.Name && font.Name != "" {
		if rp.Fonts == nil {
			rp.Fonts = &docx.RunFonts{}
		}
		rp.Fonts.ASCII = font.Name
		rp.Fonts.HAnsi = font.Name
	}
	if font.Size != have.Size && font.Size > 0 {
		rp.Size = &docx.Size{Val: strconv.Itoa(int(font.Size*2 + 0.5))}
	}

	// Off keeps the element; Save writes it back with w:val="0".
	off := f.off[k]
	if font.Bold != have.Bold && font.Bold.IsSet() {
		rp.Bold = &docx.Bold{}
		off.bold = font.Bold == docmodel.Off
	}
	if font.Italic != have.Italic && font.Italic.IsSet() {
		rp.Italic = &docx.Italic{}
		off.italic = font.Italic == docmodel.Off
	}
	f.setOff(k, off)

	if font.Color != have.Color && font.Color.Set {
		// Text is already in place; an unwritable color leaves the run's color as it was.
		_ = writeColor(rp, font.Color)
	}
}

func (f *DOCXFile) setOff(k runKey, o offToggles) {
	if o == (offToggles{}) {
		delete(f.off, k)
		return
	}
	if f.off == nil {
		f.off = make(map[runKey]offToggles)
	}
	f.off[k] = o
}

func writeColor(rp *docx.RunProperties, c docmodel.Color) error {
	hex, err := c.Hex()
	if err != nil {
		return err
	}
	rp.Color = &docx.Color{Val: hex}
	return nil
}
