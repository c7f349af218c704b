// Package rewrite replaces paragraph text while keeping the paragraph's
// run-level font attributes.
package rewrite

import (
	"fmt"
	"sort"

	"github.com/dgallion1/resumetailor/internal/docmodel"
)

// Edit replaces the text of the paragraph at Index.
type Edit struct {
	Index   int    `json:"index"`
	NewText string `json:"new_text"`
}

// Outcome describes one applied edit. ColorErr is set when the captured
// color could not be reapplied; the text change still happened.
type Outcome struct {
	Index    int
	Created  bool // a run had to be created because the paragraph had none
	ColorErr error
}

// Report summarizes an Apply call.
type Report struct {
	Applied []Outcome
	Skipped []int // out-of-range indices, ignored
}

// EditMap builds an index → text map. Later edits for the same index win.
func EditMap(edits []Edit) map[int]string {
	m := make(map[int]string, len(edits))
	for _, e := range edits {
		m[e.Index] = e.NewText
	}
	return m
}

// Apply rewrites the addressed paragraphs and returns a new slice. The input
// slice and its paragraphs are not modified; paragraphs without an edit are
// carried over as-is.
func Apply(paras []docmodel.Paragraph, edits map[int]string) ([]docmodel.Paragraph, Report) {
	out := make([]docmodel.Paragraph, len(paras))
	copy(out, paras)

	var rep Report
	for _, idx := range sortedIndices(edits) {
		if idx < 0 || idx >= len(paras) {
			rep.Skipped = append(rep.Skipped, idx)
			continue
		}
		p, o := Paragraph(paras[idx], edits[idx])
		o.Index = idx
		out[idx] = p
		rep.Applied = append(rep.Applied, o)
	}
	return out, rep
}

// Paragraph returns a copy of p whose visible text is text. Font attributes
// of the first run are captured, every run is cleared, the text goes into the
// first run (created if there is none) and the captured attributes are
// reapplied to it.
func Paragraph(p docmodel.Paragraph, text string) (docmodel.Paragraph, Outcome) {
	var o Outcome
	out := p.Clone()

	var captured docmodel.Font
	if len(out.Runs) > 0 {
		captured = out.Runs[0].Font
	}

	for i := range out.Runs {
		out.Runs[i].Text = ""
	}

	if len(out.Runs) == 0 {
		out.Runs = []docmodel.Run{{}}
		o.Created = true
	}
	run := &out.Runs[0]
	run.Text = text

	applyFont(run, captured)
	if err := applyColor(run, captured.Color); err != nil {
		o.ColorErr = err
	}

	out.Text = text
	return out, o
}

// applyFont reapplies every captured attribute that was explicitly set.
func applyFont(run *docmodel.Run, f docmodel.Font) {
	if f.Name != "" {
		run.Font.Name = f.Name
	}
	if f.Size > 0 {
		run.Font.Size = f.Size
	}
	if f.Bold.IsSet() {
		run.Font.Bold = f.Bold
	}
	if f.Italic.IsSet() {
		run.Font.Italic = f.Italic
	}
}

func applyColor(run *docmodel.Run, c docmodel.Color) error {
	if !c.Set {
		return nil
	}
	if _, err := c.Hex(); err != nil {
		return fmt.Errorf("reapply color: %w", err)
	}
	run.Font.Color = c
	return nil
}

func sortedIndices(m map[int]string) []int {
	idx := make([]int, 0, len(m))
	for i := range m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
