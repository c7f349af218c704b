package docmodel

import (
	"fmt"
	"strconv"
	"strings"
)

// Document is the in-memory paragraph model of a parsed resume.
type Document struct {
	Title      string      // Document title (from metadata or filename)
	Format     string      // Source extension, e.g. ".docx"
	Paragraphs []Paragraph // Top-level body paragraphs in document order
}

// Paragraph is one block of text in the document body.
type Paragraph struct {
	Text  string // Visible text, formatting stripped (not trimmed)
	Style string // Style label, e.g. "Heading1"; empty if none
	Runs  []Run  // Direct runs; empty for sources without run formatting
}

// Run is a span of text sharing one set of font attributes.
type Run struct {
	Text string
	Font Font
}

// Font holds the run-level attributes the rewriter preserves.
type Font struct {
	Name   string  // Empty means inherit
	Size   float64 // Points; 0 means inherit
	Bold   Toggle
	Italic Toggle
	Color  Color
}

// Toggle is a tri-state boolean property.
type Toggle int8

const (
	Inherit Toggle = iota
	On
	Off
)

// ToggleOf converts a bool into an explicit Toggle.
func ToggleOf(v bool) Toggle {
	if v {
		return On
	}
	return Off
}

// IsSet reports whether the toggle overrides the inherited value.
func (t Toggle) IsSet() bool { return t == On || t == Off }

func (t Toggle) String() string {
	switch t {
	case On:
		return "on"
	case Off:
		return "off"
	}
	return "inherit"
}

// Color is an optional RGB value. The zero value means no explicit color.
type Color struct {
	RGB uint32
	Set bool
}

// RGB returns an explicit color.
func RGB(v uint32) Color { return Color{RGB: v, Set: true} }

// ParseColor reads a six-digit hex color. Anything else ("auto", theme
// references, malformed values) yields an absent color.
func ParseColor(s string) Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}
	}
	return RGB(uint32(v))
}

// Hex formats the color as six upper-case hex digits.
func (c Color) Hex() (string, error) {
	if !c.Set {
		return "", fmt.Errorf("color not set")
	}
	if c.RGB > 0xFFFFFF {
		return "", fmt.Errorf("color %#x exceeds 24 bits", c.RGB)
	}
	return fmt.Sprintf("%06X", c.RGB), nil
}

// Clone returns a deep copy of the paragraph.
func (p Paragraph) Clone() Paragraph {
	out := p
	if p.Runs != nil {
		out.Runs = make([]Run, len(p.Runs))
		copy(out.Runs, p.Runs)
	}
	return out
}

// RunText concatenates the text of all runs.
func (p Paragraph) RunText() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
