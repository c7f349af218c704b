// Package segment splits a resume into identity header, section headings and
// editable body content.
package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/resumetailor/internal/docmodel"
)

// Category is the role assigned to a paragraph.
type Category string

const (
	Empty   Category = "empty"   // blank line, kept for spacing
	Header  Category = "header"  // name and contact block
	Heading Category = "heading" // name heading or section title
	Content Category = "content" // editable body text
)

// Zone is the classifier's position in the document layout. Zones only advance.
type Zone int

const (
	ZonePreName Zone = iota // nothing heading-like seen yet
	ZoneContact             // name heading seen, no section yet
	ZoneBody                // inside the sections
)

func (z Zone) String() string {
	switch z {
	case ZonePreName:
		return "pre_name"
	case ZoneContact:
		return "contact"
	case ZoneBody:
		return "body"
	}
	return fmt.Sprintf("zone(%d)", int(z))
}

// Section is one classified paragraph as reported to clients.
type Section struct {
	Index int      `json:"index"`
	Type  Category `json:"type"`
	Text  string   `json:"text"`
}

// Classifier assigns a Category to every paragraph of a document.
// It is immutable and safe for concurrent use.
type Classifier struct {
	sectionTitle *regexp.Regexp
	contact      *regexp.Regexp
	maxTitleLen  int
	minCapsLen   int
}

// New compiles a Classifier from cfg.
func New(cfg Config) (*Classifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("classifier config: %w", err)
	}
	titles, err := regexp.Compile(`(?i)^(?:` + strings.Join(cfg.titles(), "|") + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile section titles: %w", err)
	}
	contact, err := regexp.Compile(`(?i)` + strings.Join(cfg.ContactPatterns, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile contact patterns: %w", err)
	}
	return &Classifier{
		sectionTitle: titles,
		contact:      contact,
		maxTitleLen:  cfg.MaxTitleLength,
		minCapsLen:   cfg.MinCapsLength,
	}, nil
}

// Default returns a Classifier built from DefaultConfig.
func Default() *Classifier {
	c, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns one Category per paragraph, in order.
func (c *Classifier) Classify(paras []docmodel.Paragraph) []Category {
	out := make([]Category, len(paras))
	zone := ZonePreName
	for i, p := range paras {
		out[i], zone = c.step(zone, p)
	}
	return out
}

// Sections classifies paras and pairs each category with its paragraph.
func (c *Classifier) Sections(paras []docmodel.Paragraph) []Section {
	cats := c.Classify(paras)
	out := make([]Section, len(paras))
	for i, p := range paras {
		out[i] = Section{Index: i, Type: cats[i], Text: p.Text}
	}
	return out
}

// step classifies one paragraph and returns the zone to continue in.
func (c *Classifier) step(zone Zone, p docmodel.Paragraph) (Category, Zone) {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return Empty, zone
	}

	if IsHeadingStyle(p.Style) {
		// The first styled heading is the candidate's name.
		if zone == ZonePreName {
			return Heading, ZoneContact
		}
		return Heading, ZoneBody
	}

	switch zone {
	case ZonePreName:
		// All-caps templates often have no heading styles at all; the first
		// section title opens the body directly.
		if c.LooksLikeSectionTitle(text) {
			return Heading, ZoneBody
		}
		return Header, ZonePreName
	case ZoneContact:
		if c.LooksLikeSectionTitle(text) {
			return Heading, ZoneBody
		}
		return Header, ZoneContact
	}

	switch {
	case c.IsContact(text):
		return Header, ZoneBody
	case c.LooksLikeSectionTitle(text):
		return Heading, ZoneBody
	default:
		return Content, ZoneBody
	}
}

// LooksLikeSectionTitle reports whether text reads like a resume section heading.
func (c *Classifier) LooksLikeSectionTitle(text string) bool {
	s := strings.TrimSpace(text)
	n := utf8.RuneCountInString(s)
	if n == 0 || n > c.maxTitleLen {
		return false
	}
	if n >= c.minCapsLen && isUpper(s) {
		return true
	}
	return c.sectionTitle.MatchString(s)
}

// IsContact reports whether text contains an email, phone number, profile
// link or website reference.
func (c *Classifier) IsContact(text string) bool {
	return c.contact.MatchString(text)
}

// IsHeadingStyle reports whether a style label names a heading style.
func IsHeadingStyle(style string) bool {
	return strings.Contains(strings.ToLower(style), "heading")
}

// isUpper is true when s has at least one cased letter and none in lower or title case.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}
