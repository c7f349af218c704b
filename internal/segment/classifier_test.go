package segment

import (
	"strings"
	"testing"

	"github.com/dgallion1/resumetailor/internal/docmodel"
	"github.com/google/go-cmp/cmp"
)

func paras(texts ...string) []docmodel.Paragraph {
	out := make([]docmodel.Paragraph, len(texts))
	for i, t := range texts {
		out[i] = docmodel.Paragraph{Text: t}
	}
	return out
}

func styled(text, style string) docmodel.Paragraph {
	return docmodel.Paragraph{Text: text, Style: style}
}

func TestClassify_StyledHeadings(t *testing.T) {
	doc := []docmodel.Paragraph{
		styled("John Smith", "Heading1"),
		{Text: "john@x.com"},
		styled("EXPERIENCE", "Heading1"),
		{Text: "Built a system."},
	}
	got := Default().Classify(doc)
	want := []Category{Heading, Header, Heading, Content}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_TextHeuristicOnly(t *testing.T) {
	doc := paras("Jane Doe", "jane@x.com | linkedin.com/in/jane", "EXPERIENCE", "Led a team.")
	got := Default().Classify(doc)
	want := []Category{Header, Header, Heading, Content}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_EmptyDocument(t *testing.T) {
	got := Default().Classify(nil)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestClassify_WhitespaceIsAlwaysEmpty(t *testing.T) {
	doc := []docmodel.Paragraph{
		{Text: "  "},
		styled("Jane Doe", "Heading1"),
		{Text: "\t"},
		styled("Skills", "Heading2"),
		{Text: ""},
		styled("   ", "Heading2"),
		{Text: "Go, SQL"},
	}
	got := Default().Classify(doc)
	want := []Category{Empty, Heading, Empty, Heading, Empty, Empty, Content}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_LengthMatchesInput(t *testing.T) {
	c := Default()
	for n := 0; n < 20; n++ {
		doc := make([]docmodel.Paragraph, n)
		for i := range doc {
			doc[i] = docmodel.Paragraph{Text: strings.Repeat("x", i)}
		}
		if got := c.Classify(doc); len(got) != n {
			t.Fatalf("n=%d: got %d categories", n, len(got))
		}
	}
}

func TestClassify_ContactZoneUntilSectionTitle(t *testing.T) {
	doc := []docmodel.Paragraph{
		styled("Jane Doe", "Title Heading"),
		{Text: "123 Main St, Springfield"},
		{Text: "Open to relocation"},
		{Text: "Summary"},
		{Text: "Engineer with ten years of experience."},
	}
	got := Default().Classify(doc)
	want := []Category{Heading, Header, Header, Heading, Content}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_PreNameSectionTitleSkipsContactZone(t *testing.T) {
	// Contact details before the first all-caps section fall into the body
	// and are only rescued by the contact pattern.
	doc := paras("JANE DOE", "Springfield, IL", "jane@x.com", "Shipped things.")
	got := Default().Classify(doc)
	want := []Category{Heading, Content, Header, Content}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_BodyRules(t *testing.T) {
	doc := []docmodel.Paragraph{
		styled("Jane Doe", "Heading1"),
		styled("Projects", "Heading2"),
		{Text: "Built a compiler."},
		{Text: "Portfolio: janedoe.dev"},
		{Text: "See https://example.com/demo"},
		{Text: "(555) 123-4567"},
		{Text: "Education"},
		{Text: "AWARDS & HONORS"},
		{Text: "B.Sc. Computer Science"},
		styled("References", "heading 2"),
		{Text: "Available on request."},
	}
	got := Default().Classify(doc)
	want := []Category{
		Heading, Heading, Content, Header, Header, Header,
		Heading, Heading, Content, Heading, Content,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_NeverReturnsToHeaderZone(t *testing.T) {
	doc := []docmodel.Paragraph{
		{Text: "Jane Doe"},
		{Text: "EXPERIENCE"},
		{Text: "Led a team."},
		styled("Another", "Heading3"),
		{Text: "Plain sentence here."},
		{Text: "Another plain sentence."},
	}
	got := Default().Classify(doc)
	seenContent := false
	for i, cat := range got {
		if cat == Content {
			seenContent = true
		}
		if seenContent && cat == Header {
			t.Errorf("paragraph %d (%q) classified header after content", i, doc[i].Text)
		}
	}
}

func TestClassify_StyleSignalWinsOverText(t *testing.T) {
	// A styled heading in the pre-name zone is the name even when it looks
	// like a section title, so the next paragraph is still header.
	doc := []docmodel.Paragraph{
		styled("EXPERIENCE", "Heading1"),
		{Text: "555.123.4567"},
	}
	got := Default().Classify(doc)
	want := []Category{Heading, Header}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestLooksLikeSectionTitle(t *testing.T) {
	c := Default()
	tests := []struct {
		text string
		want bool
	}{
		{"EXPERIENCE", true},
		{"  Work History  ", true},
		{"work experience", true},
		{"Certification", true},
		{"Certifications", true},
		{"Volunteering", true},
		{"Core Competencies", true},
		{"ABC", true},
		{"AB", false},
		{"2020", false},
		{"2020 - 2024 ACME", true},
		{"Experience at Google", false},
		{"Skills:", false},
		{"", false},
		{strings.Repeat("A", 50), true},
		{strings.Repeat("A", 51), false},
		{"Led a team.", false},
	}
	for _, tt := range tests {
		if got := c.LooksLikeSectionTitle(tt.text); got != tt.want {
			t.Errorf("LooksLikeSectionTitle(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsContact(t *testing.T) {
	c := Default()
	tests := []struct {
		text string
		want bool
	}{
		{"jane.doe+cv@example.co.uk", true},
		{"+1 555 123 4567", true},
		{"555-123-4567", true},
		{"(555) 123.4567", true},
		{"linkedin.com/in/jane", true},
		{"GitHub.com/jane", true},
		{"gitlab.com/jane", true},
		{"Personal Website", true},
		{"HTTP APIs in Go", true},
		{"Led a team of five.", false},
		{"Call 5551234567", false},
	}
	for _, tt := range tests {
		if got := c.IsContact(tt.text); got != tt.want {
			t.Errorf("IsContact(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSections(t *testing.T) {
	doc := paras("Jane Doe", " EXPERIENCE ", "Led a team.")
	got := Default().Sections(doc)
	want := []Section{
		{Index: 0, Type: Header, Text: "Jane Doe"},
		{Index: 1, Type: Heading, Text: " EXPERIENCE "},
		{Index: 2, Type: Content, Text: "Led a team."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestIsHeadingStyle(t *testing.T) {
	for _, s := range []string{"Heading1", "heading 2", "SubHeading", "HEADING"} {
		if !IsHeadingStyle(s) {
			t.Errorf("expected %q to be a heading style", s)
		}
	}
	for _, s := range []string{"", "Normal", "Title", "ListParagraph"} {
		if IsHeadingStyle(s) {
			t.Errorf("expected %q not to be a heading style", s)
		}
	}
}
