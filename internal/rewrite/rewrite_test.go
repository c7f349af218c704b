package rewrite

import (
	"testing"

	"github.com/dgallion1/resumetailor/internal/docmodel"
	"github.com/google/go-cmp/cmp"
)

func resume() []docmodel.Paragraph {
	return []docmodel.Paragraph{
		{Text: "Jane Doe", Runs: []docmodel.Run{{Text: "Jane Doe", Font: docmodel.Font{Size: 18, Bold: docmodel.On}}}},
		{Text: "jane@x.com | linkedin.com/in/jane", Runs: []docmodel.Run{{Text: "jane@x.com | linkedin.com/in/jane"}}},
		{Text: "EXPERIENCE", Runs: []docmodel.Run{{Text: "EXPERIENCE"}}},
		{Text: "Led a team.", Runs: []docmodel.Run{
			{Text: "Led ", Font: docmodel.Font{Name: "Calibri", Bold: docmodel.On}},
			{Text: "a team", Font: docmodel.Font{Name: "Calibri", Italic: docmodel.On}},
			{Text: ".", Font: docmodel.Font{Name: "Arial"}},
		}},
	}
}

func TestApply_PreservesFirstRunFont(t *testing.T) {
	doc := resume()
	out, rep := Apply(doc, map[int]string{3: "Led a team of five engineers."})

	p := out[3]
	if p.Text != "Led a team of five engineers." {
		t.Errorf("expected paragraph text to be replaced, got %q", p.Text)
	}
	if p.RunText() != "Led a team of five engineers." {
		t.Errorf("expected run text to equal new text, got %q", p.RunText())
	}
	first := p.Runs[0]
	if first.Text != "Led a team of five engineers." {
		t.Errorf("expected first run to carry the text, got %q", first.Text)
	}
	if first.Font.Name != "Calibri" {
		t.Errorf("expected font Calibri, got %q", first.Font.Name)
	}
	if first.Font.Bold != docmodel.On {
		t.Errorf("expected bold on, got %v", first.Font.Bold)
	}
	for i, r := range p.Runs[1:] {
		if r.Text != "" {
			t.Errorf("run %d should be cleared, got %q", i+1, r.Text)
		}
	}
	if len(rep.Applied) != 1 || rep.Applied[0].Index != 3 || rep.Applied[0].Created {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	doc := resume()
	before := resume()
	Apply(doc, map[int]string{3: "changed", 0: "changed"})
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestApply_UntargetedParagraphsUnchanged(t *testing.T) {
	doc := resume()
	out, _ := Apply(doc, map[int]string{3: "New text."})
	for i := 0; i < 3; i++ {
		if diff := cmp.Diff(doc[i], out[i]); diff != "" {
			t.Errorf("paragraph %d changed (-want +got):\n%s", i, diff)
		}
	}
}

func TestApply_OutOfRangeIgnored(t *testing.T) {
	doc := resume()
	out, rep := Apply(doc, map[int]string{4: "nope", 100: "nope", -1: "nope"})
	if diff := cmp.Diff(doc, out); diff != "" {
		t.Errorf("document changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{-1, 4, 100}, rep.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if len(rep.Applied) != 0 {
		t.Errorf("expected no applied edits, got %d", len(rep.Applied))
	}
}

func TestApply_CreatesRunWhenNoneExist(t *testing.T) {
	doc := []docmodel.Paragraph{{Text: "", Style: "ListBullet"}}
	out, rep := Apply(doc, map[int]string{0: "Fresh bullet."})
	p := out[0]
	if len(p.Runs) != 1 {
		t.Fatalf("expected one run, got %d", len(p.Runs))
	}
	if p.Runs[0].Text != "Fresh bullet." {
		t.Errorf("expected new run text, got %q", p.Runs[0].Text)
	}
	if p.Runs[0].Font != (docmodel.Font{}) {
		t.Errorf("expected default font on created run, got %+v", p.Runs[0].Font)
	}
	if p.Style != "ListBullet" {
		t.Errorf("expected style to be kept, got %q", p.Style)
	}
	if !rep.Applied[0].Created {
		t.Error("expected Created in outcome")
	}
}

func TestApply_Idempotent(t *testing.T) {
	edits := map[int]string{3: "Led a team of five engineers.", 1: "jane@y.com"}
	once, _ := Apply(resume(), edits)
	twice, _ := Apply(once, edits)
	for i := range once {
		if once[i].RunText() != twice[i].RunText() || once[i].Text != twice[i].Text {
			t.Errorf("paragraph %d text differs: %q vs %q", i, once[i].RunText(), twice[i].RunText())
		}
		if len(once[i].Runs) > 0 && once[i].Runs[0].Font != twice[i].Runs[0].Font {
			t.Errorf("paragraph %d font differs: %+v vs %+v", i, once[i].Runs[0].Font, twice[i].Runs[0].Font)
		}
	}
}

func TestApply_ColorCarried(t *testing.T) {
	doc := []docmodel.Paragraph{{Text: "x", Runs: []docmodel.Run{
		{Text: "x", Font: docmodel.Font{Color: docmodel.RGB(0x1F4E79), Size: 11}},
	}}}
	out, rep := Apply(doc, map[int]string{0: "y"})
	if out[0].Runs[0].Font.Color != docmodel.RGB(0x1F4E79) {
		t.Errorf("expected color kept, got %+v", out[0].Runs[0].Font.Color)
	}
	if out[0].Runs[0].Font.Size != 11 {
		t.Errorf("expected size kept, got %v", out[0].Runs[0].Font.Size)
	}
	if rep.Applied[0].ColorErr != nil {
		t.Errorf("unexpected color error: %v", rep.Applied[0].ColorErr)
	}
}

func TestApply_ColorFailureDoesNotBlockText(t *testing.T) {
	bad := docmodel.Color{RGB: 0x1000000, Set: true}
	doc := []docmodel.Paragraph{{Text: "x", Runs: []docmodel.Run{
		{Text: "x", Font: docmodel.Font{Name: "Georgia", Color: bad}},
	}}}
	out, rep := Apply(doc, map[int]string{0: "still written"})
	if out[0].Runs[0].Text != "still written" {
		t.Errorf("expected text applied, got %q", out[0].Runs[0].Text)
	}
	if out[0].Runs[0].Font.Name != "Georgia" {
		t.Errorf("expected font name kept, got %q", out[0].Runs[0].Font.Name)
	}
	if rep.Applied[0].ColorErr == nil {
		t.Error("expected color error to be reported")
	}
}

func TestEditMap_LastWriteWins(t *testing.T) {
	m := EditMap([]Edit{
		{Index: 2, NewText: "first"},
		{Index: 5, NewText: "other"},
		{Index: 2, NewText: "second"},
	})
	want := map[int]string{2: "second", 5: "other"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("edit map mismatch (-want +got):\n%s", diff)
	}
}
