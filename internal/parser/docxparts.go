package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
)

// runKey addresses a direct run of a top-level body paragraph.
type runKey struct{ para, run int }

// offToggles marks the bold and italic elements a run turns off with w:val.
type offToggles struct{ bold, italic bool }

// runToggle is one w:b or w:i element in a run's own properties, with its
// byte span in the part.
type runToggle struct {
	key        runKey
	italic     bool
	val        string
	start, end int64
}

// readParts returns the named package parts that exist.
func readParts(data []byte, names ...string) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	parts := make(map[string][]byte, len(names))
	for _, zf := range zr.File {
		for _, name := range names {
			if zf.Name != name {
				continue
			}
			b, err := readZipFile(zf)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			parts[name] = b
		}
	}
	return parts, nil
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// styleNames maps style IDs to their display names. Word localizes IDs
// ("berschrift1", "Titre1") but built-in names stay English ("heading 1").
func styleNames(part []byte) (map[string]string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(part))
	if err != nil {
		return nil, fmt.Errorf("parse styles: %w", err)
	}
	names := make(map[string]string)
	for _, n := range xmlquery.Find(doc, "//*[local-name()='style']") {
		id := attrValue(n, "styleId")
		name := xmlquery.FindOne(n, "*[local-name()='name']")
		if id == "" || name == nil {
			continue
		}
		if v := attrValue(name, "val"); v != "" {
			names[id] = v
		}
	}
	return names, nil
}

func attrValue(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// scanRunToggles calls fn for every w:b and w:i that sits directly in the
// rPr of a direct run of a top-level body paragraph. Paragraphs and runs are
// counted the way go-docx collects them, so keys line up with DOCXFile.
func scanRunToggles(part []byte, fn func(runToggle)) error {
	d := xml.NewDecoder(bytes.NewReader(part))
	var (
		stack     []string
		para, run = -1, -1
		cur       *runToggle
	)
	for {
		start := d.InputOffset()
		tok, err := d.RawToken()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			switch {
			case pathIs(stack, "document", "body", "p"):
				para++
				run = -1
			case pathIs(stack, "document", "body", "p", "r"):
				run++
			case len(stack) == 6 && pathIs(stack[:5], "document", "body", "p", "r", "rPr") &&
				(t.Name.Local == "b" || t.Name.Local == "i"):
				cur = &runToggle{
					key:    runKey{para, run},
					italic: t.Name.Local == "i",
					val:    xmlAttr(t.Attr, "val"),
					start:  start,
				}
			}
		case xml.EndElement:
			if cur != nil && len(stack) == 6 {
				cur.end = d.InputOffset()
				fn(*cur)
				cur = nil
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func pathIs(stack []string, path ...string) bool {
	if len(stack) != len(path) {
		return false
	}
	for i := range path {
		if stack[i] != path[i] {
			return false
		}
	}
	return true
}

func xmlAttr(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// isOff reports whether an ST_OnOff value turns the property off.
func isOff(val string) bool {
	switch strings.ToLower(val) {
	case "0", "false", "off":
		return true
	}
	return false
}

// offRuns collects the runs whose bold or italic is explicitly off.
func offRuns(part []byte) (map[runKey]offToggles, error) {
	off := make(map[runKey]offToggles)
	err := scanRunToggles(part, func(rt runToggle) {
		if !isOff(rt.val) {
			return
		}
		o := off[rt.key]
		if rt.italic {
			o.italic = true
		} else {
			o.bold = true
		}
		off[rt.key] = o
	})
	return off, err
}

// restoreOffToggles rewrites the document part of a saved package so the
// runs in off carry w:val="0" on their bold and italic elements. go-docx
// writes those elements without attributes.
func restoreOffToggles(pkg []byte, off map[runKey]offToggles, w io.Writer) error {
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	for _, zf := range zr.File {
		if zf.Name != documentPart {
			if err := zw.Copy(zf); err != nil {
				return err
			}
			continue
		}
		part, err := readZipFile(zf)
		if err != nil {
			return err
		}
		part, err = patchOffToggles(part, off)
		if err != nil {
			return err
		}
		pw, err := zw.CreateHeader(&zip.FileHeader{Name: zf.Name, Method: zip.Deflate})
		if err != nil {
			return err
		}
		if _, err := pw.Write(part); err != nil {
			return err
		}
	}
	return zw.Close()
}

func patchOffToggles(part []byte, off map[runKey]offToggles) ([]byte, error) {
	var spans []runToggle
	err := scanRunToggles(part, func(rt runToggle) {
		o := off[rt.key]
		if (rt.italic && o.italic) || (!rt.italic && o.bold) {
			spans = append(spans, rt)
		}
	})
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(part) + 16*len(spans))
	var last int64
	for _, s := range spans {
		out.Write(part[last:s.start])
		if s.italic {
			out.WriteString(`<w:i w:val="0"/>`)
		} else {
			out.WriteString(`<w:b w:val="0"/>`)
		}
		last = s.end
	}
	out.Write(part[last:])
	return out.Bytes(), nil
}
