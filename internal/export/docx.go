package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/stationd/internal/doc"
)

const (
	monoFont = "Courier New"

	// Display box for embedded pictures, EMU (9525 per pixel).
	emuPerPixel    = 9525
	imageWidthEMU  = 400 * emuPerPixel
	imageHeightEMU = 300 * emuPerPixel
)

// BuildDOCX renders blocks into a zipped OOXML package. Serialization is
// the only error path; everything before it degrades instead of failing.
func BuildDOCX(title string, blocks []doc.Block) ([]byte, error) {
	w := docx.New().WithDefaultTheme()

	w.AddParagraph().Justification("center").AddText(title).Size("48").Bold()

	// Spacer between title and body.
	w.AddParagraph()

	for _, b := range blocks {
		switch b := b.(type) {
		case doc.Heading:
			addHeading(w, b)
		case doc.Paragraph:
			addRuns(w.AddParagraph(), b.Children)
		case doc.UnorderedList:
			for _, item := range b.Items {
				p := w.AddParagraph()
				p.AddText("").AddTab()
				p.AddText("•  ")
				addRuns(p, item)
			}
		case doc.OrderedList:
			for i, item := range b.Items {
				p := w.AddParagraph()
				p.AddText("").AddTab()
				p.AddText(fmt.Sprintf("%d. ", i+1))
				addRuns(p, item)
			}
		case doc.Blockquote:
			addBlockquote(w, b)
		case doc.CodeBlock:
			for _, line := range splitLines(b.Text) {
				p := w.AddParagraph()
				p.AddText("").AddTab()
				p.AddText(line).Font(monoFont, "", monoFont, "default")
			}
		case doc.HorizontalRule:
			w.AddParagraph().AddText(strings.Repeat("_", 40))
		case doc.Table:
			addTable(w, b)
		case doc.Image:
			addImage(w, b)
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("build docx: %w", err)
	}
	return buf.Bytes(), nil
}

// headingSize maps heading level to w:sz half-point values (level 1 is
// 36 pt).
func headingSize(level int) string {
	switch level {
	case 1:
		return "72"
	case 2:
		return "60"
	case 3:
		return "52"
	default:
		return "48"
	}
}

func addHeading(w *docx.Docx, h doc.Heading) {
	size := headingSize(h.Level)
	p := w.AddParagraph()
	for _, r := range h.Children {
		run := p.AddText(r.Text).Size(size).Bold()
		if r.Italic {
			run.Italic()
		}
		if r.Underline {
			run.Underline("single")
		}
	}
}

func addBlockquote(w *docx.Docx, q doc.Blockquote) {
	p := w.AddParagraph()
	p.AddText("").AddTab()
	for _, r := range q.Children {
		run := p.AddText(r.Text).Italic()
		if r.Bold {
			run.Bold()
		}
	}
}

// addRuns appends one styled run per model run.
func addRuns(p *docx.Paragraph, runs []doc.Run) {
	for _, r := range runs {
		t := p.AddText(r.Text)
		if r.Bold {
			t.Bold()
		}
		if r.Italic {
			t.Italic()
		}
		if r.Underline {
			t.Underline("single")
		}
		if r.Code {
			t.Font(monoFont, "", monoFont, "default")
		}
	}
}

// addTable writes a cell grid padded to the widest row.
func addTable(w *docx.Docx, t doc.Table) {
	if len(t.Rows) == 0 {
		return
	}
	cols := 0
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}

	tbl := w.AddTable(len(t.Rows), cols, 0, nil)
	for ri, row := range t.Rows {
		for ci := 0; ci < cols; ci++ {
			p := tbl.TableRows[ri].TableCells[ci].AddParagraph()
			if ci < len(row) {
				addRuns(p, row[ci])
			}
		}
	}
}

// addImage writes the caption paragraph and, for base64 PNG/JPEG data
// URIs, embeds the picture at a fixed 400x300 display size. Malformed
// payloads are skipped, never fatal.
func addImage(w *docx.Docx, img doc.Image) {
	caption := img.Alt
	if caption == "" {
		caption = "[Image]"
	}
	w.AddParagraph().Justification("center").AddText(caption).Italic()

	data, ok := dataURIImage(img.Src)
	if !ok {
		return
	}
	p := w.AddParagraph().Justification("center")
	run, err := p.AddInlineDrawing(data)
	if err != nil {
		return
	}
	resizeInline(run, imageWidthEMU, imageHeightEMU)
}

// dataURIImage decodes a base64 PNG or JPEG data URI. Anything else is
// caption-only.
func dataURIImage(src string) ([]byte, bool) {
	if !strings.HasPrefix(src, "data:image/png;base64,") &&
		!strings.HasPrefix(src, "data:image/jpeg;base64,") {
		return nil, false
	}
	parts := strings.SplitN(src, ",", 2)
	if len(parts) != 2 {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	return data, true
}

// resizeInline pins the drawing extent to the given box.
func resizeInline(r *docx.Run, cx, cy int64) {
	for _, child := range r.Children {
		if d, ok := child.(*docx.Drawing); ok && d.Inline != nil && d.Inline.Extent != nil {
			d.Inline.Extent.CX = cx
			d.Inline.Extent.CY = cy
		}
	}
}
