package export

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"codeberg.org/go-pdf/fpdf"

	"github.com/dgallion1/stationd/internal/doc"
)

// Page geometry: A4 in millimeters, 25 mm margins all around.
const (
	pageWidth  = 210.0
	pageHeight = 297.0

	marginLeft   = 25.0
	marginRight  = 25.0
	marginTop    = 25.0
	marginBottom = 25.0

	usableWidth = pageWidth - marginLeft - marginRight

	// 1 pt = 0.3528 mm.
	ptPerMM = 2.8346
)

// Average glyph width as a fraction of the font size. Courier is fixed at
// 600/1000 units; Helvetica averages out near 520/1000. Only the built-in
// fonts are available, so widths are estimated, not measured.
const (
	charRatioMono = 0.60
	charRatioText = 0.52
)

// pageWriter owns the page handle, the vertical cursor, and font state
// for exactly one render call.
type pageWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64 // cursor, mm from the top edge
}

func newPageWriter(title string) *pageWriter {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle(title, true)
	p.SetMargins(marginLeft, marginTop, marginRight)
	// Page breaks are decided before each line, not by the library.
	p.SetAutoPageBreak(false, marginBottom)
	p.AddPage()
	return &pageWriter{
		pdf: p,
		tr:  p.UnicodeTranslatorFromDescriptor(""),
		y:   marginTop,
	}
}

func (w *pageWriter) newPage() {
	w.pdf.AddPage()
	w.y = marginTop
}

// ensureSpace starts a new page when the next write would cross the
// bottom margin.
func (w *pageWriter) ensureSpace(needed float64) {
	if w.y+needed > pageHeight-marginBottom {
		w.newPage()
	}
}

// setFont maps style flags onto the built-in font set. Code wins over
// bold/italic; there is only one monospace face.
func (w *pageWriter) setFont(bold, italic, code bool, sizePt float64) {
	if code {
		w.pdf.SetFont("Courier", "", sizePt)
		return
	}
	style := ""
	if bold {
		style += "B"
	}
	if italic {
		style += "I"
	}
	w.pdf.SetFont("Helvetica", style, sizePt)
}

// textWidth estimates rendered width in mm from the average glyph ratio.
func textWidth(text string, sizePt float64, mono bool) float64 {
	ratio := charRatioText
	if mono {
		ratio = charRatioMono
	}
	return float64(utf8.RuneCountInString(text)) * sizePt * ratio / ptPerMM
}

// wrapText fills lines greedily: hard newlines first, then whitespace
// words. A single word wider than the line overflows, it is never split.
func wrapText(text string, sizePt, maxWidth float64, mono bool) []string {
	var lines []string
	for _, hard := range strings.Split(text, "\n") {
		words := strings.Fields(hard)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			test := word
			if line != "" {
				test = line + " " + word
			}
			if textWidth(test, sizePt, mono) > maxWidth && line != "" {
				lines = append(lines, line)
				line = word
			} else {
				line = test
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

func (w *pageWriter) writeLine(text string, indent float64) {
	w.pdf.Text(marginLeft+indent, w.y, w.tr(text))
}

// writeBlock concatenates the runs, wraps the result, and writes it line
// by line. Every line is drawn with the first non-empty run's style;
// per-run styling inside one block is not reproduced.
func (w *pageWriter) writeBlock(runs []doc.Run, sizePt, indent float64, prefix string) {
	lineH := sizePt / ptPerMM * 1.4
	maxWidth := usableWidth - indent

	var sb strings.Builder
	sb.WriteString(prefix)
	mono := false
	for _, r := range runs {
		sb.WriteString(r.Text)
		if r.Code {
			mono = true
		}
	}

	bold, italic, code := firstStyle(runs)
	w.setFont(bold, italic, code, sizePt)

	for _, line := range wrapText(sb.String(), sizePt, maxWidth, mono) {
		w.ensureSpace(lineH)
		w.writeLine(line, indent)
		w.y += lineH
	}
}

// spacer advances the cursor, paginating when it crosses the bottom
// margin.
func (w *pageWriter) spacer(mm float64) {
	w.y += mm
	if w.y > pageHeight-marginBottom {
		w.newPage()
	}
}

// rule draws a horizontal line across the usable width at the cursor.
func (w *pageWriter) rule(gray int, widthPt float64) {
	w.pdf.SetDrawColor(gray, gray, gray)
	w.pdf.SetLineWidth(widthPt / ptPerMM)
	w.pdf.Line(marginLeft, w.y, pageWidth-marginRight, w.y)
}

// quoteBar draws the gray bar left of a blockquote. Height is estimated
// from the run count, not the wrapped line count.
func (w *pageWriter) quoteBar(items int) {
	if items < 1 {
		items = 1
	}
	x := marginLeft + 3.0
	top := w.y - 2.0
	bottom := w.y + float64(items)*11.0/ptPerMM*1.4 + 2.0
	if limit := pageHeight - marginBottom; bottom > limit {
		bottom = limit
	}
	w.pdf.SetDrawColor(153, 153, 153)
	w.pdf.SetLineWidth(1.5 / ptPerMM)
	w.pdf.Line(x, top, x, bottom)
}

// headingPointSize maps heading level to a font size (level 1 largest).
func headingPointSize(level int) float64 {
	switch level {
	case 1:
		return 18
	case 2:
		return 15
	case 3:
		return 13
	default:
		return 12
	}
}

// forceBold copies runs with bold switched on.
func forceBold(runs []doc.Run) []doc.Run {
	out := make([]doc.Run, len(runs))
	for i, r := range runs {
		r.Bold = true
		out[i] = r
	}
	return out
}

// forceItalic copies runs with italic switched on.
func forceItalic(runs []doc.Run) []doc.Run {
	out := make([]doc.Run, len(runs))
	for i, r := range runs {
		r.Italic = true
		out[i] = r
	}
	return out
}

// BuildPDF renders blocks into a paginated A4 document. Only the final
// save can fail.
func BuildPDF(title string, blocks []doc.Block) ([]byte, error) {
	w := newPageWriter(title)

	// Title block, then a rule under it.
	w.setFont(true, false, false, 20)
	titleH := 20.0 / ptPerMM * 1.5
	for _, line := range wrapText(title, 20, usableWidth, false) {
		w.ensureSpace(titleH)
		w.writeLine(line, 0)
		w.y += titleH
	}
	w.spacer(6)
	w.rule(178, 0.5)
	w.spacer(6)

	for _, b := range blocks {
		switch b := b.(type) {
		case doc.Heading:
			w.spacer(3)
			w.writeBlock(forceBold(b.Children), headingPointSize(b.Level), 0, "")
			w.spacer(2)
		case doc.Paragraph:
			w.writeBlock(b.Children, 11, 0, "")
			w.spacer(3)
		case doc.UnorderedList:
			for _, item := range b.Items {
				w.writeBlock(item, 11, 8, "•  ")
				w.spacer(1.5)
			}
			w.spacer(2)
		case doc.OrderedList:
			for i, item := range b.Items {
				w.writeBlock(item, 11, 8, fmt.Sprintf("%d. ", i+1))
				w.spacer(1.5)
			}
			w.spacer(2)
		case doc.Blockquote:
			w.quoteBar(len(b.Children))
			w.writeBlock(forceItalic(b.Children), 11, 10, "")
			w.spacer(3)
		case doc.CodeBlock:
			w.spacer(2)
			for _, line := range splitLines(b.Text) {
				w.writeBlock([]doc.Run{{Text: line, Code: true}}, 9, 6, "")
			}
			w.spacer(3)
		case doc.HorizontalRule:
			w.spacer(3)
			w.rule(191, 0.5)
			w.spacer(3)
		case doc.Table:
			// Rows become pipe-joined plain lines here; the cell grid
			// only exists in the DOCX output.
			w.spacer(2)
			for _, row := range b.Rows {
				cells := make([]string, len(row))
				for i, cell := range row {
					cells[i] = doc.PlainText(cell)
				}
				w.writeBlock([]doc.Run{{Text: strings.Join(cells, "  |  ")}}, 10, 0, "")
				w.spacer(1)
			}
			w.spacer(2)
		case doc.Image:
			caption := "[Image]"
			if b.Alt != "" {
				caption = fmt.Sprintf("[Image: %s]", b.Alt)
			}
			w.writeBlock([]doc.Run{{Text: caption, Italic: true}}, 10, 0, "")
			w.spacer(3)
		}
	}

	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("save pdf: %w", err)
	}
	return buf.Bytes(), nil
}
