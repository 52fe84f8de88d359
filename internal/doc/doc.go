package doc

import "strings"

// Run is a span of styled text inside a block. Flags are independent
// booleans; nested inline markup unions them, so bold inside italic
// yields a run with both set.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Code      bool
}

// Block is one top-level node of a parsed document. The concrete types
// below are the only implementations; renderers switch on them.
type Block interface {
	block()
}

// Heading is an h1-h6 title line.
type Heading struct {
	Level    int // 1..6
	Children []Run
}

// Paragraph is a plain text block.
type Paragraph struct {
	Children []Run
}

// UnorderedList holds bulleted items, one run list per item.
type UnorderedList struct {
	Items [][]Run
}

// OrderedList holds numbered items, one run list per item.
type OrderedList struct {
	Items [][]Run
}

// Blockquote is quoted text, flattened to one run list.
type Blockquote struct {
	Children []Run
}

// CodeBlock is preformatted text with entities decoded and whitespace
// kept as written.
type CodeBlock struct {
	Text string
}

// HorizontalRule is a thematic break.
type HorizontalRule struct{}

// Table holds rows of cells of runs. Rows may have unequal cell counts;
// renderers pad to the widest row.
type Table struct {
	Rows [][][]Run
}

// Image references a picture by source URI plus alt text.
type Image struct {
	Src string
	Alt string
}

func (Heading) block()        {}
func (Paragraph) block()      {}
func (UnorderedList) block()  {}
func (OrderedList) block()    {}
func (Blockquote) block()     {}
func (CodeBlock) block()      {}
func (HorizontalRule) block() {}
func (Table) block()          {}
func (Image) block()          {}

// PlainText concatenates the text of runs, styling ignored.
func PlainText(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
