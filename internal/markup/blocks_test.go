package markup

import (
	"strings"
	"testing"

	"github.com/dgallion1/stationd/internal/doc"
)

func TestParse_HeadingAndParagraph(t *testing.T) {
	blocks := Parse("<h1>Title</h1><p>Hello <strong>world</strong></p>")

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	h, ok := blocks[0].(doc.Heading)
	if !ok {
		t.Fatalf("block 0: expected Heading, got %T", blocks[0])
	}
	if h.Level != 1 {
		t.Errorf("heading level: expected 1, got %d", h.Level)
	}
	if doc.PlainText(h.Children) != "Title" {
		t.Errorf("heading text: expected %q, got %q", "Title", doc.PlainText(h.Children))
	}

	p, ok := blocks[1].(doc.Paragraph)
	if !ok {
		t.Fatalf("block 1: expected Paragraph, got %T", blocks[1])
	}
	if len(p.Children) != 2 {
		t.Fatalf("paragraph runs: expected 2, got %d", len(p.Children))
	}
	if p.Children[0].Text != "Hello " || p.Children[0].Bold {
		t.Errorf("run 0: expected plain %q, got %+v", "Hello ", p.Children[0])
	}
	if p.Children[1].Text != "world" || !p.Children[1].Bold {
		t.Errorf("run 1: expected bold %q, got %+v", "world", p.Children[1])
	}
}

func TestParse_HeadingLevels(t *testing.T) {
	blocks := Parse("<h2>a</h2><h6>b</h6>")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if h := blocks[0].(doc.Heading); h.Level != 2 {
		t.Errorf("expected level 2, got %d", h.Level)
	}
	if h := blocks[1].(doc.Heading); h.Level != 6 {
		t.Errorf("expected level 6, got %d", h.Level)
	}
}

func TestParse_UnorderedListStripsItemParagraphs(t *testing.T) {
	blocks := Parse("<ul><li><p>one</p></li><li>two</li><li><p>three</p></li></ul>")

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	list, ok := blocks[0].(doc.UnorderedList)
	if !ok {
		t.Fatalf("expected UnorderedList, got %T", blocks[0])
	}
	if len(list.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(list.Items))
	}
	want := []string{"one", "two", "three"}
	for i, item := range list.Items {
		if doc.PlainText(item) != want[i] {
			t.Errorf("item %d: expected %q, got %q", i, want[i], doc.PlainText(item))
		}
	}
}

func TestParse_OrderedList(t *testing.T) {
	blocks := Parse("<ol><li>first</li><li>second</li></ol>")
	list, ok := blocks[0].(doc.OrderedList)
	if !ok {
		t.Fatalf("expected OrderedList, got %T", blocks[0])
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list.Items))
	}
}

func TestParse_BlockquoteFlattensParagraphs(t *testing.T) {
	blocks := Parse("<blockquote><p>wise words</p></blockquote>")
	q, ok := blocks[0].(doc.Blockquote)
	if !ok {
		t.Fatalf("expected Blockquote, got %T", blocks[0])
	}
	if doc.PlainText(q.Children) != "wise words" {
		t.Errorf("expected %q, got %q", "wise words", doc.PlainText(q.Children))
	}
}

func TestParse_CodeBlockKeepsWhitespaceAndDecodesEntities(t *testing.T) {
	blocks := Parse("<pre><code>if a &lt; b {\n\treturn\n}</code></pre>")
	cb, ok := blocks[0].(doc.CodeBlock)
	if !ok {
		t.Fatalf("expected CodeBlock, got %T", blocks[0])
	}
	want := "if a < b {\n\treturn\n}"
	if cb.Text != want {
		t.Errorf("expected %q, got %q", want, cb.Text)
	}
}

func TestParse_HorizontalRule(t *testing.T) {
	blocks := Parse("<p>a</p><hr><p>b</p>")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if _, ok := blocks[1].(doc.HorizontalRule); !ok {
		t.Errorf("block 1: expected HorizontalRule, got %T", blocks[1])
	}
}

func TestParse_TableRaggedRows(t *testing.T) {
	blocks := Parse("<table><tr><td>A</td></tr><tr><td>B</td><td>C</td></tr></table>")
	tbl, ok := blocks[0].(doc.Table)
	if !ok {
		t.Fatalf("expected Table, got %T", blocks[0])
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if len(tbl.Rows[0]) != 1 || len(tbl.Rows[1]) != 2 {
		t.Errorf("expected row lengths 1 and 2, got %d and %d", len(tbl.Rows[0]), len(tbl.Rows[1]))
	}
	if doc.PlainText(tbl.Rows[1][1]) != "C" {
		t.Errorf("cell (1,1): expected %q, got %q", "C", doc.PlainText(tbl.Rows[1][1]))
	}
}

func TestParse_TableSectionWrappersStripped(t *testing.T) {
	blocks := Parse("<table><thead><tr><th>H</th></tr></thead><tbody><tr><td>D</td></tr></tbody></table>")
	tbl := blocks[0].(doc.Table)
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if doc.PlainText(tbl.Rows[0][0]) != "H" || doc.PlainText(tbl.Rows[1][0]) != "D" {
		t.Errorf("unexpected cells: %q, %q", doc.PlainText(tbl.Rows[0][0]), doc.PlainText(tbl.Rows[1][0]))
	}
}

func TestParse_ImageAttributes(t *testing.T) {
	blocks := Parse(`<img src="pic.png" alt='A picture'>`)
	img, ok := blocks[0].(doc.Image)
	if !ok {
		t.Fatalf("expected Image, got %T", blocks[0])
	}
	if img.Src != "pic.png" || img.Alt != "A picture" {
		t.Errorf("unexpected image: %+v", img)
	}
}

func TestParse_ImageUnquotedAndValuelessAttributes(t *testing.T) {
	blocks := Parse(`<img src=pic.png hidden alt="x"/>`)
	img, ok := blocks[0].(doc.Image)
	if !ok {
		t.Fatalf("expected Image, got %T", blocks[0])
	}
	if img.Src != "pic.png" || img.Alt != "x" {
		t.Errorf("unexpected image: %+v", img)
	}
}

func TestParse_WrapperTagsSpliced(t *testing.T) {
	blocks := Parse("<div><p>inside</p><section><h2>deep</h2></section></div>")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if _, ok := blocks[0].(doc.Paragraph); !ok {
		t.Errorf("block 0: expected Paragraph, got %T", blocks[0])
	}
	if _, ok := blocks[1].(doc.Heading); !ok {
		t.Errorf("block 1: expected Heading, got %T", blocks[1])
	}
}

func TestParse_UnknownTagContentPreserved(t *testing.T) {
	blocks := Parse("<foo>hello</foo>")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	p, ok := blocks[0].(doc.Paragraph)
	if !ok {
		t.Fatalf("expected Paragraph, got %T", blocks[0])
	}
	if doc.PlainText(p.Children) != "hello" {
		t.Errorf("expected %q, got %q", "hello", doc.PlainText(p.Children))
	}
}

func TestParse_UnknownTagDoesNotAbortTraversal(t *testing.T) {
	blocks := Parse("<widget><nested></nested></widget><p>after</p>")
	last := blocks[len(blocks)-1]
	p, ok := last.(doc.Paragraph)
	if !ok {
		t.Fatalf("expected trailing Paragraph, got %T", last)
	}
	if doc.PlainText(p.Children) != "after" {
		t.Errorf("expected %q, got %q", "after", doc.PlainText(p.Children))
	}
}

func TestParse_PlainTextBecomesParagraph(t *testing.T) {
	blocks := Parse("just some text")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	p := blocks[0].(doc.Paragraph)
	if doc.PlainText(p.Children) != "just some text" {
		t.Errorf("got %q", doc.PlainText(p.Children))
	}
}

func TestParse_UnclosedTagConsumesRemainder(t *testing.T) {
	blocks := Parse("<p>never closed")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	p := blocks[0].(doc.Paragraph)
	if doc.PlainText(p.Children) != "never closed" {
		t.Errorf("got %q", doc.PlainText(p.Children))
	}
}

func TestParse_NestedSameNameTags(t *testing.T) {
	// The inner <div> must not terminate the outer one early.
	blocks := Parse("<div><div><p>inner</p></div><p>outer</p></div>")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if got := doc.PlainText(blocks[1].(doc.Paragraph).Children); got != "outer" {
		t.Errorf("expected %q, got %q", "outer", got)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if blocks := Parse(""); len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
	if blocks := Parse("   \n  "); len(blocks) != 0 {
		t.Errorf("expected no blocks for whitespace, got %d", len(blocks))
	}
}

func TestParse_PlainTextMatchesStrippedMarkup(t *testing.T) {
	markup := "<h1>Report</h1><p>Costs &amp; benefits</p><ul><li>one</li><li>two</li></ul>"
	blocks := Parse(markup)

	var parts []string
	for _, b := range blocks {
		switch b := b.(type) {
		case doc.Heading:
			parts = append(parts, doc.PlainText(b.Children))
		case doc.Paragraph:
			parts = append(parts, doc.PlainText(b.Children))
		case doc.UnorderedList:
			for _, item := range b.Items {
				parts = append(parts, doc.PlainText(item))
			}
		}
	}
	got := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	want := strings.Join(strings.Fields(PlainText(markup)), " ")
	if got != want {
		t.Errorf("model text %q != stripped text %q", got, want)
	}
}

func TestStripTags_RemovesOpeningWithAttributes(t *testing.T) {
	got := stripTags(`<p class="lead">text</p>`, "p")
	if got != "text" {
		t.Errorf("expected %q, got %q", "text", got)
	}
}

func TestReadUntilClosing_CaseInsensitive(t *testing.T) {
	inner, next := readUntilClosing("<P>Hi</P> tail", 3, "p")
	if inner != "Hi" {
		t.Errorf("inner: expected %q, got %q", "Hi", inner)
	}
	if next != len("<P>Hi</P>") {
		t.Errorf("next: expected %d, got %d", len("<P>Hi</P>"), next)
	}
}

func TestReadOpeningTag_RejectsClosingTag(t *testing.T) {
	if _, ok := readOpeningTag("</p>", 0); ok {
		t.Error("closing tag should not parse as an opening tag")
	}
}

func TestReadOpeningTag_SelfClosing(t *testing.T) {
	tag, ok := readOpeningTag("<br/>", 0)
	if !ok {
		t.Fatal("expected tag")
	}
	if tag.name != "br" || tag.end != 5 {
		t.Errorf("unexpected tag: %+v", tag)
	}
}
