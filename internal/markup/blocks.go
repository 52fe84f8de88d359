package markup

import (
	"strings"

	"github.com/dgallion1/stationd/internal/doc"
)

// Parse converts editor markup into an ordered block sequence. It handles
// the tag subset a block-style rich-text editor produces and degrades
// gracefully on anything else: unknown or unmatched tags never abort the
// walk.
func Parse(markup string) []doc.Block {
	var blocks []doc.Block
	s := strings.TrimSpace(markup)
	pos := 0

	for pos < len(s) {
		for pos < len(s) && isSpace(s[pos]) {
			pos++
		}
		if pos >= len(s) {
			break
		}

		if s[pos] != '<' {
			// Plain text outside any block tag becomes a paragraph.
			start := pos
			for pos < len(s) && s[pos] != '<' {
				pos++
			}
			if text := strings.TrimSpace(s[start:pos]); text != "" {
				blocks = append(blocks, doc.Paragraph{
					Children: []doc.Run{{Text: decodeEntities(text)}},
				})
			}
			continue
		}

		tag, ok := readOpeningTag(s, pos)
		if !ok {
			pos++
			continue
		}
		pos = tag.end

		switch tag.name {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			inner, end := readUntilClosing(s, pos, tag.name)
			blocks = append(blocks, doc.Heading{
				Level:    int(tag.name[1] - '0'),
				Children: parseInline(inner),
			})
			pos = end
		case "p":
			inner, end := readUntilClosing(s, pos, "p")
			blocks = append(blocks, doc.Paragraph{Children: parseInline(inner)})
			pos = end
		case "ul":
			inner, end := readUntilClosing(s, pos, "ul")
			blocks = append(blocks, doc.UnorderedList{Items: parseListItems(inner)})
			pos = end
		case "ol":
			inner, end := readUntilClosing(s, pos, "ol")
			blocks = append(blocks, doc.OrderedList{Items: parseListItems(inner)})
			pos = end
		case "blockquote":
			inner, end := readUntilClosing(s, pos, "blockquote")
			// Quotes may contain <p> wrappers; flatten them.
			blocks = append(blocks, doc.Blockquote{
				Children: parseInline(stripTags(inner, "p")),
			})
			pos = end
		case "pre":
			inner, end := readUntilClosing(s, pos, "pre")
			blocks = append(blocks, doc.CodeBlock{
				Text: decodeEntities(stripTags(inner, "code")),
			})
			pos = end
		case "hr":
			blocks = append(blocks, doc.HorizontalRule{})
		case "table":
			inner, end := readUntilClosing(s, pos, "table")
			blocks = append(blocks, parseTable(inner))
			pos = end
		case "img":
			blocks = append(blocks, doc.Image{Src: tag.attr("src"), Alt: tag.attr("alt")})
		case "div", "section", "article", "main", "header", "footer":
			// Wrapper tags: parse the children and splice them in place.
			inner, end := readUntilClosing(s, pos, tag.name)
			blocks = append(blocks, Parse(inner)...)
			pos = end
		case "br":
			// Self-closing, nothing at block level.
		default:
			// Unknown tag: keep its content like a wrapper, then resume
			// past the closer.
			inner, end := readUntilClosing(s, pos, tag.name)
			blocks = append(blocks, Parse(inner)...)
			pos = end
		}
	}

	return blocks
}

// parseListItems splits <li> children into one run list per item.
func parseListItems(s string) [][]doc.Run {
	var items [][]doc.Run
	pos := 0
	for pos < len(s) {
		if s[pos] == '<' {
			if tag, ok := readOpeningTag(s, pos); ok && tag.name == "li" {
				inner, end := readUntilClosing(s, tag.end, "li")
				items = append(items, parseInline(stripTags(inner, "p")))
				pos = end
				continue
			}
		}
		pos++
	}
	return items
}

// parseTable builds rows from <tr> elements, ignoring section wrappers.
func parseTable(s string) doc.Table {
	s = stripTags(s, "thead")
	s = stripTags(s, "tbody")
	s = stripTags(s, "tfoot")

	var rows [][][]doc.Run
	pos := 0
	for pos < len(s) {
		if s[pos] == '<' {
			if tag, ok := readOpeningTag(s, pos); ok && tag.name == "tr" {
				inner, end := readUntilClosing(s, tag.end, "tr")
				rows = append(rows, parseTableRow(inner))
				pos = end
				continue
			}
		}
		pos++
	}
	return doc.Table{Rows: rows}
}

func parseTableRow(s string) [][]doc.Run {
	var cells [][]doc.Run
	pos := 0
	for pos < len(s) {
		if s[pos] == '<' {
			if tag, ok := readOpeningTag(s, pos); ok && (tag.name == "td" || tag.name == "th") {
				inner, end := readUntilClosing(s, tag.end, tag.name)
				cells = append(cells, parseInline(stripTags(inner, "p")))
				pos = end
				continue
			}
		}
		pos++
	}
	return cells
}
