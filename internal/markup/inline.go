package markup

import "github.com/dgallion1/stationd/internal/doc"

// style carries the flag context threaded through nested inline tags.
type style struct {
	bold      bool
	italic    bool
	underline bool
	code      bool
}

func (st style) run(text string) doc.Run {
	return doc.Run{
		Text:      text,
		Bold:      st.bold,
		Italic:    st.italic,
		Underline: st.underline,
		Code:      st.code,
	}
}

// parseInline parses a block's inner markup into styled runs.
func parseInline(s string) []doc.Run {
	return parseStyled(s, style{})
}

func parseStyled(s string, st style) []doc.Run {
	var runs []doc.Run
	pos := 0

	for pos < len(s) {
		if s[pos] != '<' {
			start := pos
			for pos < len(s) && s[pos] != '<' {
				pos++
			}
			if pos > start {
				runs = append(runs, st.run(decodeEntities(s[start:pos])))
			}
			continue
		}

		tag, ok := readOpeningTag(s, pos)
		if !ok {
			// Stray closing tag: skip to the next '>'.
			for pos < len(s) && s[pos] != '>' {
				pos++
			}
			if pos < len(s) {
				pos++
			}
			continue
		}
		pos = tag.end

		if tag.name == "br" {
			runs = append(runs, st.run("\n"))
			continue
		}

		next := st
		switch tag.name {
		case "strong", "b":
			next.bold = true
		case "em", "i":
			next.italic = true
		case "u", "a":
			// Links render as underlined plain text.
			next.underline = true
		case "code":
			next.code = true
		default:
			// span and unrecognized tags pass flags through unchanged.
		}

		inner, end := readUntilClosing(s, pos, tag.name)
		runs = append(runs, parseStyled(inner, next)...)
		pos = end
	}

	return runs
}
