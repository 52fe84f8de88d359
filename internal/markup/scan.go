package markup

import "strings"

// tagInfo describes one opening tag: lower-cased name, the offset just
// past the tag, and attributes in source order.
type tagInfo struct {
	name  string
	end   int
	attrs []attr
}

type attr struct {
	name  string
	value string
}

// attr returns the value of the first attribute with the given name.
func (t tagInfo) attr(name string) string {
	for _, a := range t.attrs {
		if a.name == name {
			return a.value
		}
	}
	return ""
}

// readOpeningTag parses the tag starting at s[start], which must be '<'.
// It reports false for closing tags and anything it cannot read as a tag;
// the caller decides how to recover.
func readOpeningTag(s string, start int) (tagInfo, bool) {
	if start >= len(s) || s[start] != '<' {
		return tagInfo{}, false
	}
	pos := start + 1
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	if pos < len(s) && s[pos] == '/' {
		// Closing tag.
		return tagInfo{}, false
	}

	nameStart := pos
	for pos < len(s) && !isSpace(s[pos]) && s[pos] != '>' && s[pos] != '/' {
		pos++
	}
	name := s[nameStart:pos]
	if name == "" {
		return tagInfo{}, false
	}

	var attrs []attr
	for {
		for pos < len(s) && isSpace(s[pos]) {
			pos++
		}
		if pos >= len(s) {
			break
		}
		if s[pos] == '>' {
			pos++
			break
		}
		if s[pos] == '/' {
			pos++
			if pos < len(s) && s[pos] == '>' {
				pos++
			}
			break
		}

		attrStart := pos
		for pos < len(s) && !isSpace(s[pos]) && s[pos] != '=' && s[pos] != '>' && s[pos] != '/' {
			pos++
		}
		attrName := s[attrStart:pos]
		for pos < len(s) && isSpace(s[pos]) {
			pos++
		}
		if pos < len(s) && s[pos] == '=' {
			pos++
			for pos < len(s) && isSpace(s[pos]) {
				pos++
			}
			if pos < len(s) && (s[pos] == '"' || s[pos] == '\'') {
				quote := s[pos]
				pos++
				valStart := pos
				for pos < len(s) && s[pos] != quote {
					pos++
				}
				val := s[valStart:pos]
				if pos < len(s) {
					pos++ // closing quote
				}
				attrs = append(attrs, attr{strings.ToLower(attrName), val})
			} else {
				valStart := pos
				for pos < len(s) && !isSpace(s[pos]) && s[pos] != '>' && s[pos] != '/' {
					pos++
				}
				attrs = append(attrs, attr{strings.ToLower(attrName), s[valStart:pos]})
			}
		} else if attrName != "" {
			attrs = append(attrs, attr{strings.ToLower(attrName), ""})
		}
	}

	return tagInfo{name: strings.ToLower(name), end: pos, attrs: attrs}, true
}

// readUntilClosing scans from start for the closing tag, counting nested
// same-name openings. If no closer exists the remainder of the input is
// the content; this never fails.
func readUntilClosing(s string, start int, tag string) (inner string, next int) {
	closing := "</" + tag + ">"
	opening := "<" + tag
	depth := 1

	for pos := start; pos < len(s); pos++ {
		if s[pos] != '<' {
			continue
		}
		if hasPrefixFold(s[pos:], closing) {
			depth--
			if depth == 0 {
				return s[start:pos], pos + len(closing)
			}
		}
		if hasPrefixFold(s[pos:], opening) {
			// Only a real opening counts, not a longer name sharing the
			// prefix (e.g. <pre...> while scanning for <p>).
			after := pos + len(opening)
			if after < len(s) && (isSpace(s[after]) || s[after] == '>' || s[after] == '/') {
				depth++
			}
		}
	}
	return s[start:], len(s)
}

// stripTags removes opening and closing tags with the given name while
// keeping their content. Openings may carry attributes.
func stripTags(s, tag string) string {
	closing := "</" + tag + ">"
	for {
		idx := indexFold(s, closing)
		if idx < 0 {
			break
		}
		s = s[:idx] + s[idx+len(closing):]
	}
	opening := "<" + tag
	for {
		idx := indexFold(s, opening)
		if idx < 0 {
			break
		}
		gt := strings.IndexByte(s[idx:], '>')
		if gt < 0 {
			break
		}
		s = s[:idx] + s[idx+gt+1:]
	}
	return s
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// indexFold is strings.Index with ASCII case folding. Lowercasing the
// haystack first would shift byte offsets for some Unicode input, so the
// search walks the original string.
func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}
