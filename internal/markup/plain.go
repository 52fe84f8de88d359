package markup

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PlainText strips all markup and returns the readable text. Tags are
// replaced by a single space so adjacent words do not fuse. This path is
// independent of Parse; it feeds metadata, not layout.
func PlainText(markup string) string {
	tz := html.NewTokenizer(strings.NewReader(markup))
	var sb strings.Builder
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(tz.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			sb.WriteByte(' ')
		}
	}
}

// WordCount counts whitespace-delimited words in the stripped text.
func WordCount(markup string) int {
	return len(strings.Fields(PlainText(markup)))
}

// CharCount counts runes in the stripped text, surrounding whitespace
// removed.
func CharCount(markup string) int {
	return utf8.RuneCountInString(strings.TrimSpace(PlainText(markup)))
}
