package markup

import "strings"

// entityReplacer covers the fixed set of entities the editor emits. It
// runs in a single pass, so double-encoded input ("&amp;lt;") decodes
// one level per call.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
	"&#x27;", "'",
	"&#x2F;", "/",
	"&mdash;", "—",
	"&ndash;", "–",
	"&hellip;", "…",
	"&lsquo;", "‘",
	"&rsquo;", "’",
	"&ldquo;", "“",
	"&rdquo;", "”",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
