package consolidate

import "strings"

// xmlEscapes is applied in order; & must come first.
var xmlEscapes = []struct{ from, to string }{
	{"&", "&amp;"},
	{"<", "&lt;"},
	{">", "&gt;"},
	{`"`, "&quot;"},
	{"'", "&apos;"},
}

// Escape replaces the five XML metacharacters in s with entity references.
func Escape(s string) string {
	for _, e := range xmlEscapes {
		s = strings.ReplaceAll(s, e.from, e.to)
	}
	return s
}
