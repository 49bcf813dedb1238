package svg

import (
	"regexp"
	"strings"
)

// attrsPattern matches the attribute list of a start tag. Quoted values may
// contain '>' so the list is matched attribute by attribute rather than with
// a plain [^>]* run.
const attrsPattern = `((?:\s+[^\s=/>"']+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'=<>` + "`" + `]+))?)*)`

var (
	startTagRe = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:._-]*)` + attrsPattern + `\s*(/?)>`)
	attrRe     = regexp.MustCompile(`([^\s=/>"']+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+)))?`)
)

// Attr is a single markup attribute.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// tag is a parsed start tag. Only tags that are rewritten get re-rendered,
// everything else is left byte-for-byte as in the source.
type tag struct {
	name        string
	attrs       []Attr
	selfClosing bool
}

// parseTag parses the submatches produced by startTagRe.
func parseTag(m []string) tag {
	return tag{
		name:        m[1],
		attrs:       parseAttrs(m[2]),
		selfClosing: m[3] == "/",
	}
}

func parseAttrs(s string) []Attr {
	var attrs []Attr
	for _, m := range attrRe.FindAllStringSubmatchIndex(s, -1) {
		a := Attr{Name: s[m[2]:m[3]]}
		for g := 2; g <= 4; g++ {
			if m[2*g] >= 0 {
				a.Value = s[m[2*g]:m[2*g+1]]
				break
			}
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func (t *tag) get(name string) (string, bool) {
	for _, a := range t.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (t *tag) set(name, value string) {
	for i := range t.attrs {
		if t.attrs[i].Name == name {
			t.attrs[i].Value = value
			return
		}
	}
	t.attrs = append(t.attrs, Attr{Name: name, Value: value})
}

func (t *tag) remove(name string) {
	out := t.attrs[:0]
	for _, a := range t.attrs {
		if a.Name != name {
			out = append(out, a)
		}
	}
	t.attrs = out
}

func (t *tag) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(t.name)
	writeAttrs(&b, t.attrs)
	if t.selfClosing {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

func writeAttrs(b *strings.Builder, attrs []Attr) {
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`=`)
		b.WriteString(quoteAttr(a.Value))
	}
}

// quoteAttr quotes v with double quotes unless v itself contains one.
func quoteAttr(v string) string {
	if strings.Contains(v, `"`) {
		if !strings.Contains(v, "'") {
			return "'" + v + "'"
		}
		v = strings.ReplaceAll(v, `"`, "&quot;")
	}
	return `"` + v + `"`
}
