package svg

import (
	"regexp"
)

var (
	// urlRefRe matches paint-server style references: url(#id), url('#id').
	urlRefRe = regexp.MustCompile(`url\(\s*(['"]?)#([^'")\s]+)['"]?\s*\)`)

	// hrefRefRe matches local links: href="#id" and xlink:href="#id".
	hrefRefRe = regexp.MustCompile(`(\s(?:xlink:)?href\s*=\s*)(["'])#([^"']+)(["'])`)

	// idAttrRe matches an id attribute together with its leading whitespace,
	// which keeps data-id and similar names out.
	idAttrRe = regexp.MustCompile(`(\s)id\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// FunctionalIDs returns the set of ids that markup refers to through url(#…)
// or a local href.
func FunctionalIDs(markup string) map[string]bool {
	ids := make(map[string]bool)
	for _, m := range urlRefRe.FindAllStringSubmatch(markup, -1) {
		ids[m[2]] = true
	}
	for _, m := range hrefRefRe.FindAllStringSubmatch(markup, -1) {
		ids[m[3]] = true
	}
	return ids
}

// DeclaredIDs returns the values of every id attribute in markup, in
// document order.
func DeclaredIDs(markup string) []string {
	var ids []string
	for _, m := range idAttrRe.FindAllStringSubmatch(markup, -1) {
		id := m[2]
		if id == "" {
			id = m[3]
		}
		ids = append(ids, id)
	}
	return ids
}

// RewriteIdentifiers namespaces the internal ids of one fragment so it can
// be merged with others. Every referenced id is renamed to
// "<symbolID>-<id>" in both its declaration and its references. Declared ids
// that nothing references are dropped.
func RewriteIdentifiers(markup, symbolID string) string {
	functional := FunctionalIDs(markup)
	prefix := EscapeAttr(symbolID) + "-"

	markup = idAttrRe.ReplaceAllStringFunc(markup, func(s string) string {
		m := idAttrRe.FindStringSubmatch(s)
		id := m[2]
		if id == "" {
			id = m[3]
		}
		if !functional[id] {
			return ""
		}
		return m[1] + `id="` + prefix + id + `"`
	})
	if len(functional) == 0 {
		return markup
	}

	markup = urlRefRe.ReplaceAllStringFunc(markup, func(s string) string {
		m := urlRefRe.FindStringSubmatch(s)
		return "url(" + m[1] + "#" + prefix + m[2] + m[1] + ")"
	})
	return hrefRefRe.ReplaceAllStringFunc(markup, func(s string) string {
		m := hrefRefRe.FindStringSubmatch(s)
		return m[1] + m[2] + "#" + prefix + m[3] + m[4]
	})
}
