package svg

import (
	"regexp"
	"strings"
)

var (
	styleBlockRe     = regexp.MustCompile(`(?s)<style\b(?:[^>/]|/[^>])*>(.*?)</style\s*>`)
	emptyStyleRe     = regexp.MustCompile(`<style\b[^>]*/>`)
	defsRe           = regexp.MustCompile(`(?s)<defs\b((?:[^>/]|/[^>])*)>(.*?)</defs\s*>`)
	markupCommentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	cssCommentRe     = regexp.MustCompile(`(?s)/\*.*?\*/`)
	classSelectorRe  = regexp.MustCompile(`^\.(-?[A-Za-z_][A-Za-z0-9_-]*)$`)
	cdataDelimiterRe = regexp.MustCompile(`<!\[CDATA\[|\]\]>`)
)

// StyleRule is a class rule extracted from an embedded style block.
type StyleRule struct {
	Class        string
	Declarations string
}

// HasStyleBlock reports whether markup embeds a <style> element.
func HasStyleBlock(markup string) bool {
	return strings.Contains(markup, "<style")
}

// ParseStyleRules extracts ".name { declarations }" rules from css in source
// order. Grouped selectors (".a, .b") yield one rule per class. Other
// selectors, at-rules and nested blocks are skipped.
func ParseStyleRules(css string) []StyleRule {
	css = cssCommentRe.ReplaceAllString(css, "")

	var rules []StyleRule
	for i := 0; i < len(css); {
		j := strings.IndexAny(css[i:], "{};")
		if j < 0 {
			break
		}
		j += i
		if css[j] != '{' {
			i = j + 1
			continue
		}

		prelude := strings.TrimSpace(css[i:j])
		end := matchingBrace(css, j)
		body := css[j+1 : end]
		i = end + 1

		if strings.HasPrefix(prelude, "@") || strings.ContainsAny(body, "{}") {
			continue
		}
		decls := strings.TrimSpace(body)
		for _, sel := range strings.Split(prelude, ",") {
			if m := classSelectorRe.FindStringSubmatch(strings.TrimSpace(sel)); m != nil {
				rules = append(rules, StyleRule{Class: m[1], Declarations: decls})
			}
		}
	}
	return rules
}

// matchingBrace returns the index of the '}' closing the block opened at
// css[open], or len(css) when the block is never closed.
func matchingBrace(css string, open int) int {
	depth := 0
	for k := open; k < len(css); k++ {
		switch css[k] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return len(css)
}

// ExtractAndInline moves class rules from embedded style blocks onto the
// elements that use them and removes the style blocks. Markup without a
// style block is returned unchanged.
//
// Declarations merge with an element's existing inline style; the inline
// style wins on conflicting properties. Rules apply in source order, so for
// an element carrying several classes a later rule overrides an earlier one
// whichever class it names. Matched class
// tokens are removed, and the class attribute goes away once empty.
//
// A <defs> element that held nothing but style blocks is removed entirely;
// gradients, patterns, filters and other definitions beside a style block
// are kept.
func ExtractAndInline(markup string) string {
	if !HasStyleBlock(markup) {
		return markup
	}

	var css strings.Builder
	for _, m := range styleBlockRe.FindAllStringSubmatch(markup, -1) {
		css.WriteString(cdataDelimiterRe.ReplaceAllString(m[1], ""))
		css.WriteByte('\n')
	}

	type rule struct {
		class string
		decls declarations
	}
	var rules []rule
	classes := make(map[string]bool)
	for _, r := range ParseStyleRules(css.String()) {
		rules = append(rules, rule{class: r.Class, decls: parseDeclarations(r.Declarations)})
		classes[r.Class] = true
	}

	markup = removeStyleBlocks(markup)
	if len(rules) == 0 {
		return markup
	}

	return startTagRe.ReplaceAllStringFunc(markup, func(s string) string {
		t := parseTag(startTagRe.FindStringSubmatch(s))
		class, ok := t.get("class")
		if !ok {
			return s
		}

		tokens := strings.Fields(class)
		has := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			has[tok] = true
		}

		var inlined declarations
		matched := false
		for _, r := range rules {
			if has[r.class] {
				inlined.merge(r.decls)
				matched = true
			}
		}
		if !matched {
			return s
		}

		if existing, ok := t.get("style"); ok {
			inlined.merge(parseDeclarations(existing))
		}
		if style := inlined.String(); style != "" {
			t.set("style", style)
		}

		var kept []string
		for _, tok := range tokens {
			if !classes[tok] {
				kept = append(kept, tok)
			}
		}
		if len(kept) == 0 {
			t.remove("class")
		} else {
			t.set("class", strings.Join(kept, " "))
		}
		return t.String()
	})
}

// removeStyleBlocks deletes every style element. Definition containers left
// empty by the removal are deleted with it.
func removeStyleBlocks(markup string) string {
	markup = defsRe.ReplaceAllStringFunc(markup, func(s string) string {
		m := defsRe.FindStringSubmatch(s)
		if !HasStyleBlock(m[2]) {
			return s
		}
		inner := emptyStyleRe.ReplaceAllString(styleBlockRe.ReplaceAllString(m[2], ""), "")
		if strings.TrimSpace(markupCommentRe.ReplaceAllString(inner, "")) == "" {
			return ""
		}
		return "<defs" + m[1] + ">" + inner + "</defs>"
	})
	markup = styleBlockRe.ReplaceAllString(markup, "")
	return emptyStyleRe.ReplaceAllString(markup, "")
}

// declaration is one "property: value" pair.
type declaration struct {
	prop  string
	value string
}

// declarations is an ordered property list where setting an existing
// property replaces its value in place.
type declarations []declaration

func (d *declarations) set(prop, value string) {
	for i := range *d {
		if (*d)[i].prop == prop {
			(*d)[i].value = value
			return
		}
	}
	*d = append(*d, declaration{prop: prop, value: value})
}

func (d *declarations) merge(other declarations) {
	for _, decl := range other {
		d.set(decl.prop, decl.value)
	}
}

func (d declarations) String() string {
	parts := make([]string, len(d))
	for i, decl := range d {
		parts[i] = decl.prop + ":" + decl.value
	}
	return strings.Join(parts, ";")
}

// parseDeclarations splits a declaration block on semicolons that are not
// inside parentheses or quotes, so data URIs survive.
func parseDeclarations(s string) declarations {
	var out declarations
	for _, part := range splitTopLevel(s, ';') {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" || value == "" {
			continue
		}
		out.set(prop, value)
	}
	return out
}

func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
