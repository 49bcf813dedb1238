package svg

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/svgsprite/pkg/errors"
)

// DefaultViewBox is used when an icon declares neither a viewBox nor a usable
// width/height pair.
const DefaultViewBox = "0 0 24 24"

var (
	rootOpenRe  = regexp.MustCompile(`<svg` + attrsPattern + `\s*(/?)>`)
	rootCloseRe = regexp.MustCompile(`</svg\s*>`)

	numberPattern = `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`
	viewBoxRe     = regexp.MustCompile(`^\s*` + numberPattern + `(?:(?:\s*,\s*|\s+)` + numberPattern + `){3}\s*$`)
	lengthRe      = regexp.MustCompile(`^\s*(` + numberPattern + `)\s*(?:px)?\s*$`)
)

// presentationAttrs are root attributes that still mean something once the
// icon becomes a <symbol>. Sizing and styling attributes are not among them.
var presentationAttrs = map[string]bool{
	"fill":                true,
	"fill-opacity":        true,
	"fill-rule":           true,
	"clip-rule":           true,
	"stroke":              true,
	"stroke-width":        true,
	"stroke-linecap":      true,
	"stroke-linejoin":     true,
	"stroke-miterlimit":   true,
	"stroke-dasharray":    true,
	"stroke-dashoffset":   true,
	"stroke-opacity":      true,
	"color":               true,
	"opacity":             true,
	"preserveAspectRatio": true,
}

// Fragment is the transformed, namespace-safe content of one icon.
type Fragment struct {
	// ID is the symbol identifier the fragment is published under.
	ID string `json:"id"`

	// ViewBox is the effective coordinate system of the icon.
	ViewBox string `json:"view_box"`

	// Attrs are presentation attributes carried over from the root element.
	Attrs []Attr `json:"attrs,omitempty"`

	// Body is the inner markup of the root element.
	Body string `json:"body"`
}

// Transform turns one icon's raw markup into a fragment published as
// symbolID. The root element's sizing and inline style are dropped so the
// consumer controls rendered size; the outer container tags are removed and
// only the inner content is kept.
//
// The view box is, in order of preference: the root's explicit viewBox, a
// box synthesized from a positive numeric width and height, or
// [DefaultViewBox].
func Transform(raw, symbolID string) (Fragment, error) {
	if strings.TrimSpace(raw) == "" {
		return Fragment{}, errors.New(errors.ErrCodeEmptyContent, "icon markup is empty")
	}
	if symbolID == "" {
		return Fragment{}, errors.New(errors.ErrCodeMissingID, "symbol id is required")
	}

	loc := rootOpenRe.FindStringSubmatchIndex(raw)
	if loc == nil {
		return Fragment{}, errors.New(errors.ErrCodeInvalidInput, "no <svg> root element")
	}
	root := tag{
		name:        "svg",
		attrs:       parseAttrs(raw[loc[2]:loc[3]]),
		selfClosing: loc[4] < loc[5],
	}

	var body string
	if !root.selfClosing {
		rest := raw[loc[1]:]
		if closes := rootCloseRe.FindAllStringIndex(rest, -1); len(closes) > 0 {
			body = rest[:closes[len(closes)-1][0]]
		} else {
			body = rest
		}
	}

	var attrs []Attr
	for _, a := range root.attrs {
		if presentationAttrs[a.Name] {
			attrs = append(attrs, a)
		}
	}

	return Fragment{
		ID:      symbolID,
		ViewBox: inferViewBox(&root),
		Attrs:   attrs,
		Body:    strings.TrimSpace(body),
	}, nil
}

// inferViewBox computes the effective view box from root attributes.
func inferViewBox(root *tag) string {
	if vb, ok := root.get("viewBox"); ok && viewBoxRe.MatchString(vb) {
		return vb
	}
	w, wok := parseLength(root, "width")
	h, hok := parseLength(root, "height")
	if wok && hok {
		return "0 0 " + formatNumber(w) + " " + formatNumber(h)
	}
	return DefaultViewBox
}

// parseLength reads a positive, finite user-unit length. Percentages and
// font-relative units cannot be turned into a coordinate system and are
// rejected.
func parseLength(t *tag, name string) (float64, bool) {
	v, ok := t.get(name)
	if !ok {
		return 0, false
	}
	m := lengthRe.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
