// Package sanitize produces the "flow" form of a RichHTML fragment used for
// off-screen rendering: script-free, class-free, without colour, background,
// margin or padding declarations, and with exactly one <br> separating
// consecutive blocks.
package sanitize

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/dgallion1/recexport/internal/parser"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// structuralElements survive sanitisation; anything else is unwrapped to its text.
var structuralElements = []string{
	"p", "div", "br", "span", "font",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "blockquote", "pre", "code", "hr",
	"strong", "b", "em", "i", "u", "s", "strike", "sub", "sup",
	"table", "thead", "tbody", "tr", "td", "th",
}

// styleProperties is the set bluemonday lets through: every typographic,
// text and box property an editor can produce. The denylist below then
// removes the presentation properties the export layout owns.
var styleProperties = []string{
	"font", "font-weight", "font-style", "font-size", "font-family", "font-variant",
	"font-variant-caps", "font-stretch", "font-kerning",
	"text-decoration", "text-decoration-line", "text-decoration-style", "text-decoration-color",
	"text-align", "text-align-last", "text-justify", "text-indent", "text-transform",
	"text-shadow", "text-overflow", "vertical-align",
	"line-height", "letter-spacing", "word-spacing", "white-space",
	"word-break", "word-wrap", "overflow-wrap", "hyphens", "tab-size",
	"direction", "unicode-bidi",
	"list-style", "list-style-type", "list-style-position",
	"display", "float", "clear", "overflow", "opacity", "box-sizing",
	"width", "height", "min-width", "max-width", "min-height", "max-height",
	"border", "border-width", "border-style", "border-color", "border-radius",
	"border-top", "border-right", "border-bottom", "border-left",
	"border-top-width", "border-right-width", "border-bottom-width", "border-left-width",
	"border-top-style", "border-right-style", "border-bottom-style", "border-left-style",
	"border-top-color", "border-right-color", "border-bottom-color", "border-left-color",
	"border-collapse", "border-spacing", "table-layout", "caption-side", "empty-cells",
	"page-break-before", "page-break-after", "page-break-inside", "orphans", "widows",
	"color", "background", "background-color",
	"margin", "margin-top", "margin-right", "margin-bottom", "margin-left",
	"padding", "padding-top", "padding-right", "padding-bottom", "padding-left",
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(structuralElements...)
	p.AllowAttrs("style").Globally()
	p.AllowStyles(styleProperties...).Globally()
	return p
}

var (
	blockCloseRe = regexp.MustCompile(`(?i)</(div|p)>`)
	brRunRe      = regexp.MustCompile(`(?i)(?:<br\s*/?>\s*)+`)
)

// Sanitize returns the flow representation of fragment. It is idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(fragment string) string {
	safe := policy.Sanitize(fragment)

	stripped, err := stripPresentation(safe)
	if err != nil {
		stripped = safe
	}

	flow := blockCloseRe.ReplaceAllString(stripped, "<br></$1>")
	return brRunRe.ReplaceAllString(flow, "<br>")
}

// deniedStyle reports whether a declaration belongs to the export layout
// rather than to the author's inline formatting.
func deniedStyle(property string) bool {
	return property == "color" ||
		strings.HasPrefix(property, "background") ||
		strings.HasPrefix(property, "margin") ||
		strings.HasPrefix(property, "padding")
}

func stripPresentation(fragment string) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		cleanAttrs(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func cleanAttrs(n *html.Node) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			switch a.Key {
			case "class":
				continue
			case "style":
				a.Val = filterStyle(a.Val)
				if a.Val == "" {
					continue
				}
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cleanAttrs(c)
	}
}

func filterStyle(raw string) string {
	var kept []string
	for _, d := range parser.ParseDeclarations(raw) {
		if d.Property == "" || deniedStyle(d.Property) {
			continue
		}
		value := normalizeValue(d.Property, d.Value)
		if value == "" {
			continue
		}
		decl := d.Property + ": " + value
		if d.Important {
			decl += " !important"
		}
		kept = append(kept, decl)
	}
	return strings.Join(kept, "; ")
}

// normalizeValue rewrites a kept value so it serialises without entity
// escaping. Family names lose their quotes, which bluemonday accepts
// unquoted; other values carrying characters that would be escaped are
// dropped.
func normalizeValue(property, value string) string {
	if property == "font-family" {
		var names []string
		for _, name := range strings.Split(value, ",") {
			name = strings.Join(strings.Fields(strings.Trim(strings.TrimSpace(name), `'"`)), " ")
			if name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ", ")
	}
	if strings.ContainsAny(value, `'"&<>`) {
		return ""
	}
	return value
}
