package parser

import (
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	cssparser "github.com/aymerick/douceur/parser"
	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/net/html"
)

const defaultColorHex = "#000000"

// namedColors covers the names the editor's colour picker can emit.
var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"navy":    "#000080",
	"teal":    "#008080",
	"olive":   "#808000",
	"lime":    "#00ff00",
	"aqua":    "#00ffff",
	"cyan":    "#00ffff",
	"fuchsia": "#ff00ff",
	"magenta": "#ff00ff",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
}

// elementStyle derives the style context an element establishes for its
// subtree, from its tag name and its inline declarations.
func elementStyle(n *html.Node, st doctree.Style) doctree.Style {
	switch n.Data {
	case "strong", "b", "h1", "h2", "h3", "h4", "h5", "h6", "th":
		st.Bold = true
	case "em", "i", "cite", "var", "dfn":
		st.Italic = true
	case "u", "ins":
		st.Underline = true
	case "font":
		if c := attr(n, "color"); c != "" {
			st = applyColor(st, c)
		}
	}

	if raw := attr(n, "style"); raw != "" {
		for _, d := range ParseDeclarations(raw) {
			st = applyDeclaration(st, d)
		}
	}
	return st
}

// ParseDeclarations parses an inline style attribute. Malformed input
// yields whatever declarations could be read.
func ParseDeclarations(raw string) []*css.Declaration {
	decls, err := cssparser.ParseDeclarations(raw)
	if err != nil {
		return nil
	}
	for _, d := range decls {
		d.Property = strings.ToLower(strings.TrimSpace(d.Property))
		d.Value = strings.TrimSpace(d.Value)
	}
	return decls
}

func applyDeclaration(st doctree.Style, d *css.Declaration) doctree.Style {
	value := strings.ToLower(d.Value)
	switch d.Property {
	case "font-weight":
		if bold, ok := parseFontWeight(value); ok {
			st.Bold = bold
		}
	case "font-style":
		switch value {
		case "italic", "oblique":
			st.Italic = true
		case "normal":
			st.Italic = false
		}
	case "text-decoration", "text-decoration-line":
		if strings.Contains(value, "underline") {
			st.Underline = true
		}
	case "color":
		st = applyColor(st, value)
	}
	return st
}

func parseFontWeight(v string) (bool, bool) {
	switch v {
	case "bold", "bolder":
		return true, true
	case "normal", "lighter":
		return false, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false, false
	}
	return n >= 600, true
}

func applyColor(st doctree.Style, value string) doctree.Style {
	hex, ok := ParseColor(value)
	if !ok {
		return st
	}
	if hex == defaultColorHex {
		st.ColorHex = ""
	} else {
		st.ColorHex = hex
	}
	return st
}

// ParseColor converts a CSS colour (hex, rgb(), rgba() or a common name)
// into lowercase "#rrggbb". Fully transparent and keyword colours such as
// inherit or currentcolor are reported as not parsed.
func ParseColor(value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if named, ok := namedColors[v]; ok {
		return named, true
	}
	if strings.HasPrefix(v, "#") {
		c, err := colorful.Hex(v)
		if err != nil {
			return "", false
		}
		return c.Hex(), true
	}
	if strings.HasPrefix(v, "rgb") {
		return parseRGBFunc(v)
	}
	return "", false
}

func parseRGBFunc(v string) (string, bool) {
	open := strings.IndexByte(v, '(')
	end := strings.LastIndexByte(v, ')')
	if open < 0 || end <= open {
		return "", false
	}
	args := strings.FieldsFunc(v[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) < 3 {
		return "", false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		f, ok := parseChannel(args[i])
		if !ok {
			return "", false
		}
		ch[i] = f
	}
	if len(args) >= 4 {
		alpha, err := strconv.ParseFloat(strings.TrimSuffix(args[3], "%"), 64)
		if err == nil && alpha == 0 {
			return "", false
		}
	}
	c := colorful.Color{R: ch[0], G: ch[1], B: ch[2]}.Clamped()
	return c.Hex(), true
}

// parseChannel reads one rgb() channel as a 0..1 fraction.
func parseChannel(s string) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return f / 100, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f / 255, true
}
