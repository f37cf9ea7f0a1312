package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/recexport/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags are the elements that open a paragraph of their own.
var blockTags = map[string]bool{
	"p":   true,
	"div": true,
	"h1":  true,
	"h2":  true,
	"h3":  true,
	"h4":  true,
	"h5":  true,
	"h6":  true,
	"li":  true,
}

// skipTags never contribute visible text.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"head":     true,
	"title":    true,
	"noscript": true,
}

// ParseHTML builds the canonical tree for a RichHTML fragment.
func ParseHTML(fragment string) (*doctree.Document, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	b := &treeBuilder{}
	for _, n := range nodes {
		b.walk(n, doctree.Style{})
	}
	return &doctree.Document{Blocks: b.blocks}, nil
}

type treeBuilder struct {
	blocks []*doctree.Block
	inline *doctree.Block // Open BlockInline, nil when the last block was closed.
}

func (b *treeBuilder) walk(n *html.Node, st doctree.Style) {
	switch n.Type {
	case html.TextNode:
		if b.inline == nil {
			b.inline = &doctree.Block{Kind: doctree.BlockInline}
			b.blocks = append(b.blocks, b.inline)
		}
		b.inline.Runs = append(b.inline.Runs, doctree.Run{Text: n.Data, Style: st})
		return
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
		if n.Data == "br" {
			b.inline = nil
			b.blocks = append(b.blocks, &doctree.Block{Kind: doctree.BlockBreak})
			return
		}
		st = elementStyle(n, st)
		if blockTags[n.Data] {
			b.inline = nil
			blk := &doctree.Block{Kind: doctree.BlockParagraph, Tag: n.Data}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				collectRuns(c, st, blk)
			}
			b.blocks = append(b.blocks, blk)
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c, st)
	}
}

// collectRuns folds a block's whole subtree, nested blocks included, into
// the block's run list.
func collectRuns(n *html.Node, st doctree.Style, blk *doctree.Block) {
	switch n.Type {
	case html.TextNode:
		blk.Runs = append(blk.Runs, doctree.Run{Text: n.Data, Style: st})
		return
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
		if n.Data == "br" {
			blk.Runs = append(blk.Runs, doctree.Run{Break: true})
			return
		}
		st = elementStyle(n, st)
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectRuns(c, st, blk)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasVisibleText reports whether the tree carries any non-whitespace text.
func HasVisibleText(doc *doctree.Document) bool {
	for _, blk := range doc.Blocks {
		for _, r := range blk.Runs {
			if !r.Break && strings.TrimSpace(r.Text) != "" {
				return true
			}
		}
	}
	return false
}

// VisibleText returns the tree's text with whitespace collapsed to single spaces.
func VisibleText(doc *doctree.Document) string {
	var words []string
	for _, blk := range doc.Blocks {
		for _, r := range blk.Runs {
			if !r.Break {
				words = append(words, strings.Fields(r.Text)...)
			}
		}
	}
	return strings.Join(words, " ")
}
