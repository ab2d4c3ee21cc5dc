package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const blank = "__________"

type blockKind int

const (
	blockHeading blockKind = iota
	blockParagraph
	blockQuestion
)

// block is one printable line group extracted from worksheet markup.
type block struct {
	kind   blockKind
	number int // questions only
	text   string
}

// extractBlocks flattens worksheet HTML into headings, paragraphs and
// numbered questions. Answer placeholders become blanks; a worked example
// keeps the value it shows.
func extractBlocks(markup string) ([]block, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	var (
		out []block
		n   int
	)
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				return
			case atom.H1, atom.H2, atom.H3, atom.H4:
				if t := textOf(node); t != "" {
					out = append(out, block{kind: blockHeading, text: t})
				}
				return
			case atom.Li:
				if t := textOf(node); t != "" {
					if parentIs(node, atom.Ol) {
						n++
						out = append(out, block{kind: blockQuestion, number: n, text: t})
					} else {
						out = append(out, block{kind: blockParagraph, text: "- " + t})
					}
				}
				return
			case atom.P, atom.Tr, atom.Legend:
				if t := textOf(node); t != "" {
					out = append(out, block{kind: blockParagraph, text: t})
				}
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func parentIs(n *html.Node, a atom.Atom) bool {
	return n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.DataAtom == a
}

// textOf renders the visible text inside n on one line.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
			return
		case html.ElementNode:
			switch node.DataAtom {
			case atom.Script, atom.Style, atom.Option:
				return
			case atom.Input, atom.Textarea:
				if v := attr(node, "value"); v != "" && disabled(node) {
					b.WriteString(" " + v + " ")
				} else {
					b.WriteString(" " + blank + " ")
				}
				return
			case atom.Select:
				b.WriteString(" " + blank + " (" + optionsOf(node) + ") ")
				return
			case atom.Br:
				b.WriteString(" ")
			case atom.Td, atom.Th:
				b.WriteString("   ")
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func optionsOf(sel *html.Node) string {
	var opts []string
	for c := sel.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Option {
			if t := textOf(c); t != "" {
				opts = append(opts, t)
			}
		}
	}
	return strings.Join(opts, " / ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// disabled reports whether n or an enclosing fieldset is disabled.
func disabled(n *html.Node) bool {
	if hasAttr(n, "disabled") || hasAttr(n, "readonly") {
		return true
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Fieldset && hasAttr(p, "disabled") {
			return true
		}
	}
	return false
}
