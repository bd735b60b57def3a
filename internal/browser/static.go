package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Static answers page questions from saved page source, e.g. the HTML
// archived in the payment log before a retry.
type Static struct {
	root *html.Node
	text string
}

func ParseStatic(r io.Reader) (*Static, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	body := find(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if body == nil {
		body = root
	}
	var sb strings.Builder
	collectText(body, &sb)
	return &Static{root: root, text: normalizeSpace(sb.String())}, nil
}

func LoadStatic(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseStatic(f)
}

func (s *Static) SelectTopWindow(ctx context.Context) error {
	return ctx.Err()
}

func (s *Static) TextPresent(ctx context.Context, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return strings.Contains(s.text, normalizeSpace(text)), nil
}

func (s *Static) ElementPresent(ctx context.Context, locator string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	match, err := staticMatcher(ParseLocator(locator))
	if err != nil {
		return false, err
	}
	return find(s.root, match) != nil, nil
}

func staticMatcher(l Locator) (func(*html.Node) bool, error) {
	switch l.Kind {
	case KindID:
		return attrEquals("id", l.Value), nil
	case KindName:
		return attrEquals("name", l.Value), nil
	case KindIdentifier:
		byID, byName := attrEquals("id", l.Value), attrEquals("name", l.Value)
		return func(n *html.Node) bool { return byID(n) || byName(n) }, nil
	case KindLink:
		want := normalizeSpace(l.Value)
		return func(n *html.Node) bool {
			if n.DataAtom != atom.A {
				return false
			}
			var sb strings.Builder
			collectText(n, &sb)
			return normalizeSpace(sb.String()) == want
		}, nil
	case KindCSS:
		return simpleCSS(l.Value)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocator, l)
	}
}

// simpleCSS covers "tag", "#id", "tag#id", ".class" and "tag.class".
func simpleCSS(sel string) (func(*html.Node) bool, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" || strings.ContainsAny(sel, " >+~[]:,*") {
		return nil, fmt.Errorf("%w: css=%s", ErrUnsupportedLocator, sel)
	}

	tag, id, class := sel, "", ""
	if i := strings.IndexAny(sel, "#."); i >= 0 {
		tag = sel[:i]
		if sel[i] == '#' {
			id = sel[i+1:]
		} else {
			class = sel[i+1:]
		}
	}

	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if tag != "" && !strings.EqualFold(n.Data, tag) {
			return false
		}
		if id != "" && attr(n, "id") != id {
			return false
		}
		if class != "" && !containsField(attr(n, "class"), class) {
			return false
		}
		return true
	}, nil
}

func attrEquals(key, value string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, key) == value
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func containsField(list, field string) bool {
	for _, f := range strings.Fields(list) {
		if f == field {
			return true
		}
	}
	return false
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// blockElements break the rendered text the way innerText does. Inline
// elements do not, so <b>Pay</b>Pal reads as PayPal.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Caption: true, atom.Dd: true, atom.Details: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Legend: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.Option: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Summary: true,
	atom.Table: true, atom.Tbody: true, atom.Td: true, atom.Tfoot: true,
	atom.Th: true, atom.Thead: true, atom.Tr: true, atom.Ul: true,
}

func collectText(n *html.Node, sb *strings.Builder) {
	block := false
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.Br:
			sb.WriteByte('\n')
			return
		}
		block = blockElements[n.DataAtom]
	}
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
	if block {
		sb.WriteByte('\n')
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
