// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"strings"

	"golang.org/x/net/html"
)

// selector is one compound simple selector: tag, #id, .class, and an
// optional [attr] or [attr=val] test, all of which must hold.
type selector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
}

// parseSelectorList parses a comma-separated selector group such as
// "article, main, .content, [role=main]". Descendant combinators are not
// supported; each entry is matched against a single element.
func parseSelectorList(group string) []selector {
	var out []selector
	for _, part := range strings.Split(group, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, parseSelector(part))
	}
	return out
}

func parseSelector(sel string) selector {
	var s selector

	if i := strings.IndexByte(sel, '['); i >= 0 {
		attr := strings.TrimSuffix(sel[i+1:], "]")
		sel = sel[:i]
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			s.attrKey = strings.TrimSpace(attr[:eq])
			s.attrVal = strings.Trim(strings.TrimSpace(attr[eq+1:]), `"'`)
		} else {
			s.attrKey = strings.TrimSpace(attr)
		}
	}
	if i := strings.IndexByte(sel, '#'); i >= 0 {
		s.id = sel[i+1:]
		sel = sel[:i]
	}
	if i := strings.IndexByte(sel, '.'); i >= 0 {
		s.class = sel[i+1:]
		sel = sel[:i]
	}
	s.tag = strings.ToLower(sel)
	return s
}

func (s selector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if s.class != "" && !hasToken(attr(n, "class"), s.class) {
		return false
	}
	if s.attrKey != "" {
		v, ok := lookupAttr(n, s.attrKey)
		if !ok || (s.attrVal != "" && v != s.attrVal) {
			return false
		}
	}
	return true
}

func matchesAny(n *html.Node, sels []selector) bool {
	for _, s := range sels {
		if s.matches(n) {
			return true
		}
	}
	return false
}

// outermost returns the elements under root matching any selector, in
// document order. Matches nested inside an earlier match are not returned
// separately.
func outermost(root *html.Node, sels []selector) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if matchesAny(n, sels) {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasToken(list, token string) bool {
	for _, t := range strings.Fields(list) {
		if t == token {
			return true
		}
	}
	return false
}
