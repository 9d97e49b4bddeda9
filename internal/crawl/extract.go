// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// wordBlocks are the elements subject to the word-count threshold.
var wordBlocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Dd:         true,
	atom.Figcaption: true,
}

// Extraction is the content pulled out of one rendered page.
type Extraction struct {
	Markdown string
	Images   []string
}

// Extractor reduces rendered HTML to the Markdown of its content regions
// and the images they reference.
type Extractor struct {
	regions       []selector
	excludedTags  map[string]bool
	excludedMarks map[string]bool
	minWords      int
	policy        *bluemonday.Policy
	conv          *converter.Converter
}

// NewExtractor builds an Extractor from the crawl configuration. Entries in
// cfg.ExcludedTags that are not HTML element names (e.g. "sidebar") match
// elements by class or id token instead.
func NewExtractor(cfg types.CrawlConfig) *Extractor {
	e := &Extractor{
		regions:       parseSelectorList(cfg.ContentSelector),
		excludedTags:  make(map[string]bool),
		excludedMarks: make(map[string]bool),
		minWords:      cfg.WordCountThreshold,
		policy:        bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, t := range cfg.ExcludedTags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if atom.Lookup([]byte(t)) != 0 {
			e.excludedTags[t] = true
		} else {
			e.excludedMarks[t] = true
		}
	}
	return e
}

// Extract parses rawHTML served from pageURL. Only content inside elements
// matching the region selectors is kept; a page without such a region
// yields an empty Extraction.
func (e *Extractor) Extract(rawHTML, pageURL string) (Extraction, error) {
	origin, err := url.Parse(pageURL)
	if err != nil {
		return Extraction{}, fmt.Errorf("parsing page url: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Extraction{}, fmt.Errorf("parsing html: %w", err)
	}

	regions := outermost(doc, e.regions)
	if len(regions) == 0 {
		return Extraction{}, nil
	}

	var (
		buf    bytes.Buffer
		images []string
		seen   = make(map[string]bool)
	)
	for _, region := range regions {
		e.removeExcluded(region)
		for _, src := range collectImages(region, origin) {
			if !seen[src] {
				seen[src] = true
				images = append(images, src)
			}
		}
		unwrapExternalLinks(region, origin)
		e.pruneShortBlocks(region)
		if err := html.Render(&buf, region); err != nil {
			return Extraction{}, fmt.Errorf("rendering content region: %w", err)
		}
		buf.WriteByte('\n')
	}

	safe := e.policy.SanitizeBytes(buf.Bytes())
	md, err := e.conv.ConvertString(string(safe), converter.WithDomain(pageURL))
	if err != nil {
		return Extraction{}, fmt.Errorf("converting to markdown: %w", err)
	}
	return Extraction{Markdown: strings.TrimSpace(md), Images: images}, nil
}

// removeExcluded detaches excluded elements below root.
func (e *Extractor) removeExcluded(root *html.Node) {
	removeWhere(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return n.Type == html.CommentNode
		}
		if e.excludedTags[n.Data] {
			return true
		}
		for mark := range e.excludedMarks {
			if hasToken(attr(n, "class"), mark) || attr(n, "id") == mark {
				return true
			}
		}
		return false
	})
}

// pruneShortBlocks detaches text blocks with fewer words than the
// threshold. Blocks carrying an image are kept.
func (e *Extractor) pruneShortBlocks(root *html.Node) {
	if e.minWords <= 0 {
		return
	}
	removeWhere(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !wordBlocks[n.DataAtom] {
			return false
		}
		return wordCount(n) < e.minWords && !containsImage(n)
	})
}

// removeWhere walks the subtree below root and detaches every node for
// which drop returns true. Dropped subtrees are not visited.
func removeWhere(root *html.Node, drop func(*html.Node) bool) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if drop(c) {
			root.RemoveChild(c)
		} else {
			removeWhere(c, drop)
		}
		c = next
	}
}

// unwrapExternalLinks replaces anchors pointing off-site with their
// children, keeping the link text.
func unwrapExternalLinks(root *html.Node, origin *url.URL) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		unwrapExternalLinks(c, origin)
		if c.Type == html.ElementNode && c.DataAtom == atom.A && isExternal(attr(c, "href"), origin) {
			for gc := c.FirstChild; gc != nil; {
				gnext := gc.NextSibling
				c.RemoveChild(gc)
				root.InsertBefore(gc, c)
				gc = gnext
			}
			root.RemoveChild(c)
		}
		c = next
	}
}

func isExternal(href string, origin *url.URL) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	u, err := origin.Parse(href)
	if err != nil {
		return true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return true
	}
	return !strings.EqualFold(u.Hostname(), origin.Hostname())
}

// collectImages returns the absolute sources of img elements below root in
// document order. Inline data URIs are skipped.
func collectImages(root *html.Node, origin *url.URL) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			src := strings.TrimSpace(attr(n, "src"))
			if src == "" || strings.HasPrefix(src, "data:") {
				src = strings.TrimSpace(attr(n, "data-src"))
			}
			if src != "" && !strings.HasPrefix(src, "data:") {
				if u, err := origin.Parse(src); err == nil {
					out = append(out, u.String())
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func containsImage(n *html.Node) bool {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if containsImage(c) {
			return true
		}
	}
	return false
}

func wordCount(n *html.Node) int {
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			count += len(strings.Fields(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return count
}
