package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Clean removes non-content elements from a profile page and drops every
// attribute the selectors in this package do not look at
func Clean(doc *goquery.Document) {
	doc.Find("script, style, link, noscript, iframe, svg, form, input, button, select, textarea, canvas, img").Remove()
	doc.Find(".visually-hidden, .a11y-text").Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		if node.Data == "meta" {
			return
		}
		var kept []html.Attribute
		for _, attr := range node.Attr {
			switch attr.Key {
			case "id", "class", "aria-hidden", "href", "data-view-name":
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})
}

// sanitizeFragment strips all attributes except link targets, for text conversion
func sanitizeFragment(sel *goquery.Selection) (string, error) {
	frag := sel.Clone()
	frag.Find("*").AddSelection(frag).Each(func(i int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			var kept []html.Attribute
			for _, attr := range node.Attr {
				if node.Data == "a" && attr.Key == "href" {
					kept = append(kept, attr)
				}
			}
			node.Attr = kept
		}
	})
	out, err := goquery.OuterHtml(frag)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
