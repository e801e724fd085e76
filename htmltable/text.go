package htmltable

import (
	"strings"

	"golang.org/x/net/html"
)

// firstText returns the first text node under n, in depth-first order, that
// holds something other than whitespace. The result is trimmed.
func firstText(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if s := strings.TrimSpace(c.Data); s != "" {
				return s
			}
			continue
		}
		if s := firstText(c); s != "" {
			return s
		}
	}
	return ""
}
