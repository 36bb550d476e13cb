package scraper

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Clean converts an HTML document to a single line of plain text. Script,
// style and noscript content is dropped, text nodes are joined with spaces and
// whitespace runs collapse to one space.
func Clean(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		collectText(&b, n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// Truncate caps text at max characters, never splitting a UTF-8 sequence.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}
