package normalization

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, br, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote"

// StripHTML returns the visible text of an HTML fragment with entities decoded
// and whitespace collapsed. Block elements are separated by a space.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return CollapseWhitespace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CollapseWhitespace(fragment)
	}
	doc.Find("script, style").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return CollapseWhitespace(doc.Text())
}
