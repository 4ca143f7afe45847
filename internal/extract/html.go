package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// BodyText extracts the visible text of an HTML document with whitespace
// collapsed to single spaces. This is the only form the extractors accept:
// the anchor patterns assume label and value are separated by plain spaces,
// never markup.
func BodyText(htmlBody string) string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		// html.Parse recovers from almost anything; treat a hard failure
		// as an unreadable body.
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// Entity decoding turns &nbsp; into U+00A0, which \s does not match.
	text := strings.ReplaceAll(sb.String(), " ", " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
