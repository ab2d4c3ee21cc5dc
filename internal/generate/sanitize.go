package generate

import (
	"strings"

	"golang.org/x/net/html"
)

// elements a generated worksheet may not contain
var forbiddenTags = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"link":   true,
	"meta":   true,
	"base":   true,
	"form":   true,
}

// forbiddenContent returns a description of the first disallowed element,
// event-handler attribute or javascript: URL in markup, or "".
func forbiddenContent(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, more := z.TagName()
			tag := string(name)
			if forbiddenTags[tag] {
				return "<" + tag + "> element"
			}
			for more {
				var k, v []byte
				k, v, more = z.TagAttr()
				key := string(k)
				if strings.HasPrefix(key, "on") {
					return key + " attribute"
				}
				if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(string(v))), "javascript:") {
					return "javascript: URL"
				}
			}
		}
	}
}
