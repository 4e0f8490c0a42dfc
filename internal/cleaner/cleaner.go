// Package cleaner normalizes pasted job descriptions (which frequently
// arrive as copied HTML) and strips markdown fences the model sometimes
// wraps around its output despite instructions.
package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Cleaner struct{}

func New() *Cleaner {
	return &Cleaner{}
}

// CleanJobDescription reduces an HTML job posting to its readable text.
// Plain-text input passes through with whitespace collapsed.
func (c *Cleaner) CleanJobDescription(input string) string {
	if !strings.Contains(input, "<") {
		return collapseSpace(input)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return stripTags(input)
	}
	doc.Find("script, style, nav, header, footer, iframe, noscript").Remove()
	doc.Find(".menu, .navigation, .social, .banner, .ads, .cookie, .popup").Remove()

	var blocks []string
	doc.Find("p, li, h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > 0 {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) > 0 {
		return strings.Join(blocks, "\n\n")
	}

	if body := strings.TrimSpace(doc.Find("body").Text()); len(body) > 0 {
		return collapseSpace(body)
	}
	return collapseSpace(doc.Text())
}

// CleanResponse removes a wrapping markdown code fence from a model
// response, leaving the inner text for the marker parser.
func (c *Cleaner) CleanResponse(response string) string {
	if !strings.Contains(response, "```") {
		return strings.TrimSpace(response)
	}

	start := strings.Index(response, "```")
	// skip the fence line itself, including any language tag
	if nl := strings.IndexByte(response[start:], '\n'); nl != -1 {
		start += nl + 1
	} else {
		start += 3
	}
	end := strings.LastIndex(response, "```")
	if end > start {
		return strings.TrimSpace(response[start:end])
	}
	return strings.TrimSpace(response)
}

var (
	tagRe   = regexp.MustCompile("<[^>]*>")
	spaceRe = regexp.MustCompile(`[ \t]+`)
)

func stripTags(html string) string {
	return collapseSpace(tagRe.ReplaceAllString(html, " "))
}

func collapseSpace(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
