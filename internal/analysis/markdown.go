package analysis

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Tags whose subtrees carry no readable content.
var skippedTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "iframe": {},
	"nav": {}, "footer": {}, "header": {}, "svg": {}, "form": {},
}

// HTMLToMarkdown converts an HTML document into a minimal markdown
// rendition: headings, paragraphs, lists, links, and emphasis survive;
// scripts, styles, and chrome elements are dropped. The output passes
// through CleanMarkdown before being returned.
func HTMLToMarkdown(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var sb strings.Builder
	renderNode(&sb, doc)
	return CleanMarkdown(sb.String()), nil
}

func renderNode(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(collapseSpaces(n.Data))
		return
	}
	if n.Type == html.ElementNode {
		if _, skip := skippedTags[n.Data]; skip {
			return
		}
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			sb.WriteString("\n\n" + strings.Repeat("#", level) + " ")
			sb.WriteString(strings.TrimSpace(textContent(n)))
			sb.WriteString("\n\n")
			return
		case "p", "div", "section", "article":
			sb.WriteString("\n\n")
			renderChildren(sb, n)
			sb.WriteString("\n\n")
			return
		case "br":
			sb.WriteString("\n")
			return
		case "li":
			sb.WriteString("\n- ")
			renderChildren(sb, n)
			return
		case "a":
			text := strings.TrimSpace(textContent(n))
			href := attr(n, "href")
			if text == "" {
				return
			}
			if href == "" || strings.HasPrefix(href, "#") {
				sb.WriteString(text)
			} else {
				sb.WriteString("[" + text + "](" + href + ")")
			}
			return
		case "strong", "b":
			if text := strings.TrimSpace(textContent(n)); text != "" {
				sb.WriteString("**" + text + "**")
			}
			return
		case "em", "i":
			if text := strings.TrimSpace(textContent(n)); text != "" {
				sb.WriteString("*" + text + "*")
			}
			return
		}
	}
	renderChildren(sb, n)
}

func renderChildren(sb *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(sb, c)
	}
}

// textContent flattens a subtree to plain text, honoring skippedTags.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			return
		}
		if node.Type == html.ElementNode {
			if _, skip := skippedTags[node.Data]; skip {
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseSpaces(sb.String())
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

var (
	spaceRunRe      = regexp.MustCompile(`[ \t]+`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
	emptyHeadingRe  = regexp.MustCompile(`(?m)^#{1,6}\s*$`)
	emptyBulletRe   = regexp.MustCompile(`(?m)^[-*+]\s*$`)
	emptyLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\(\s*\)`)
	trailingSpaceRe = regexp.MustCompile(`(?m)[ \t]+$`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

func collapseSpaces(s string) string {
	return spaceRunRe.ReplaceAllString(s, " ")
}

// CleanText strips control characters and collapses horizontal whitespace
// runs while preserving line structure.
func CleanText(s string) string {
	s = controlCharRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = trailingSpaceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// CleanMarkdown normalizes scraped markdown: control characters go,
// empty headings and bullets go, links with empty targets collapse to
// their text, and runs of blank lines shrink to one.
func CleanMarkdown(s string) string {
	s = controlCharRe.ReplaceAllString(s, "")
	s = emptyLinkRe.ReplaceAllString(s, "$1")
	s = emptyHeadingRe.ReplaceAllString(s, "")
	s = emptyBulletRe.ReplaceAllString(s, "")
	s = trailingSpaceRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
