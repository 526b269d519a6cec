package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	// <br> separates words visually, keep them apart in text as well
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteString(" ")
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable characters and collapses whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// SelectionText is the cleaned text of every node in the selection.
func SelectionText(sel *goquery.Selection) string {
	var buffer strings.Builder
	for i, n := range sel.Nodes {
		if i > 0 {
			buffer.WriteString(" ")
		}
		buffer.WriteString(GetText(n))
	}
	return CleanText(buffer.String())
}

// ResolveHref resolves href against base, it returns false for empty or unparsable hrefs.
// A nil base leaves the href as it is.
func ResolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	link, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	return link.String(), true
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors collects every anchor in the selection with its href resolved against base.
// Anchors with a missing or broken href are skipped.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, ok := ResolveHref(base, href)
		if !ok {
			continue
		}

		anchors = append(anchors, Anchor{
			Name: CleanText(GetText(n)),
			Href: link,
		})
	}
	return anchors
}
