// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
)

// Clean converts an HTML fragment to plain text. Text nodes are joined with
// single spaces, entities are decoded, whitespace runs collapse to one space
// and the result is trimmed. The output never contains newlines, so it also
// never contains three or more in a row.
//
// Entities are decoded twice, once by the parser and once afterwards, so
// double-encoded exports come out readable. As a consequence Clean is not
// idempotent on text that spells out markup: "&lt;b&gt;" becomes "<b>",
// which a second Clean strips as a tag.
//
// Clean never fails. If the fragment cannot be parsed it falls back to a
// regular-expression tag stripper with the same whitespace rules.
func Clean(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return stripTags(fragment)
	}

	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	return normalize(html.UnescapeString(strings.Join(parts, " ")))
}

// collectText appends the trimmed text of every text node under n, skipping
// script and style bodies.
func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// stripTags is the fallback cleaner used when parsing fails.
func stripTags(fragment string) string {
	text := tagRe.ReplaceAllString(fragment, " ")
	return normalize(html.UnescapeString(text))
}

func normalize(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
