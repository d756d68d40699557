// Package parser classifies inbound message content as a link post or a memo.
package parser

import (
	"regexp"
	"strings"

	"stockpile/pkg/types"
)

// urlPattern recognizes http/https tokens terminated by whitespace or an
// enclosing angle/quote character.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"]+`)

// trailingPunct is stripped from the end of an extracted URL. Links pasted
// inside [text](url) markup otherwise keep the closing paren.
const trailingPunct = ")],.;"

// Parse splits raw message content into a link post or a memo.
//
// The first recognized URL wins; the raw URL token is removed once and the
// remaining text, including any further URLs, becomes the comment. Content
// without a URL becomes a memo holding the trimmed text.
func Parse(content string) types.ParseResult {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return types.ParseResult{Kind: types.KindMemo}
	}

	urls := ExtractURLs(content)
	if len(urls) == 0 {
		return types.ParseResult{Kind: types.KindMemo, Memo: trimmed}
	}

	raw := urls[0]
	url := strings.TrimRight(raw, trailingPunct)
	comment := strings.TrimSpace(strings.Replace(content, raw, "", 1))

	return types.ParseResult{Kind: types.KindLink, URL: url, Comment: comment}
}

// ExtractURLs returns every recognized URL in order of appearance.
func ExtractURLs(content string) []string {
	return urlPattern.FindAllString(content, -1)
}
