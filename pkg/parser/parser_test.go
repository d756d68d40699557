package parser

import (
	"strings"
	"testing"

	"stockpile/pkg/types"
)

func TestParseNoLink(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"just a note", "just a note"},
		{"  padded note  ", "padded note"},
		{"ftp://not-a-web-link", "ftp://not-a-web-link"},
		{"multi\nline\nnote", "multi\nline\nnote"},
	}
	for _, c := range cases {
		got := Parse(c.in)
		if got.Kind != types.KindMemo {
			t.Fatalf("Parse(%q).Kind = %q, want memo", c.in, got.Kind)
		}
		if got.Memo != c.want {
			t.Fatalf("Parse(%q).Memo = %q, want %q", c.in, got.Memo, c.want)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t "} {
		got := Parse(in)
		if got.Kind != types.KindMemo || got.Memo != "" {
			t.Fatalf("Parse(%q) = %+v, want empty memo", in, got)
		}
	}
}

func TestParseURLOnly(t *testing.T) {
	got := Parse("https://example.com/article")
	if got.Kind != types.KindLink {
		t.Fatalf("Kind = %q, want link", got.Kind)
	}
	if got.URL != "https://example.com/article" {
		t.Fatalf("URL = %q", got.URL)
	}
	if got.Comment != "" {
		t.Fatalf("Comment = %q, want empty", got.Comment)
	}
}

func TestParseURLWithTrailingNote(t *testing.T) {
	got := Parse("https://example.com/a great read")
	if got.URL != "https://example.com/a" {
		t.Fatalf("URL = %q, want https://example.com/a", got.URL)
	}
	if got.Comment != "great read" {
		t.Fatalf("Comment = %q, want %q", got.Comment, "great read")
	}
}

func TestParseFirstLinkWins(t *testing.T) {
	got := Parse("a https://x.com b https://y.com c")
	if got.URL != "https://x.com" {
		t.Fatalf("URL = %q, want https://x.com", got.URL)
	}
	for _, want := range []string{"a", "b", "c", "https://y.com"} {
		if !strings.Contains(got.Comment, want) {
			t.Fatalf("Comment = %q, missing %q", got.Comment, want)
		}
	}
}

func TestParseStripsMarkupPunctuation(t *testing.T) {
	got := Parse("[a post](https://example.com/page) worth reading")
	if got.URL != "https://example.com/page" {
		t.Fatalf("URL = %q, want https://example.com/page", got.URL)
	}
	if !strings.Contains(got.Comment, "worth reading") {
		t.Fatalf("Comment = %q, missing trailing note", got.Comment)
	}
}

func TestParseAngleBracketTermination(t *testing.T) {
	got := Parse(`<https://example.com>`)
	if got.URL != "https://example.com" {
		t.Fatalf("URL = %q, want https://example.com", got.URL)
	}
}

func TestParseUppercaseScheme(t *testing.T) {
	got := Parse("HTTPS://EXAMPLE.COM/x")
	if got.Kind != types.KindLink {
		t.Fatalf("Kind = %q, want link", got.Kind)
	}
	if got.URL != "HTTPS://EXAMPLE.COM/x" {
		t.Fatalf("URL = %q", got.URL)
	}
}

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("see https://x.com and http://y.com too")
	if len(urls) != 2 || urls[0] != "https://x.com" || urls[1] != "http://y.com" {
		t.Fatalf("ExtractURLs = %v", urls)
	}
}
