package tagger

import (
	"strings"
	"testing"
)

func TestAdjustTagsPadsShortLists(t *testing.T) {
	got := AdjustTags([]string{"go"}, 3, 5)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != "go" {
		t.Fatalf("original tag lost: %v", got)
	}
	if got[1] != fillerTag || got[2] != fillerTag {
		t.Fatalf("padding = %v, want filler tags", got[1:])
	}
}

func TestAdjustTagsKeepsOrderOnTruncate(t *testing.T) {
	in := []string{"one", "two", "three", "four", "five", "six", "seven"}
	got := AdjustTags(in, 3, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i] != in[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], in[i])
		}
	}
}

func TestAdjustTagsDoesNotMutateInput(t *testing.T) {
	in := []string{"a"}
	_ = AdjustTags(in, 3, 5)
	if len(in) != 1 {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestAdjustTagsEmptyInput(t *testing.T) {
	got := AdjustTags(nil, 3, 5)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestTruncateSummary(t *testing.T) {
	long := strings.Repeat("x", 150)
	got := TruncateSummary(long, 100)
	if len([]rune(got)) != 100 {
		t.Fatalf("len = %d, want 100", len([]rune(got)))
	}
	if got != long[:100] {
		t.Fatal("truncation did not keep the prefix")
	}

	if TruncateSummary("short", 100) != "short" {
		t.Fatal("short summary should be unchanged")
	}
}

func TestTruncateSummaryMultibyte(t *testing.T) {
	long := strings.Repeat("あ", 150)
	got := TruncateSummary(long, 100)
	if n := len([]rune(got)); n != 100 {
		t.Fatalf("rune count = %d, want 100", n)
	}
}

func TestParseResponse(t *testing.T) {
	raw := `{"tags": ["go", "testing", "ci"], "summary": "short"}`
	got, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(got.Tags) != 3 || got.Tags[0] != "go" {
		t.Fatalf("tags = %v", got.Tags)
	}
	if got.Summary != "short" {
		t.Fatalf("summary = %q", got.Summary)
	}
}

func TestParseResponseStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"tags\": [\"a\", \"b\", \"c\"], \"summary\": \"\"}\n```"
	got, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(got.Tags) != 3 {
		t.Fatalf("tags = %v", got.Tags)
	}

	raw = "```\n{\"tags\": [\"a\", \"b\", \"c\"], \"summary\": \"\"}\n```"
	if _, err := parseResponse(raw); err != nil {
		t.Fatalf("parseResponse with bare fence: %v", err)
	}
}

func TestParseResponseMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", "```json\ngarbage\n```"} {
		if _, err := parseResponse(raw); err == nil {
			t.Fatalf("parseResponse(%q) should fail", raw)
		}
	}
}

func TestDefaultTagsReturnsFreshCopy(t *testing.T) {
	first := DefaultTags()
	first = append(first, "mutated")
	first[0] = "clobbered"

	second := DefaultTags()
	if second[0] != "Uncategorized" || second[1] != "Needs Review" || len(second) != 2 {
		t.Fatalf("DefaultTags affected by caller mutation: %v", second)
	}
}
