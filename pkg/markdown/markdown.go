// Package markdown renders stored documents and their filenames.
//
// The front matter is rendered by hand rather than through a YAML encoder:
// tag order and the literal "url: <url>" line are part of the on-disk
// contract that the vault's URL lookup depends on.
package markdown

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	dateLayout = "2006-01-02"

	// MemoTag is the single tag applied to freeform notes.
	MemoTag = "Memo"

	// CommentsHeading marks the section follow-up discussion is appended to.
	CommentsHeading = "## Comments"

	// MaxFilenameLength bounds a generated filename including the extension.
	MaxFilenameLength = 100

	invalidFilenameChars = `/\:*?"<>|`
	untitledFilename     = "untitled"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Generate renders a link-post document: front matter with tags, url and
// creation date, a title heading, an optional overview section and an
// optional dated comment entry.
func Generate(title, url, description string, tags []string, summary, comment string) string {
	created := time.Now().Format(dateLayout)

	var b strings.Builder
	b.WriteString(frontMatter(tags, url, created))
	b.WriteString("\n")
	b.WriteString("# " + title + "\n\n")

	if description != "" || summary != "" {
		b.WriteString("## Overview\n\n")
		if description != "" {
			b.WriteString(description + "\n\n")
		}
		if summary != "" {
			b.WriteString("**Note:** " + summary + "\n\n")
		}
	}

	if comment != "" {
		b.WriteString(CommentsHeading + "\n\n")
		b.WriteString("**" + created + ":**\n" + comment + "\n\n")
	}

	return b.String()
}

// GenerateMemo renders a freeform note with the fixed memo tag and no url.
func GenerateMemo(memo string) string {
	created := time.Now().Format(dateLayout)
	return frontMatter([]string{MemoTag}, "", created) + "\n# Memo\n\n" + memo + "\n"
}

// CommentEntry renders one dated comment entry for appending.
func CommentEntry(comment string) string {
	return "\n**" + time.Now().Format(dateLayout) + ":**\n" + comment + "\n"
}

func frontMatter(tags []string, url, created string) string {
	var b strings.Builder
	b.WriteString("---\ntags:\n")
	for _, tag := range tags {
		b.WriteString("  - " + tag + "\n")
	}
	if url != "" {
		b.WriteString("url: " + url + "\n")
	}
	b.WriteString("created: " + created + "\n---\n")
	return b.String()
}

// GenerateFilename builds a date-prefixed, sanitized filename for a title,
// at most MaxFilenameLength characters including the ".md" extension.
func GenerateFilename(title string) string {
	datePrefix := time.Now().Format(dateLayout)
	sanitized := sanitizeTitle(title)

	filename := datePrefix + "_" + sanitized + ".md"
	if utf8.RuneCountInString(filename) > MaxFilenameLength {
		maxTitle := MaxFilenameLength - len(datePrefix) - 1 - len(".md")
		runes := []rune(sanitized)
		filename = datePrefix + "_" + string(runes[:maxTitle]) + ".md"
	}
	return filename
}

func sanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) {
			return -1
		}
		return r
	}, title)

	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return untitledFilename
	}
	return cleaned
}
