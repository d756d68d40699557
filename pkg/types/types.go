// Package types defines the core value types passed through the ingestion pipeline.
package types

// MessageKind classifies an inbound message after parsing.
type MessageKind string

const (
	KindLink MessageKind = "link" // message contains a shareable URL
	KindMemo MessageKind = "memo" // freeform note, no URL
)

// IncomingMessage is an immutable snapshot of one inbound chat event.
type IncomingMessage struct {
	ID          string `json:"id"`
	AuthorName  string `json:"author_name"`
	AuthorIsBot bool   `json:"author_is_bot"`
	ChannelID   string `json:"channel_id"`
	Content     string `json:"content"`

	// ParentID is the referenced message for threaded replies, empty otherwise.
	ParentID string `json:"parent_id,omitempty"`
}

// ParseResult is the outcome of classifying message content.
type ParseResult struct {
	Kind MessageKind `json:"kind"`

	// Link post fields. Comment holds everything that was not the URL,
	// including any further URLs.
	URL     string `json:"url,omitempty"`
	Comment string `json:"comment,omitempty"`

	// Memo holds the whole trimmed text when no URL was found.
	Memo string `json:"memo,omitempty"`
}

// PageMetadata is the result of scraping a linked page. Title is always
// non-empty after fallback handling.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// TagResult is the outcome of AI tag generation. Tags holds 3 to 5 entries
// after adjustment; Summary is at most 100 characters.
type TagResult struct {
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}
