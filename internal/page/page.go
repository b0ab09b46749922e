package page

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind classifies a leaf unit of extracted page content.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindList      Kind = "list"
	KindLink      Kind = "link"
	KindUnknown   Kind = "unknown"
)

// MediaRef points at the media behind an image or video item.
type MediaRef struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
	// InlineEncoding holds a base64 rendition of the media bytes when the
	// best-effort fetch succeeded. InlineEncodingPresent stays false on any
	// fetch failure; the item is still usable without it.
	InlineEncoding        string `json:"inline_encoding,omitempty"`
	InlineEncodingPresent bool   `json:"inline_encoding_present"`
}

// ContentItem is the smallest classified unit of extracted content.
// Selector is always non-empty; items that cannot be anchored to a node
// are discarded during extraction.
type ContentItem struct {
	Kind     Kind      `json:"kind"`
	Selector string    `json:"selector"`
	Text     string    `json:"text,omitempty"`
	Level    int       `json:"level,omitempty"` // heading depth, 1-6
	Items    []string  `json:"items,omitempty"` // list item texts
	Href     string    `json:"href,omitempty"`  // link target
	Media    *MediaRef `json:"media,omitempty"`
}

// Section is a semantically-grouped container of content. Items keep DOM
// document order. A section with no items is never retained.
type Section struct {
	Role     string        `json:"role"`
	Selector string        `json:"selector"`
	Items    []ContentItem `json:"items"`
}

// Layout is one extraction pass over a page.
type Layout struct {
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Sections []Section `json:"sections"`
}

// Chunk is a token-bounded batch of consecutive sections. IDs are sequential
// and 1-based within one extraction pass. A section never spans two chunks.
type Chunk struct {
	ID       int       `json:"id"`
	Sections []Section `json:"sections"`
}

var sectionKeyRe = regexp.MustCompile(`^chunk(\d+)-(\d+)$`)

// FormatSectionKey renders the join key for a (chunk, section) pair.
// Both chunkID and the rendered section index are 1-based.
func FormatSectionKey(chunkID, sectionIndex int) string {
	return fmt.Sprintf("chunk%d-%d", chunkID, sectionIndex+1)
}

// ParseSectionKey parses a "chunk{N}-{M}" key back into a 1-based chunk id
// and a 0-based section index. ok is false when the key does not match the
// expected shape.
func ParseSectionKey(key string) (chunkID, sectionIndex int, ok bool) {
	m := sectionKeyRe.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, false
	}
	chunkID, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	sec, err := strconv.Atoi(m[2])
	if err != nil || sec < 1 {
		return 0, 0, false
	}
	return chunkID, sec - 1, true
}
