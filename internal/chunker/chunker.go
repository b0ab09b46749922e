package chunker

import (
	"encoding/json"
	"strings"

	"github.com/browseable/pageadapt/internal/page"
)

// Config controls chunking behavior.
type Config struct {
	// TokenBudget is the advisory size bound per chunk, approximated as the
	// whitespace-delimited word count of the serialized section data.
	TokenBudget int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{TokenBudget: 1500}
}

// ChunkSections greedily partitions the ordered section list into chunks
// without ever splitting a section. Before a section is added, the
// hypothetical size of the chunk-with-section is checked against the budget;
// if it would overflow and the current chunk is non-empty, the chunk is
// closed and a new one starts with just this section. A single section
// larger than the whole budget still forms its own chunk; content is never
// dropped. Chunk ids are sequential from 1 in close order.
//
// Section token counts are computed once each and accumulated incrementally.
func ChunkSections(sections []page.Section, cfg Config) []page.Chunk {
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 1500
	}

	var chunks []page.Chunk
	var current []page.Section
	running := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, page.Chunk{
			ID:       len(chunks) + 1,
			Sections: current,
		})
		current = nil
		running = 0
	}

	for _, sec := range sections {
		tokens := SectionTokens(sec)
		if len(current) > 0 && running+tokens > cfg.TokenBudget {
			flush()
		}
		current = append(current, sec)
		running += tokens
	}
	flush()

	return chunks
}

// SectionTokens approximates the token cost of one section as the word count
// of its JSON serialization, so structural overhead is included.
func SectionTokens(sec page.Section) int {
	data, err := json.Marshal(sec)
	if err != nil {
		return 0
	}
	return CountTokens(string(data))
}

// CountTokens approximates tokens as whitespace-delimited words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
