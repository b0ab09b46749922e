package adapt

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/browseable/pageadapt/internal/page"
)

// ErrMalformedResponse marks a model response that is not a JSON object of
// string keys to string values after fence stripping. It is recoverable:
// the reconciler still emits the policy's static directives.
var ErrMalformedResponse = errors.New("malformed model response")

// ParseResponse strips markdown code fences from the raw model output and
// parses it as a key-to-simplified-text mapping. On failure it returns an
// empty mapping and ErrMalformedResponse, never a panic or fatal error.
func ParseResponse(raw string) (map[string]string, error) {
	cleaned := stripCodeBlock(raw)
	var mapping map[string]string
	if err := json.Unmarshal([]byte(cleaned), &mapping); err != nil {
		return map[string]string{}, ErrMalformedResponse
	}
	if mapping == nil {
		mapping = map[string]string{}
	}
	return mapping, nil
}

// FormatText applies neurotype-specific post-processing to a simplified
// string. It is a pure function of (policy id, raw text). Stray markdown is
// flattened first, then adhd dash bullets become bullet glyphs joined with
// explicit line breaks, and autism newlines become explicit line breaks.
func FormatText(policyID, raw string) string {
	text := flattenMarkdown(raw)
	switch policyID {
	case "adhd":
		if !strings.Contains(text, "- ") {
			return text
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.HasPrefix(line, "- ") {
				lines[i] = "• " + line[2:]
			}
		}
		return strings.Join(lines, "<br>")
	case "autism":
		return strings.ReplaceAll(text, "\n", "<br>")
	}
	return text
}

// FallbackResult is the static, policy-determined adaptation applied when
// the model call fails or yields nothing usable: base readability layout
// plus the policy's style table, no element-text replacements.
func FallbackResult(policy Policy) Result {
	return Result{
		LayoutChanges:  append([]LayoutChange(nil), policy.Presentation.Layout...),
		StyleChanges:   append([]StyleChange(nil), policy.Presentation.Styles...),
		ElementChanges: []ElementChange{},
	}
}

type sectionRef struct {
	chunkIdx   int
	sectionIdx int
	text       string
}

// Reconcile maps the raw model response back onto the original chunk data.
// Per-key problems (bad key shape, out-of-range indices) are logged and
// skipped; a response that fails to parse at all degrades to the fallback
// result. The policy's layout/style directives are emitted unconditionally.
// Reconciling the same response against the same chunks twice yields
// identical results.
func Reconcile(raw string, chunks []page.Chunk, policy Policy, log *slog.Logger) Result {
	result := FallbackResult(policy)

	mapping, err := ParseResponse(raw)
	if err != nil {
		if log != nil {
			log.Warn("model response not parseable, using fallback", "error", err)
		}
		return result
	}

	// Resolve keys first so processing order is deterministic regardless of
	// map iteration order.
	refs := make([]sectionRef, 0, len(mapping))
	for key, text := range mapping {
		chunkID, sectionIdx, ok := page.ParseSectionKey(key)
		if !ok {
			if log != nil {
				log.Warn("skipping response key with invalid format", "key", key)
			}
			continue
		}
		chunkIdx := chunkID - 1
		if chunkIdx < 0 || chunkIdx >= len(chunks) {
			if log != nil {
				log.Warn("skipping response key, chunk out of range", "key", key, "chunks", len(chunks))
			}
			continue
		}
		if sectionIdx < 0 || sectionIdx >= len(chunks[chunkIdx].Sections) {
			if log != nil {
				log.Warn("skipping response key, section out of range", "key", key, "sections", len(chunks[chunkIdx].Sections))
			}
			continue
		}
		refs = append(refs, sectionRef{chunkIdx: chunkIdx, sectionIdx: sectionIdx, text: text})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].chunkIdx != refs[j].chunkIdx {
			return refs[i].chunkIdx < refs[j].chunkIdx
		}
		return refs[i].sectionIdx < refs[j].sectionIdx
	})

	// First match wins per selector: duplicate selectors across sections
	// must not produce redundant overlay entries.
	assigned := make(map[string]bool)
	for _, ref := range refs {
		formatted := FormatText(policy.ID, ref.text)
		sec := chunks[ref.chunkIdx].Sections[ref.sectionIdx]
		for _, item := range sec.Items {
			if item.Kind != page.KindHeading && item.Kind != page.KindParagraph {
				continue
			}
			if assigned[item.Selector] {
				continue
			}
			assigned[item.Selector] = true
			result.ElementChanges = append(result.ElementChanges, ElementChange{
				Selector: item.Selector,
				Kind:     string(item.Kind),
				Text:     formatted,
			})
		}
	}

	return result
}
