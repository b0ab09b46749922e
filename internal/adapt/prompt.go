package adapt

import (
	"fmt"
	"strings"

	"github.com/browseable/pageadapt/internal/page"
)

// shortTextWords is the cutoff below which a text item is rendered as a
// plain label instead of its kind.
const shortTextWords = 5

const universalRules = `Universal Rules for All Neurotypes:
- Do not skip any section, even if repetitive
- Do not over-summarize or merge content across sections
- Preserve facts, processes, names, lists, the purpose of the site, and any steps given
- Describe images using the pattern: "This is an image of ..."; if no alt text is present, infer the meaning from the link or the inline image data if given
- Provide helpful video context using captions or inferred meaning
- If a section's simplified form would exceed 5 bullet points, split it into multiple outputs of 5 or fewer bullets each
- Return clean and complete JSON in this exact format:

{
  "chunk1-1": "Simplified version of section 1",
  "chunk1-2": "Simplified version of section 2"
}

IMPORTANT FORMATTING RULES:
- DO NOT use Markdown (*, -, **, _, etc.)
- Return clean, plain text only
- Use line breaks or numbered lists only if needed
- Avoid styling markers like "**bold**" or "_italics_"

Strictly adhere to the above instructions. DO NOT RETURN MARKDOWN. DO NOT add explanations.
Return only the JSON.`

// BuildPrompt renders a chunk batch plus the active neurotype policy into a
// single instruction string. The output is deterministic: identical input
// always yields byte-identical text, so snapshot tests stay meaningful.
// Section blocks appear in chunk/section order, separated by a blank line,
// each headed by its chunk-section key, role and selector.
func BuildPrompt(chunks []page.Chunk, policy Policy) string {
	var sb strings.Builder

	sb.WriteString("You are an accessibility AI adapting web content for neurodivergent users.\n")
	sb.WriteString("Neurotype: ")
	sb.WriteString(strings.ToUpper(policy.ID))
	sb.WriteString("\n\nAdapt each section using the rules below:\n")
	sb.WriteString(strings.TrimSpace(policy.PromptRules))
	sb.WriteString("\n\n")
	sb.WriteString(universalRules)
	sb.WriteString("\n\nWebpage Content:\n")

	var blocks []string
	for _, chunk := range chunks {
		for i, sec := range chunk.Sections {
			blocks = append(blocks, sectionBlock(page.FormatSectionKey(chunk.ID, i), sec))
		}
	}
	sb.WriteString(strings.Join(blocks, "\n\n"))

	return sb.String()
}

func sectionBlock(key string, sec page.Section) string {
	lines := []string{
		fmt.Sprintf("Section %s (%s)", key, sec.Role),
		fmt.Sprintf("Selector: %s", sec.Selector),
	}
	for _, item := range sec.Items {
		lines = append(lines, itemLine(item))
	}
	return strings.Join(lines, "\n")
}

func itemLine(item page.ContentItem) string {
	switch item.Kind {
	case page.KindImage:
		encoding := "no_base64"
		if item.Media != nil && item.Media.InlineEncodingPresent {
			encoding = "base64_image_provided"
		}
		alt := "No alt text"
		if item.Media != nil && strings.TrimSpace(item.Media.Alt) != "" {
			alt = strings.TrimSpace(item.Media.Alt)
		}
		return fmt.Sprintf("- [image] (%s) alt=%q", encoding, alt)
	case page.KindVideo:
		caption := "No caption"
		if item.Media != nil && strings.TrimSpace(item.Media.Alt) != "" {
			caption = strings.TrimSpace(item.Media.Alt)
		}
		return fmt.Sprintf("- [video] caption=%q", caption)
	case page.KindList:
		return fmt.Sprintf("- [list] %q", strings.Join(item.Items, "; "))
	default:
		text := strings.TrimSpace(item.Text)
		prefix := fmt.Sprintf("[%s]", item.Kind)
		if len(strings.Fields(text)) < shortTextWords {
			prefix = "[label]"
		}
		return fmt.Sprintf("- %s %q", prefix, text)
	}
}
