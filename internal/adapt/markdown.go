package adapt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// The prompt forbids markdown, but models still leak it. Before neurotype
// formatting, any markdown in a simplified string is flattened to plain
// text: emphasis and heading markers dropped, list items normalized to
// dash bullets so the downstream bullet rewriting keeps working.

var mdParser = goldmark.New().Parser()

var mdMarkerRe = regexp.MustCompile("(?m)(\\*\\*|__|`|^#{1,6} |^\\* |\\*[^*\\n]+\\*|_[^_\\n]+_)")

func flattenMarkdown(s string) string {
	if !mdMarkerRe.MatchString(s) {
		return s
	}

	source := []byte(s)
	doc := mdParser.Parse(text.NewReader(source))

	var lines []string
	var walkBlocks func(n ast.Node, marker string)
	walkBlocks = func(n ast.Node, marker string) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch b := c.(type) {
			case *ast.List:
				i := b.Start
				if i == 0 {
					i = 1
				}
				for li := c.FirstChild(); li != nil; li = li.NextSibling() {
					m := "- "
					if b.IsOrdered() {
						m = fmt.Sprintf("%d. ", i)
					}
					walkBlocks(li, m)
					i++
				}
			case *ast.Blockquote:
				walkBlocks(c, marker)
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				var sb strings.Builder
				seglines := c.Lines()
				for i := 0; i < seglines.Len(); i++ {
					seg := seglines.At(i)
					sb.Write(seg.Value(source))
				}
				if t := strings.TrimSpace(sb.String()); t != "" {
					lines = append(lines, marker+t)
				}
			default:
				if t := inlineText(c, source); t != "" {
					lines = append(lines, marker+t)
				}
			}
		}
	}
	walkBlocks(doc, "")

	return strings.Join(lines, "\n")
}

func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			// Line breaks inside a paragraph survive flattening so the
			// per-neurotype formatting can still rewrite them.
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.AutoLink:
			sb.Write(t.URL(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
