package adapt

import "testing"

func TestFlattenMarkdownPassthrough(t *testing.T) {
	// Plain text, including dash bullets, is returned untouched.
	cases := []string{
		"Just a sentence.",
		"- keep this bullet\n- and this one",
		"Line one\nLine two",
		"",
	}
	for _, in := range cases {
		if got := flattenMarkdown(in); got != in {
			t.Errorf("flattenMarkdown(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestFlattenMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "emphasis stripped",
			in:   "This is **important** and *quiet*.",
			want: "This is important and quiet.",
		},
		{
			name: "heading marker dropped",
			in:   "# Big Title\nBody text.",
			want: "Big Title\nBody text.",
		},
		{
			name: "star bullets become dashes",
			in:   "* one\n* two **bold**",
			want: "- one\n- two bold",
		},
		{
			name: "ordered list numbering kept",
			in:   "1. first `step`\n2. second",
			want: "1. first step\n2. second",
		},
		{
			name: "paragraph line breaks survive",
			in:   "**First** line\nsecond line\nthird line.",
			want: "First line\nsecond line\nthird line.",
		},
		{
			name: "code span unwrapped",
			in:   "Run `npm install` first.",
			want: "Run npm install first.",
		},
		{
			name: "fenced block kept as text",
			in:   "```\nplain content\n```",
			want: "plain content",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := flattenMarkdown(c.in); got != c.want {
				t.Errorf("flattenMarkdown(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
