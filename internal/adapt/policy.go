package adapt

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Presentation is the fixed set of layout/style directives a policy emits
// regardless of the model response.
type Presentation struct {
	Layout []LayoutChange `yaml:"layout" json:"layout"`
	Styles []StyleChange  `yaml:"styles" json:"styles"`
}

// Policy is a named neurotype configuration. Policies are data: adding one
// must not require new code paths.
type Policy struct {
	ID           string       `yaml:"id" json:"id"`
	Label        string       `yaml:"label" json:"label"`
	PromptRules  string       `yaml:"prompt_rules" json:"-"`
	Presentation Presentation `yaml:"presentation" json:"-"`
}

// Policies is the closed-but-pluggable neurotype policy table.
type Policies struct {
	byID map[string]Policy
}

// Get resolves a neurotype id, falling back to the generic accessibility
// policy for unknown ids.
func (p *Policies) Get(id string) Policy {
	if pol, ok := p.byID[id]; ok {
		return pol
	}
	return p.fallback()
}

// Known reports whether id is in the table.
func (p *Policies) Known(id string) bool {
	_, ok := p.byID[id]
	return ok
}

// List returns all policies sorted by id.
func (p *Policies) List() []Policy {
	out := make([]Policy, 0, len(p.byID))
	for _, pol := range p.byID {
		out = append(out, pol)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Policies) fallback() Policy {
	return Policy{
		ID:          "generic",
		Label:       "Generic accessibility",
		PromptRules: "Simplify this content for accessibility.",
		Presentation: Presentation{
			Layout: baseLayout(),
		},
	}
}

// baseLayout is the readability baseline applied for every policy.
func baseLayout() []LayoutChange {
	return []LayoutChange{
		{
			Selector: "body",
			Layout: map[string]string{
				"fontFamily": "Arial, sans-serif",
				"lineHeight": "1.6",
				"maxWidth":   "1200px",
				"margin":     "0 auto",
				"padding":    "0 20px",
			},
		},
	}
}

// BuiltinPolicies returns the default neurotype table.
func BuiltinPolicies() *Policies {
	table := []Policy{
		{
			ID:    "adhd",
			Label: "ADHD",
			PromptRules: `For ADHD users:
- Use short bullet points (max 15 words)
- Keep all sections and subheadings, summarize only the content inside
- Highlight key actions or benefits
- Remove unnecessary tangents or distractions but keep all context
- If something is not defined or you are not sure, do not mention it
- Keep content logically organized and easy to scan`,
			Presentation: Presentation{
				Layout: baseLayout(),
				Styles: []StyleChange{
					{Selector: "body", Styles: map[string]string{"background": "#f8f8f8", "color": "#333"}},
					{Selector: "p, li", Styles: map[string]string{
						"fontSize":     "16px",
						"lineHeight":   "1.8",
						"marginBottom": "1em",
						"maxWidth":     "650px",
					}},
					{Selector: "h1, h2, h3", Styles: map[string]string{
						"color":         "#2c3e50",
						"marginTop":     "1.5em",
						"marginBottom":  "0.5em",
						"borderBottom":  "1px solid #eee",
						"paddingBottom": "0.3em",
					}},
				},
			},
		},
		{
			ID:    "autism",
			Label: "Autism",
			PromptRules: `For Autistic users:
- Use literal, step-by-step explanations
- Avoid idioms, sarcasm, or vague phrasing
- Keep structure consistent and predictable
- Use factual, concise descriptions
- Define concepts clearly where necessary`,
			Presentation: Presentation{
				Layout: baseLayout(),
				Styles: []StyleChange{
					{Selector: "body", Styles: map[string]string{"background": "#f9f9f9", "color": "#333"}},
					{Selector: "p, li", Styles: map[string]string{
						"fontSize":     "16px",
						"lineHeight":   "1.6",
						"marginBottom": "1em",
						"fontWeight":   "400",
					}},
					{Selector: "a", Styles: map[string]string{
						"textDecoration": "underline",
						"color":          "#0066cc",
					}},
				},
			},
		},
		{
			ID:    "blind",
			Label: "Blind / screen reader",
			PromptRules: `For Blind users using screen readers:
- Use full sentences and clear, linear narrative
- Describe images with: "This is an image of ..."
- Provide video context using available captions or inferred description
- Avoid visual-only references (e.g., "see below")
- Do not include visual formatting`,
			Presentation: Presentation{
				Layout: baseLayout(),
				Styles: []StyleChange{
					{Selector: "body", Styles: map[string]string{"fontSize": "18px", "lineHeight": "2"}},
					{Selector: "img", Styles: map[string]string{"border": "1px solid #ccc"}},
				},
			},
		},
		{
			ID:    "sensory",
			Label: "Sensory-sensitive",
			PromptRules: `For Sensory-sensitive users:
- Use a calm, neutral tone throughout
- Avoid intense or emotionally charged language
- Prefer short, gentle sentences and soft phrasing
- Remove emphasis or visual metaphors
- Simplify paragraphs into evenly-paced information`,
			Presentation: Presentation{
				Layout: baseLayout(),
				Styles: []StyleChange{
					{Selector: "body", Styles: map[string]string{"background": "#f5f5f5", "color": "#444"}},
					{Selector: "img, video", Styles: map[string]string{
						"filter":   "brightness(0.9) contrast(0.9)",
						"maxWidth": "90%",
					}},
					{Selector: "*", Styles: map[string]string{
						"animation":  "none !important",
						"transition": "none !important",
					}},
				},
			},
		},
	}

	p := &Policies{byID: make(map[string]Policy, len(table))}
	for _, pol := range table {
		p.byID[pol.ID] = pol
	}
	return p
}

// LoadPolicyFile overlays policies from a YAML file onto the builtin table.
// Entries with a known id replace the builtin; new ids extend the table.
func LoadPolicyFile(path string) (*Policies, error) {
	p := BuiltinPolicies()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var file struct {
		Policies []Policy `yaml:"policies"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	for _, pol := range file.Policies {
		if pol.ID == "" {
			return nil, fmt.Errorf("policy file: entry without id")
		}
		if pol.Label == "" {
			pol.Label = pol.ID
		}
		if len(pol.Presentation.Layout) == 0 {
			pol.Presentation.Layout = baseLayout()
		}
		p.byID[pol.ID] = pol
	}
	return p, nil
}
