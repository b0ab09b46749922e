package adapt

// LayoutChange adjusts box/flow properties of the element at Selector.
type LayoutChange struct {
	Selector string            `json:"selector"`
	Layout   map[string]string `json:"layout"`
}

// StyleChange adjusts visual properties of the element at Selector.
type StyleChange struct {
	Selector string            `json:"selector"`
	Styles   map[string]string `json:"styles"`
}

// ElementChange replaces the text of the element at Selector.
type ElementChange struct {
	Selector string `json:"selector"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
}

// Result is what one adaptation cycle hands to the overlay renderer.
// Layout and style changes are policy-determined and present even when the
// model produced nothing usable; element changes come from reconciling the
// model response.
type Result struct {
	LayoutChanges  []LayoutChange  `json:"layout_changes"`
	StyleChanges   []StyleChange   `json:"style_changes"`
	ElementChanges []ElementChange `json:"element_changes"`
}
