package dom

import (
	"context"
	"strings"
	"testing"

	"github.com/browseable/pageadapt/internal/page"
)

func extract(t *testing.T, src string) *page.Layout {
	t.Helper()
	e := &Extractor{}
	layout, err := e.ExtractLayout(context.Background(), strings.NewReader(src), "https://example.com")
	if err != nil {
		t.Fatalf("ExtractLayout: %v", err)
	}
	return layout
}

func TestExtractLayoutBasicSection(t *testing.T) {
	layout := extract(t, `<html><head><title>Demo Page</title></head><body>
		<section><h1>Welcome</h1><p>Hello there, a longer paragraph.</p></section>
	</body></html>`)

	if layout.Title != "Demo Page" {
		t.Errorf("title = %q", layout.Title)
	}
	if layout.URL != "https://example.com" {
		t.Errorf("url = %q", layout.URL)
	}
	if len(layout.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(layout.Sections))
	}
	sec := layout.Sections[0]
	if sec.Role != "section" {
		t.Errorf("role = %q, want section", sec.Role)
	}
	if len(sec.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sec.Items))
	}
	if sec.Items[0].Kind != page.KindHeading || sec.Items[1].Kind != page.KindParagraph {
		t.Errorf("item kinds = %q, %q", sec.Items[0].Kind, sec.Items[1].Kind)
	}
}

func TestExtractLayoutRolePrecedence(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{"explicit role attribute", `<div role="complementary" class="hero"><p>x y z</p></div>`, "complementary"},
		{"hero class", `<div class="hero-top"><p>x y z</p></div>`, "hero"},
		{"banner class maps to hero", `<div class="page-banner"><p>x y z</p></div>`, "hero"},
		{"footer class", `<div class="site-footer"><p>x y z</p></div>`, "footer"},
		{"nav class", `<div class="navbar"><p>x y z</p></div>`, "navigation"},
		{"sidebar class", `<div class="left-sidebar"><p>x y z</p></div>`, "sidebar"},
		{"main class", `<div class="main-area"><p>x y z</p></div>`, "main"},
		{"card class", `<div class="pricing-card"><p>x y z</p></div>`, "content-step"},
		{"default", `<div class="misc"><p>x y z</p></div>`, "section"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			layout := extract(t, `<html><body>`+c.html+`</body></html>`)
			if len(layout.Sections) != 1 {
				t.Fatalf("sections = %d, want 1", len(layout.Sections))
			}
			if got := layout.Sections[0].Role; got != c.want {
				t.Errorf("role = %q, want %q", got, c.want)
			}
		})
	}
}

func TestExtractLayoutDiscardsEmptyContainers(t *testing.T) {
	layout := extract(t, `<html><body>
		<section><span>no interesting tags here</span></section>
		<section><p>   </p></section>
		<section><p>Real content lives here.</p></section>
	</body></html>`)

	if len(layout.Sections) != 1 {
		t.Fatalf("sections = %d, want 1 (empty ones discarded)", len(layout.Sections))
	}
}

func TestExtractLayoutDocumentOrder(t *testing.T) {
	layout := extract(t, `<html><body>
		<section class="hero"><h1>First</h1></section>
		<section><p>Second section paragraph.</p></section>
		<section class="footer"><p>Third section paragraph.</p></section>
	</body></html>`)

	if len(layout.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(layout.Sections))
	}
	wantRoles := []string{"hero", "section", "footer"}
	for i, want := range wantRoles {
		if layout.Sections[i].Role != want {
			t.Errorf("section %d role = %q, want %q", i, layout.Sections[i].Role, want)
		}
	}
}

func TestExtractLayoutNestedContainersOwnTheirContent(t *testing.T) {
	layout := extract(t, `<html><body>
		<section>
			<h2>Outer heading</h2>
			<div class="card"><p>Inner card paragraph.</p></div>
		</section>
	</body></html>`)

	if len(layout.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(layout.Sections))
	}
	// Outer section keeps only its own heading; the nested card owns the paragraph.
	outer, inner := layout.Sections[0], layout.Sections[1]
	if len(outer.Items) != 1 || outer.Items[0].Kind != page.KindHeading {
		t.Errorf("outer items = %+v", outer.Items)
	}
	if inner.Role != "content-step" || len(inner.Items) != 1 || inner.Items[0].Kind != page.KindParagraph {
		t.Errorf("inner section = %+v", inner)
	}
}

func TestExtractLayoutImageOnlySectionKept(t *testing.T) {
	layout := extract(t, `<html><body>
		<section><img src="https://example.com/a.png" alt=""></section>
	</body></html>`)

	if len(layout.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(layout.Sections))
	}
	item := layout.Sections[0].Items[0]
	if item.Kind != page.KindImage || item.Media == nil {
		t.Fatalf("item = %+v", item)
	}
	// No fetcher configured: encoding stays absent, extraction still succeeds.
	if item.Media.InlineEncodingPresent {
		t.Error("inline encoding should be absent without a fetcher")
	}
}

func TestExtractLayoutSelectorsAreUnique(t *testing.T) {
	layout := extract(t, `<html><body>
		<section><p>alpha beta gamma</p><p>delta epsilon zeta</p></section>
		<section><p>eta theta iota</p></section>
	</body></html>`)

	seen := make(map[string]bool)
	for _, sec := range layout.Sections {
		for _, item := range sec.Items {
			if seen[item.Selector] {
				t.Errorf("duplicate selector %q", item.Selector)
			}
			seen[item.Selector] = true
		}
	}
}
