package adapt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinPoliciesTable(t *testing.T) {
	p := BuiltinPolicies()
	for _, id := range []string{"adhd", "autism", "blind", "sensory"} {
		if !p.Known(id) {
			t.Errorf("builtin table missing %q", id)
		}
		pol := p.Get(id)
		if pol.PromptRules == "" {
			t.Errorf("policy %q has no prompt rules", id)
		}
		if len(pol.Presentation.Layout) == 0 {
			t.Errorf("policy %q has no base layout", id)
		}
	}
}

func TestPoliciesUnknownFallsBack(t *testing.T) {
	p := BuiltinPolicies()
	pol := p.Get("does-not-exist")
	if pol.ID != "generic" {
		t.Errorf("fallback id = %q, want generic", pol.ID)
	}
	if pol.PromptRules != "Simplify this content for accessibility." {
		t.Errorf("fallback rules = %q", pol.PromptRules)
	}
}

func TestPoliciesListSorted(t *testing.T) {
	list := BuiltinPolicies().List()
	if len(list) != 4 {
		t.Fatalf("list = %d policies, want 4", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("list not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}
}

func TestLoadPolicyFileOverlay(t *testing.T) {
	content := `policies:
  - id: adhd
    label: ADHD (tuned)
    prompt_rules: "Custom ADHD rules."
  - id: dyslexia
    label: Dyslexia
    prompt_rules: "Use simple words and short sentences."
`
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicyFile(path)
	if err != nil {
		t.Fatalf("LoadPolicyFile: %v", err)
	}

	// Known id replaced.
	adhd := p.Get("adhd")
	if adhd.Label != "ADHD (tuned)" || adhd.PromptRules != "Custom ADHD rules." {
		t.Errorf("adhd override not applied: %+v", adhd)
	}
	// New id extends the table, base layout filled in.
	dys := p.Get("dyslexia")
	if !p.Known("dyslexia") || dys.Label != "Dyslexia" {
		t.Errorf("dyslexia policy not added: %+v", dys)
	}
	if len(dys.Presentation.Layout) == 0 {
		t.Error("new policy should inherit the base layout")
	}
	// Untouched builtins survive.
	if !p.Known("sensory") {
		t.Error("builtin sensory policy lost during overlay")
	}
}

func TestLoadPolicyFileEmptyPathUsesBuiltins(t *testing.T) {
	p, err := LoadPolicyFile("")
	if err != nil {
		t.Fatalf("LoadPolicyFile: %v", err)
	}
	if !p.Known("adhd") {
		t.Error("builtins missing for empty path")
	}
}

func TestLoadPolicyFileRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte("policies:\n  - label: nameless\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPolicyFile(path); err == nil {
		t.Error("expected error for policy entry without id")
	}
}
