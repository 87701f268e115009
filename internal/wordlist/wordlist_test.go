package wordlist

import (
	"reflect"
	"strings"
	"testing"
)

func TestSmartBreakExamples(t *testing.T) {
	cases := map[string][]string{
		"adminNew": {"admin", "New"},
		"admin_new": {"admin", "new"},
		"admin-old": {"admin", "old"},
	}
	for input, want := range cases {
		got := SmartBreak(input)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("SmartBreak(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseManipulationRejectsConflictingCase(t *testing.T) {
	if _, err := ParseManipulation("lower,upper"); err == nil {
		t.Fatalf("expected error for conflicting case directives")
	}
}

func TestParseManipulationRejectsUnknownKey(t *testing.T) {
	if _, err := ParseManipulation("bogus"); err == nil {
		t.Fatalf("expected error for unknown directive")
	}
}

func TestParseManipulationFullPipeline(t *testing.T) {
	m, err := ParseManipulation("smart,smartjoin=l:_,lower,replace=..%2f:../,prefix=/,suffix=/,unique,sort")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Smart || m.SmartJoin == nil || m.SmartJoin.Case != SmartJoinLower || m.SmartJoin.Separator != "_" {
		t.Fatalf("unexpected parse: %+v", m)
	}
	if m.Case != CaseLower || m.Prefix != "/" || m.Suffix != "/" || !m.Unique || !m.Sort {
		t.Fatalf("unexpected parse: %+v", m)
	}
	if len(m.Replace) != 1 || m.Replace[0].From != "..%2f" || m.Replace[0].To != "../" {
		t.Fatalf("unexpected replace pairs: %+v", m.Replace)
	}
}

func TestApplyManipulationsScenario(t *testing.T) {
	m, err := ParseManipulation("smart,smartjoin=l:_,lower,prefix=/,suffix=/,unique,sort")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	words := []string{"AdminPanel", "admin-panel", "admin_panel", "LOGIN", "login"}
	out := ApplyManipulations(words, m)

	for i := 1; i < len(out); i++ {
		if out[i-1] > out[i] {
			t.Fatalf("expected sorted output, got %v", out)
		}
	}
	seen := map[string]bool{}
	for _, w := range out {
		if seen[w] {
			t.Fatalf("expected unique output, got duplicate %q in %v", w, out)
		}
		seen[w] = true
	}

	for _, w := range out {
		if !strings.HasPrefix(w, "/") || !strings.HasSuffix(w, "/") {
			t.Fatalf("expected every entry wrapped in prefix/suffix slashes, got %q in %v", w, out)
		}
		if w != strings.ToLower(w) {
			t.Fatalf("expected lowercased entries, got %q", w)
		}
	}

	if len(out) != 2 {
		t.Fatalf("expected admin-panel/login variants to collapse to two unique tokens via smart-break+join, got %v", out)
	}
}

func TestApplyManipulationsReplacePrefixSuffix(t *testing.T) {
	m, err := ParseManipulation("replace=..%2f:../,prefix=/,suffix=/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := ApplyManipulations([]string{"..%2f"}, m)
	if len(out) != 1 || out[0] != "/../" {
		t.Fatalf("expected [/../], got %v", out)
	}
}

func TestApplyExtensionsNormalMode(t *testing.T) {
	out := ApplyExtensions([]string{"admin", "assets/"}, []string{"php", "bak"}, false)
	want := []string{"admin.php", "admin.bak", "assets/"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestApplyExtensionsDirsearchMode(t *testing.T) {
	out := ApplyExtensions([]string{"admin.%EXT%", "plain"}, []string{"php", "bak"}, true)
	want := []string{"admin.php", "admin.bak", "plain"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestParseExtensionsCSVStripsDotsAndDedupes(t *testing.T) {
	out := ParseExtensionsCSV(".php, BAK, php, .bak")
	want := []string{"php", "BAK"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}
