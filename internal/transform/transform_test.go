package transform

import "testing"

func TestGeneratePayloadsLevelZeroShortCircuits(t *testing.T) {
	out := GeneratePayloads("../", nil, 0, nil, false, nil)
	if len(out) != 1 {
		t.Fatalf("expected exactly one variant at level 0, got %d", len(out))
	}
	if out[0].Family != FamilyNone || out[0].Mutated != "../" {
		t.Fatalf("unexpected variant: %+v", out[0])
	}
}

func TestGeneratePayloadsDisableBypass(t *testing.T) {
	out := GeneratePayloads("../", []string{"cloudflare"}, 3, nil, true, nil)
	if len(out) != 1 || out[0].Family != FamilyNone {
		t.Fatalf("disable_bypass must short-circuit regardless of level/waf, got %+v", out)
	}
}

func TestGeneratePayloadsAlwaysIncludesBaseline(t *testing.T) {
	out := GeneratePayloads("../", nil, 1, nil, false, nil)
	found := false
	for _, p := range out {
		if p.Family == FamilyBaseline && p.Mutated == "../" {
			found = true
		}
	}
	if !found {
		t.Fatalf("baseline variant missing from %+v", out)
	}
}

func TestGeneratePayloadsDedup(t *testing.T) {
	out := GeneratePayloads("../", nil, 3, nil, false, nil)
	seen := map[string]bool{}
	for _, p := range out {
		if seen[p.Mutated] {
			t.Fatalf("duplicate mutated payload %q", p.Mutated)
		}
		seen[p.Mutated] = true
	}
}

func TestGeneratePayloadsLevelMonotonicity(t *testing.T) {
	prev := 0
	for level := 0; level <= 3; level++ {
		out := GeneratePayloads("../", nil, level, nil, false, nil)
		if len(out) < prev {
			t.Fatalf("level %d produced fewer variants (%d) than previous level (%d)", level, len(out), prev)
		}
		prev = len(out)
	}
}

func TestGeneratePayloadsForcedFamilies(t *testing.T) {
	out := GeneratePayloads("../", nil, 1, []Family{"URLENCODE"}, false, nil)
	families := map[Family]bool{}
	for _, p := range out {
		families[p.Family] = true
	}
	if !families[FamilyBaseline] || !families[FamilyURLEncode] {
		t.Fatalf("expected baseline+urlencode only, got %+v", families)
	}
	if families[FamilySeparator] {
		t.Fatalf("forced families must not pull in level defaults")
	}
}

func TestGeneratePayloadsWAFBiasesFamilies(t *testing.T) {
	out := GeneratePayloads("../", []string{"Cloudflare"}, 1, nil, false, nil)
	families := map[Family]bool{}
	for _, p := range out {
		families[p.Family] = true
	}
	if !families[FamilySegmentConfusion] {
		t.Fatalf("expected cloudflare-biased segment_confusion family, got %+v", families)
	}
}

func TestGeneratePayloadsLogsToSink(t *testing.T) {
	sink := &sliceSink{}
	GeneratePayloads("../", nil, 1, nil, false, sink)
	if len(sink.Entries()) == 0 {
		t.Fatalf("expected attempts to be logged to sink")
	}
}

func TestNullByteSuffixesSkipsExistingNull(t *testing.T) {
	out := nullByteSuffixes("foo\x00bar")
	if out != nil {
		t.Fatalf("expected nil for input already containing a null byte, got %v", out)
	}
}

func TestMixedCaseAlternates(t *testing.T) {
	out := mixedCase("abcd")
	if len(out) != 1 {
		t.Fatalf("expected one variant")
	}
	if out[0] != "AbCd" {
		t.Fatalf("expected AbCd, got %q", out[0])
	}
}
