package httpx

import "testing"

func TestParseStagedIntCSV(t *testing.T) {
	validate, fingerprint := ParseStagedIntCSV("V:301,302,F:404,500")
	if !ContainsInt(validate, 301) || !ContainsInt(validate, 302) {
		t.Fatalf("expected validate set {301,302}, got %+v", validate)
	}
	if !ContainsInt(fingerprint, 404) || !ContainsInt(fingerprint, 500) {
		t.Fatalf("expected fingerprint set {404,500}, got %+v", fingerprint)
	}
	if ContainsInt(validate, 404) || ContainsInt(fingerprint, 301) {
		t.Fatalf("stage sets must not cross-contaminate")
	}
}

func TestParseStagedIntCSVUnprefixedAppliesToBoth(t *testing.T) {
	validate, fingerprint := ParseStagedIntCSV("404,V:301")
	if !ContainsInt(validate, 404) || !ContainsInt(fingerprint, 404) {
		t.Fatalf("unprefixed tokens before any stage prefix must apply to both sets")
	}
	if !ContainsInt(validate, 301) {
		t.Fatalf("expected 301 in validate set")
	}
}

func TestParseUint16SetCSVDedupesAndTrims(t *testing.T) {
	set, err := ParseUint16SetCSV(" 404, 404,500 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 unique values, got %d: %+v", len(set), set)
	}
}

func TestParseUint16SetCSVRejectsNonNumeric(t *testing.T) {
	if _, err := ParseUint16SetCSV("404,abc"); err == nil {
		t.Fatalf("expected error for non-numeric token")
	}
}

func TestFilterMatchesByStatus(t *testing.T) {
	f := Filter{Status: map[int]struct{}{404: {}}}
	if !f.Matches(Summary{Status: 404}) {
		t.Fatalf("expected status 404 to match filter")
	}
	if f.Matches(Summary{Status: 200}) {
		t.Fatalf("status 200 must not match")
	}
}

func TestFilterMatchesByRegexOverTitleAndBody(t *testing.T) {
	re, err := CombineRegexes([]string{"forbidden", "denied"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := Filter{Regex: re}
	if !f.Matches(Summary{Title: "Access Forbidden"}) {
		t.Fatalf("expected regex match on title")
	}
	if !f.Matches(Summary{BodySample: "request denied by policy"}) {
		t.Fatalf("expected regex match on body")
	}
	if f.Matches(Summary{Title: "ok", BodySample: "fine"}) {
		t.Fatalf("unexpected match")
	}
}

func TestFilterEmptyNeverMatches(t *testing.T) {
	f := Filter{}
	if f.Matches(Summary{Status: 500, BodyLen: 9999, Words: 1, Lines: 1}) {
		t.Fatalf("empty filter must never exclude anything")
	}
}
