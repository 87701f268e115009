package similarity

import "testing"

func TestSift3Identical(t *testing.T) {
	if d := Sift3("hello world", "hello world"); d != 0 {
		t.Fatalf("expected 0 distance for identical strings, got %v", d)
	}
}

func TestSift3Empty(t *testing.T) {
	if d := Sift3("", "abc"); d != 3 {
		t.Fatalf("expected len(b) for empty a, got %v", d)
	}
	if d := Sift3("abc", ""); d != 3 {
		t.Fatalf("expected len(a) for empty b, got %v", d)
	}
}

func TestSift3Different(t *testing.T) {
	d := Sift3("this is a test page", "completely different content here")
	if d <= 0 {
		t.Fatalf("expected positive distance for different strings, got %v", d)
	}
}

func TestInRangeOpenIsExclusive(t *testing.T) {
	ok, d := InRange("same", "same", Threshold{Start: 0, End: 0})
	if ok || d != 0 {
		t.Fatalf("identical strings at [0,0] open range must not be in-range, got ok=%v d=%v", ok, d)
	}
}

func TestInRangeInclusiveAtZero(t *testing.T) {
	ok, d := InRangeInclusive("same", "same", Threshold{Start: 0, End: 0})
	if !ok || d != 0 {
		t.Fatalf("expected (true, 0) for identical strings at inclusive [0,0], got (%v, %v)", ok, d)
	}
}

func TestInRangeInclusiveReturnsDistanceOnFail(t *testing.T) {
	_, d := InRangeInclusive("abc", "completely unrelated text block here", Threshold{Start: 0, End: 1})
	if d <= 1 {
		t.Fatalf("expected actual distance to be reported even when out of range, got %v", d)
	}
}

func TestInRangeZeroesDistanceOnFail(t *testing.T) {
	ok, d := InRange("abc", "completely unrelated text block here", Threshold{Start: 1000, End: 2000})
	if ok {
		t.Fatalf("expected out-of-range verdict")
	}
	if d != 0 {
		t.Fatalf("open-range form zeroes distance on failure, got %v", d)
	}
}

func TestInRangeWithinWindow(t *testing.T) {
	ok, d := InRange("abcdefgh", "abcdefgX", Threshold{Start: 0, End: 1000})
	if !ok {
		t.Fatalf("expected small perturbation to be in range")
	}
	if d <= 0 {
		t.Fatalf("expected nonzero distance, got %v", d)
	}
}
