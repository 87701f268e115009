package scan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRejectsNoTargets(t *testing.T) {
	opts := DefaultOptions()
	opts.SkipBrute = true
	if _, err := New(opts); err == nil {
		t.Fatalf("expected error for no targets")
	} else if re, ok := err.(*RunnerError); !ok || re.Kind != ErrNoTargets {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
}

func TestNewRejectsBypassLevelAboveThree(t *testing.T) {
	opts := DefaultOptions()
	opts.URLs = []string{"https://example.com"}
	opts.SkipBrute = true
	opts.BypassLevel = 4
	if _, err := New(opts); err == nil {
		t.Fatalf("expected error for bypass_level > 3")
	} else if re, ok := err.(*RunnerError); !ok || re.Kind != ErrInvalidBypassLevel {
		t.Fatalf("expected ErrInvalidBypassLevel, got %v", err)
	}
}

func TestNewRejectsZeroMaxDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.URLs = []string{"https://example.com"}
	opts.SkipBrute = true
	opts.MaxDepth = 0
	if _, err := New(opts); err == nil {
		t.Fatalf("expected error for max_depth 0")
	} else if re, ok := err.(*RunnerError); !ok || re.Kind != ErrInvalidMaxDepth {
		t.Fatalf("expected ErrInvalidMaxDepth, got %v", err)
	}
}

func TestNewRejectsConflictingWordlistAndPath(t *testing.T) {
	opts := DefaultOptions()
	opts.URLs = []string{"https://example.com"}
	opts.SkipBrute = true
	opts.Wordlist = &WordlistSource{Inline: []string{"admin"}}
	opts.Path = "/admin"
	if _, err := New(opts); err == nil {
		t.Fatalf("expected error for conflicting wordlist and path")
	} else if re, ok := err.(*RunnerError); !ok || re.Kind != ErrConflictingWordlistAndPath {
		t.Fatalf("expected ErrConflictingWordlistAndPath, got %v", err)
	}
}

func TestNewRequiresWordlistUnlessSkipBrute(t *testing.T) {
	opts := DefaultOptions()
	opts.URLs = []string{"https://example.com"}
	opts.SkipBrute = false
	if _, err := New(opts); err == nil {
		t.Fatalf("expected error for missing wordlist")
	} else if re, ok := err.(*RunnerError); !ok || re.Kind != ErrMissingWordlist {
		t.Fatalf("expected ErrMissingWordlist, got %v", err)
	}
}

func TestNewDowngradesSkipValidationToSkipBrute(t *testing.T) {
	opts := DefaultOptions()
	opts.URLs = []string{"https://example.com"}
	opts.SkipValidation = true
	opts.Wordlist = &WordlistSource{Inline: []string{"admin"}}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Options().SkipBrute {
		t.Fatalf("expected skip_validation to force skip_brute")
	}
}

func TestRunEndToEndEmitsMatchAndDiscoveredRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "etc"):
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("internal file contents entirely unlike the homepage, quite long indeed"))
		case strings.Contains(r.URL.Path, "admin"):
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("admin console contents, distinct from the public homepage body"))
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("home"))
		}
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.URLs = []string{srv.URL + "/app/"}
	opts.Payloads = PayloadSource{Inline: []string{"../etc"}}
	opts.BypassLevel = 0
	opts.SkipBrute = false
	opts.Wordlist = &WordlistSource{Inline: []string{"admin"}}
	opts.MaxDepth = 3
	opts.EnableFingerprinting = false
	opts.ValidateStatus = "200"
	opts.FingerprintStatus = ""
	opts.WordlistStatus = "200"

	r, err := New(opts)
	if err != nil {
		t.Fatalf("unexpected error constructing runner: %v", err)
	}

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error running scan: %v", err)
	}
	if len(result.Fingerprints) != 1 {
		t.Fatalf("expected one fingerprint entry, got %d", len(result.Fingerprints))
	}
	if len(result.Matches) == 0 {
		t.Fatalf("expected at least one traversal match")
	}
	if len(result.DiscoveredRoutes) == 0 {
		t.Fatalf("expected at least one discovered bruteforce route")
	}
}
