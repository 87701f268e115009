package brute

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethicalhackingplayground/pathbuster/internal/similarity"
)

func TestRunEmitsResultOnDivergentInternalResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/internal-root") && strings.Contains(r.URL.Path, "admin") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("internal admin panel content, quite unlike the homepage"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("public home page, nothing special here"))
	}))
	defer srv.Close()

	settings := Settings{
		Client:         http.DefaultClient,
		WordlistStatus: map[int]struct{}{200: {}},
		Sift3Threshold: similarity.DefaultThreshold,
	}
	job := Job{BaseURL: srv.URL + "/internal-root", Word: "admin"}

	results, discoveries := Run(context.Background(), job, settings)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if !strings.Contains(results[0].InternalURL, "admin") {
		t.Fatalf("unexpected internal url: %s", results[0].InternalURL)
	}
	if len(discoveries) != 1 {
		t.Fatalf("expected one discovery, got %d", len(discoveries))
	}
}

func TestRunSkipsWhenStatusNotInWordlistSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/internal-root") && strings.Contains(r.URL.Path, "admin") {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("forbidden, totally different body"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("public home page, nothing special here"))
	}))
	defer srv.Close()

	settings := Settings{
		Client:         http.DefaultClient,
		WordlistStatus: map[int]struct{}{200: {}},
		Sift3Threshold: similarity.DefaultThreshold,
	}
	job := Job{BaseURL: srv.URL + "/internal-root", Word: "admin"}

	results, _ := Run(context.Background(), job, settings)
	if len(results) != 0 {
		t.Fatalf("expected no results when status excluded from wordlist_status, got %d", len(results))
	}
}

func TestRunSkipsWhenResponsesIdentical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("same body everywhere"))
	}))
	defer srv.Close()

	settings := Settings{
		Client:         http.DefaultClient,
		WordlistStatus: map[int]struct{}{200: {}},
		Sift3Threshold: similarity.DefaultThreshold,
	}
	job := Job{BaseURL: srv.URL + "/internal-root", Word: "admin"}

	results, _ := Run(context.Background(), job, settings)
	if len(results) != 0 {
		t.Fatalf("expected no results when internal and public bodies match, got %d", len(results))
	}
}

func TestBatchesZeroConcurrencyReturnsSingleRound(t *testing.T) {
	out := Batches([]string{"a", "b", "c"}, 0)
	if len(out) != 1 || len(out[0]) != 3 {
		t.Fatalf("expected one batch of three, got %v", out)
	}
}

func TestBatchesPartitionsByConcurrency(t *testing.T) {
	out := Batches([]string{"a", "b", "c", "d", "e"}, 2)
	if len(out) != 3 {
		t.Fatalf("expected 3 batches, got %d: %v", len(out), out)
	}
	if len(out[0]) != 2 || len(out[1]) != 2 || len(out[2]) != 1 {
		t.Fatalf("unexpected batch sizes: %v", out)
	}
}

func TestBuildJobsExpandsCrossProduct(t *testing.T) {
	jobs := BuildJobs([]string{"https://a"}, []string{"w1", "w2"}, []string{http.MethodGet, http.MethodPost})
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}
}

func TestAppendDiscoveredRouteCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovered-routes.txt")

	if err := AppendDiscoveredRoute(path, "https://example.com/a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AppendDiscoveredRoute(path, "https://example.com/b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error reading file: %v", err)
	}
	want := "https://example.com/a\nhttps://example.com/b\n"
	if string(data) != want {
		t.Fatalf("expected %q, got %q", want, string(data))
	}
}
