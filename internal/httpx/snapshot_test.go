package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchSnapshotURLDescriptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><head><title>Hello World</title></head><body>hi</body></html>"))
	}))
	defer srv.Close()

	client := &http.Client{}
	snap, ok := FetchSnapshot(context.Background(), client, Descriptor{
		Kind:   DescriptorURL,
		URL:    srv.URL,
		Method: http.MethodGet,
	}, "", 0)
	if !ok {
		t.Fatalf("expected snapshot ok=true")
	}
	if snap.Status != 200 {
		t.Fatalf("expected status 200, got %d", snap.Status)
	}
	if snap.Title != "Hello World" {
		t.Fatalf("expected title capture, got %q", snap.Title)
	}
	if snap.Headers["server"] != "nginx" {
		t.Fatalf("expected lowercased header key, got %+v", snap.Headers)
	}
}

func TestFetchSnapshotMalformedCallerHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{}
	_, ok := FetchSnapshot(context.Background(), client, Descriptor{
		Kind:   DescriptorURL,
		URL:    srv.URL,
		Method: http.MethodGet,
	}, "not-a-header", 0)
	if ok {
		t.Fatalf("expected no snapshot for malformed caller header")
	}
}

func TestFetchSnapshotRawDescriptor(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Test")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tmpl, err := ParseRawTemplate("GET /path HTTP/1.1\nHost: example.com\nX-Test: *\n\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client := &http.Client{}
	snap, ok := FetchSnapshot(context.Background(), client, Descriptor{
		Kind:                DescriptorRaw,
		BaseURL:             srv.URL,
		Template:            tmpl,
		InjectionPointIndex: 0,
		InjectionValue:      "injected-value",
	}, "", 0)
	if !ok {
		t.Fatalf("expected snapshot ok=true")
	}
	if snap.Status != 200 {
		t.Fatalf("expected 200, got %d", snap.Status)
	}
	if gotHeader != "injected-value" {
		t.Fatalf("expected injected header value, got %q", gotHeader)
	}
}

func TestFetchSnapshotTransportErrorReturnsNoSnapshot(t *testing.T) {
	client := &http.Client{}
	_, ok := FetchSnapshot(context.Background(), client, Descriptor{
		Kind:   DescriptorURL,
		URL:    "http://127.0.0.1:1", // nothing listening
		Method: http.MethodGet,
	}, "", 0)
	if ok {
		t.Fatalf("expected no snapshot on transport failure")
	}
}
