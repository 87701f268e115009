package fingerprint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFingerprintTargetDetectsCloudflare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("CF-RAY", "abc123")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := srv.Client()
	tf := FingerprintTarget(context.Background(), client, srv.URL, Options{EnableFingerprinting: true})
	if len(tf.Wafs) == 0 {
		t.Fatalf("expected at least one WAF match")
	}
	if tf.Wafs[0].Name != "cloudflare" {
		t.Fatalf("expected cloudflare as top match, got %+v", tf.Wafs)
	}
	if tf.Wafs[0].Confidence <= 0 || tf.Wafs[0].Confidence > 1 {
		t.Fatalf("confidence out of bounds: %v", tf.Wafs[0].Confidence)
	}
}

func TestFingerprintTargetDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tf := FingerprintTarget(context.Background(), srv.Client(), srv.URL, Options{EnableFingerprinting: false})
	if len(tf.Wafs) != 0 || len(tf.Tech.Products) != 0 {
		t.Fatalf("expected empty fingerprint when disabled, got %+v", tf)
	}
}

func TestFingerprintTargetWafTestFiltersToOneName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("CF-RAY", "abc")
		w.Header().Set("X-Akamai-Transformed", "1")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tf := FingerprintTarget(context.Background(), srv.Client(), srv.URL, Options{EnableFingerprinting: true, WafTest: "akamai"})
	for _, m := range tf.Wafs {
		if m.Name != "akamai" {
			t.Fatalf("waf_test must restrict to exactly one signature, got %+v", tf.Wafs)
		}
	}
}

func TestDetectTechSimpleWordpress(t *testing.T) {
	tf := detectTechSimple(responseView{body: "blah wp-content/themes blah"})
	found := false
	for _, p := range tf.Products {
		if p == "wordpress" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected wordpress product, got %+v", tf.Products)
	}
}

func TestZeroHitSignatureOmitted(t *testing.T) {
	matches := detectWAF(responseView{headers: map[string]string{}, body: "nothing special"}, "")
	if len(matches) != 0 {
		t.Fatalf("expected no matches for a bland response, got %+v", matches)
	}
}
