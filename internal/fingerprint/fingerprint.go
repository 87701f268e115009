// Package fingerprint probes a single target for WAF presence and a
// minimal technology sniff, used to bias payload-transform family
// selection toward what is empirically effective against the detected
// WAF.
package fingerprint

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/ethicalhackingplayground/pathbuster/internal/httpx"
)

// TechFingerprint lists detected technology products and their evidence.
type TechFingerprint struct {
	Products []string
	Evidence []string
}

// WafMatch is one detected WAF signature with a weighted confidence.
type WafMatch struct {
	Name       string
	Confidence float64
	Evidence   []string
	Version    string
}

// TargetFingerprint aggregates everything known about one target.
type TargetFingerprint struct {
	Tech TechFingerprint
	Wafs []WafMatch
}

// Options controls which fingerprinting passes run.
type Options struct {
	EnableFingerprinting bool
	WafTest              string // if set, only this signature is evaluated
}

type responseView struct {
	status  int
	headers map[string]string
	body    string
}

// wafCheckKind distinguishes the four check shapes a WAF signature can
// carry.
type wafCheckKind int

const (
	checkHeaderContains wafCheckKind = iota
	checkCookieContains
	checkBodyContains
	checkStatusIs
)

type wafCheck struct {
	kind   wafCheckKind
	header string // for checkHeaderContains
	needle string // for *Contains checks, lowercased match
	status int    // for checkStatusIs
	weight float64
}

type wafSignature struct {
	name   string
	checks []wafCheck
}

// wafSignatures is the closed, static table of known WAF fingerprints.
func wafSignatures() []wafSignature {
	return []wafSignature{
		{
			name: "cloudflare",
			checks: []wafCheck{
				{kind: checkHeaderContains, header: "server", needle: "cloudflare", weight: 5},
				{kind: checkHeaderContains, header: "cf-ray", needle: "", weight: 6},
				{kind: checkCookieContains, needle: "cf_clearance=", weight: 6},
				{kind: checkBodyContains, needle: "attention required! | cloudflare", weight: 6},
			},
		},
		{
			name: "aws waf",
			checks: []wafCheck{
				{kind: checkBodyContains, needle: "the request could not be satisfied", weight: 6},
				{kind: checkBodyContains, needle: "generated by cloudfront", weight: 5},
				{kind: checkHeaderContains, header: "via", needle: "cloudfront", weight: 4},
			},
		},
		{
			name: "akamai",
			checks: []wafCheck{
				{kind: checkHeaderContains, header: "server", needle: "akamai", weight: 4},
				{kind: checkHeaderContains, header: "x-akamai-transformed", needle: "", weight: 6},
				{kind: checkBodyContains, needle: "reference #", weight: 3},
			},
		},
		{
			name: "f5 big-ip asm",
			checks: []wafCheck{
				{kind: checkCookieContains, needle: "bigipserver", weight: 5},
				{kind: checkBodyContains, needle: "the requested url was rejected", weight: 6},
			},
		},
		{
			name: "fortiweb",
			checks: []wafCheck{
				{kind: checkHeaderContains, header: "server", needle: "fortiweb", weight: 5},
				{kind: checkBodyContains, needle: "fortiweb", weight: 3},
			},
		},
		{
			name: "imperva",
			checks: []wafCheck{
				{kind: checkHeaderContains, header: "x-cdn", needle: "imperva", weight: 6},
				{kind: checkBodyContains, needle: "incapsula", weight: 5},
				{kind: checkCookieContains, needle: "incap_ses_", weight: 5},
			},
		},
		{
			name: "sucuri",
			checks: []wafCheck{
				{kind: checkHeaderContains, header: "server", needle: "sucuri", weight: 6},
				{kind: checkBodyContains, needle: "access denied - sucuri website firewall", weight: 6},
			},
		},
		{
			name: "modsecurity",
			checks: []wafCheck{
				{kind: checkBodyContains, needle: "mod_security", weight: 6},
				{kind: checkBodyContains, needle: "this error was generated by mod_security", weight: 6},
				{kind: checkStatusIs, status: 406, weight: 2},
			},
		},
		{
			name: "azure front door",
			checks: []wafCheck{
				{kind: checkHeaderContains, header: "x-azure-ref", needle: "", weight: 6},
				{kind: checkBodyContains, needle: "azure front door", weight: 4},
			},
		},
	}
}

func checkMatches(c wafCheck, v responseView) bool {
	switch c.kind {
	case checkHeaderContains:
		val, ok := v.headers[strings.ToLower(c.header)]
		if !ok {
			return false
		}
		if c.needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(val), c.needle)
	case checkCookieContains:
		val, ok := v.headers["set-cookie"]
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(val), c.needle)
	case checkBodyContains:
		return strings.Contains(strings.ToLower(v.body), c.needle)
	case checkStatusIs:
		return v.status == c.status
	default:
		return false
	}
}

func checkWeight(c wafCheck) float64 {
	return c.weight
}

// detectWAF evaluates the signature table against a response view.
func detectWAF(v responseView, wafTest string) []WafMatch {
	var out []WafMatch
	for _, sig := range wafSignatures() {
		if wafTest != "" && !strings.EqualFold(sig.name, wafTest) {
			continue
		}
		var hitWeight, totalWeight float64
		var evidence []string
		for _, c := range sig.checks {
			totalWeight += checkWeight(c)
			if checkMatches(c, v) {
				hitWeight += checkWeight(c)
				evidence = append(evidence, describeCheck(c))
			}
		}
		if hitWeight == 0 || totalWeight == 0 {
			continue
		}
		out = append(out, WafMatch{
			Name:       sig.name,
			Confidence: hitWeight / totalWeight,
			Evidence:   evidence,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func describeCheck(c wafCheck) string {
	switch c.kind {
	case checkHeaderContains:
		return "header " + c.header
	case checkCookieContains:
		return "cookie contains " + c.needle
	case checkBodyContains:
		return "body contains " + c.needle
	case checkStatusIs:
		return "status is a signature status"
	default:
		return ""
	}
}

// detectTechSimple is the minimal header/cookie/body sniff named in
// spec.md §4.5 — tech-fingerprint enrichment beyond this is explicitly
// out of scope.
func detectTechSimple(v responseView) TechFingerprint {
	var products, evidence []string

	add := func(product, ev string) {
		products = append(products, product)
		evidence = append(evidence, ev)
	}

	if server, ok := v.headers["server"]; ok {
		low := strings.ToLower(server)
		switch {
		case strings.Contains(low, "nginx"):
			add("nginx", "server: "+server)
		case strings.Contains(low, "apache"):
			add("apache", "server: "+server)
		case strings.Contains(low, "cloudfront"):
			add("cloudfront", "server: "+server)
		case strings.Contains(low, "iis"):
			add("iis", "server: "+server)
		}
	}

	if xpb, ok := v.headers["x-powered-by"]; ok {
		low := strings.ToLower(xpb)
		switch {
		case strings.Contains(low, "php"):
			add("php", "x-powered-by: "+xpb)
		case strings.Contains(low, "asp.net"):
			add("asp.net", "x-powered-by: "+xpb)
		case strings.Contains(low, "express"):
			add("express", "x-powered-by: "+xpb)
		}
	}

	if _, ok := v.headers["x-aspnet-version"]; ok {
		add("asp.net", "x-aspnet-version header present")
	}

	if cookie, ok := v.headers["set-cookie"]; ok {
		low := strings.ToLower(cookie)
		if strings.Contains(low, "phpsessid") {
			add("php", "set-cookie: phpsessid")
		}
		if strings.Contains(low, "jsessionid") {
			add("java", "set-cookie: jsessionid")
		}
	}

	bodyLow := strings.ToLower(v.body)
	switch {
	case strings.Contains(bodyLow, "wp-content") || strings.Contains(bodyLow, "wp-includes"):
		add("wordpress", "body contains wp-content/wp-includes")
	case strings.Contains(bodyLow, "drupal-settings-json") || strings.Contains(bodyLow, "drupal"):
		add("drupal", "body contains drupal marker")
	case strings.Contains(bodyLow, "joomla!"):
		add("joomla", "body contains joomla! marker")
	}

	return TechFingerprint{
		Products: dedupSorted(products),
		Evidence: dedupSorted(evidence),
	}
}

func dedupSorted(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// FingerprintTarget probes targetURL, then scheme://host/ if different,
// and builds a TargetFingerprint from the first successful probe.
func FingerprintTarget(ctx context.Context, client *http.Client, targetURL string, opts Options) TargetFingerprint {
	var tf TargetFingerprint
	if !opts.EnableFingerprinting {
		return tf
	}

	candidates := []string{targetURL}
	if root := schemeHostRoot(targetURL); root != "" && root != targetURL {
		candidates = append(candidates, root)
	}

	var view *responseView
	for _, u := range candidates {
		snap, ok := httpx.FetchSnapshot(ctx, client, httpx.Descriptor{
			Kind:   httpx.DescriptorURL,
			URL:    u,
			Method: http.MethodGet,
		}, "", 0)
		if ok {
			view = &responseView{status: snap.Status, headers: snap.Headers, body: snap.BodySample}
			break
		}
	}

	if view == nil {
		return tf
	}

	tf.Wafs = detectWAF(*view, opts.WafTest)
	tf.Tech = detectTechSimple(*view)
	return tf
}

func schemeHostRoot(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

// WafNames extracts just the names of a fingerprint's WAF matches, the
// shape the transformer needs for its family-selection bias.
func (tf TargetFingerprint) WafNames() []string {
	names := make([]string, len(tf.Wafs))
	for i, w := range tf.Wafs {
		names[i] = w.Name
	}
	return names
}
