// Package traverse implements the depth-deepening traversal state machine
// (the scanner's "hard heart"): for each base URL and mutated payload it
// walks increasing concatenations of the payload, comparing the
// back-one-more response (the candidate URL with one payload copy
// stripped) against the target's public webroot to detect responses that
// only an internal document root divergence can explain.
//
// Grounded on the run_tester loop shape in the original detector, reworked
// around internal/httpx.FetchSnapshot and internal/similarity.Sift3 rather
// than a bespoke HTTP client.
package traverse

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethicalhackingplayground/pathbuster/internal/httpx"
	"github.com/ethicalhackingplayground/pathbuster/internal/similarity"
	"github.com/ethicalhackingplayground/pathbuster/internal/transform"
)

// Strategy selects how a job reacts to its first emitted match.
type Strategy string

const (
	StrategyGreedy Strategy = "greedy"
	StrategyQuick  Strategy = "quick"
)

// DefaultDepthCapSlack is the constant added to a base URL's own segment
// count when computing a job's effective maximum depth, per the formula
// min(max_depth, start_depth + path_segments(base) + slack).
const DefaultDepthCapSlack = 5

// Job is one unit of traversal work: a single base URL probed with a
// single mutated variant of one payload.
type Job struct {
	BaseURL string
	Method  string
	Payload transform.TransformedPayload
}

// Match is one confirmed traversal hit.
type Match struct {
	BaseURL         string
	ResultURL       string
	PayloadOriginal string
	PayloadMutated  string
	PayloadFamily   transform.Family
	Depth           int
	Status          int
	Title           string
	Size            int
	Words           int
	Lines           int
	Server          string
	ContentType     string
}

// Settings bundles the configuration shared across every job in a run.
// It is safe for concurrent read-only use by many workers.
type Settings struct {
	Client *http.Client

	StartDepth    int
	MaxDepth      int
	DepthCapSlack int

	Strategy Strategy

	ValidateStatus    map[int]struct{}
	FingerprintStatus map[int]struct{}
	DropAfterFail     map[int]struct{}

	ValidateFilter    httpx.Filter
	FingerprintFilter httpx.Filter

	Sift3Threshold similarity.Threshold

	CallerHeader string
}

// pathSegments counts the non-empty "/"-delimited segments of a URL's path.
func pathSegments(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	parts := strings.Split(u.Path, "/")
	n := 0
	for _, p := range parts {
		if p != "" {
			n++
		}
	}
	return n
}

func effectiveMaxDepth(base string, s Settings) int {
	slack := s.DepthCapSlack
	if slack <= 0 {
		slack = DefaultDepthCapSlack
	}
	ceiling := s.StartDepth + pathSegments(base) + slack
	if s.MaxDepth > 0 && s.MaxDepth < ceiling {
		return s.MaxDepth
	}
	return ceiling
}

func schemeHostRoot(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

func buildCandidateURL(base string, mutated string, depth int) string {
	var b strings.Builder
	b.WriteString(base)
	if !strings.HasSuffix(base, "/") {
		b.WriteString("/")
	}
	for i := 0; i <= depth; i++ {
		b.WriteString(mutated)
	}
	return b.String()
}

func stripSuffix(candidateURL, mutatedPayload string) string {
	if mutatedPayload == "" {
		return candidateURL
	}
	return strings.TrimSuffix(candidateURL, mutatedPayload)
}

// Run executes the traversal state machine for a single job, returning the
// matches it confirms (more than one under the greedy strategy) and the
// result URLs to forward to the bruteforce discovery stage.
//
// It is shaped as an internal/concurrency.Worker[Job, Match]: callers wire
// it into a Fabric[Job, Match] directly.
func Run(ctx context.Context, job Job, settings Settings) (matches []Match, discoveries []string) {
	base := job.BaseURL
	mutated := job.Payload.Mutated
	if mutated == "" {
		return nil, nil
	}

	publicURL := schemeHostRoot(base)
	var publicSnap *httpx.Snapshot
	if publicURL != "" {
		if snap, ok := httpx.FetchSnapshot(ctx, settings.Client, httpx.Descriptor{
			Kind:   httpx.DescriptorURL,
			URL:    publicURL,
			Method: http.MethodGet,
		}, settings.CallerHeader, 0); ok {
			publicSnap = snap
		}
	}

	maxDepth := effectiveMaxDepth(base, settings)
	failCount := 0

	strategy := settings.Strategy
	if strategy == "" {
		strategy = StrategyGreedy
	}

	for depth := settings.StartDepth; depth <= maxDepth; depth++ {
		if ctx.Err() != nil {
			return matches, discoveries
		}

		candidateURL := buildCandidateURL(base, mutated, depth)
		method := job.Method
		if method == "" {
			method = http.MethodGet
		}

		candidateSnap, ok := httpx.FetchSnapshot(ctx, settings.Client, httpx.Descriptor{
			Kind:   httpx.DescriptorURL,
			URL:    candidateURL,
			Method: method,
		}, settings.CallerHeader, depth)
		if !ok {
			continue
		}

		candidateSummary := httpx.NewSummary(candidateSnap)
		if settings.ValidateFilter.Matches(candidateSummary) {
			continue
		}

		statusInValidate := httpx.ContainsInt(settings.ValidateStatus, candidateSnap.Status)
		statusInFingerprint := httpx.ContainsInt(settings.FingerprintStatus, candidateSnap.Status)
		if !statusInValidate && !statusInFingerprint {
			continue
		}

		if statusInFingerprint && settings.FingerprintFilter.Matches(candidateSummary) {
			continue
		}

		resultURL := stripSuffix(candidateURL, mutated)
		resultSnap, ok := httpx.FetchSnapshot(ctx, settings.Client, httpx.Descriptor{
			Kind:   httpx.DescriptorURL,
			URL:    resultURL,
			Method: method,
		}, settings.CallerHeader, depth)
		if !ok {
			continue
		}

		if httpx.ContainsInt(settings.DropAfterFail, resultSnap.Status) {
			failCount++
			if failCount >= 5 {
				return matches, discoveries
			}
			continue
		}

		if publicSnap == nil {
			continue
		}

		changed, _ := similarity.InRange(resultSnap.BodySample, publicSnap.BodySample, settings.Sift3Threshold)
		if !changed {
			continue
		}
		if resultSnap.Status == 400 {
			continue
		}
		if !strings.Contains(resultURL, job.Payload.Mutated) {
			continue
		}

		summary := httpx.NewSummary(resultSnap)
		match := Match{
			BaseURL:         base,
			ResultURL:       resultURL,
			PayloadOriginal: job.Payload.Original,
			PayloadMutated:  job.Payload.Mutated,
			PayloadFamily:   job.Payload.Family,
			Depth:           depth,
			Status:          resultSnap.Status,
			Title:           summary.Title,
			Size:            summary.BodyLen,
			Words:           summary.Words,
			Lines:           summary.Lines,
			Server:          resultSnap.Headers["server"],
			ContentType:     resultSnap.Headers["content-type"],
		}
		matches = append(matches, match)
		discoveries = append(discoveries, resultURL)

		if strategy == StrategyQuick {
			return matches, discoveries
		}
	}

	return matches, discoveries
}
