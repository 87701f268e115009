// Package brute implements the bruteforce discovery stage: given a base
// URL discovered by the traversal stage and a wordlist, it compares each
// candidate word's internal response against the same word served from
// the target's public webroot, flagging words whose internal response
// diverges meaningfully.
package brute

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ethicalhackingplayground/pathbuster/internal/httpx"
	"github.com/ethicalhackingplayground/pathbuster/internal/similarity"
)

// Job is one (base, word, method) unit of bruteforce work.
type Job struct {
	BaseURL string
	Word    string
	Method  string
}

// Result is one confirmed bruteforce hit.
type Result struct {
	InternalURL   string
	ContentLength int
}

// Settings bundles the configuration shared across every bruteforce job.
type Settings struct {
	Client *http.Client

	WordlistStatus map[int]struct{}
	Sift3Threshold similarity.Threshold

	CallerHeader string

	// AutoCollab is a deferred extension point: when true, callers may
	// layer extra validation around emission. It has no effect here and
	// MUST NOT alter whether a result is emitted.
	AutoCollab bool
}

func joinURL(base, word string) string {
	if word == "" {
		return base
	}
	if strings.HasSuffix(base, "/") && strings.HasPrefix(word, "/") {
		return base + strings.TrimPrefix(word, "/")
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(word, "/") {
		return base + "/" + word
	}
	return base + word
}

func schemeHostRoot(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

// Run executes one bruteforce job, returning at most one Result (emission
// is gated on both a Sift3 divergence and a wordlist_status_set match) and
// the internal URL as a discovery for any downstream consumer.
//
// Shaped as an internal/concurrency.Worker[Job, Result].
func Run(ctx context.Context, job Job, settings Settings) (results []Result, discoveries []string) {
	method := job.Method
	if method == "" {
		method = http.MethodGet
	}

	internalURL := joinURL(job.BaseURL, job.Word)
	root := schemeHostRoot(job.BaseURL)
	if root == "" {
		return nil, nil
	}
	publicURL := joinURL(strings.TrimSuffix(root, "/"), job.Word)

	internalSnap, ok := httpx.FetchSnapshot(ctx, settings.Client, httpx.Descriptor{
		Kind:   httpx.DescriptorURL,
		URL:    internalURL,
		Method: method,
	}, settings.CallerHeader, 0)
	if !ok {
		return nil, nil
	}

	publicSnap, ok := httpx.FetchSnapshot(ctx, settings.Client, httpx.Descriptor{
		Kind:   httpx.DescriptorURL,
		URL:    publicURL,
		Method: method,
	}, settings.CallerHeader, 0)
	if !ok {
		return nil, nil
	}

	changed, _ := similarity.InRange(internalSnap.BodySample, publicSnap.BodySample, settings.Sift3Threshold)
	if !changed {
		return nil, nil
	}
	if !httpx.ContainsInt(settings.WordlistStatus, internalSnap.Status) {
		return nil, nil
	}

	return []Result{{InternalURL: internalURL, ContentLength: internalSnap.BodyLen}}, []string{internalURL}
}

// Batches partitions discoveries into chunks of at most concurrency
// entries; a concurrency of 0 returns one batch holding every discovery,
// per the "0 => one round over all discoveries" rule.
func Batches(discoveries []string, concurrency int) [][]string {
	if concurrency <= 0 || concurrency >= len(discoveries) {
		if len(discoveries) == 0 {
			return nil
		}
		return [][]string{discoveries}
	}
	var out [][]string
	for i := 0; i < len(discoveries); i += concurrency {
		end := i + concurrency
		if end > len(discoveries) {
			end = len(discoveries)
		}
		out = append(out, discoveries[i:end])
	}
	return out
}

// AppendDiscoveredRoute appends url as its own line to the streaming
// discovered-routes sidecar file, creating it if necessary.
func AppendDiscoveredRoute(path, url string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(url + "\n")
	return err
}

// BuildJobs expands a set of discovered base URLs against a wordlist and a
// set of HTTP methods into the full (base, word, method) job stream.
func BuildJobs(discoveries []string, words []string, methods []string) []Job {
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	jobs := make([]Job, 0, len(discoveries)*len(words)*len(methods))
	for _, base := range discoveries {
		for _, w := range words {
			for _, m := range methods {
				jobs = append(jobs, Job{BaseURL: base, Word: w, Method: m})
			}
		}
	}
	return jobs
}
