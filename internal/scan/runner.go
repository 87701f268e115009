package scan

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethicalhackingplayground/pathbuster/internal/brute"
	"github.com/ethicalhackingplayground/pathbuster/internal/concurrency"
	"github.com/ethicalhackingplayground/pathbuster/internal/fingerprint"
	"github.com/ethicalhackingplayground/pathbuster/internal/httpx"
	"github.com/ethicalhackingplayground/pathbuster/internal/transform"
	"github.com/ethicalhackingplayground/pathbuster/internal/traverse"
	"github.com/ethicalhackingplayground/pathbuster/internal/wordlist"
	"golang.org/x/time/rate"
)

// target pairs the URL as the caller supplied it with its normalized form
// (trailing slash stripped, when requested); traversal and fingerprinting
// both operate on the normalized form.
type target struct {
	original   string
	normalized string
}

// ScanResult is everything a completed run reports back to its caller.
type ScanResult struct {
	Elapsed          time.Duration
	Fingerprints     map[string]fingerprint.TargetFingerprint
	WordlistsLoaded  []string
	Matches          []traverse.Match
	DiscoveredRoutes []string
}

// Runner validates Options once at construction time and exposes Run to
// execute the full pipeline.
type Runner struct {
	options Options
}

// New validates options, returning a RunnerError for every configuration
// problem spec.md §7 lists before any I/O happens.
func New(options Options) (*Runner, error) {
	if len(options.URLs) == 0 && options.InputFile == "" && options.RawRequest == "" {
		return nil, &RunnerError{Kind: ErrNoTargets}
	}
	if options.BypassLevel > 3 {
		return nil, &RunnerError{Kind: ErrInvalidBypassLevel}
	}
	if options.MaxDepth == 0 {
		return nil, &RunnerError{Kind: ErrInvalidMaxDepth}
	}
	if options.SkipValidation {
		options.SkipBrute = true
	}
	if options.DirsearchCompat && len(options.Extensions) == 0 {
		return nil, &RunnerError{Kind: ErrDirsearchRequiresExtensions}
	}
	hasWordlist := options.Wordlist != nil
	hasPath := strings.TrimSpace(options.Path) != ""
	if hasWordlist && hasPath {
		return nil, &RunnerError{Kind: ErrConflictingWordlistAndPath}
	}
	if (!options.SkipBrute || options.SkipValidation) && !hasWordlist && !hasPath {
		return nil, &RunnerError{Kind: ErrMissingWordlist}
	}
	return &Runner{options: options}, nil
}

// Options returns the validated configuration this Runner was built with.
func (r *Runner) Options() Options { return r.options }

// Run executes the full pipeline: load payloads and targets, fingerprint
// every target, load the bruteforce wordlist, run the traversal fabric,
// then (unless skip_brute) the bruteforce fabric over its discoveries.
func (r *Runner) Run(ctx context.Context) (*ScanResult, error) {
	started := time.Now()
	opts := r.options

	payloads, err := loadPayloads(opts.Payloads)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, &RunnerError{Kind: ErrEmptyPayloads}
	}

	targets, err := loadTargets(opts)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if _, err := url.Parse(t.original); err != nil {
			return nil, &RunnerError{Kind: ErrInvalidURL, URL: t.original}
		}
	}
	if opts.IgnoreTrailingSlash {
		for i := range targets {
			targets[i].normalized = normalizeTrailingSlash(targets[i].original)
		}
	}

	client, err := httpx.NewClient(httpx.ClientOptions{
		TimeoutSeconds:  opts.TimeoutSeconds,
		Proxy:           opts.Proxy,
		FollowRedirects: opts.FollowRedirects,
	})
	if err != nil {
		if opts.Proxy != "" {
			return nil, &RunnerError{Kind: ErrProxySetup, URL: opts.Proxy, Err: err}
		}
		return nil, &RunnerError{Kind: ErrHTTPClientBuild, Err: err}
	}

	fpOptions := fingerprint.Options{
		EnableFingerprinting: opts.EnableFingerprinting,
		WafTest:              opts.WafTest,
	}
	fingerprints := map[string]fingerprint.TargetFingerprint{}
	for _, t := range targets {
		fingerprints[t.normalized] = fingerprint.FingerprintTarget(ctx, client, t.normalized, fpOptions)
	}

	words, loaded, err := loadWordlist(opts, fingerprints)
	if err != nil {
		return nil, err
	}

	validateStatus, err := httpx.ParseUint16SetCSV(opts.ValidateStatus)
	if err != nil {
		if strings.TrimSpace(opts.ValidateStatus) != "" {
			return nil, &RunnerError{Err: err}
		}
		validateStatus = map[int]struct{}{}
	}
	fingerprintStatus, err := httpx.ParseUint16SetCSV(opts.FingerprintStatus)
	if err != nil {
		if strings.TrimSpace(opts.FingerprintStatus) != "" {
			return nil, &RunnerError{Err: err}
		}
		fingerprintStatus = map[int]struct{}{}
	}
	dropAfterFail, err := httpx.ParseUint16SetCSV(opts.DropAfterFail)
	if err != nil {
		if strings.TrimSpace(opts.DropAfterFail) != "" {
			return nil, &RunnerError{Err: err}
		}
		dropAfterFail = map[int]struct{}{}
	}
	wordlistStatus, err := httpx.ParseUint16SetCSV(opts.WordlistStatus)
	if err != nil {
		if strings.TrimSpace(opts.WordlistStatus) != "" {
			return nil, &RunnerError{Err: err}
		}
		wordlistStatus = map[int]struct{}{}
	}

	validateFilter := buildFilter(opts.ValidateFilters)
	fingerprintFilter := buildFilter(opts.FingerprintFilters)

	forcedFamilies := transform.ParseFamilies(strings.Join(opts.BypassTransforms, ","))

	strategy := traverse.Strategy(opts.TraversalStrategy)
	if strategy == "" {
		strategy = traverse.StrategyGreedy
	}

	traverseSettings := traverse.Settings{
		Client:            client,
		StartDepth:        opts.StartDepth,
		MaxDepth:          opts.MaxDepth,
		DepthCapSlack:     traverse.DefaultDepthCapSlack,
		Strategy:          strategy,
		ValidateStatus:    validateStatus,
		FingerprintStatus: fingerprintStatus,
		DropAfterFail:     dropAfterFail,
		ValidateFilter:    validateFilter,
		FingerprintFilter: fingerprintFilter,
		Sift3Threshold:    opts.Sift3Threshold,
		CallerHeader:      opts.Header,
	}

	jobs := buildTraversalJobs(opts, targets, payloads, words, fingerprints, forcedFamilies)

	limiter := rateLimiterFor(opts.Rate)
	fab := concurrency.NewFabric[traverse.Job, traverse.Match](opts.Concurrency)
	matches, discoveries := fab.Run(ctx, jobs, limiter, func(ctx context.Context, job traverse.Job) ([]traverse.Match, []string) {
		return traverse.Run(ctx, job, traverseSettings)
	})

	matches = sortAndDedupMatches(matches)
	if opts.DisableShowAll {
		matches = filterMatchesByStatus(matches, wordlistStatus)
	}

	var discoveredRoutes []string
	if !opts.SkipBrute {
		discoveredRoutes = runBruteforce(ctx, opts, client, words, discoveries)
	}

	return &ScanResult{
		Elapsed:          time.Since(started),
		Fingerprints:     fingerprints,
		WordlistsLoaded:  loaded,
		Matches:          matches,
		DiscoveredRoutes: discoveredRoutes,
	}, nil
}

func normalizeTrailingSlash(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Path == "/" || u.Path == "" {
		return rawURL
	}
	return strings.TrimRight(rawURL, "/")
}

func loadPayloads(src PayloadSource) ([]string, error) {
	if len(src.Inline) > 0 {
		return trimNonEmptyLines(src.Inline), nil
	}
	if src.FilePath == "" {
		return nil, nil
	}
	lines, err := wordlist.LoadLines(src.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &RunnerError{Kind: ErrFileOpen, Path: src.FilePath, Err: err}
		}
		return nil, &RunnerError{Kind: ErrFileRead, Path: src.FilePath, Err: err}
	}
	return lines, nil
}

func trimNonEmptyLines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func loadTargets(opts Options) ([]target, error) {
	if len(opts.URLs) == 0 && opts.InputFile == "" && opts.RawRequest != "" {
		raw, err := os.ReadFile(opts.RawRequest)
		if err != nil {
			return nil, &RunnerError{Kind: ErrRawRequestRead, Path: opts.RawRequest, Err: err}
		}
		tmpl, err := httpx.ParseRawTemplate(string(raw))
		if err != nil {
			return nil, &RunnerError{Kind: ErrInvalidRawRequestTemplate, Err: err}
		}
		inferred, err := httpx.InferTargetURL(tmpl)
		if err != nil {
			return nil, &RunnerError{Kind: ErrInvalidRawRequestTemplate, Err: err}
		}
		return []target{{original: inferred, normalized: inferred}}, nil
	}

	var out []target
	for _, u := range opts.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		out = append(out, target{original: u, normalized: u})
	}

	if opts.InputFile != "" {
		lines, err := wordlist.LoadLines(opts.InputFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &RunnerError{Kind: ErrFileOpen, Path: opts.InputFile, Err: err}
			}
			return nil, &RunnerError{Kind: ErrFileRead, Path: opts.InputFile, Err: err}
		}
		for _, l := range lines {
			out = append(out, target{original: l, normalized: l})
		}
	}

	if len(out) == 0 {
		return nil, &RunnerError{Kind: ErrNoTargets}
	}
	return out, nil
}

var techKeywords = []struct {
	substr string
	key    string
}{
	{"tomcat", "tomcat"},
	{"spring", "spring"},
	{"microsoft-iis", "iis"},
	{"iis", "iis"},
	{"nginx", "nginx"},
	{"apache", "apache"},
	{"php", "php"},
	{"express", "node"},
	{"node", "node"},
	{"cloudflare", "cloudflare"},
}

func loadWordlist(opts Options, fingerprints map[string]fingerprint.TargetFingerprint) (words []string, loaded []string, err error) {
	if opts.SkipBrute && !opts.SkipValidation {
		return nil, nil, nil
	}

	var out []string

	if p := strings.TrimSpace(opts.Path); p != "" {
		out = append(out, p)
	}

	if opts.Wordlist != nil {
		if len(opts.Wordlist.Inline) > 0 {
			out = append(out, trimNonEmptyLines(opts.Wordlist.Inline)...)
		} else if opts.Wordlist.FilePath != "" {
			lines, lerr := wordlist.LoadLines(opts.Wordlist.FilePath)
			if lerr != nil {
				if errors.Is(lerr, os.ErrNotExist) {
					return nil, nil, &RunnerError{Kind: ErrFileOpen, Path: opts.Wordlist.FilePath, Err: lerr}
				}
				return nil, nil, &RunnerError{Kind: ErrFileRead, Path: opts.Wordlist.FilePath, Err: lerr}
			}
			loaded = append(loaded, opts.Wordlist.FilePath)
			out = append(out, lines...)
		}
	}

	if dir := strings.TrimSpace(opts.WordlistDir); dir != "" {
		var techKeys []string
		if tech := strings.ToLower(strings.TrimSpace(opts.TechOverride)); tech != "" {
			techKeys = append(techKeys, tech)
		} else {
			seen := map[string]bool{}
			for _, fp := range fingerprints {
				for _, product := range fp.Tech.Products {
					p := strings.ToLower(product)
					for _, kw := range techKeywords {
						if strings.Contains(p, kw.substr) && !seen[kw.key] {
							seen[kw.key] = true
							techKeys = append(techKeys, kw.key)
						}
					}
				}
			}
		}
		sort.Strings(techKeys)

		for _, key := range techKeys {
			flatPath := dir + "/" + key + ".txt"
			if lines, lerr := wordlist.LoadLines(flatPath); lerr == nil {
				loaded = append(loaded, flatPath)
				out = append(out, lines...)
			}
			subdir := dir + "/" + key
			if lines, lerr := wordlist.LoadDir(subdir); lerr == nil {
				loaded = append(loaded, subdir)
				out = append(out, lines...)
			}
		}
	}

	sort.Strings(loaded)
	loaded = dedupSortedStrings(loaded)

	if !opts.SkipBrute || opts.SkipValidation {
		out = wordlist.ApplyExtensions(out, wordlist.ParseExtensionsCSV(strings.Join(opts.Extensions, ",")), opts.DirsearchCompat)
		out = wordlist.ApplyManipulations(out, opts.WordlistManipulation)
	}

	return out, loaded, nil
}

func dedupSortedStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for i, s := range in {
		if i == 0 || in[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}

func buildFilter(cfg FilterConfig) httpx.Filter {
	status, _ := httpx.ParseStagedIntCSV(cfg.Status)
	size, _ := httpx.ParseStagedIntCSV(cfg.Size)
	words, _ := httpx.ParseStagedIntCSV(cfg.Words)
	lines, _ := httpx.ParseStagedIntCSV(cfg.Lines)
	re, _ := httpx.CombineRegexes(cfg.Regex)
	return httpx.Filter{Status: status, Size: size, Words: words, Lines: lines, Regex: re}
}

func rateLimiterFor(requestsPerSecond int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
}

func buildTraversalJobs(opts Options, targets []target, payloads, words []string, fingerprints map[string]fingerprint.TargetFingerprint, forcedFamilies []transform.Family) []traverse.Job {
	methods := opts.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}

	var jobs []traverse.Job
	for _, t := range targets {
		wafLabels := fingerprints[t.normalized].WafNames()

		tokens := payloads
		if opts.SkipValidation {
			tokens = words
		}

		for _, token := range tokens {
			variants := []transform.TransformedPayload{{Original: token, Mutated: token, Family: transform.FamilyBaseline}}
			if !opts.SkipValidation {
				variants = transform.GeneratePayloads(token, wafLabels, opts.BypassLevel, forcedFamilies, opts.DisableWafBypass, nil)
			}
			for _, variant := range variants {
				for _, method := range methods {
					jobs = append(jobs, traverse.Job{
						BaseURL: t.normalized,
						Method:  method,
						Payload: variant,
					})
				}
			}
		}
	}
	return jobs
}

func sortAndDedupMatches(matches []traverse.Match) []traverse.Match {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.BaseURL != b.BaseURL {
			return a.BaseURL < b.BaseURL
		}
		if a.ResultURL != b.ResultURL {
			return a.ResultURL < b.ResultURL
		}
		if a.PayloadMutated != b.PayloadMutated {
			return a.PayloadMutated < b.PayloadMutated
		}
		return a.Depth < b.Depth
	})

	out := make([]traverse.Match, 0, len(matches))
	for i, m := range matches {
		if i > 0 {
			p := matches[i-1]
			if p.BaseURL == m.BaseURL && p.ResultURL == m.ResultURL && p.PayloadMutated == m.PayloadMutated && p.Depth == m.Depth {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// filterMatchesByStatus narrows matches to those whose status is in
// statusSet, the disable_show_all behavior: with the flag off every
// validate- or fingerprint-status hit is reported; with it on (the
// DefaultOptions value) only hits whose status is also in the bruteforce
// status set are kept.
func filterMatchesByStatus(matches []traverse.Match, statusSet map[int]struct{}) []traverse.Match {
	out := make([]traverse.Match, 0, len(matches))
	for _, m := range matches {
		if httpx.ContainsInt(statusSet, m.Status) {
			out = append(out, m)
		}
	}
	return out
}

func runBruteforce(ctx context.Context, opts Options, client *http.Client, words []string, discoveries []string) []string {
	if len(discoveries) == 0 || len(words) == 0 {
		return nil
	}

	wordlistStatus, _ := httpx.ParseUint16SetCSV(opts.WordlistStatus)

	settings := brute.Settings{
		Client:         client,
		WordlistStatus: wordlistStatus,
		Sift3Threshold: opts.Sift3Threshold,
		CallerHeader:   opts.Header,
		AutoCollab:     opts.AutoCollab,
	}

	methods := opts.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}

	limiter := rateLimiterFor(opts.Rate)
	fab := concurrency.NewFabric[brute.Job, brute.Result](opts.Concurrency)

	seen := map[string]bool{}
	var routes []string

	for _, batch := range brute.Batches(discoveries, opts.BruteQueueConcurrency) {
		jobs := brute.BuildJobs(batch, words, methods)
		results, _ := fab.Run(ctx, jobs, limiter, func(ctx context.Context, job brute.Job) ([]brute.Result, []string) {
			return brute.Run(ctx, job, settings)
		})
		for _, res := range results {
			if seen[res.InternalURL] {
				continue
			}
			seen[res.InternalURL] = true
			routes = append(routes, res.InternalURL)
			_ = brute.AppendDiscoveredRoute("./discovered-routes.txt", res.InternalURL)
		}
	}

	return routes
}
