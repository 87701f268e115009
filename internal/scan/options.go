// Package scan wires every other package into the library boundary: a
// Runner that validates Options, runs the fingerprint -> transform ->
// traversal -> discovery -> bruteforce pipeline, and returns a ScanResult.
//
// Grounded on the original Options/RunnerError/ScanResult/Runner shape in
// the source this module was distilled from, reworked around this
// module's own httpx/transform/traverse/brute/fingerprint/wordlist
// packages rather than tokio tasks and channels.
package scan

import (
	"fmt"

	"github.com/ethicalhackingplayground/pathbuster/internal/similarity"
	"github.com/ethicalhackingplayground/pathbuster/internal/wordlist"
)

// PayloadSource is either an inline list of traversal tokens or a file path
// to load them from.
type PayloadSource struct {
	FilePath string
	Inline   []string
}

// WordlistSource is either an inline word list or a file path to load it
// from.
type WordlistSource struct {
	FilePath string
	Inline   []string
}

// FilterConfig is the per-stage (validate or fingerprint) response filter
// configuration, expressed as the raw CSV/regex strings a caller supplies;
// Runner.Run parses these into httpx.Filter.
type FilterConfig struct {
	Status string
	Size   string
	Words  string
	Lines  string
	Regex  []string
}

// Options mirrors every field of the library boundary's public surface.
type Options struct {
	URLs      []string
	InputFile string

	Payloads    PayloadSource
	RawRequest  string
	Wordlist    *WordlistSource
	Path        string
	WordlistDir string

	WordlistManipulation wordlist.Manipulation
	Extensions           []string
	DirsearchCompat      bool

	Rate           int
	Concurrency    int
	TimeoutSeconds int
	Proxy          string

	FollowRedirects bool
	Header          string
	Methods         []string

	DropAfterFail     string
	ValidateStatus    string
	FingerprintStatus string

	ValidateFilters    FilterConfig
	FingerprintFilters FilterConfig

	DisableShowAll      bool
	IgnoreTrailingSlash bool
	SkipValidation      bool
	SkipBrute           bool
	AutoCollab          bool

	WordlistStatus        string
	BruteQueueConcurrency int

	EnableFingerprinting bool
	WafTest              string
	TechOverride         string

	DisableWafBypass bool
	BypassLevel      int
	BypassTransforms []string

	StartDepth        int
	MaxDepth          int
	TraversalStrategy string

	Sift3Threshold similarity.Threshold
}

// DefaultOptions returns the scanner's built-in defaults.
func DefaultOptions() Options {
	return Options{
		Payloads:             PayloadSource{FilePath: "./payloads/traversals.txt"},
		WordlistDir:          "./wordlists/targeted",
		Rate:                 1000,
		Concurrency:          1000,
		TimeoutSeconds:       10,
		Methods:              []string{"GET"},
		DropAfterFail:        "302,301",
		ValidateStatus:       "404",
		FingerprintStatus:    "400,500",
		DisableShowAll:       true,
		SkipBrute:            true,
		WordlistStatus:       "200",
		EnableFingerprinting: true,
		BypassLevel:          1,
		MaxDepth:             5,
		TraversalStrategy:    "greedy",
		Sift3Threshold:       similarity.DefaultThreshold,
	}
}

// ErrorKind classifies a RunnerError without introducing a distinct Go
// error type per variant, matching spec.md §7's "kinds, not types"
// framing.
type ErrorKind string

const (
	ErrNoTargets                   ErrorKind = "no_targets"
	ErrInvalidURL                  ErrorKind = "invalid_url"
	ErrEmptyPayloads               ErrorKind = "empty_payloads"
	ErrMissingWordlist             ErrorKind = "missing_wordlist"
	ErrConflictingWordlistAndPath  ErrorKind = "conflicting_wordlist_and_path"
	ErrInvalidBypassLevel          ErrorKind = "invalid_bypass_level"
	ErrInvalidMaxDepth             ErrorKind = "invalid_max_depth"
	ErrDirsearchRequiresExtensions ErrorKind = "dirsearch_requires_extensions"
	ErrFileOpen                    ErrorKind = "file_open"
	ErrFileRead                    ErrorKind = "file_read"
	ErrRawRequestRead              ErrorKind = "raw_request_read"
	ErrInvalidRawRequestTemplate   ErrorKind = "invalid_raw_request_template"
	ErrHTTPClientBuild             ErrorKind = "http_client_build"
	ErrProxySetup                  ErrorKind = "proxy_setup"
)

// RunnerError is the taxonomy of errors Runner.New and Runner.Run can
// return. Configuration errors are surfaced before any I/O; I/O setup
// errors abort the run; per-request errors never reach this type.
type RunnerError struct {
	Kind ErrorKind
	Path string
	URL  string
	Err  error
}

func (e *RunnerError) Error() string {
	switch e.Kind {
	case ErrNoTargets:
		return "no targets provided (urls and input_file are both empty)"
	case ErrInvalidURL:
		return fmt.Sprintf("invalid URL: %s", e.URL)
	case ErrEmptyPayloads:
		return "payloads list is empty"
	case ErrMissingWordlist:
		return "wordlist (or path) is required unless skip_brute is set"
	case ErrConflictingWordlistAndPath:
		return "use either wordlist or path, not both"
	case ErrInvalidBypassLevel:
		return "invalid bypass_level, expected 0, 1, 2, or 3"
	case ErrInvalidMaxDepth:
		return "invalid max_depth, expected positive integer"
	case ErrDirsearchRequiresExtensions:
		return "dirsearch compatibility mode requires extensions"
	case ErrFileOpen:
		return fmt.Sprintf("failed to open file %s: %v", e.Path, e.Err)
	case ErrFileRead:
		return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
	case ErrRawRequestRead:
		return fmt.Sprintf("failed to read raw request file %s: %v", e.Path, e.Err)
	case ErrInvalidRawRequestTemplate:
		return fmt.Sprintf("invalid raw request template: %v", e.Err)
	case ErrHTTPClientBuild:
		return fmt.Sprintf("failed to build HTTP client: %v", e.Err)
	case ErrProxySetup:
		return fmt.Sprintf("failed to setup proxy %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("runner error: %v", e.Err)
	}
}

func (e *RunnerError) Unwrap() error { return e.Err }
