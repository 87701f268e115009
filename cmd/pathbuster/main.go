// Command pathbuster is a path-normalization and traversal scanner: it
// probes target URLs for places where a server's routing layer and its
// filesystem/proxy layer disagree about what a path means, then (unless
// asked to skip it) bruteforces discovered routes for hidden children.
//
// Run without a config file and it uses built-in defaults; point it at
// ~/.pathbuster/config.yml (or --cfg) to persist settings across runs.
// CLI flags always win over the config file, which always wins over
// built-in defaults.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ethicalhackingplayground/pathbuster/internal/config"
	"github.com/ethicalhackingplayground/pathbuster/internal/logging"
	"github.com/ethicalhackingplayground/pathbuster/internal/output"
	"github.com/ethicalhackingplayground/pathbuster/internal/scan"
	"github.com/ethicalhackingplayground/pathbuster/internal/similarity"
	"github.com/ethicalhackingplayground/pathbuster/internal/wordlist"
)

var logger *zap.Logger

// flags mirrors every flag the root command accepts, each field named
// after the setting it holds (the long flag names are abbreviations such
// as --rt or --ws). Pointers aren't needed: precedence is resolved by
// asking cobra which flags were actually set (cmd.Flags().Changed), not
// by inspecting zero values.
type flags struct {
	verbose             int
	color               bool
	noColor             bool
	disableShowAll      bool
	urls                []string
	inputFile           string
	configPath          string
	rate                int
	skipBrute           bool
	autoCollab          bool
	wordlistStatus      string
	bruteQueueConc      int
	dropAfterFail       string
	validateStatus      string
	fingerprintStatus   string
	filterStatus        string
	filterSize          string
	filterWords         string
	filterLines         string
	filterRegex         []string
	responseDiffThresh  string
	proxy               string
	followRedirects     bool
	skipValidation      bool
	concurrency         int
	workers             int
	timeout             int
	header              string
	methods             string
	payloads            string
	rawRequest          string
	wordlistFile        string
	extensions          string
	dirsearchCompat     bool
	path                string
	wordlistDir         string
	wordlistManip       string
	outputPath          string
	outputFormat        string
	ignoreTrailingSlash bool
	startDepth          int
	maxDepth            int
	traversalStrategy   string
	disableFingerprint  bool
	wafTest             string
	tech                string
	disableWafBypass    bool
	bypassTransform     []string
	bypassLevel         int
}

var f flags

var rootCmd = &cobra.Command{
	Use:   "pathbuster",
	Short: "path-normalization pentesting tool",
	Long: `Pathbuster is a path-normalization pentesting tool for detecting URL
normalization quirks and traversal weaknesses.

Examples:
  pathbuster -u https://target.tld/
  pathbuster -u https://target.tld/ -r 500 -t 200 --to 10
  pathbuster -u https://target.tld/ --cfg ~/.pathbuster/config.yml

Tip: Use --cfg to persist scan settings and keep CLI invocations short.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(f.verbose > 0)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runScan,
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.CountVarP(&f.verbose, "vb", "v", "Increase verbosity (-v, -vv).")
	pf.BoolVarP(&f.color, "clr", "c", false, "Enable colored output (--nc turns it off even when set).")
	pf.BoolVar(&f.disableShowAll, "dsa", false, "Only show findings matching --ws.")

	pf.StringArrayVarP(&f.urls, "u", "u", nil, "Target URL (repeatable).")
	pf.StringVarP(&f.inputFile, "if", "i", "", "Load target URLs from a file (one per line).")
	pf.StringVarP(&f.configPath, "cfg", "C", "", "Path to config file (defaults to ~/.pathbuster/config.yml).")

	pf.IntVarP(&f.rate, "rt", "r", 0, "Request rate limit (requests per second).")
	pf.BoolVarP(&f.skipBrute, "sb", "B", false, "Skip bruteforce/discovery phase.")
	pf.BoolVar(&f.autoCollab, "ac", false, "Auto-collab flag; passed to the bruteforce stage, where it has no effect on findings.")
	pf.StringVar(&f.wordlistStatus, "ws", "", "Allowed status codes for bruteforce findings (comma-separated).")
	pf.IntVar(&f.bruteQueueConc, "bqc", 0, "Max base URLs per bruteforce batch (0 = no batching).")

	pf.StringVarP(&f.dropAfterFail, "daf", "f", "", "End a traversal job after five back-one-more responses with these status codes (comma-separated).")
	pf.StringVar(&f.validateStatus, "vs", "", "HTTP status matcher for validation phase (comma-separated).")
	pf.StringVarP(&f.fingerprintStatus, "fps", "P", "", "HTTP status matcher for fingerprinting phase (comma-separated).")

	pf.StringVarP(&f.filterStatus, "fst", "S", "", "Exclude responses by HTTP status using stage prefixes (e.g. V:404,F:500).")
	pf.StringVarP(&f.filterSize, "fsi", "Z", "", "Exclude responses by body size using stage prefixes (e.g. V:1234,F:5678).")
	pf.StringVarP(&f.filterWords, "fw", "W", "", "Exclude responses by word count using stage prefixes (e.g. V:10,F:25).")
	pf.StringVarP(&f.filterLines, "fl", "L", "", "Exclude responses by line count using stage prefixes (e.g. V:5,F:20).")
	pf.StringArrayVarP(&f.filterRegex, "frx", "R", nil, "Exclude responses matching a regex in title or body, stage-prefixed (e.g. V:<regex>).")

	pf.StringVarP(&f.responseDiffThresh, "rdt", "d", "", "Response difference threshold range used by validation/bruteforce comparisons (MIN-MAX).")

	pf.StringVarP(&f.proxy, "px", "p", "", "HTTP proxy URL (e.g. http://127.0.0.1:8080).")
	pf.BoolVarP(&f.followRedirects, "frd", "F", false, "Follow HTTP redirects.")
	pf.BoolVarP(&f.skipValidation, "sv", "s", false, "Skip validation phase and go straight to bruteforce/discovery.")

	pf.IntVarP(&f.concurrency, "cnc", "t", 0, "Max in-flight requests during scanning.")
	pf.IntVarP(&f.workers, "wrk", "w", 0, "Number of runtime worker threads.")
	pf.IntVarP(&f.timeout, "to", "T", 0, "Per-request timeout in seconds.")
	pf.StringVarP(&f.header, "hdr", "H", "", "Add a header to all requests (format: 'Key: Value').")
	pf.StringVarP(&f.methods, "mth", "m", "", "Comma-separated HTTP methods to use (e.g. GET,POST).")

	pf.StringVarP(&f.payloads, "pl", "Y", "", "Payload file path (one payload per line).")
	pf.StringVarP(&f.rawRequest, "rr", "Q", "", "Load a raw HTTP request template from a file; use '*' to mark the injection point.")
	pf.StringVarP(&f.wordlistFile, "wl", "K", "", "Wordlist file path (one word per line).")
	pf.StringVarP(&f.extensions, "ext", "e", "", "Extension list separated by commas (e.g. php,asp).")
	pf.BoolVarP(&f.dirsearchCompat, "dirsearch", "D", false, "DirSearch wordlist compatibility mode (replace %EXT% with extensions).")
	pf.StringVar(&f.path, "pth", "", "Scan a single path instead of using a wordlist (e.g. admin, admin/login.php).")
	pf.StringVarP(&f.wordlistDir, "wd", "J", "", "Targeted wordlist directory (auto-selected by tech fingerprint).")
	pf.StringVarP(&f.wordlistManip, "wm", "M", "", "Comma-separated wordlist transforms (e.g. sort,unique,lower,smart,smartjoin=c:_).")

	pf.StringVarP(&f.outputPath, "out", "o", "", "Write results to a file.")
	pf.StringVarP(&f.outputFormat, "of", "A", "", "Output format (text, json, xml, html).")
	pf.BoolVarP(&f.ignoreTrailingSlash, "its", "I", false, "Treat URLs with/without trailing slash as equivalent.")

	pf.IntVar(&f.startDepth, "sd", 0, "Initial traversal depth (0-based).")
	pf.IntVar(&f.maxDepth, "md", 0, "Maximum traversal depth.")
	pf.StringVarP(&f.traversalStrategy, "ts", "X", "", "Traversal strategy (greedy or quick).")

	pf.BoolVarP(&f.noColor, "nc", "n", false, "Disable colored output.")
	pf.BoolVarP(&f.disableFingerprint, "df", "g", false, "Disable fingerprinting (WAF/tech).")
	pf.StringVarP(&f.wafTest, "wt", "a", "", "Only test for a specific WAF signature by name.")
	pf.StringVar(&f.tech, "tch", "", "Override detected tech name for targeted wordlist selection.")

	pf.BoolVarP(&f.disableWafBypass, "dwb", "b", false, "Disable WAF-aware payload transformations.")
	pf.StringArrayVarP(&f.bypassTransform, "bt", "x", nil, "Force specific payload transform families (repeatable).")
	pf.IntVarP(&f.bypassLevel, "bl", "l", -1, "Bypass aggressiveness level (0-3).")
}

// changed reports whether the named flag was explicitly set on the
// command line, the signal used to resolve CLI > file > default
// precedence without treating an unset flag's zero value as an override.
func changed(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfgPath := f.configPath
	if cfgPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	opts := scan.DefaultOptions()
	opts.Rate = cfg.Rate
	opts.Concurrency = cfg.Concurrency
	opts.TimeoutSeconds = cfg.TimeoutSeconds
	opts.Proxy = cfg.Proxy
	opts.FollowRedirects = cfg.FollowRedirects
	opts.DropAfterFail = cfg.DropAfterFail
	opts.ValidateStatus = cfg.ValidateStatus
	opts.FingerprintStatus = cfg.FingerprintStatus
	opts.ValidateFilters = scan.FilterConfig{Status: cfg.FilterStatus, Size: cfg.FilterSize, Words: cfg.FilterWords, Lines: cfg.FilterLines, Regex: stageFilterRegex(cfg.FilterRegex, "V:")}
	opts.FingerprintFilters = scan.FilterConfig{Status: cfg.FilterStatus, Size: cfg.FilterSize, Words: cfg.FilterWords, Lines: cfg.FilterLines, Regex: stageFilterRegex(cfg.FilterRegex, "F:")}
	opts.StartDepth = cfg.StartDepth
	opts.MaxDepth = cfg.MaxDepth
	opts.TraversalStrategy = cfg.TraversalStrategy
	opts.IgnoreTrailingSlash = cfg.IgnoreTrailingSlash
	opts.SkipValidation = cfg.SkipValidation
	opts.SkipBrute = cfg.SkipBrute
	opts.AutoCollab = cfg.AutoCollab
	opts.WordlistStatus = cfg.WordlistStatus
	opts.BruteQueueConcurrency = cfg.BruteQueueConcurrency
	opts.EnableFingerprinting = !cfg.DisableFingerprinting
	opts.WafTest = cfg.WafTest
	opts.TechOverride = cfg.TechOverride
	opts.DisableWafBypass = cfg.DisableWafBypass
	opts.BypassLevel = cfg.BypassLevel
	opts.BypassTransforms = cfg.BypassTransform
	opts.DisableShowAll = cfg.DisableShowAll
	if cfg.ResponseDiffThreshold != "" {
		if lo, hi, err := config.ParseThreshold(cfg.ResponseDiffThreshold); err == nil {
			opts.Sift3Threshold = similarity.Threshold{Start: lo, End: hi}
		}
	}

	applyFlagOverrides(cmd, &opts)

	if len(f.urls) > 0 {
		opts.URLs = f.urls
	}
	if changed(cmd, "if") {
		opts.InputFile = f.inputFile
	}
	if changed(cmd, "rr") {
		opts.RawRequest = f.rawRequest
	}
	if changed(cmd, "pl") {
		opts.Payloads = scan.PayloadSource{FilePath: f.payloads}
	}
	if changed(cmd, "wl") {
		opts.Wordlist = &scan.WordlistSource{FilePath: f.wordlistFile}
	}
	if changed(cmd, "pth") {
		opts.Path = f.path
	}
	if changed(cmd, "wd") {
		opts.WordlistDir = f.wordlistDir
	}
	if changed(cmd, "wm") {
		manip, err := wordlist.ParseManipulation(f.wordlistManip)
		if err != nil {
			return fmt.Errorf("parsing wordlist-manipulation: %w", err)
		}
		opts.WordlistManipulation = manip
	}
	if changed(cmd, "ext") {
		opts.Extensions = strings.Split(f.extensions, ",")
	}
	if changed(cmd, "dirsearch") {
		opts.DirsearchCompat = f.dirsearchCompat
	}
	if changed(cmd, "mth") {
		opts.Methods = strings.Split(strings.ToUpper(f.methods), ",")
	}
	if changed(cmd, "hdr") {
		opts.Header = f.header
	}

	switch {
	case changed(cmd, "wrk"):
		runtime.GOMAXPROCS(f.workers)
	case cfg.Workers > 0:
		runtime.GOMAXPROCS(cfg.Workers)
	}

	useColor := f.color && !f.noColor
	color.NoColor = !useColor

	runner, err := scan.New(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("interrupted, shutting down")
		cancel()
	}()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
				_ = bar.Add(1)
			}
		}
	}()

	result, err := runner.Run(ctx)
	cancel()
	<-done
	_ = bar.Finish()
	if err != nil {
		return err
	}

	logger.Info("scan complete",
		zap.Duration("elapsed", result.Elapsed),
		zap.Int("matches", len(result.Matches)),
		zap.Int("discovered_routes", len(result.DiscoveredRoutes)),
	)

	report := output.NewReport(result.Elapsed, result.Fingerprints, result.WordlistsLoaded, result.Matches, result.DiscoveredRoutes)

	format := output.Format("")
	if f.outputFormat != "" {
		parsed, ok := output.ParseFormat(f.outputFormat)
		if !ok {
			return fmt.Errorf("unknown output format %q", f.outputFormat)
		}
		format = parsed
	}

	if f.outputPath != "" {
		if err := output.WriteToFile(f.outputPath, format, report); err != nil {
			return err
		}
		printSummary(result, useColor)
		return nil
	}

	renderer, err := output.RendererFor(format)
	if err != nil {
		return err
	}
	if err := renderer.Render(os.Stdout, report); err != nil {
		return err
	}
	return nil
}

// applyFlagOverrides layers every scalar CLI flag that was explicitly
// set onto opts, ahead of the target/payload/wordlist fields that need
// their own non-scalar handling in runScan.
func applyFlagOverrides(cmd *cobra.Command, opts *scan.Options) {
	if changed(cmd, "rt") {
		opts.Rate = f.rate
	}
	if changed(cmd, "sb") {
		opts.SkipBrute = f.skipBrute
	}
	if changed(cmd, "ac") {
		opts.AutoCollab = f.autoCollab
	}
	if changed(cmd, "ws") {
		opts.WordlistStatus = f.wordlistStatus
	}
	if changed(cmd, "bqc") {
		opts.BruteQueueConcurrency = f.bruteQueueConc
	}
	if changed(cmd, "daf") {
		opts.DropAfterFail = f.dropAfterFail
	}
	if changed(cmd, "vs") {
		opts.ValidateStatus = f.validateStatus
	}
	if changed(cmd, "fps") {
		opts.FingerprintStatus = f.fingerprintStatus
	}
	if changed(cmd, "fst") || changed(cmd, "fsi") || changed(cmd, "fw") || changed(cmd, "fl") || changed(cmd, "frx") {
		opts.ValidateFilters = scan.FilterConfig{
			Status: f.filterStatus, Size: f.filterSize, Words: f.filterWords, Lines: f.filterLines,
			Regex: stageFilterRegex(f.filterRegex, "V:"),
		}
		opts.FingerprintFilters = scan.FilterConfig{
			Status: f.filterStatus, Size: f.filterSize, Words: f.filterWords, Lines: f.filterLines,
			Regex: stageFilterRegex(f.filterRegex, "F:"),
		}
	}
	if changed(cmd, "rdt") {
		if lo, hi, err := config.ParseThreshold(f.responseDiffThresh); err == nil {
			opts.Sift3Threshold = similarity.Threshold{Start: lo, End: hi}
		}
	}
	if changed(cmd, "px") {
		opts.Proxy = f.proxy
	}
	if changed(cmd, "frd") {
		opts.FollowRedirects = f.followRedirects
	}
	if changed(cmd, "sv") {
		opts.SkipValidation = f.skipValidation
	}
	if changed(cmd, "cnc") {
		opts.Concurrency = f.concurrency
	}
	if changed(cmd, "to") {
		opts.TimeoutSeconds = f.timeout
	}
	if changed(cmd, "its") {
		opts.IgnoreTrailingSlash = f.ignoreTrailingSlash
	}
	if changed(cmd, "sd") {
		opts.StartDepth = f.startDepth
	}
	if changed(cmd, "md") {
		opts.MaxDepth = f.maxDepth
	}
	if changed(cmd, "ts") {
		opts.TraversalStrategy = f.traversalStrategy
	}
	if changed(cmd, "df") {
		opts.EnableFingerprinting = !f.disableFingerprint
	}
	if changed(cmd, "wt") {
		opts.WafTest = f.wafTest
	}
	if changed(cmd, "tch") {
		opts.TechOverride = f.tech
	}
	if changed(cmd, "dwb") {
		opts.DisableWafBypass = f.disableWafBypass
	}
	if changed(cmd, "bt") {
		opts.BypassTransforms = f.bypassTransform
	}
	if changed(cmd, "bl") && f.bypassLevel >= 0 {
		opts.BypassLevel = f.bypassLevel
	}
	if changed(cmd, "dsa") {
		opts.DisableShowAll = f.disableShowAll
	}
}

// stageFilterRegex pulls out regex entries prefixed for the given stage
// ("V:" or "F:"), stripping the prefix; entries without a recognized
// stage prefix apply to both stages.
func stageFilterRegex(patterns []string, stagePrefix string) []string {
	var out []string
	for _, p := range patterns {
		switch {
		case strings.HasPrefix(p, "V:") || strings.HasPrefix(p, "F:"):
			if strings.HasPrefix(p, stagePrefix) {
				out = append(out, strings.TrimPrefix(p, stagePrefix))
			}
		default:
			out = append(out, p)
		}
	}
	return out
}

func printSummary(result *scan.ScanResult, useColor bool) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	if !useColor {
		bold.DisableColor()
		green.DisableColor()
	}
	bold.Fprintf(os.Stderr, "pathbuster: ")
	green.Fprintf(os.Stderr, "%d matches, %d discovered routes", len(result.Matches), len(result.DiscoveredRoutes))
	fmt.Fprintf(os.Stderr, " in %s\n", result.Elapsed.Round(time.Millisecond))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
