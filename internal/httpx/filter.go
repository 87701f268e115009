// Package httpx implements the response filtering, snapshotting, and raw
// request templating machinery shared by the traversal and bruteforce
// stages.
package httpx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Summary is the projection of a Snapshot used by filters.
type Summary struct {
	Status     int
	Title      string
	BodySample string
	BodyLen    int
	Words      int
	Lines      int
}

// NewSummary derives a Summary from a Snapshot.
func NewSummary(s *Snapshot) Summary {
	return Summary{
		Status:     s.Status,
		Title:      s.Title,
		BodySample: s.BodySample,
		BodyLen:    s.BodyLen,
		Words:      len(strings.Fields(s.BodySample)),
		Lines:      countLines(s.BodySample),
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}

// Filter drops responses matching any configured dimension. A matching
// filter excludes the response from emission.
type Filter struct {
	Status map[int]struct{}
	Size   map[int]struct{}
	Words  map[int]struct{}
	Lines  map[int]struct{}
	Regex  *regexp.Regexp
}

// Matches reports whether summary should be excluded by this filter.
func (f Filter) Matches(s Summary) bool {
	if len(f.Status) > 0 {
		if _, ok := f.Status[s.Status]; ok {
			return true
		}
	}
	if len(f.Size) > 0 {
		if _, ok := f.Size[s.BodyLen]; ok {
			return true
		}
	}
	if len(f.Words) > 0 {
		if _, ok := f.Words[s.Words]; ok {
			return true
		}
	}
	if len(f.Lines) > 0 {
		if _, ok := f.Lines[s.Lines]; ok {
			return true
		}
	}
	if f.Regex != nil && f.Regex.MatchString(s.Title+" "+s.BodySample) {
		return true
	}
	return false
}

// CombineRegexes joins multiple regex sources with non-capturing
// alternation, as required for repeated --filter-regex occurrences.
func CombineRegexes(patterns []string) (*regexp.Regexp, error) {
	patterns = nonEmpty(patterns)
	if len(patterns) == 0 {
		return nil, nil
	}
	joined := "(?:" + strings.Join(patterns, ")|(?:") + ")"
	re, err := regexp.Compile(joined)
	if err != nil {
		return nil, fmt.Errorf("compiling combined filter regex: %w", err)
	}
	return re, nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Stage identifies which filter set (validate or fingerprint) a CSV token
// belongs to.
type Stage int

const (
	StageValidate Stage = iota
	StageFingerprint
)

// ParseStagedIntCSV parses the "V:<set>,F:<set>" filter CSV grammar into
// two int sets. Unprefixed tokens before any stage prefix are applied to
// both sets. Unparseable tokens are silently dropped, matching the
// original filter-set parsing's lenience (distinct from the strict
// ParseUint16SetCSV used for validate_status/fingerprint_status/
// wordlist_status).
func ParseStagedIntCSV(csv string) (validate map[int]struct{}, fingerprint map[int]struct{}) {
	validate = map[int]struct{}{}
	fingerprint = map[int]struct{}{}

	if strings.TrimSpace(csv) == "" {
		return validate, fingerprint
	}

	mode := "both"
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch {
		case strings.HasPrefix(tok, "V:"):
			mode = "validate"
			tok = strings.TrimPrefix(tok, "V:")
		case strings.HasPrefix(tok, "F:"):
			mode = "fingerprint"
			tok = strings.TrimPrefix(tok, "F:")
		}
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		switch mode {
		case "validate":
			validate[n] = struct{}{}
		case "fingerprint":
			fingerprint[n] = struct{}{}
		default:
			validate[n] = struct{}{}
			fingerprint[n] = struct{}{}
		}
	}
	return validate, fingerprint
}

// ParseUint16SetCSV parses a strict comma-separated set of uint16 values,
// ignoring surrounding whitespace, deduplicating, and erroring on any
// non-numeric token. Used for validate_status/fingerprint_status/
// wordlist_status, which must fail fast on operator typos rather than
// silently drop them.
func ParseUint16SetCSV(csv string) (map[int]struct{}, error) {
	out := map[int]struct{}{}
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, fmt.Errorf("empty status entry in %q", csv)
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > 65535 {
			return nil, fmt.Errorf("invalid status value %q in %q", tok, csv)
		}
		out[n] = struct{}{}
	}
	return out, nil
}

// ContainsInt reports membership in a parsed status set.
func ContainsInt(set map[int]struct{}, v int) bool {
	_, ok := set[v]
	return ok
}
