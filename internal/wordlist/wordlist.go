// Package wordlist implements payload/wordlist file loading and the
// wordlist manipulation DSL (smart-break/smart-join tokenization, case and
// separator rewrites, extension expansion).
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

// WordCase selects a simple case transform.
type WordCase int

const (
	CaseNone WordCase = iota
	CaseLower
	CaseUpper
	CaseTitle
)

// SmartJoinCase selects the per-token case applied during SmartJoin.
type SmartJoinCase int

const (
	SmartJoinPreserve SmartJoinCase = iota
	SmartJoinLower
	SmartJoinUpper
	SmartJoinTitle
	SmartJoinCamel
)

// SmartJoinSpec configures SmartJoin.
type SmartJoinSpec struct {
	Case      SmartJoinCase
	Separator string
}

// ReplacePair is one FROM:TO substitution.
type ReplacePair struct {
	From string
	To   string
}

// Manipulation is the parsed form of a wordlist manipulation pipeline
// string such as:
//
//	smart,smartjoin=l:_,lower,replace=..%2f:../,prefix=/,suffix=/,unique,sort
type Manipulation struct {
	Sort      bool
	Unique    bool
	Reverse   bool
	Case      WordCase
	Prefix    string
	Suffix    string
	Replace   []ReplacePair
	Smart     bool
	SmartJoin *SmartJoinSpec
}

// ParseManipulation parses the comma-separated manipulation pipeline
// grammar. Unknown keys and conflicting case selections are rejected.
func ParseManipulation(value string) (Manipulation, error) {
	var m Manipulation
	value = strings.TrimSpace(value)
	if value == "" {
		return m, nil
	}

	caseSet := false
	setCase := func(c WordCase) error {
		if caseSet {
			return fmt.Errorf("wordlist manipulation: conflicting case directives")
		}
		caseSet = true
		m.Case = c
		return nil
	}

	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key := tok
		val := ""
		if idx := strings.Index(tok, "="); idx >= 0 {
			key = tok[:idx]
			val = tok[idx+1:]
		}
		key = strings.ToLower(strings.TrimSpace(key))

		switch key {
		case "sort":
			m.Sort = true
		case "unique", "uniq":
			m.Unique = true
		case "reverse", "rev":
			m.Reverse = true
		case "lower":
			if err := setCase(CaseLower); err != nil {
				return Manipulation{}, err
			}
		case "upper":
			if err := setCase(CaseUpper); err != nil {
				return Manipulation{}, err
			}
		case "title":
			if err := setCase(CaseTitle); err != nil {
				return Manipulation{}, err
			}
		case "prefix":
			m.Prefix = val
		case "suffix":
			m.Suffix = val
		case "replace":
			pair, err := parseReplaceSpec(val)
			if err != nil {
				return Manipulation{}, err
			}
			m.Replace = append(m.Replace, pair)
		case "smart":
			m.Smart = true
		case "smartjoin":
			spec, err := parseSmartJoinSpec(val)
			if err != nil {
				return Manipulation{}, err
			}
			m.SmartJoin = &spec
		default:
			return Manipulation{}, fmt.Errorf("wordlist manipulation: unknown directive %q", key)
		}
	}

	return m, nil
}

func parseReplaceSpec(value string) (ReplacePair, error) {
	idx := strings.Index(value, ":")
	if idx < 0 {
		return ReplacePair{}, fmt.Errorf("wordlist manipulation: replace= requires FROM:TO, got %q", value)
	}
	from := value[:idx]
	to := value[idx+1:]
	if from == "" {
		return ReplacePair{}, fmt.Errorf("wordlist manipulation: replace= FROM must be non-empty")
	}
	return ReplacePair{From: from, To: to}, nil
}

func parseSmartJoinSpec(value string) (SmartJoinSpec, error) {
	idx := strings.Index(value, ":")
	caseStr := value
	sep := ""
	if idx >= 0 {
		caseStr = value[:idx]
		sep = value[idx+1:]
	}
	var c SmartJoinCase
	switch strings.ToLower(caseStr) {
	case "":
		c = SmartJoinPreserve
	case "c":
		c = SmartJoinCamel
	case "l":
		c = SmartJoinLower
	case "u":
		c = SmartJoinUpper
	case "t":
		c = SmartJoinTitle
	default:
		return SmartJoinSpec{}, fmt.Errorf("wordlist manipulation: unknown smartjoin case %q", caseStr)
	}
	return SmartJoinSpec{Case: c, Separator: sep}, nil
}

// SmartBreak tokenizes input on whitespace/underscore/hyphen/dot
// separators and on case/alpha-digit boundary transitions (lower→upper,
// an acronym's final letter before a lowercase continuation, alpha→digit,
// digit→alpha).
func SmartBreak(input string) []string {
	runes := []rune(input)
	var tokens []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = nil
		}
	}

	isSeparator := func(r rune) bool {
		return r == ' ' || r == '\t' || r == '_' || r == '-' || r == '.'
	}

	class := func(r rune) int {
		switch {
		case unicode.IsUpper(r):
			return 2
		case unicode.IsLower(r):
			return 1
		case unicode.IsDigit(r):
			return 3
		default:
			return 0
		}
	}

	isAlnum := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

	pureAlnum := true // whether cur so far contains only letters/digits

	for i, r := range runes {
		if isSeparator(r) {
			flush()
			pureAlnum = true
			continue
		}
		if len(cur) > 0 && pureAlnum {
			prevClass := class(cur[len(cur)-1])
			curClass := class(r)
			boundary := false
			switch {
			case prevClass == 1 && curClass == 2:
				boundary = true
			case prevClass == 2 && curClass == 2 && i+1 < len(runes) && class(runes[i+1]) == 1:
				boundary = true
			case (prevClass == 1 || prevClass == 2) && curClass == 3:
				boundary = true
			case prevClass == 3 && (curClass == 1 || curClass == 2):
				boundary = true
			}
			if boundary {
				flush()
				pureAlnum = true
			}
		}
		cur = append(cur, r)
		pureAlnum = pureAlnum && isAlnum(r)
	}
	flush()
	return tokens
}

// titleASCII uppercases the first rune and lowercases the rest.
func titleASCII(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	first := unicode.ToUpper(r[0])
	rest := strings.ToLower(string(r[1:]))
	return string(first) + rest
}

// SmartJoin maps each token per spec.Case and joins with spec.Separator.
func SmartJoin(tokens []string, spec SmartJoinSpec) string {
	mapped := make([]string, len(tokens))
	for i, tok := range tokens {
		switch spec.Case {
		case SmartJoinLower:
			mapped[i] = strings.ToLower(tok)
		case SmartJoinUpper:
			mapped[i] = strings.ToUpper(tok)
		case SmartJoinTitle:
			mapped[i] = titleASCII(tok)
		case SmartJoinCamel:
			if i == 0 {
				mapped[i] = strings.ToLower(tok)
			} else {
				mapped[i] = titleASCII(tok)
			}
		default:
			mapped[i] = tok
		}
	}
	return strings.Join(mapped, spec.Separator)
}

// ApplyManipulations runs the full pipeline over words in the fixed order:
// trim+filter-empty, smart-break, smart-join, replace (in order), prefix,
// suffix, case, reverse, trim+filter-empty, then sort+dedup or
// unique-only.
func ApplyManipulations(words []string, m Manipulation) []string {
	out := trimNonEmpty(words)

	if m.Smart {
		broken := make([]string, 0, len(out))
		for _, w := range out {
			tokens := SmartBreak(w)
			if len(tokens) == 0 {
				continue
			}
			if m.SmartJoin != nil {
				broken = append(broken, SmartJoin(tokens, *m.SmartJoin))
			} else {
				broken = append(broken, strings.Join(tokens, " "))
			}
		}
		out = broken
	} else if m.SmartJoin != nil {
		joined := make([]string, 0, len(out))
		for _, w := range out {
			joined = append(joined, SmartJoin(SmartBreak(w), *m.SmartJoin))
		}
		out = joined
	}

	for _, pair := range m.Replace {
		for i, w := range out {
			out[i] = strings.ReplaceAll(w, pair.From, pair.To)
		}
	}

	if m.Prefix != "" {
		for i, w := range out {
			out[i] = m.Prefix + w
		}
	}
	if m.Suffix != "" {
		for i, w := range out {
			out[i] = w + m.Suffix
		}
	}

	switch m.Case {
	case CaseLower:
		for i, w := range out {
			out[i] = strings.ToLower(w)
		}
	case CaseUpper:
		for i, w := range out {
			out[i] = strings.ToUpper(w)
		}
	case CaseTitle:
		for i, w := range out {
			out[i] = titleASCII(w)
		}
	}

	if m.Reverse {
		for i, w := range out {
			out[i] = reverseString(w)
		}
	}

	out = trimNonEmpty(out)

	if m.Sort {
		out = dedupPreserveFirst(out)
		sort.Strings(out)
	} else if m.Unique {
		out = dedupPreserveFirst(out)
	}

	return out
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, w := range in {
		w = strings.TrimSpace(w)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func dedupPreserveFirst(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, w := range in {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// ParseExtensionsCSV strips leading dots and deduplicates case-insensitively
// while preserving each entry's original case in the output.
func ParseExtensionsCSV(csv string) []string {
	seen := map[string]bool{}
	var out []string
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimSpace(tok)
		tok = strings.TrimPrefix(tok, ".")
		if tok == "" {
			continue
		}
		key := strings.ToLower(tok)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tok)
	}
	return out
}

// ApplyExtensions expands words by extension. In dirsearch-compat mode,
// only words containing the "%EXT%" placeholder are expanded (one variant
// per extension, placeholder replaced); in normal mode, "word.ext" is
// appended for each extension unless the word already carries "%EXT%" or
// ends with "/".
func ApplyExtensions(words []string, extensions []string, dirsearchCompat bool) []string {
	if len(extensions) == 0 {
		return words
	}
	var out []string
	for _, w := range words {
		if dirsearchCompat {
			if strings.Contains(w, "%EXT%") {
				for _, ext := range extensions {
					out = append(out, strings.ReplaceAll(w, "%EXT%", ext))
				}
			} else {
				out = append(out, w)
			}
			continue
		}
		if strings.Contains(w, "%EXT%") || strings.HasSuffix(w, "/") {
			out = append(out, w)
			continue
		}
		for _, ext := range extensions {
			out = append(out, w+"."+ext)
		}
	}
	return out
}

// LoadLines reads a file into a slice of non-empty, whitespace-trimmed
// lines — used for both the payload file and the wordlist file.
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return out, nil
}

// LoadDir reads every regular file in dir and concatenates their loaded
// lines, for the --wd option.
func LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading wordlist dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lines, err := LoadLines(dir + "/" + e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}
