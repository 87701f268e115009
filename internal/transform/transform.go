// Package transform expands a single traversal token (e.g. "../") into a
// deduplicated family of WAF-aware encoded variants.
package transform

import (
	"fmt"
	"strings"
	"sync"
)

// Family is a stable tag identifying a class of payload mutation.
type Family string

const (
	FamilyBaseline            Family = "baseline"
	FamilyURLEncode           Family = "urlencode"
	FamilyURLEncodeMin        Family = "urlencode_min"
	FamilyDoubleEncode        Family = "double_encode"
	FamilyTripleEncode        Family = "triple_encode"
	FamilyMixedCase           Family = "mixed_case"
	FamilyMixedPercent        Family = "mixed_percent"
	FamilySeparator           Family = "separator"
	FamilySegmentConfusion    Family = "segment_confusion"
	FamilyPathParams          Family = "path_params"
	FamilyBackslash           Family = "backslash"
	FamilySeparatorMixed      Family = "separator_mixed"
	FamilySlashBackslash      Family = "slash_backslash"
	FamilyOverlongUTF8        Family = "overlong_utf8"
	FamilyUnicodeU            Family = "unicode_u"
	FamilyNullByte            Family = "null_byte"
	FamilyDotsOnly            Family = "dots_only"
	FamilySlashesOnly         Family = "slashes_only"
	FamilyControlSep          Family = "control_sep"
	FamilyMultiLayerEncoding  Family = "multi_layer_encoding"
	FamilyAdvancedNullByte    Family = "advanced_null_byte"
	FamilyPathNormalization   Family = "path_normalization"
	FamilyMixedSlash          Family = "mixed_slash"
	FamilyProtocolRelative    Family = "protocol_relative"
	FamilyRFC3986EdgeCases    Family = "rfc3986_edge_cases"
	FamilyNone                Family = "none"
)

// TransformedPayload is one generated variant of an original traversal
// token.
type TransformedPayload struct {
	Original string
	Mutated  string
	Family   Family
}

// AttemptSink records every transform attempt for diagnostics. It has no
// effect on scan semantics. nil is a valid, no-op sink.
type AttemptSink interface {
	Log(family Family, original, mutated string)
}

// sliceSink is a simple mutex-guarded append-only log, used as the
// package-level default sink (mirroring the original's global
// bypass-attempt log).
type sliceSink struct {
	mu      sync.Mutex
	entries []string
}

func (s *sliceSink) Log(family Family, original, mutated string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, fmt.Sprintf("[%s] %s -> %s", family, original, mutated))
}

// Entries returns a snapshot of everything logged so far.
func (s *sliceSink) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear empties the log.
func (s *sliceSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

var defaultSink = &sliceSink{}

// DefaultSink returns the process-wide attempt sink. GeneratePayloads only
// logs to the sink passed to it; a nil sink logs nothing.
func DefaultSink() *sliceSink { return defaultSink }

// level1Families are the baseline aggressiveness-1 family set.
var level1Families = []Family{FamilyURLEncode, FamilyURLEncodeMin, FamilySeparator, FamilyMixedPercent}

// level2Families are appended to level1 at aggressiveness ≥ 2.
var level2Families = []Family{
	FamilyMixedCase, FamilyDoubleEncode, FamilyTripleEncode, FamilyPathParams,
	FamilyBackslash, FamilySeparatorMixed, FamilySlashBackslash, FamilyOverlongUTF8,
	FamilyUnicodeU, FamilyNullByte, FamilyDotsOnly, FamilySlashesOnly, FamilyControlSep,
}

// level3Families are appended to level2 at aggressiveness ≥ 3.
var level3Families = []Family{
	FamilyMultiLayerEncoding, FamilyAdvancedNullByte, FamilyPathNormalization,
	FamilyMixedSlash, FamilyProtocolRelative, FamilyRFC3986EdgeCases,
}

// wafFamilyTable gives the base family set per fingerprinted WAF (unknown
// names use "default"). familiesForWAF appends the level-2 and level-3
// families at those levels; the level-1 defaults are not added.
var wafFamilyTable = map[string][]Family{
	"cloudflare": {FamilySeparator, FamilySegmentConfusion, FamilyURLEncode, FamilyURLEncodeMin, FamilyMixedPercent},
	"aws waf":    {FamilyDoubleEncode, FamilyOverlongUTF8, FamilyUnicodeU, FamilySegmentConfusion},
	"cloudfront": {FamilyDoubleEncode, FamilyOverlongUTF8, FamilyUnicodeU, FamilySegmentConfusion},
	"modsecurity": {FamilyMixedCase, FamilyMixedPercent, FamilySegmentConfusion, FamilyBackslash},
	"default":    {FamilyURLEncode, FamilySeparator, FamilySegmentConfusion},
}

func familiesForWAF(wafName string, level int) []Family {
	key := strings.ToLower(strings.TrimSpace(wafName))
	base, ok := wafFamilyTable[key]
	if !ok {
		base = wafFamilyTable["default"]
	}
	families := append([]Family(nil), base...)
	if level >= 2 {
		families = append(families, level2Families...)
	}
	if level >= 3 {
		families = append(families, level3Families...)
	}
	return families
}

func familiesForLevel(level int) []Family {
	switch {
	case level <= 0:
		return nil
	case level == 1:
		return append([]Family(nil), level1Families...)
	case level == 2:
		out := append([]Family(nil), level1Families...)
		return append(out, level2Families...)
	default: // level >= 3
		out := append([]Family(nil), level1Families...)
		out = append(out, level2Families...)
		return append(out, level3Families...)
	}
}

// ParseFamilies parses a comma-separated, lowercase-normalized forced
// family list.
func ParseFamilies(csv string) []Family {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]Family, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, Family(p))
	}
	return out
}

// computeFamilySet resolves the family set per the forced > per-WAF >
// default-by-level precedence.
func computeFamilySet(wafLabels []string, level int, forced []Family) []Family {
	if len(forced) > 0 {
		out := make([]Family, len(forced))
		for i, f := range forced {
			out[i] = Family(strings.ToLower(string(f)))
		}
		return out
	}
	if len(wafLabels) == 0 {
		return familiesForLevel(level)
	}
	seen := map[Family]bool{}
	var out []Family
	for _, w := range wafLabels {
		for _, f := range familiesForWAF(w, level) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// generator produces zero or more mutated strings for a family, given the
// original token.
type generator func(original string) []string

var generators = map[Family]generator{
	FamilyURLEncode:          urlencodeAll,
	FamilyURLEncodeMin:       urlencodeMinimal,
	FamilyDoubleEncode:       doubleEncode,
	FamilyTripleEncode:       tripleEncode,
	FamilyMixedCase:          mixedCase,
	FamilyMixedPercent:       mixedPercent,
	FamilySeparator:          separator,
	FamilySegmentConfusion:   segmentConfusion,
	FamilyPathParams:         pathParams,
	FamilyBackslash:          backslash,
	FamilySeparatorMixed:     separatorMixed,
	FamilySlashBackslash:     slashBackslashMixed,
	FamilyOverlongUTF8:       overlongUTF8,
	FamilyUnicodeU:           unicodeU,
	FamilyNullByte:           nullByteSuffixes,
	FamilyDotsOnly:           dotsOnly,
	FamilySlashesOnly:        slashesOnly,
	FamilyControlSep:         controlCharSeparators,
	FamilyMultiLayerEncoding: multiLayerEncoding,
	FamilyAdvancedNullByte:   advancedNullByteInjection,
	FamilyPathNormalization:  pathNormalizationAnomalies,
	FamilyMixedSlash:         mixedSlashTechniques,
	FamilyProtocolRelative:   protocolRelativeManipulation,
	FamilyRFC3986EdgeCases:   rfc3986EdgeCases,
}

// GeneratePayloads is the transformer's entry point (C4). It is
// deterministic and side-effect-free except for logging attempts to sink.
func GeneratePayloads(original string, wafLabels []string, level int, forcedFamilies []Family, disableBypass bool, sink AttemptSink) []TransformedPayload {
	if disableBypass || level <= 0 {
		return []TransformedPayload{{Original: original, Mutated: original, Family: FamilyNone}}
	}

	families := computeFamilySet(wafLabels, level, forcedFamilies)

	out := make([]TransformedPayload, 0, len(families)*2+1)
	seen := map[string]bool{}

	emit := func(family Family, mutated string) {
		if mutated == "" {
			return
		}
		if seen[mutated] {
			return
		}
		seen[mutated] = true
		out = append(out, TransformedPayload{Original: original, Mutated: mutated, Family: family})
		if sink != nil {
			sink.Log(family, original, mutated)
		}
	}

	emit(FamilyBaseline, original)

	for _, fam := range families {
		gen, ok := generators[fam]
		if !ok {
			continue
		}
		for _, mutated := range gen(original) {
			emit(fam, mutated)
		}
	}

	return out
}
