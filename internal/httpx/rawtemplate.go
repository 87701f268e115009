package httpx

import (
	"fmt"
	"strings"
)

// headerField is one ordered header in a raw request template.
type headerField struct {
	Name  string
	Value string
}

// RawTemplate is a parsed HTTP/1.x request blueprint with "*" injection
// markers in the request-target, any header value, or the body. It is
// immutable after construction.
type RawTemplate struct {
	Method  string
	Target  string
	Version string
	Headers []headerField
	Body    string

	injectionCount int
}

// Rendered is the output of RawTemplate.Render.
type Rendered struct {
	Method  string
	URL     string
	Headers []headerField
	Body    string
}

// ParseRawTemplate parses raw HTTP/1.x request text into a RawTemplate.
func ParseRawTemplate(raw string) (*RawTemplate, error) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("raw request template: empty request line")
	}

	requestLine := strings.Fields(lines[0])
	if len(requestLine) < 2 {
		return nil, fmt.Errorf("raw request template: malformed request line %q", lines[0])
	}
	method := requestLine[0]
	target := requestLine[1]
	version := "HTTP/1.1"
	if len(requestLine) >= 3 {
		version = requestLine[2]
	}

	var headers []headerField
	i := 1
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			i++
			break
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, fmt.Errorf("raw request template: malformed header line %q", line)
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		headers = append(headers, headerField{Name: name, Value: value})
	}

	body := ""
	if i < len(lines) {
		body = strings.Join(lines[i:], "\n")
	}

	t := &RawTemplate{
		Method:  method,
		Target:  target,
		Version: version,
		Headers: headers,
		Body:    body,
	}
	t.injectionCount = strings.Count(target, "*")
	for _, h := range headers {
		t.injectionCount += strings.Count(h.Value, "*")
	}
	t.injectionCount += strings.Count(body, "*")

	return t, nil
}

// InjectionPointCount reports how many "*" injection points were found
// across the request-line, headers, and body, in parse order.
func (t *RawTemplate) InjectionPointCount() int {
	return t.injectionCount
}

// Render substitutes only the pointIndex-th "*" (0-based, in parse order
// across request-target, then headers, then body) with value; every other
// "*" remains literal.
func (t *RawTemplate) Render(baseURL string, pointIndex int, value string) (*Rendered, error) {
	if pointIndex < 0 || pointIndex >= t.injectionCount {
		return nil, fmt.Errorf("raw request template: injection point %d out of range (have %d)", pointIndex, t.injectionCount)
	}

	counter := 0
	target := substituteNth(t.Target, pointIndex, value, &counter)

	renderedHeaders := make([]headerField, 0, len(t.Headers))
	for _, h := range t.Headers {
		renderedHeaders = append(renderedHeaders, headerField{
			Name:  h.Name,
			Value: substituteNth(h.Value, pointIndex, value, &counter),
		})
	}

	body := substituteNth(t.Body, pointIndex, value, &counter)

	url := strings.TrimRight(baseURL, "/") + ensureLeadingSlash(target)

	return &Rendered{
		Method:  t.Method,
		URL:     url,
		Headers: renderedHeaders,
		Body:    body,
	}, nil
}

func ensureLeadingSlash(target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	return "/" + target
}

// substituteNth replaces the occurrence of "*" in s whose global position
// (tracked via counter, shared across sequential calls over the whole
// template) equals pointIndex, leaving all other "*" literal.
func substituteNth(s string, pointIndex int, value string, counter *int) string {
	if !strings.Contains(s, "*") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '*' {
			if *counter == pointIndex {
				sb.WriteString(value)
			} else {
				sb.WriteByte('*')
			}
			*counter++
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// InferTargetURL derives scheme://host + path-prefix (everything up to the
// first injection marker, query stripped) from a raw template's Host
// header and request-target, for callers that supply only a raw template
// with no explicit --url.
func InferTargetURL(t *RawTemplate) (string, error) {
	host := ""
	for _, h := range t.Headers {
		if strings.EqualFold(h.Name, "host") {
			host = h.Value
			break
		}
	}
	if host == "" {
		return "", fmt.Errorf("raw request template: no Host header to infer target URL from")
	}

	target := t.Target
	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		target = target[:idx]
	}
	if idx := strings.IndexByte(target, '*'); idx >= 0 {
		target = target[:idx]
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	if target == "" {
		target = "/"
	}

	return "https://" + host + target, nil
}
