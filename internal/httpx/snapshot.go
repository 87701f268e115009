package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Snapshot is the result of one HTTP round trip.
type Snapshot struct {
	Depth      int
	Status     int
	Headers    map[string]string // lowercased keys, verbatim values
	Title      string
	BodySample string // first 32768 runes of the decoded body
	BodyLen    int    // true byte count
	DurationMs int64
}

const maxBodySampleRunes = 32768

var titleRegexp = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// DescriptorKind tags the two shapes a request source can take.
type DescriptorKind int

const (
	DescriptorURL DescriptorKind = iota
	DescriptorRaw
)

// Descriptor is the polymorphic request source consumed by FetchSnapshot:
// either a direct URL+method, or a raw-request template rendered at a
// specific injection point.
type Descriptor struct {
	Kind DescriptorKind

	// DescriptorURL fields.
	URL    string
	Method string

	// DescriptorRaw fields.
	BaseURL             string
	Template            *RawTemplate
	InjectionPointIndex int
	InjectionValue      string
	MethodOverride      string
}

// FetchSnapshot executes the described request and builds a Snapshot.
// Failures of request-build, transport, or body-read return (nil, false)
// rather than propagating an error — "no snapshot" is a normal outcome in
// the traversal/bruteforce loops, which simply continue.
func FetchSnapshot(ctx context.Context, client *http.Client, desc Descriptor, callerHeader string, depth int) (*Snapshot, bool) {
	var (
		method string
		url    string
		hdrs   []headerField
		body   string
	)

	switch desc.Kind {
	case DescriptorURL:
		method = desc.Method
		url = desc.URL
	case DescriptorRaw:
		rendered, err := desc.Template.Render(desc.BaseURL, desc.InjectionPointIndex, desc.InjectionValue)
		if err != nil {
			return nil, false
		}
		method = rendered.Method
		if desc.MethodOverride != "" {
			method = desc.MethodOverride
		}
		url = rendered.URL
		hdrs = rendered.Headers
		body = rendered.Body
	default:
		return nil, false
	}

	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return nil, false
	}

	for _, h := range hdrs {
		if strings.EqualFold(h.Name, "content-length") {
			continue
		}
		req.Header.Set(h.Name, h.Value)
	}

	if callerHeader != "" {
		name, value, ok := splitCallerHeader(callerHeader)
		if !ok {
			return nil, false
		}
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	elapsed := time.Since(start)

	headers := map[string]string{}
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}

	bodySample := truncateRunes(string(raw), maxBodySampleRunes)
	title := firstTitleCapture(bodySample)

	return &Snapshot{
		Depth:      depth,
		Status:     resp.StatusCode,
		Headers:    headers,
		Title:      title,
		BodySample: bodySample,
		BodyLen:    len(raw),
		DurationMs: elapsed.Milliseconds(),
	}, true
}

func splitCallerHeader(h string) (name, value string, ok bool) {
	idx := strings.Index(h, ":")
	if idx < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(h[:idx])
	value = strings.TrimSpace(h[idx+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		// Fast path: byte length already within bound implies rune count is too.
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func firstTitleCapture(body string) string {
	m := titleRegexp.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Diff reports which dimensions changed between two snapshots, for
// verbose diagnostics. It never gates whether a match is emitted — that is
// governed solely by the similarity-engine predicate.
func Diff(current, previous *Snapshot, sift3InRange func(a, b string) (bool, float64)) string {
	if current == nil || previous == nil {
		return ""
	}
	var changed []string
	if current.Status != previous.Status {
		changed = append(changed, fmt.Sprintf("status:%d->%d", previous.Status, current.Status))
	}
	for _, h := range []string{"server", "content-type", "location", "www-authenticate"} {
		if current.Headers[h] != previous.Headers[h] {
			changed = append(changed, fmt.Sprintf("%s changed", h))
		}
	}
	if current.BodyLen != previous.BodyLen {
		changed = append(changed, fmt.Sprintf("body_len:%d->%d", previous.BodyLen, current.BodyLen))
	}
	if sift3InRange != nil {
		if ok, d := sift3InRange(current.BodySample, previous.BodySample); ok {
			changed = append(changed, fmt.Sprintf("body changed (sift3=%.1f)", d))
		}
	}
	if abs64(current.DurationMs-previous.DurationMs) >= 250 {
		changed = append(changed, "timing shifted >=250ms")
	}
	if len(changed) == 0 {
		return ""
	}
	return strings.Join(changed, ", ")
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
