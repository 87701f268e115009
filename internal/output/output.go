// Package output renders a finished ScanResult as text, JSON, XML, or a
// self-contained HTML report, chosen by explicit format or by output
// filename suffix.
//
// Grounded on the format-selection-by-flag-or-suffix shape of the report
// writer this module was distilled from; implemented here with the
// standard library's encoding/json, encoding/xml, and text/template,
// since no example repo in the pack carries a templating engine better
// suited to a single self-contained report page.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/ethicalhackingplayground/pathbuster/internal/fingerprint"
	"github.com/ethicalhackingplayground/pathbuster/internal/traverse"
)

// Format identifies an output renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatHTML Format = "html"
)

// Record is the flat, serializable projection of one traverse.Match used
// by every renderer.
type Record struct {
	BaseURL     string `json:"base_url" xml:"base_url"`
	ResultURL   string `json:"result_url" xml:"result_url"`
	Payload     string `json:"payload_original" xml:"payload_original"`
	Mutated     string `json:"payload_mutated" xml:"payload_mutated"`
	Family      string `json:"payload_family" xml:"payload_family"`
	Depth       int    `json:"depth" xml:"depth"`
	Status      int    `json:"status" xml:"status"`
	Title       string `json:"title" xml:"title"`
	Size        int    `json:"size" xml:"size"`
	Words       int    `json:"words" xml:"words"`
	Lines       int    `json:"lines" xml:"lines"`
	Server      string `json:"server,omitempty" xml:"server,omitempty"`
	ContentType string `json:"content_type,omitempty" xml:"content_type,omitempty"`
}

// Report is the full document any renderer serializes.
type Report struct {
	XMLName          xml.Name                                     `json:"-" xml:"pathbuster_report"`
	ElapsedMs        int64                                        `json:"elapsed_ms" xml:"elapsed_ms"`
	Fingerprints     map[string]fingerprint.TargetFingerprint     `json:"fingerprints" xml:"-"`
	WordlistsLoaded  []string                                     `json:"wordlists_loaded" xml:"wordlists_loaded>path"`
	Matches          []Record                                     `json:"matches" xml:"matches>match"`
	DiscoveredRoutes []string                                     `json:"discovered_routes" xml:"discovered_routes>route"`
}

// NewReport projects a set of matches plus run metadata into a Report.
func NewReport(elapsed time.Duration, fingerprints map[string]fingerprint.TargetFingerprint, wordlistsLoaded []string, matches []traverse.Match, discoveredRoutes []string) Report {
	records := make([]Record, 0, len(matches))
	for _, m := range matches {
		records = append(records, Record{
			BaseURL:     m.BaseURL,
			ResultURL:   m.ResultURL,
			Payload:     m.PayloadOriginal,
			Mutated:     m.PayloadMutated,
			Family:      string(m.PayloadFamily),
			Depth:       m.Depth,
			Status:      m.Status,
			Title:       m.Title,
			Size:        m.Size,
			Words:       m.Words,
			Lines:       m.Lines,
			Server:      m.Server,
			ContentType: m.ContentType,
		})
	}
	return Report{
		ElapsedMs:        elapsed.Milliseconds(),
		Fingerprints:     fingerprints,
		WordlistsLoaded:  wordlistsLoaded,
		Matches:          records,
		DiscoveredRoutes: discoveredRoutes,
	}
}

// Renderer writes a Report to w in its own format.
type Renderer interface {
	Render(w io.Writer, report Report) error
}

// ParseFormat parses an explicit --of value, accepting "txt"
// as an alias for text and "htm" as an alias for html.
func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "text", "txt":
		return FormatText, true
	case "json":
		return FormatJSON, true
	case "xml":
		return FormatXML, true
	case "html", "htm":
		return FormatHTML, true
	default:
		return "", false
	}
}

// FormatFromPath infers a Format from a filename's suffix, returning ok =
// false for an unrecognized or absent suffix.
func FormatFromPath(path string) (Format, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, true
	case strings.HasSuffix(lower, ".xml"):
		return FormatXML, true
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return FormatHTML, true
	case strings.HasSuffix(lower, ".txt"):
		return FormatText, true
	default:
		return "", false
	}
}

// RendererFor resolves a Renderer for the given format, defaulting to
// text when format is empty.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case "", FormatText:
		return textRenderer{}, nil
	case FormatJSON:
		return jsonRenderer{}, nil
	case FormatXML:
		return xmlRenderer{}, nil
	case FormatHTML:
		return htmlRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// WriteToFile resolves the renderer for format (or, if format is empty,
// infers it from path's suffix) and writes report to path.
func WriteToFile(path string, format Format, report Report) error {
	if format == "" {
		if inferred, ok := FormatFromPath(path); ok {
			format = inferred
		}
	}
	renderer, err := RendererFor(format)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", path, err)
	}
	defer f.Close()
	return renderer.Render(f, report)
}

type textRenderer struct{}

func (textRenderer) Render(w io.Writer, report Report) error {
	for _, m := range report.Matches {
		if _, err := fmt.Fprintln(w, m.ResultURL); err != nil {
			return err
		}
	}
	for _, route := range report.DiscoveredRoutes {
		if _, err := fmt.Fprintln(w, route); err != nil {
			return err
		}
	}
	return nil
}

type jsonRenderer struct{}

func (jsonRenderer) Render(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

type xmlRenderer struct{}

func (xmlRenderer) Render(w io.Writer, report Report) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(report)
}

var htmlReportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>pathbuster report</title>
<style>
body { font-family: monospace; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #eee; cursor: pointer; }
tr:nth-child(even) { background: #fafafa; }
</style>
</head>
<body>
<h1>pathbuster report</h1>
<p>elapsed: {{.ElapsedMs}}ms, matches: {{len .Matches}}, discovered routes: {{len .DiscoveredRoutes}}</p>
<table id="matches">
<thead><tr><th>base_url</th><th>result_url</th><th>payload</th><th>depth</th><th>status</th><th>title</th><th>size</th></tr></thead>
<tbody>
{{range .Matches}}<tr><td>{{.BaseURL}}</td><td>{{.ResultURL}}</td><td>{{.Mutated}}</td><td>{{.Depth}}</td><td>{{.Status}}</td><td>{{.Title}}</td><td>{{.Size}}</td></tr>
{{end}}
</tbody>
</table>
<h2>discovered routes</h2>
<ul>
{{range .DiscoveredRoutes}}<li>{{.}}</li>
{{end}}
</ul>
<script>
document.querySelectorAll('#matches th').forEach(function (th, idx) {
  th.addEventListener('click', function () {
    var tbody = th.closest('table').querySelector('tbody');
    var rows = Array.from(tbody.querySelectorAll('tr'));
    rows.sort(function (a, b) {
      return a.children[idx].textContent.localeCompare(b.children[idx].textContent);
    });
    rows.forEach(function (r) { tbody.appendChild(r); });
  });
});
</script>
</body>
</html>
`))

type htmlRenderer struct{}

func (htmlRenderer) Render(w io.Writer, report Report) error {
	var buf bytes.Buffer
	if err := htmlReportTemplate.Execute(&buf, report); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// SortedFingerprintHosts returns the fingerprint map's keys sorted, for
// deterministic text-mode diagnostics output.
func SortedFingerprintHosts(fingerprints map[string]fingerprint.TargetFingerprint) []string {
	hosts := make([]string, 0, len(fingerprints))
	for h := range fingerprints {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}
