package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/FranksOps/evp/internal/pipeline"
	"github.com/FranksOps/evp/internal/source"
	"github.com/yuin/goldmark"
)

// CategoryCount is the number of documents captured for one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary contains aggregated figures about a run.
type Summary struct {
	Company        string          `json:"company"`
	RunID          string          `json:"run_id"`
	TotalDocuments int             `json:"total_documents"`
	ByCategory     []CategoryCount `json:"by_category"`
	ContextChars   int             `json:"context_chars"`
	ReportChars    int             `json:"report_chars"`
}

// GenerateSummary counts the documents of a run per category, listing every
// category even when it captured nothing.
func GenerateSummary(res *pipeline.Result) Summary {
	s := Summary{
		Company:      res.Company,
		RunID:        res.RunID,
		ContextChars: utf8.RuneCountInString(res.Context),
		ReportChars:  utf8.RuneCountInString(res.Report),
	}

	counts := make(map[source.Category]int)
	for _, d := range res.Documents {
		counts[d.Category]++
		s.TotalDocuments++
	}
	for _, c := range source.Categories() {
		s.ByCategory = append(s.ByCategory, CategoryCount{Category: c.String(), Count: counts[c]})
	}
	return s
}

// NoSourcesWarning is shown whenever a run captured nothing.
const NoSourcesWarning = "No supporting documents were captured. Please verify the inputs."

// WriteMarkdown writes the report followed by a numbered source list.
func WriteMarkdown(w io.Writer, res *pipeline.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# EVP: %s\n\n", res.Company)
	b.WriteString(strings.TrimSpace(res.Report))
	b.WriteString("\n\n## Sources\n\n")
	if len(res.Documents) == 0 {
		b.WriteString("_" + NoSourcesWarning + "_\n")
	}
	for i, d := range res.Documents {
		fmt.Fprintf(&b, "%d. %s: <%s>\n", i+1, d.Category, d.URL)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// WriteJSON writes the full result and its summary in JSON format.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	payload := struct {
		*pipeline.Result
		Summary Summary `json:"summary"`
	}{res, GenerateSummary(res)}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteSourcesCSV writes one row per document.
func WriteSourcesCSV(w io.Writer, docs []source.Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "category", "url", "content_chars", "content"}); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for i, d := range docs {
		row := []string{
			strconv.Itoa(i + 1),
			d.Category.String(),
			d.URL,
			strconv.Itoa(utf8.RuneCountInString(d.Content)),
			d.Content,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// RenderMarkdown converts model output to HTML. Raw HTML inside the markdown
// is not passed through.
func RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>EVP: {{.Summary.Company}}</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; max-width: 960px; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 12px 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; }
  .stat-val { font-size: 20px; font-weight: bold; }
  .warning { padding: 12px; background: #fff4e5; border-left: 4px solid #f0a020; }
  details { margin: 8px 0; padding: 8px 12px; border: 1px solid #ddd; border-radius: 4px; }
  summary { cursor: pointer; font-weight: bold; }
</style>
</head>
<body>
  <h1>Employee Value Proposition: {{.Summary.Company}}</h1>
  {{- if .BackLink}}
  <p><a href="{{.BackLink}}">&larr; New analysis</a></p>
  {{- end}}

  {{- range .Summary.ByCategory}}
  <div class="stat-card">
    <div>{{.Category}}</div>
    <div class="stat-val">{{.Count}}</div>
  </div>
  {{- end}}

  <h2>EVP Summary</h2>
  {{.ReportHTML}}

  <h2>Sources</h2>
  {{- range .Documents}}
  <details>
    <summary>{{.Category}}: {{.URL}}</summary>
    <p>{{.Content}}</p>
  </details>
  {{- else}}
  <p class="warning">{{.Warning}}</p>
  {{- end}}
</body>
</html>
`

var pageTmpl = template.Must(template.New("htmlReport").Parse(htmlTmpl))

// WriteHTML writes a standalone HTML page with the rendered report and each
// source in its own collapsible block. backLink, when set, is shown as a link
// to start another analysis.
func WriteHTML(w io.Writer, res *pipeline.Result, backLink string) error {
	rendered, err := RenderMarkdown(res.Report)
	if err != nil {
		return err
	}

	data := struct {
		Summary    Summary
		ReportHTML template.HTML
		Documents  []source.Document
		Warning    string
		BackLink   string
	}{
		Summary:    GenerateSummary(res),
		ReportHTML: rendered,
		Documents:  res.Documents,
		Warning:    NoSourcesWarning,
		BackLink:   backLink,
	}

	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}
