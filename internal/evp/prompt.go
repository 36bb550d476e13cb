package evp

import (
	"strings"
	"text/template"
)

// SystemPrompt frames the model for every generation.
const SystemPrompt = "You analyze company materials to craft EVPs."

// Temperature is kept low: the report should restate evidence, not invent it.
const Temperature = 0.3

var promptTmpl = template.Must(template.New("evp").Parse(`You are a communications strategist. Use the provided research snippets to craft an
Employee Value Proposition (EVP) for {{.Company}}. Only reference the given context -
do not invent information or rely on prohibited sources such as Wikipedia or blogs.

Structure your analysis using the following dimensions:
{{- range .Dimensions}}
- {{.Name}}:
{{- range .Questions}}
  * {{.}}
{{- end}}
{{- end}}

Requirements:
- Synthesize evidence from company website, press releases, Glassdoor, and reports.
- Highlight proof points, differentiators, and any notable gaps per dimension.
- Keep each answer concise (2-3 sentences per bullet) but specific.
- Provide recommendations or open questions if information is missing.
- Present the final answer as markdown with a level-3 heading per dimension followed
  by bullet points answering the guiding questions.

Context:
{{.Context}}`))

// BuildPrompt renders the user prompt for a company and its compiled context.
func BuildPrompt(company, context string) string {
	var b strings.Builder
	// The template is static and its inputs are plain strings.
	_ = promptTmpl.Execute(&b, struct {
		Company    string
		Context    string
		Dimensions []Dimension
	}{company, context, dimensions})
	return strings.TrimSpace(b.String())
}
