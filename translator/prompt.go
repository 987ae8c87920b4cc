package translator

import (
	"fmt"
	"strings"

	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/schema"
)

// ============================================================================
// PROMPT BUILDER — Dataset-driven prompts for proposals, code, commentary
// ============================================================================
// The model sees metadata and a capped sample, never the full table:
//   - schema summary (name:kind:example, column count capped)
//   - column type map
//   - first N rows as aligned text
//   - describe-style statistics for numeric columns
// ============================================================================

// Token budgets per request kind.
const (
	proposalMaxTokens  = 4000
	codeMaxTokens      = 2000
	interpretMaxTokens = 1500

	interpretTemperature = 0.3
)

// SystemPrompt frames every request.
const SystemPrompt = `You are a senior data analyst with 15+ years of experience in data visualization and business intelligence.

Your role is to:
1. Analyze datasets comprehensively
2. Propose the MOST RELEVANT visualizations based on data characteristics
3. Provide deep, actionable insights like a senior analyst would
4. Consider business context and practical implications

Guidelines:
- Propose 3-5 different visualizations that tell a complete story
- Each visualization should reveal a different aspect of the data
- Prioritize clarity and business value over complexity
- Only reference columns that exist in the dataset
- Include detailed interpretations with specific numbers
- Suggest actionable recommendations`

// Caps bounds how much of a table goes into a request.
type Caps struct {
	MaxRows       int
	MaxCols       int
	MaxExampleLen int
}

// BuildRequest assembles the dataset context for a question.
func BuildRequest(t *engine.Table, question string, caps Caps) Request {
	stats := schema.Describe(t)
	if stats == "" {
		stats = "No numeric columns."
	}
	return Request{
		Context:      question,
		Schema:       schema.Summary(t, caps.MaxCols, caps.MaxExampleLen),
		ColumnTypes:  schema.ColumnTypesText(t),
		ColumnRoles:  schema.Discover(t, "").Text(),
		SampleData:   engine.SampleText(t, caps.MaxRows),
		StatsSummary: stats,
	}
}

// ============================================================================
// PROPOSALS
// ============================================================================

// BuildProposalPrompt asks for 3-5 proposal records as a JSON array.
func BuildProposalPrompt(req Request, temperature float64) Prompt {
	var b strings.Builder

	b.WriteString("Analyze this dataset and propose the most relevant visualizations.\n\n")
	writeSection(&b, "Dataset Context", orDefault(req.Context, "No specific context provided"))
	writeSection(&b, "Dataset Schema", req.Schema)
	writeSection(&b, "Column Types", req.ColumnTypes)
	if req.ColumnRoles != "" {
		writeSection(&b, "Column Roles", req.ColumnRoles)
	}
	writeSection(&b, "Sample Data", req.SampleData)
	writeSection(&b, "Statistical Summary", req.StatsSummary)

	b.WriteString(`**Your Task:**
As a senior data analyst, propose 3-5 visualizations that would provide the most valuable insights from this data.

Return your response as a JSON array with this structure:
` + "```json" + `
[
  {
    "id": 1,
    "title": "...",
    "chart_type": "` + joinTypes(engine.ChartTypes) + `",
    "x": "column_name",
    "y": "column_name_or_null",
    "color": "column_name_or_null",
    "aggregation": "` + joinTypes(engine.Aggregations) + `",
    "filters": [{"col": "...", "op": "` + joinTypes(engine.FilterOps) + `", "value": "..."}],
    "reasoning": "Short business justification (1-3 sentences)",
    "interpretation": "Detailed analysis with specific insights (3-5 sentences)",
    "recommendations": "Actionable next steps based on findings",
    "formatting": {"x_label": "...", "y_label": "...", "sort": "asc|desc|null", "top_k": 20}
  }
]
` + "```" + `

Every record must satisfy this JSON Schema:
`)
	b.WriteString(ProposalSchemaJSON)
	b.WriteString(`

Constraints:
- Use ONLY the column names listed in the schema
- The proposals must be genuinely different (comparison, relationship, distribution, trend)
- scatter: x and y numeric where possible
- bar/line with y: choose a suitable aggregation
- heatmap: both x and y are required
- "in" filters take a list value; the other operators take a single value

Return ONLY the JSON array, no additional text.
`)

	return Prompt{
		System:      SystemPrompt,
		User:        b.String(),
		MaxTokens:   proposalMaxTokens,
		Temperature: temperature,
	}
}

// ============================================================================
// CODE
// ============================================================================

// BuildCodePrompt asks for one self-contained program in the sandbox's
// language that prints a figure as JSON.
func BuildCodePrompt(req Request, question, language string, temperature float64) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %s code to create a visualization that answers this question:\n\n", language)
	writeSection(&b, "Question", question)
	writeSection(&b, "Dataset Schema", req.Schema)
	writeSection(&b, "Column Types", req.ColumnTypes)
	writeSection(&b, "Sample Data", req.SampleData)

	fmt.Fprintf(&b, `Requirements:
1. Create ONE visualization
2. Read the dataset from /data/data.csv (CSV with a header row)
3. Only the standard library is available; there is no network and no other file access
4. Apply appropriate aggregations if needed
5. Print exactly one JSON object to standard output with this shape:
   {"chartType": "%s", "title": "...", "xLabel": "...", "yLabel": "...",
    "series": [{"name": "...", "points": [{"x": ..., "y": ...}]}]}

Return ONLY the %s code, no explanations.
`, joinTypes(engine.ChartTypes), language)

	return Prompt{
		System:      SystemPrompt,
		User:        b.String(),
		MaxTokens:   codeMaxTokens,
		Temperature: temperature,
	}
}

// ============================================================================
// INTERPRETATION
// ============================================================================

// BuildInterpretPrompt asks for commentary on one rendered chart.
func BuildInterpretPrompt(title string, chartType engine.ChartType, dataSummary, context string) Prompt {
	user := fmt.Sprintf(`Provide a comprehensive analysis of this visualization:

**Visualization**: %s (%s)
**Context**: %s
**Data Summary**: %s

Provide:
1. **Key Findings** (3-5 specific insights with numbers)
2. **Interpretation** (What does this mean for the business/domain?)
3. **Recommendations** (2-3 actionable next steps)

Be specific, use data points, and think like a senior analyst presenting to stakeholders.

Return as JSON:
{
  "interpretation": "...",
  "recommendations": "..."
}
`, title, chartType, orDefault(context, "General data analysis"), dataSummary)

	return Prompt{
		System:      SystemPrompt,
		User:        user,
		MaxTokens:   interpretMaxTokens,
		Temperature: interpretTemperature,
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func writeSection(b *strings.Builder, heading, body string) {
	fmt.Fprintf(b, "**%s:**\n%s\n\n", heading, strings.TrimSpace(body))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinTypes[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}
