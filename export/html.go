package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/ifatmagamha/data-viz/engine"
)

// EChartsCDN is the one script the dashboard loads.
const EChartsCDN = "https://cdn.jsdelivr.net/npm/echarts@5.4.3/dist/echarts.min.js"

// DashboardInput is everything one dashboard page shows.
type DashboardInput struct {
	Title       string
	Question    string
	DatasetName string
	Items       []Item
}

// Item is one chart block. A nil Figure with a non-nil Err is listed as a
// failure.
type Item struct {
	ID              int
	Title           string
	ChartType       engine.ChartType
	Figure          *engine.Figure
	Err             error
	Interpretation  string
	Recommendations string
}

// ItemFrom builds a dashboard item from a render result.
func ItemFrom(r engine.Rendered) Item {
	return Item{
		ID:        r.Proposal.ID,
		Title:     r.Proposal.Title,
		ChartType: r.Proposal.ChartType,
		Figure:    r.Figure,
		Err:       r.Err,
	}
}

type chartView struct {
	DivID           string
	Title           string
	ChartType       string
	Option          template.JS
	Interpretation  string
	Recommendations []string
}

type failureView struct {
	Title     string
	ChartType string
	Error     string
}

// Dashboard writes a self-contained HTML page with one block per chart.
func Dashboard(w io.Writer, in DashboardInput) error {
	tmpl, err := template.New("dashboard").Parse(dashboardTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var charts []chartView
	var failures []failureView
	for i, item := range in.Items {
		if item.Err != nil || item.Figure == nil {
			msg := "no figure"
			if item.Err != nil {
				msg = item.Err.Error()
			}
			failures = append(failures, failureView{Title: item.Title, ChartType: string(item.ChartType), Error: msg})
			continue
		}
		option, err := json.Marshal(EChartsOption(item.Figure))
		if err != nil {
			return fmt.Errorf("failed to marshal chart %q: %w", item.Title, err)
		}
		title := item.Title
		if title == "" {
			title = item.Figure.Title
		}
		charts = append(charts, chartView{
			DivID:           fmt.Sprintf("chart-%d", i+1),
			Title:           title,
			ChartType:       string(item.Figure.ChartType),
			Option:          template.JS(option), //nolint:gosec // marshaled JSON
			Interpretation:  item.Interpretation,
			Recommendations: splitLines(item.Recommendations),
		})
	}

	title := in.Title
	if title == "" {
		title = "Data Visualization Dashboard"
	}
	return tmpl.Execute(w, map[string]any{
		"Title":     title,
		"Question":  in.Question,
		"Dataset":   in.DatasetName,
		"Generated": time.Now().Format("2006-01-02 15:04"),
		"Script":    EChartsCDN,
		"Charts":    charts,
		"Failures":  failures,
	})
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f5f6f8; color: #222; }
header { background: #1f3a5f; color: #fff; padding: 24px 40px; }
header h1 { margin: 0 0 6px 0; font-size: 26px; }
header .meta { opacity: 0.8; font-size: 13px; }
main { max-width: 1100px; margin: 0 auto; padding: 24px; }
.context { background: #fff; border-left: 4px solid #1f3a5f; padding: 14px 18px; margin-bottom: 24px; }
.chart-block { background: #fff; border-radius: 6px; box-shadow: 0 1px 3px rgba(0,0,0,0.08); padding: 18px; margin-bottom: 28px; }
.chart-block h2 { margin: 0 0 4px 0; font-size: 19px; }
.chart-block .kind { color: #777; font-size: 12px; text-transform: uppercase; }
.chart { width: 100%; height: 420px; }
.interpretation h3, .recommendations h3 { font-size: 15px; margin: 14px 0 6px 0; }
.failures { background: #fff4f4; border-left: 4px solid #c0392b; padding: 14px 18px; }
.failures li { margin: 4px 0; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <div class="meta">{{if .Dataset}}Dataset: {{.Dataset}} · {{end}}Generated {{.Generated}}</div>
</header>
<main>
  {{if .Question}}<section class="context"><strong>Question:</strong> {{.Question}}</section>{{end}}
  {{range .Charts}}
  <section class="chart-block">
    <h2>{{.Title}}</h2>
    <div class="kind">{{.ChartType}}</div>
    <div id="{{.DivID}}" class="chart"></div>
    {{if .Interpretation}}<div class="interpretation"><h3>Interpretation</h3><p>{{.Interpretation}}</p></div>{{end}}
    {{if .Recommendations}}<div class="recommendations"><h3>Recommendations</h3><ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul></div>{{end}}
  </section>
  {{end}}
  {{if .Failures}}
  <section class="failures">
    <h3>Charts that could not be rendered</h3>
    <ul>{{range .Failures}}<li><strong>{{.Title}}</strong> ({{.ChartType}}): {{.Error}}</li>{{end}}</ul>
  </section>
  {{end}}
</main>
<script>
const charts = [];
{{range .Charts}}
(function() {
  const el = document.getElementById({{.DivID}});
  if (!el) return;
  const chart = echarts.init(el);
  charts.push(chart);
  chart.setOption({{.Option}});
})();
{{end}}
window.addEventListener('resize', () => charts.forEach(c => c.resize()));
</script>
</body>
</html>
`
