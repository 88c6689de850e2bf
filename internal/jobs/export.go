package jobs

import (
	"html/template"
	"io"
	"time"
)

// ExportFilename returns the download name for an export taken at now.
func ExportFilename(now time.Time) string {
	return "job-applications-" + now.Format("2006-01-02") + ".html"
}

type exportStat struct {
	Class string
	Label string
	Count int
}

type exportCard struct {
	Job
	StatusLabel string
	Added       string
}

type exportData struct {
	Date     string
	Exported string
	Stats    []exportStat
	Cards    []exportCard
}

// RenderHTML writes the standalone export document for list, newest first.
// Text fields are escaped by html/template.
func RenderHTML(w io.Writer, list []Job, now time.Time) error {
	counts := CountByStatus(list)
	data := exportData{
		Date:     now.Format("1/2/2006"),
		Exported: now.Format("1/2/2006, 3:04:05 PM"),
		Stats:    []exportStat{{Class: "total", Label: "Total", Count: len(list)}},
	}
	for _, s := range Statuses {
		data.Stats = append(data.Stats, exportStat{Class: string(s), Label: s.Label(), Count: counts[s]})
	}
	for _, j := range Apply(list, Filter{}, SortNewest) {
		data.Cards = append(data.Cards, exportCard{
			Job:         j,
			StatusLabel: j.Status.Label(),
			Added:       j.CreatedAt.Format("January 2, 2006"),
		})
	}
	return exportTemplate.Execute(w, data)
}

var exportTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Job Applications Export - {{.Date}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; background: #f5f5f5; padding: 20px; }
    .container { max-width: 1200px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
    h1 { color: #2563eb; margin-bottom: 10px; font-size: 28px; }
    .export-date { color: #666; margin-bottom: 30px; font-size: 14px; }
    .stats { display: flex; gap: 15px; margin-bottom: 30px; flex-wrap: wrap; }
    .stat { padding: 8px 16px; border-radius: 20px; font-size: 14px; font-weight: 500; background: #e5e7eb; }
    .job-list { display: grid; gap: 20px; }
    .job-card { border: 1px solid #e5e7eb; border-radius: 8px; padding: 20px; background: #fafafa; }
    .job-header { display: flex; justify-content: space-between; margin-bottom: 12px; gap: 15px; }
    .job-title { font-size: 20px; font-weight: 600; color: #111827; }
    .company-name { font-size: 16px; color: #6b7280; }
    .status-badge { padding: 4px 12px; border-radius: 12px; font-size: 12px; font-weight: 600; }
    .job-link { color: #2563eb; font-size: 14px; word-break: break-all; }
    .job-notes { color: #4b5563; font-size: 14px; white-space: pre-wrap; }
    .job-footer { padding-top: 12px; border-top: 1px solid #e5e7eb; font-size: 12px; color: #9ca3af; }
    @media print { body { background: white; padding: 0; } .job-card { page-break-inside: avoid; } }
  </style>
</head>
<body>
  <div class="container">
    <h1>Job Applications</h1>
    <p class="export-date">Exported on {{.Exported}}</p>
    <div class="stats">
      {{- range .Stats}}
      <div class="stat stat-{{.Class}}"><strong>{{.Count}}</strong> {{.Label}}</div>
      {{- end}}
    </div>
    <div class="job-list">
      {{- range .Cards}}
      <div class="job-card">
        <div class="job-header">
          <div>
            <div class="job-title">{{.JobTitle}}</div>
            <div class="company-name">{{.CompanyName}}</div>
          </div>
          <span class="status-badge status-{{.Status}}">{{.StatusLabel}}</span>
        </div>
        {{- if .URL}}
        <a href="{{.URL}}" target="_blank" rel="noopener noreferrer" class="job-link">{{.URL}}</a>
        {{- end}}
        {{- if .Notes}}
        <div class="job-notes">{{.Notes}}</div>
        {{- end}}
        <div class="job-footer">Added on {{.Added}}</div>
      </div>
      {{- end}}
    </div>
  </div>
</body>
</html>
`))
