package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/foresight/session"
)

//go:embed templates/*.md
var templates embed.FS

// AnalysisRenderOptions holds configuration for rendering an analysis snapshot.
type AnalysisRenderOptions struct {
	SeriesRows int  // Number of most recent points to show, 0 shows them all.
	SkipSeries bool // Do not render the series section.
}

// RenderSnapshot renders the analysis view of a snapshot to a markdown string.
func RenderSnapshot(s session.Snapshot, opts AnalysisRenderOptions) string {
	partials := map[string]string{
		"analysis_title":   "analysis_title.md",
		"analysis_status":  "analysis_status.md",
		"analysis_metrics": "analysis_metrics.md",
	}
	// An empty file name results in an empty template.
	if !opts.SkipSeries {
		partials["analysis_series"] = "analysis_series.md"
	} else {
		partials["analysis_series"] = ""
	}
	return renderTemplate("analysis", "analysis.md", partials, NewAnalysis(s, opts.SeriesRows))
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, "templates/"+file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
