package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	"github.com/jgoulah/griddash/internal/app"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Tests use it to simulate broken template sets.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	if tmpl.Lookup("dashboard.html") == nil || tmpl.Lookup("charts") == nil {
		return errors.New("dashboard templates incomplete")
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded dashboard templates. Call during startup
// before serving requests.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// DashboardData is the view model of the dashboard page
type DashboardData struct {
	Title      string
	ChartsPath string // JSON endpoint queried on selector changes
	Options    []OptionItem
	View       app.View
}

// OptionItem is one entry of the hour selector
type OptionItem struct {
	Value string
	Label string
}

// NewDashboardData builds the page model for a view
func NewDashboardData(v app.View, chartsPath string) *DashboardData {
	opts := make([]OptionItem, 0, len(v.Options))
	for _, o := range v.Options {
		opts = append(opts, OptionItem{Value: o.Value, Label: o.Label})
	}
	return &DashboardData{
		Title:      "Energy Consumption: Actual vs Predicted",
		ChartsPath: chartsPath,
		Options:    opts,
		View:       v,
	}
}

// RenderDashboard writes the full dashboard page
func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderChartsPartial writes only the chart block, for fragment refreshes
func RenderChartsPartial(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "charts", data)
}
