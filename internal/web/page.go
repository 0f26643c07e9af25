package web

import (
	"fmt"
	"html/template"
	"net/http"

	"plancal/internal/layout"
	appLog "plancal/internal/log"
)

// dayPage is the minimal grid the capture step screenshots. The root
// carries data-ready="true" once rendered server side.
var dayPage = template.Must(template.New("day").Funcs(template.FuncMap{
	"px":  func(v float64) template.CSS { return template.CSS(fmt.Sprintf("%.2fpx", v)) },
	"pct": func(v float64) template.CSS { return template.CSS(fmt.Sprintf("%.4f%%", v)) },
}).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Day.Format "2006-01-02"}}</title>
<style>
body{margin:0;font:12px sans-serif}
.grid{position:relative;height:{{px .Height}};border-left:1px solid #000}
.item{position:absolute;box-sizing:border-box;border:1px solid #000;overflow:hidden;background:#fff}
.record{background:#eee}
</style></head>
<body><div class="grid" data-ready="true" data-mode="{{.Mode}}">
{{range .Tasks}}<div class="item{{if .Task.IsRecord}} record{{end}}" style="top:{{px .Geometry.Top}};height:{{px .Geometry.Height}};left:{{pct .Geometry.Left}};width:{{pct .Geometry.Width}};z-index:{{.Geometry.ZIndex}}">{{.Task.Title}}</div>
{{end}}{{range .Pairs}}<div class="item" style="top:{{px .Geometry.Top}};height:{{px .Geometry.Height}};left:{{pct .Geometry.Left}};width:{{pct .Geometry.Width}};z-index:{{.Geometry.ZIndex}}">{{with .Pair.PlanTask}}{{.Title}}{{end}}{{if and .Pair.PlanTask .Pair.RecordTask}} / {{end}}{{with .Pair.RecordTask}}<span class="record">{{.Title}}</span>{{end}}</div>
{{end}}</div></body></html>`))

type dayPageData struct {
	layout.DayLayout
	Height float64
}

// handleDayPage renders one day as static HTML.
func (s *Server) handleDayPage(w http.ResponseWriter, r *http.Request) {
	day, err := s.parseDay(r)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	mode, err := s.parseMode(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	l, err := s.dayLayout(day, mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := dayPageData{DayLayout: l, Height: 24 * s.settings.Grid.HourHeight}
	if err := dayPage.Execute(w, data); err != nil {
		appLog.Error("day page render failed", err)
	}
}
