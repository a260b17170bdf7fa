// Package report renders a stored session as a standalone HTML page with
// the speed trace and detector activity charts.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// RenderSession writes the session report page to w.
func RenderSession(w io.Writer, sessionID string, snaps []telemetry.Snapshot) error {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("Session %s", sessionID))
	page.AddCharts(speedChart(sessionID, snaps), annotationChart(snaps))
	return page.Render(w)
}

// speedChart plots the speed trace with detection ticks marked as scatter
// points on the same time axis.
func speedChart(sessionID string, snaps []telemetry.Snapshot) components.Charter {
	var axis []string
	var speeds []opts.LineData
	var detections []opts.ScatterData
	start := snaps[0].TimestampMS
	for _, s := range snaps {
		t := float64(s.TimestampMS-start) / 1000
		label := fmt.Sprintf("%.1f", t)
		axis = append(axis, label)
		if s.SpeedMPS != nil {
			speeds = append(speeds, opts.LineData{Value: *s.SpeedMPS})
			if len(s.Annotations) > 0 {
				detections = append(detections, opts.ScatterData{Value: []interface{}{label, *s.SpeedMPS}})
			}
		} else {
			speeds = append(speeds, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Speed Trace", Subtitle: fmt.Sprintf("session=%s snapshots=%d", sessionID, len(snaps))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed (m/s)"}),
	)
	line.SetXAxis(axis)
	line.AddSeries("speed", speeds, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	scatter := charts.NewScatter()
	scatter.AddSeries("detections", detections, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	line.Overlap(scatter)
	return line
}

// annotationChart shows how often each annotation kind fired.
func annotationChart(snaps []telemetry.Snapshot) components.Charter {
	counts := make(map[telemetry.AnnotationKind]int)
	for _, s := range snaps {
		for _, a := range s.Annotations {
			counts[a.Kind()]++
		}
	}
	var kinds []string
	var values []opts.BarData
	for _, kind := range telemetry.AnnotationKinds() {
		if counts[kind] == 0 {
			continue
		}
		kinds = append(kinds, string(kind))
		values = append(values, opts.BarData{Value: counts[kind]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Detections by Kind"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(kinds)
	bar.AddSeries("count", values, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}
