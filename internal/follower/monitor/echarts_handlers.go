package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/track.pilot/internal/httputil"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleScanChart renders the latest preprocessed scan as an XY scatter
// (polar samples projected to cartesian) with the fitted ground line
// overlaid. Debugging-only endpoint; no auth.
func (ws *WebServer) handleScanChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.controller.Snapshot()
	if len(snap.LastScan) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "no scan received yet")
		return
	}

	data := make([]opts.ScatterData, 0, len(snap.LastScan))
	maxAbs := 0.0
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i, rng := range snap.LastScan {
		theta := float64(i) * snap.LastAngleInc
		x := rng * math.Cos(theta)
		y := rng * math.Sin(theta)
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y}})
	}

	// Small padding so edge points stay visible.
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	subtitle := fmt.Sprintf("points=%d r2=%.3f ramp=%v obstacle=%v",
		len(snap.LastScan), snap.LastFit.RSquared, snap.State.RampDetected, snap.State.ObstacleDetected)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan (Polar->XY)", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Range Scan", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("scan", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	// Fitted ground line across the scan's x extent.
	if snap.LastFit.Points > 0 && minX < maxX {
		fitLine := charts.NewLine()
		fitData := []opts.LineData{
			{Value: []interface{}{minX, snap.LastFit.Alpha + snap.LastFit.Beta*minX}},
			{Value: []interface{}{maxX, snap.LastFit.Alpha + snap.LastFit.Beta*maxX}},
		}
		fitLine.AddSeries("ground fit", fitData,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
		scatter.Overlap(fitLine)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleDecisionsChart renders turn/speed/multiplier time series from the
// in-memory decision buffer.
func (ws *WebServer) handleDecisionsChart(w http.ResponseWriter, r *http.Request) {
	if ws.decisions == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "no decision buffer attached")
		return
	}
	points := ws.decisions.Snapshot()
	if len(points) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "no decisions recorded yet")
		return
	}

	times := make([]string, 0, len(points))
	turns := make([]opts.LineData, 0, len(points))
	speeds := make([]opts.LineData, 0, len(points))
	mults := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		times = append(times, p.Time.Format("15:04:05.000"))
		turns = append(turns, opts.LineData{Value: p.Turn})
		speeds = append(speeds, opts.LineData{Value: p.Speed})
		mults = append(mults, opts.LineData{Value: p.SpeedMult})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Decisions", Theme: "dark", Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Drive Decisions", Subtitle: time.Now().Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(times).
		AddSeries("turn", turns).
		AddSeries("speed", speeds).
		AddSeries("speed_mult", mults)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
