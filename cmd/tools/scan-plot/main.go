// Command scan-plot renders a recorded range scan to a PNG: the kept samples
// projected to cartesian coordinates, with the fitted ground line overlaid
// and the classification in the title. Input is one JSON scan per file,
// either a bare scan object or a range_scan envelope as captured from the
// sensor feed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/track.pilot/internal/feed"
	"github.com/banshee-data/track.pilot/internal/follower"
)

var (
	input  = flag.String("input", "", "Scan JSON file (required)")
	output = flag.String("output", "scan.png", "Output PNG file")
)

func main() {
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}

	scan, err := loadScan(*input)
	if err != nil {
		log.Fatalf("failed to load scan: %v", err)
	}

	params := follower.DefaultTuning()
	kept := follower.FilterScan(scan)
	if len(kept) == 0 {
		log.Fatal("no samples survive preprocessing")
	}
	fit := follower.FitGround(kept, scan.AngleIncrement, params)
	obstacle := follower.DetectObstacle(kept, params)

	if err := renderPlot(kept, scan.AngleIncrement, fit, obstacle, *output); err != nil {
		log.Fatalf("failed to render plot: %v", err)
	}
	log.Printf("wrote %s (%d points, r2=%.3f, ramp=%v, obstacle=%v)",
		*output, len(kept), fit.RSquared, fit.Ramp, obstacle)
}

// loadScan reads a scan from a JSON file, accepting either a bare RangeScan
// object or a range_scan envelope.
func loadScan(path string) (follower.RangeScan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return follower.RangeScan{}, err
	}

	if env, err := feed.DecodeEnvelope(data); err == nil && env.Type == feed.TypeRangeScan {
		var scan follower.RangeScan
		if err := json.Unmarshal(env.Payload, &scan); err != nil {
			return follower.RangeScan{}, fmt.Errorf("malformed envelope payload: %w", err)
		}
		return scan, nil
	}

	var scan follower.RangeScan
	if err := json.Unmarshal(data, &scan); err != nil {
		return follower.RangeScan{}, fmt.Errorf("malformed scan JSON: %w", err)
	}
	return scan, nil
}

func renderPlot(kept []float64, angleIncrement float64, fit follower.GroundFit, obstacle bool, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Range Scan - r2=%.3f ramp=%v obstacle=%v", fit.RSquared, fit.Ramp, obstacle)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	pts := make(plotter.XYs, 0, len(kept))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i, r := range kept {
		theta := float64(i) * angleIncrement
		x := r * math.Cos(theta)
		y := r * math.Sin(theta)
		pts = append(pts, plotter.XY{X: x, Y: y})
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scan scatter: %w", err)
	}
	scatter.Radius = vg.Points(2)
	p.Add(scatter)
	p.Legend.Add("scan", scatter)

	if fit.Points > 0 && minX < maxX {
		fitPts := plotter.XYs{
			{X: minX, Y: fit.Alpha + fit.Beta*minX},
			{X: maxX, Y: fit.Alpha + fit.Beta*maxX},
		}
		fitLine, err := plotter.NewLine(fitPts)
		if err != nil {
			return fmt.Errorf("fit line: %w", err)
		}
		fitLine.Width = vg.Points(1)
		p.Add(fitLine)
		p.Legend.Add("ground fit", fitLine)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
