// Package visualize renders the voltage-vs-time chart from canonical
// samples.
package visualize

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/voltworks/battery-etl/pkg/schema"
)

const (
	chartWidth  = 800
	chartHeight = 500
	margin      = 60
)

var seriesColors = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}

type point struct {
	t, v float64
}

// Run reads the canonical CSV and writes an SVG chart with one polyline per
// run, points sorted by timestamp. It returns the output path.
func Run(canonicalPath, outputPath string) (string, error) {
	samples, err := schema.ReadCanonicalCSV(canonicalPath)
	if err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("canonical file %s has no samples to plot", canonicalPath)
	}

	series := make(map[string][]point)
	for _, sample := range samples {
		series[sample.RunID] = append(series[sample.RunID], point{t: sample.Timestamp, v: sample.Voltage})
	}
	runIDs := make([]string, 0, len(series))
	for runID := range series {
		runIDs = append(runIDs, runID)
	}
	sort.Strings(runIDs)

	minT, maxT := samples[0].Timestamp, samples[0].Timestamp
	minV, maxV := samples[0].Voltage, samples[0].Voltage
	for _, sample := range samples {
		minT = min(minT, sample.Timestamp)
		maxT = max(maxT, sample.Timestamp)
		minV = min(minV, sample.Voltage)
		maxV = max(maxV, sample.Voltage)
	}
	// Flat series still need a visible span.
	if maxT == minT {
		maxT = minT + 1
	}
	if maxV == minV {
		maxV = minV + 1
	}

	scaleX := func(t float64) float64 {
		return margin + (t-minT)/(maxT-minT)*(chartWidth-2*margin)
	}
	scaleY := func(v float64) float64 {
		return chartHeight - margin - (v-minV)/(maxV-minV)*(chartHeight-2*margin)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		chartWidth, chartHeight, chartWidth, chartHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")
	fmt.Fprintf(&b, `<text x="%d" y="30" text-anchor="middle" font-size="18">Voltage vs Time</text>`+"\n", chartWidth/2)
	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-size="13">Time since run start (s)</text>`+"\n",
		chartWidth/2, chartHeight-15)
	fmt.Fprintf(&b, `<text x="18" y="%d" text-anchor="middle" font-size="13" transform="rotate(-90 18 %d)">Voltage (V)</text>`+"\n",
		chartHeight/2, chartHeight/2)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n",
		margin, chartHeight-margin, chartWidth-margin, chartHeight-margin)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n",
		margin, margin, margin, chartHeight-margin)

	for i, runID := range runIDs {
		points := series[runID]
		sort.Slice(points, func(x, y int) bool { return points[x].t < points[y].t })
		color := seriesColors[i%len(seriesColors)]

		coords := make([]string, len(points))
		for j, p := range points {
			coords[j] = fmt.Sprintf("%.2f,%.2f", scaleX(p.t), scaleY(p.v))
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			strings.Join(coords, " "), color)
		for _, p := range points {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"/>`+"\n", scaleX(p.t), scaleY(p.v), color)
		}
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="12" fill="%s">%s</text>`+"\n",
			chartWidth-margin+5, margin+18*i, color, runID)
	}
	b.WriteString("</svg>\n")

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("creating plot directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing plot: %w", err)
	}
	return outputPath, nil
}
