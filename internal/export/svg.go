// Package export renders stored runs to standalone files.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Trace is one line of a chart.
type Trace struct {
	Name   string
	Values []float64
}

var palette = []string{"#00d7af", "#ffd700", "#ff87ff", "#5fd700", "#87afff", "#ff875f"}

const (
	margin    = 40.0
	legendRow = 16.0
)

// ChartSVG draws traces against a shared x axis as an SVG line chart. Each
// trace is scaled to its own range so columns with different units can
// share one chart; the legend reports each range.
func ChartSVG(w io.Writer, title string, x []float64, traces []Trace, width, height float64) error {
	if len(x) < 2 {
		return fmt.Errorf("export: need at least 2 samples, got %d", len(x))
	}
	if len(traces) == 0 {
		return fmt.Errorf("export: no traces")
	}

	minX, maxX := x[0], x[len(x)-1]
	spanX := maxX - minX
	if spanX == 0 {
		spanX = 1
	}
	plotW := width - 2*margin
	plotH := height - 2*margin - legendRow*float64(len(traces))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="%.0f" y="%.0f" fill="#eeeeee" font-family="monospace" font-size="14">%s</text>
<rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="none" stroke="#444444"/>
`, width, height, width, height, margin, margin*0.6, escape(title), margin, margin, plotW, plotH))

	for i, tr := range traces {
		color := palette[i%len(palette)]
		lo, hi := bounds(tr.Values)
		span := hi - lo
		if span == 0 {
			span = 1
		}

		var pts strings.Builder
		for j := 0; j < len(x) && j < len(tr.Values); j++ {
			px := margin + (x[j]-minX)/spanX*plotW
			py := margin + plotH - (tr.Values[j]-lo)/span*plotH
			if j > 0 {
				pts.WriteByte(' ')
			}
			pts.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
		}
		sb.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"/>
`, color, pts.String()))

		ly := margin + plotH + legendRow*float64(i+1) + 4
		sb.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="%s" font-family="monospace" font-size="12">%s [%.3g, %.3g]</text>
`, margin, ly, color, escape(tr.Name), lo, hi))
	}

	sb.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="#888888" font-family="monospace" font-size="11" text-anchor="end">%.2f - %.2f</text>
`, width-margin, margin*0.6, minX, maxX))
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
