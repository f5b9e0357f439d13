package export

import (
	"bytes"
	"strings"
	"testing"
)

func TestChartSVG(t *testing.T) {
	var buf bytes.Buffer
	x := []float64{0, 0.5, 1, 1.5}
	err := ChartSVG(&buf, "roll & speed", x, []Trace{
		{Name: "roll", Values: []float64{0.1, -0.05, 0.02, 0}},
		{Name: "speed", Values: []float64{0, 1, 2, 3}},
	}, 600, 300)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Error("not a complete svg document")
	}
	if got := strings.Count(out, "<polyline"); got != 2 {
		t.Errorf("got %d polylines, want 2", got)
	}
	if !strings.Contains(out, "roll &amp; speed") {
		t.Error("title not escaped")
	}
	if !strings.Contains(out, "speed [0, 3]") {
		t.Error("legend missing range")
	}
	// speed rises linearly, so its first point sits on the bottom edge.
	if !strings.Contains(out, `points="40.0,228.0`) {
		t.Errorf("unexpected speed start point in %q", out)
	}
}

func TestChartSVGErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := ChartSVG(&buf, "", []float64{0}, []Trace{{Name: "a", Values: []float64{1}}}, 100, 100); err == nil {
		t.Error("expected error for a single sample")
	}
	if err := ChartSVG(&buf, "", []float64{0, 1}, nil, 100, 100); err == nil {
		t.Error("expected error without traces")
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		lo, hi float64
	}{
		{"empty", nil, 0, 0},
		{"mixed", []float64{3, -1, 2}, -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := bounds(tt.values)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("bounds = %v, %v; want %v, %v", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}
