package tui

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/san-kum/motosim/internal/sim"
)

const (
	width       = 70
	height      = 16
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a sim.Observer that redraws a rear and side view of the
// vehicle in the terminal at most frameRate times per second.
type LiveRenderer struct {
	name      string
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	trail     []int
	out       io.Writer
}

func NewLiveRenderer(name string, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		name:      name,
		frameRate: frameRate,
		canvas:    canvas,
		trail:     make([]int, 0, width/2),
		out:       os.Stdout,
	}
}

func (r *LiveRenderer) OnStep(obs sim.Observation) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.clear()
	r.drawRear(obs)
	r.drawSide(obs)
	r.render(obs)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	drawLine(r.canvas, width, height, x1, y1, x2, y2, c)
}

// drawRear shows the chassis from behind, leaning by its roll angle.
func (r *LiveRenderer) drawRear(obs sim.Observation) {
	cx, gy := width/4, height-2
	for x := 2; x < width/2-2; x++ {
		r.set(x, gy+1, '=')
	}
	drawRider(r.canvas, width, height, cx, gy, obs.Roll, 10)
}

// drawSide shows pitch, ride height and recent roll as a trail.
func (r *LiveRenderer) drawSide(obs sim.Observation) {
	gy := height - 2
	left, right := width/2+2, width-2
	for x := left; x < right; x++ {
		r.set(x, gy+1, '=')
	}

	cx := (left + right) / 2
	lift := int(math.Round((obs.Position.Y() - 0.85) * 4))
	half := 6.0
	fx := cx + int(half*math.Cos(obs.Pitch))
	fy := gy - 2 - lift - int(half*math.Sin(obs.Pitch))
	bx := cx - int(half*math.Cos(obs.Pitch))
	by := gy - 2 - lift + int(half*math.Sin(obs.Pitch))
	r.line(bx, by, fx, fy, '=')
	r.set(fx, fy+1, wheelRune(obs.Front.Grounded))
	r.set(bx, by+1, wheelRune(obs.Rear.Grounded))

	row := 1 + int(math.Round(obs.Roll*10))
	r.trail = append(r.trail, row)
	if len(r.trail) > right-left {
		r.trail = r.trail[1:]
	}
	for i, y := range r.trail {
		r.set(left+i, 3+y, '.')
	}
}

func wheelRune(grounded bool) rune {
	if grounded {
		return 'O'
	}
	return 'o'
}

func (r *LiveRenderer) render(obs sim.Observation) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.2fs  %s\n", r.name, obs.Time, obs.Mode))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  roll=%+.1f°  pitch=%+.1f°  speed=%.1fm/s  a=[%+.2f %+.2f %+.2f]\n",
		deg(obs.Roll), deg(obs.Pitch), obs.Speed, obs.Actions[0], obs.Actions[1], obs.Actions[2]))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

// drawRider draws a leaning mast of length h from a ground point.
func drawRider(canvas [][]rune, w, h, cx, gy int, roll float64, length float64) {
	tx := cx + int(math.Round(length*math.Sin(roll)*2))
	ty := gy - int(math.Round(length*math.Cos(roll)))
	drawLine(canvas, w, h, cx, gy, tx, ty, '|')
	set(canvas, cx, gy, 'O', w, h)
	set(canvas, tx, ty, '@', w, h)
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func deg(rad float64) float64 { return rad * 180 / math.Pi }
