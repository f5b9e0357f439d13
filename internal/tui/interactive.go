package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/pilot"
	"github.com/san-kum/motosim/internal/sim"
	"github.com/san-kum/motosim/internal/wheel"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var presetInfo = map[string]string{
	"idle":       "standing still on flat ground",
	"wobble":     "released with a lean",
	"drop":       "dropped from height",
	"cruise":     "speed hold, straight line",
	"slalom":     "speed hold with weave",
	"brake-test": "scripted launch and stop",
	"jump":       "ramp at 60m",
	"episodes":   "jittered restarts",
}

const (
	historyLen = 120
	inputStep  = 0.25
)

type state int

const (
	stateMenu state = iota
	stateSim
)

type model struct {
	state   state
	cursor  int
	presets []string
	preset  string

	cfg       *config.Config
	simulator *sim.Simulator
	manual    *pilot.Manual
	auto      sim.Pilot
	autopilot bool

	paused    bool
	simTime   float64
	step      int
	speed     int
	last      sim.Observation
	history   []float64
	lastFrame time.Time
	fps       float64
	err       error

	throttle, frontBrake, steer float64

	width  int
	height int
}

func NewInteractiveApp() *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		speed:   1,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	if m.state == stateSim {
		return tick()
	}
	return nil
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if !m.paused && m.err == nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			for i := 0; i < m.speed; i++ {
				m.advance()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		if err := m.start(m.presets[m.cursor]); err != nil {
			m.err = err
			return m, nil
		}
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "c":
		m.state = stateMenu
		m.err = nil
		return m, nil
	case " ":
		m.paused = !m.paused
	case "r":
		m.reset()
	case "a":
		m.autopilot = !m.autopilot
	case "up", "w":
		m.throttle = clampUnit(m.throttle + inputStep)
	case "down", "s":
		m.throttle = clampUnit(m.throttle - inputStep)
	case "left", "h":
		m.steer = clampUnit(m.steer - inputStep)
	case "right", "l":
		m.steer = clampUnit(m.steer + inputStep)
	case "b":
		if m.frontBrake > 0 {
			m.frontBrake = 0
		} else {
			m.frontBrake = 1
		}
	case "x":
		m.throttle, m.frontBrake, m.steer = 0, 0, 0
	case "+", "=":
		if m.speed < 8 {
			m.speed++
		}
	case "-":
		if m.speed > 1 {
			m.speed--
		}
	}
	m.manual.Set(m.throttle, m.frontBrake, m.steer)
	return m, nil
}

func (m *model) start(name string) error {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("preset %q not found", name)
	}
	s, err := sim.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	m.preset = name
	m.cfg = cfg
	m.simulator = s
	m.manual = pilot.NewManual()
	m.auto = pilot.NewCruise(cfg.Cruise)
	m.autopilot = false
	m.paused = false
	m.speed = 1
	m.err = nil
	m.throttle, m.frontBrake, m.steer = 0, 0, 0
	m.simTime, m.step = 0, 0
	m.history = m.history[:0]
	m.last = s.Vehicle().Observe(0, 0)
	return nil
}

func (m *model) reset() {
	m.simulator.Vehicle().Reset(m.cfg.Run.Start)
	m.manual.Reset()
	if r, ok := m.auto.(sim.Resetter); ok {
		r.Reset()
	}
	m.throttle, m.frontBrake, m.steer = 0, 0, 0
	m.simTime, m.step = 0, 0
	m.history = m.history[:0]
	m.err = nil
	m.last = m.simulator.Vehicle().Observe(0, 0)
}

func (m *model) advance() {
	var p sim.Pilot = m.manual
	if m.autopilot {
		p = m.auto
	}
	obs, err := m.simulator.Step(p, m.simTime, m.step, m.cfg.Run.Dt)
	m.last = obs
	if err != nil {
		m.err = err
		return
	}
	m.simTime += m.cfg.Run.Dt
	m.step++

	m.history = append(m.history, deg(obs.Roll))
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n" + cyan.Render("   motosim") + dim.Render("  balance and drive") + "\n\n")
	for i, name := range m.presets {
		cursor := "  "
		style := dim
		if i == m.cursor {
			cursor = cyan.Render("▸ ")
			style = white
		}
		b.WriteString(fmt.Sprintf("   %s%-12s %s\n", cursor, style.Render(name), dimmer.Render(presetInfo[name])))
	}
	if m.err != nil {
		b.WriteString("\n   " + magenta.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("   ↑↓ select  enter start  q quit") + "\n")
	return b.String()
}

func (m model) viewSim() string {
	var b strings.Builder
	obs := m.last

	status := green.Render("running")
	if m.paused {
		status = yellow.Render("paused")
	}
	if m.err != nil {
		status = magenta.Render("stopped")
	}
	driver := dim.Render("manual")
	if m.autopilot {
		driver = cyan.Render("cruise")
	}
	b.WriteString(fmt.Sprintf("\n   %s  %s  %s  %s  %s\n\n",
		cyan.Render(m.preset), status, driver,
		dim.Render(fmt.Sprintf("t=%.2fs", m.simTime)),
		dimmer.Render(fmt.Sprintf("%dx %.0ffps", m.speed, m.fps))))

	cw, ch := 36, 12
	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", cw))
	}
	for x := 1; x < cw-1; x++ {
		set(canvas, x, ch-1, '═', cw, ch)
	}
	drawRider(canvas, cw, ch, cw/2, ch-2, obs.Roll, 8)

	var view strings.Builder
	for _, row := range canvas {
		view.WriteString(string(row) + "\n")
	}

	panel := m.panel(obs)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		"   "+strings.ReplaceAll(view.String(), "\n", "\n   "), "  ", panel))
	b.WriteString("\n")

	if len(m.history) > 1 {
		plot := asciigraph.Plot(m.history,
			asciigraph.Height(6),
			asciigraph.Width(60),
			asciigraph.Caption("roll (deg)"))
		b.WriteString("\n" + cyan.Render(indent(plot, "   ")) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n   " + magenta.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("   ↑↓ throttle  ←→ steer  b brake  x neutral  a autopilot  space pause  ±speed  r reset  c menu  q quit") + "\n")
	return b.String()
}

func (m model) panel(obs sim.Observation) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", dim.Render(fmt.Sprintf("%-8s", label)), white.Render(value)))
	}
	v := m.simulator.Vehicle()
	cc := v.Controller.Config()
	row("mode", obs.Mode.String())
	row("speed", fmt.Sprintf("%5.2f m/s", obs.Speed))
	row("roll", fmt.Sprintf("%+6.1f°", deg(obs.Roll)))
	row("pitch", fmt.Sprintf("%+6.1f°", deg(obs.Pitch)))
	row("height", fmt.Sprintf("%5.2f m", obs.Position.Y()))
	row("hold", fmt.Sprintf("%.2f m x%.2f", cc.TargetGroundDistance, cc.StabilizationStrength))
	row("input", fmt.Sprintf("%+.2f %+.2f %+.2f", obs.Actions[0], obs.Actions[1], obs.Actions[2]))
	b.WriteString("\n")

	wheelRow := func(label string, w *wheel.Sim, st wheel.State) {
		mark := dimmer.Render("○")
		gap := "   -"
		if st.Grounded {
			mark = green.Render("●")
			gap = fmt.Sprintf("%4.2f", w.Contact().Distance)
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", dim.Render(fmt.Sprintf("%-6s", label)), mark,
			dim.Render(fmt.Sprintf("st%+5.1f° br%.2f rpm%.2f sl%+.2f d%s",
				deg(st.Steer*w.Spec().MaxSteer), st.Brake, st.RPM, st.Slip, gap))))
	}
	wheelRow("front", v.Front, obs.Front)
	wheelRow("rear", v.Rear, obs.Rear)

	if len(obs.Readings) > 0 {
		b.WriteString("\n")
		mounts := v.Controller.Probes()
		for _, r := range obs.Readings {
			name := fmt.Sprintf("#%d", r.Probe)
			if r.Probe >= 0 && r.Probe < len(mounts) && mounts[r.Probe].Name != "" {
				name = mounts[r.Probe].Name
			}
			if !r.Hit {
				b.WriteString(dimmer.Render(fmt.Sprintf("%-11s miss", name)) + "\n")
				continue
			}
			b.WriteString(dim.Render(fmt.Sprintf("%-11s d%.2f e%+.3f f%+.3f", name, r.Distance, r.Error, r.Force)) + "\n")
		}
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// RunInteractive opens the preset menu; pick one to drive it live.
func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunLive skips the menu and starts the named preset directly.
func RunLive(preset string) error {
	app := NewInteractiveApp()
	for i, name := range app.presets {
		if name == preset {
			app.cursor = i
		}
	}
	if err := app.start(preset); err != nil {
		return err
	}
	app.state = stateSim
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
