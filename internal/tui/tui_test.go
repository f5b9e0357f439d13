package tui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/sim"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func startedApp(t *testing.T, preset string) model {
	t.Helper()
	m := *NewInteractiveApp()
	for m.presets[m.cursor] != preset {
		m = send(t, m, key("down"))
	}
	m = send(t, m, key("enter"))
	if m.state != stateSim {
		t.Fatalf("state = %v, want sim (err %v)", m.state, m.err)
	}
	return m
}

func TestMenuListsPresets(t *testing.T) {
	m := *NewInteractiveApp()
	if len(m.presets) != len(config.ListPresets()) {
		t.Fatalf("got %d presets", len(m.presets))
	}
	view := m.View()
	for _, name := range m.presets {
		if !strings.Contains(view, name) {
			t.Errorf("menu missing %q", name)
		}
	}
}

func TestMenuCursorBounds(t *testing.T) {
	m := *NewInteractiveApp()
	m = send(t, m, key("up"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	for i := 0; i < len(m.presets)+3; i++ {
		m = send(t, m, key("down"))
	}
	if m.cursor != len(m.presets)-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, len(m.presets)-1)
	}
}

func TestTickAdvancesSimulation(t *testing.T) {
	m := startedApp(t, "idle")
	for i := 0; i < 5; i++ {
		m = send(t, m, tickMsg(time.Now()))
	}
	if m.step != 5 {
		t.Errorf("step = %d, want 5", m.step)
	}
	if len(m.history) != 5 {
		t.Errorf("history = %d, want 5", len(m.history))
	}
	if !strings.Contains(m.View(), "roll (deg)") {
		t.Error("sim view missing roll plot")
	}
}

func TestPanelShowsVehicleSetup(t *testing.T) {
	m := startedApp(t, "idle")
	for i := 0; i < 3; i++ {
		m = send(t, m, tickMsg(time.Now()))
	}
	panel := m.panel(m.last)

	hold := fmt.Sprintf("%.2f m x%.2f", m.cfg.Controller.TargetDistance, m.cfg.Controller.Strength)
	if !strings.Contains(panel, hold) {
		t.Errorf("panel missing hold %q:\n%s", hold, panel)
	}
	for _, p := range m.cfg.Controller.Probes {
		if !strings.Contains(panel, p.Name) {
			t.Errorf("panel missing mount %q", p.Name)
		}
	}
	front := m.simulator.Vehicle().Front
	if !front.IsGrounded() {
		t.Fatal("front wheel should rest on the ground")
	}
	if gap := fmt.Sprintf("d%4.2f", front.Contact().Distance); !strings.Contains(panel, gap) {
		t.Errorf("panel missing front contact %q:\n%s", gap, panel)
	}
}

func TestPauseHoldsTime(t *testing.T) {
	m := startedApp(t, "idle")
	m = send(t, m, key(" "))
	m = send(t, m, tickMsg(time.Now()))
	if m.step != 0 {
		t.Errorf("paused sim stepped to %d", m.step)
	}
}

func TestKeysDriveManualPilot(t *testing.T) {
	m := startedApp(t, "idle")
	m = send(t, m, key("up"))
	m = send(t, m, key("up"))
	m = send(t, m, key("left"))
	m = send(t, m, key("b"))

	got := m.manual.Actions()
	want := [3]float64{0.5, 1, -0.25}
	if got != want {
		t.Errorf("actions = %v, want %v", got, want)
	}

	for i := 0; i < 10; i++ {
		m = send(t, m, key("down"))
	}
	if m.manual.Actions()[0] != -1 {
		t.Errorf("throttle not clamped: %v", m.manual.Actions()[0])
	}

	m = send(t, m, key("x"))
	if m.manual.Actions() != ([3]float64{}) {
		t.Errorf("neutral left %v", m.manual.Actions())
	}
}

func TestResetRestartsEpisode(t *testing.T) {
	m := startedApp(t, "wobble")
	m = send(t, m, key("up"))
	for i := 0; i < 10; i++ {
		m = send(t, m, tickMsg(time.Now()))
	}
	m = send(t, m, key("r"))
	if m.step != 0 || m.simTime != 0 || len(m.history) != 0 {
		t.Errorf("reset left step=%d t=%v history=%d", m.step, m.simTime, len(m.history))
	}
	if m.throttle != 0 || m.manual.Actions() != ([3]float64{}) {
		t.Error("reset kept inputs")
	}
	if m.last.Position.Y() != m.cfg.Run.Start.Height {
		t.Errorf("height = %v, want %v", m.last.Position.Y(), m.cfg.Run.Start.Height)
	}
}

func TestAutopilotToggle(t *testing.T) {
	m := startedApp(t, "cruise")
	m = send(t, m, key("a"))
	if !m.autopilot {
		t.Fatal("autopilot not enabled")
	}
	for i := 0; i < 25; i++ {
		m = send(t, m, tickMsg(time.Now()))
	}
	if m.last.Actions[0] <= 0 {
		t.Errorf("cruise throttle = %v, want > 0 from standstill", m.last.Actions[0])
	}
}

func TestEscReturnsToMenu(t *testing.T) {
	m := startedApp(t, "idle")
	m = send(t, m, key("esc"))
	if m.state != stateMenu {
		t.Errorf("state = %v, want menu", m.state)
	}
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd != nil {
		t.Error("menu should not schedule ticks")
	}
	if next.(model).step != m.step {
		t.Error("menu tick advanced the simulation")
	}
}

func TestLiveRendererDraws(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer("wobble", 1000)
	r.out = &buf

	r.OnStep(sim.Observation{Time: 1.5, Roll: 0.2})
	out := buf.String()
	if !strings.Contains(out, "wobble") || !strings.Contains(out, "t=1.50s") {
		t.Errorf("frame missing header: %q", out)
	}
	if !strings.Contains(out, "roll=+11.5°") {
		t.Errorf("frame missing roll: %q", out)
	}

	buf.Reset()
	r.frameRate = 1
	r.OnStep(sim.Observation{Time: 1.52})
	if buf.Len() != 0 {
		t.Error("renderer ignored frame rate")
	}
}

func TestLiveRendererIsObserver(t *testing.T) {
	var _ sim.Observer = NewLiveRenderer("x", 0)
}
