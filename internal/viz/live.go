package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/evolution"
	"github.com/san-kum/trackevo/internal/traffic"
)

const (
	frameRate       = 30
	historyCapacity = 240
	maxSpeed        = 64
	statsWidth      = 40
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is a live session: traffic laps the track while the surface evolves.
type Model struct {
	name    string
	mgr     *evolution.Manager
	cars    *traffic.Traffic
	dt      float64
	speed   int
	running bool
	help    bool
	width   int
	simTime float64
	history []float64
	heat    Heatmap
	overlay *Canvas
}

// NewModel wraps a manager and its traffic. Every UI frame advances the
// simulation by speed steps of 1/30 s.
func NewModel(name string, mgr *evolution.Manager, cars *traffic.Traffic) Model {
	return Model{
		name:    name,
		mgr:     mgr,
		cars:    cars,
		dt:      1.0 / frameRate,
		speed:   1,
		running: true,
		width:   120,
		history: make([]float64, 0, historyCapacity),
		heat:    Heatmap{Cols: 120 - statsWidth - 6, Rows: 12},
		overlay: NewCanvas(120-statsWidth-6, 3),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "v":
			m.cycleMode()
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "up", "k":
			m.mgr.SetGlobalGripMultiplier(m.mgr.GlobalGripMultiplier() + 0.05)
		case "down", "j":
			m.mgr.SetGlobalGripMultiplier(m.mgr.GlobalGripMultiplier() - 0.05)
		case "s":
			m.toggleStorm()
		case "n":
			m.mgr.SetTimeOfDay(m.mgr.TimeOfDay() + 1)
		case "?":
			m.help = !m.help
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) resize(width int) {
	m.width = width
	cols := max(width-statsWidth-6, 10)
	m.heat.Cols = cols
	m.overlay = NewCanvas(cols, m.overlay.Height)
}

// advance runs speed simulation frames.
func (m *Model) advance() {
	for i := 0; i < m.speed; i++ {
		m.cars.Step(m.dt, m.mgr)
		m.mgr.Tick(m.dt)
		m.simTime += m.dt
	}
	m.history = append(m.history, meanOf(m.mgr.GripField()))
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) cycleMode() {
	modes := config.VisualizationModes
	cur := m.mgr.Config().VisualizationMode
	next := modes[0]
	for i, mode := range modes {
		if mode == cur {
			next = modes[(i+1)%len(modes)]
			break
		}
	}
	m.mgr.SetConfig(config.Patch{VisualizationMode: config.String(next)})
}

func (m *Model) toggleStorm() {
	v := 1.0
	if m.mgr.Atmosphere().DustStormIntensity > constants.StormDustThreshold {
		v = 0
	}
	m.mgr.ApplyEnvironmentOverrides(atmosphere.Patch{DustStormIntensity: &v})
}

func (m Model) View() string {
	var s strings.Builder

	status := runningStyle.Render(fmt.Sprintf("RUNNING x%d", m.speed))
	if !m.running {
		status = pausedStyle.Render("PAUSED")
	}
	s.WriteString(titleStyle.Render("TRACKEVO · "+strings.ToUpper(m.name)) + "  " + status + "\n\n")

	left := lipgloss.JoinVertical(lipgloss.Left, m.surfaceView(), "", m.carsView())
	main := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(left), panelStyle.Render(m.statsView()))
	s.WriteString(main)

	if m.help {
		s.WriteString("\n" + panelStyle.Render(helpText))
	} else {
		s.WriteString("\n" + hintStyle.Render("space pause · v channel · +/- speed · ↑↓ grip · s storm · n +1h · ? help · q quit"))
	}
	return s.String()
}

const helpText = `Space  pause or resume
V      cycle grip, rubber, marbles, dust, temperature
+ / -  double or halve simulation speed
Up/Dn  global grip multiplier ±0.05
S      start or stop a dust storm
N      skip one hour of the day
Q      quit`

func (m Model) surfaceView() string {
	mode := m.mgr.Config().VisualizationMode
	values, ok := m.mgr.VisualField()
	if !ok {
		return subtleStyle.Render("visualization off (press v)")
	}
	rng, fixed := ModeRange(mode)
	if !fixed {
		rng = AutoRange(values)
	}
	h := m.heat
	h.Palette = PaletteFor(mode)
	dims := m.mgr.Grid().Dims()
	return titleStyle.Render(strings.ToUpper(mode)) + "\n" +
		h.Render(values, dims, rng) + "\n" +
		h.Legend(rng, 20)
}

func (m Model) carsView() string {
	dims := m.mgr.Grid().Dims()
	m.overlay.Clear()
	for _, c := range m.cars.Cars() {
		m.overlay.Plot(c.S/dims.TrackLength, (c.D+dims.TrackWidth/2)/dims.TrackWidth)
	}
	return subtleStyle.Render("cars") + "\n" + m.overlay.String()
}

func (m Model) statsView() string {
	var s strings.Builder
	env := m.mgr.Atmosphere()
	avg := m.mgr.Grid().Averages()

	s.WriteString(titleStyle.Render("ENVIRONMENT") + "\n")
	s.WriteString(statf("Time of day", "%05.2f h", m.mgr.TimeOfDay()))
	s.WriteString(statf("Ambient", "%.1f °C", env.AmbientTemp))
	s.WriteString(statf("Sun", "%.0f W/m²", env.SolarRadiation))
	s.WriteString(statf("Wind", "%.1f m/s", env.WindSpeed))
	storm := Bar(env.DustStormIntensity, 12)
	if env.DustStormIntensity > constants.StormDustThreshold {
		storm += " " + stormStyle.Render("STORM")
	}
	s.WriteString(labelStyle.Render("Dust storm") + storm + "\n\n")

	s.WriteString(titleStyle.Render("SURFACE") + "\n")
	s.WriteString(statf("Rubber", "%.4f", avg.Rubber))
	s.WriteString(statf("Marbles", "%.4f", avg.Marbles))
	s.WriteString(statf("Dust", "%.4f", avg.Dust))
	s.WriteString(statf("Surface temp", "%.2f °C", avg.Temp))
	g := m.mgr.GlobalGripMultiplier()
	s.WriteString(labelStyle.Render("Global grip") +
		Bar((g-constants.GlobalGripMin)/(constants.GlobalGripMax-constants.GlobalGripMin), 12) +
		valueStyle.Render(fmt.Sprintf(" %.2f", g)) + "\n")
	s.WriteString(statf("Session", "%.1f s", m.simTime))
	s.WriteString(statf("Frame", "%d", m.mgr.Frame()))
	s.WriteString(statf("Profile", "%s", m.mgr.Profile()))

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(5),
			asciigraph.Width(statsWidth-10),
			asciigraph.Precision(3),
			asciigraph.Caption("mean grip"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	} else {
		s.WriteString("\n" + subtleStyle.Render(Sparkline(m.history, statsWidth-10)) + "\n")
	}
	return s.String()
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
