package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/bondmd/internal/md"
	"github.com/san-kum/bondmd/internal/run"
)

const (
	graphWidth      = 70
	graphHeight     = 10
	historyCapacity = 600
	stepsPerTick    = 5
)

type TickMsg time.Time

// Model steps the simulation on a timer and plots temperature and total
// energy as they evolve.
type Model struct {
	driver *run.Driver
	cfg    run.Config
	name   string

	step    int
	t       float64
	running bool
	err     error

	tempHistory   []float64
	energyHistory []float64
}

// NewModel prepares the live view; the driver must already have forces
// evaluated once.
func NewModel(driver *run.Driver, cfg run.Config, name string) Model {
	return Model{
		driver:        driver,
		cfg:           cfg,
		name:          name,
		running:       true,
		tempHistory:   make([]float64, 0, historyCapacity),
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}

	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) advance() {
	stepCfg := m.cfg
	stepCfg.Steps = stepsPerTick
	stepCfg.SampleEvery = stepsPerTick

	result, err := m.driver.Run(context.Background(), stepCfg)
	if err != nil {
		m.err = err
		return
	}
	m.step += result.StepsTaken
	m.t += float64(result.StepsTaken) * m.cfg.Dt

	m.tempHistory = push(m.tempHistory, m.driver.Atoms.Temperature())
	ke := m.driver.Atoms.KineticEnergy()
	pe := m.driver.Out().TotalEnergy()
	m.energyHistory = push(m.energyHistory, ke+pe)
}

func push(h []float64, v float64) []float64 {
	if len(h) == historyCapacity {
		copy(h, h[1:])
		h = h[:historyCapacity-1]
	}
	return append(h, v)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("bondmd live: %s", m.name)))
	b.WriteString("\n")

	stats := []string{
		statLine("atoms", fmt.Sprintf("%d", m.driver.Atoms.N)),
		statLine("step", fmt.Sprintf("%d", m.step)),
		statLine("time", fmt.Sprintf("%.2f fs", m.t*md.TimeUnitFS)),
		statLine("temperature", fmt.Sprintf("%.1f K", m.driver.Atoms.Temperature())),
		statLine("energy", fmt.Sprintf("%.4f eV", m.driver.Out().TotalEnergy()+m.driver.Atoms.KineticEnergy())),
	}
	if m.err != nil {
		stats = append(stats, statLine("error", m.err.Error()))
	}
	b.WriteString(statsStyle.Render(strings.Join(stats, "\n")))
	b.WriteString("\n")

	if len(m.tempHistory) >= 2 {
		b.WriteString(Plot("temperature (K)", m.tempHistory, graphWidth, graphHeight))
		b.WriteString("\n")
	}
	if len(m.energyHistory) >= 2 {
		b.WriteString(Plot("total energy (eV)", m.energyHistory, graphWidth, graphHeight))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause · q quit"))
	return b.String()
}

func statLine(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}
