// Package tui implements a terminal live view over a running Simulator: a
// Bubble Tea model that steps the event queue on a ticker instead of
// draining it to completion, rendering population sizes and queue depth as
// the run progresses.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/eventsim/internal/population"
	"github.com/san-kum/eventsim/internal/simulator"
)

const (
	historyCapacity = 200
	stepsPerTick    = 25
)

// TickMsg drives one batch of simulation steps.
type TickMsg time.Time

// Model renders a Simulator's progress live: current simulated time,
// per-population live counts, and recent queue-depth history.
type Model struct {
	sim     *simulator.Simulator
	names   []string
	pops    map[string]*population.Population
	running bool

	pendingHistory []float64
	quitting       bool
}

// NewModel builds a live view over sim and the named populations it drives.
func NewModel(sim *simulator.Simulator, pops map[string]*population.Population) Model {
	names := make([]string, 0, len(pops))
	for name := range pops {
		names = append(names, name)
	}
	sort.Strings(names)
	return Model{
		sim:            sim,
		names:          names,
		pops:           pops,
		running:        true,
		pendingHistory: make([]float64, 0, historyCapacity),
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
			m.quitting = true
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case TickMsg:
		if m.running {
			for i := 0; i < stepsPerTick; i++ {
				if !m.sim.Step() {
					m.running = false
					break
				}
			}
			m.pendingHistory = append(m.pendingHistory, float64(m.sim.Pending()))
			if len(m.pendingHistory) > historyCapacity {
				m.pendingHistory = m.pendingHistory[1:]
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render("SIMULATOR") + "\n")

	status := statusRunning.Render("RUNNING")
	if !m.running {
		status = statusPaused.Render("PAUSED")
	}
	body.WriteString(status + "\n\n")

	body.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.4fs", m.sim.CurrentEvent().Time())) + "\n")
	body.WriteString(labelStyle.Render("Queue depth") + valueStyle.Render(fmt.Sprintf("%d", m.sim.Pending())) + "\n\n")

	body.WriteString("POPULATIONS\n")
	for _, name := range m.names {
		body.WriteString(labelStyle.Render(name) + valueStyle.Render(fmt.Sprintf("%d live", m.pops[name].Len())) + "\n")
	}

	if len(m.pendingHistory) > 1 {
		chart := asciigraph.Plot(m.pendingHistory, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("queue depth"))
		body.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}

	body.WriteString(helpStyle.Render("\nspace: pause/resume   q: quit"))
	return statsStyle.Render(body.String())
}
