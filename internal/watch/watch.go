// Package watch implements a live terminal view of the current snapshot
// using BubbleTea, grouped by sensor group with color-coded values. It is a
// read-only consumer of the poller, not a selection UI.
package watch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/warbou/hwinfo-oled-monitor/internal/hwinfo"
	"github.com/warbou/hwinfo-oled-monitor/internal/poller"
)

const refreshInterval = 1 * time.Second

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the live view.
type Model struct {
	poller    *poller.Poller
	snap      *hwinfo.Snapshot
	width     int
	height    int
	scroll    int
	paused    bool
	startTime time.Time
}

// New creates the initial model reading from the given poller.
func New(p *poller.Poller) Model {
	return Model{poller: p, startTime: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		case "home":
			m.scroll = 0
		case " ", "p":
			m.paused = !m.paused
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if !m.paused {
			m.snap = m.poller.Snapshot()
		}
		return m, tickCmd()
	}

	return m, nil
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg   = lipgloss.Color("17")
	colorTitleFg   = lipgloss.Color("51")
	colorBorder    = lipgloss.Color("62")
	colorGroupName = lipgloss.Color("147")
	colorLabel     = lipgloss.Color("252")
	colorDim       = lipgloss.Color("240")
	colorValue     = lipgloss.Color("250")
	colorFooterBg  = lipgloss.Color("235")
	colorPaused    = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, m.renderTitleBar(contentWidth))

	if m.snap == nil {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Waiting for sensor data... (" + m.poller.State().String() + ")")
		sections = append(sections, waiting)
	} else {
		sections = append(sections, m.renderGroupPanels(contentWidth)...)
	}

	sections = append(sections, m.renderFooter(contentWidth))
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visible := m.height
	if visible < 5 {
		visible = 5
	}
	maxScroll := len(lines) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}

	end := m.scroll + visible
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[m.scroll:end], "\n")
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("HWiNFO LIVE")

	var statusParts []string
	statusParts = append(statusParts, lipgloss.NewStyle().
		Foreground(colorDim).
		Render(m.poller.State().String()))

	if m.snap != nil {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorDim).
			Render(m.snap.Taken.Format("15:04:05")))
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorDim).
			Render(fmt.Sprintf("%d readings", len(m.snap.Readings))))
	}
	if m.paused {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true).
			Render("PAUSED"))
	}

	sep := lipgloss.NewStyle().Foreground(colorDim).Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderGroupPanels(totalWidth int) []string {
	byGroup := make(map[uint32][]hwinfo.Reading)
	for _, r := range m.snap.Readings {
		byGroup[r.SensorID] = append(byGroup[r.SensorID], r)
	}

	labelW := 36
	valueW := 12

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(colorValue)

	var panels []string
	for _, g := range m.snap.Groups {
		readings := byGroup[g.ID]
		if len(readings) == 0 {
			continue
		}
		sort.SliceStable(readings, func(i, j int) bool {
			return readings[i].Kind < readings[j].Kind
		})

		var rows []string
		title := lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGroupName).
			Render(g.Name)
		if g.Instance > 0 {
			title += dimS.Render(fmt.Sprintf(" #%d", g.Instance))
		}
		rows = append(rows, title)

		for _, r := range readings {
			label := lipgloss.NewStyle().
				Foreground(colorLabel).
				Width(labelW).
				Render(truncate(r.Label, labelW))
			value := valS.Width(valueW).Align(lipgloss.Right).
				Render(fmt.Sprintf("%.1f %s", r.Value, r.Unit))
			stats := dimS.Render(fmt.Sprintf("  min %.1f  max %.1f  avg %.1f", r.Min, r.Max, r.Avg))
			kind := dimS.Render("  " + r.Kind.String())
			rows = append(rows, label+value+stats+kind)
		}

		panel := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(totalWidth).
			Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
		panels = append(panels, panel)
	}
	return panels
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	labelS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + labelS.Render(":quit") +
		dimS.Render("  j/k") + labelS.Render(":scroll") +
		dimS.Render("  p") + labelS.Render(":pause")

	uptime := dimS.Render(fmt.Sprintf("up %s", time.Since(m.startTime).Round(time.Second)))

	gap := width - lipgloss.Width(keys) - lipgloss.Width(uptime) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys + strings.Repeat(" ", gap) + uptime)
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 3 {
		return s[:w]
	}
	return s[:w-1] + "…"
}
