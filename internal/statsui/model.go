// Package statsui provides the Bubble Tea usage dashboard.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/stats"
)

const (
	tabOverview = iota
	tabKeys
	tabSectors
)

var windows = []int{1, 3, 7, 14, 30}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea usage dashboard.
type Model struct {
	src    stats.Source
	lay    *layout.Layout
	cfg    model.StatsConfig
	window int

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	keyTable  table.Model

	width  int
	height int
}

// NewModel constructs a dashboard over src.
func NewModel(src stats.Source, lay *layout.Layout, cfg model.StatsConfig, window int) *Model {
	m := &Model{
		src:    src,
		lay:    lay,
		cfg:    cfg,
		window: max(window, 1),
		tabs:   []string{"Overview", "Keys", "Sectors"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.keyTable = table.New(table.WithColumns(keyColumns()), table.WithFocused(true))
	m.keyTable.SetStyles(keyTableStyles())
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.activeTab = (m.activeTab + len(m.tabs) - 1) % len(m.tabs)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, tea.ClearScreen
		case "r":
			m.refresh()
			return m, nil
		case "=":
			m.window = stepWindow(m.window, 1)
			m.renderContents()
			return m, nil
		case "-":
			m.window = stepWindow(m.window, -1)
			m.renderContents()
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabKeys {
			m.keyTable, cmd = m.keyTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight := m.heights()
	header := fitLines(m.renderTabs()+"\n"+m.renderSettings(), m.width, headerHeight)
	var body string
	if m.activeTab == tabKeys {
		body = m.keyTable.View()
		if len(m.report.Keys) == 0 {
			body = "No key stats found."
		}
	} else {
		body = m.viewports[m.activeTab].View()
	}
	footer := headerStyle.Render("Nav: left/right  Scroll: up/down  Window: -/=  Reload: r  Quit: q")
	if m.errMsg != "" {
		footer = errorStyle.Render(m.errMsg)
	}
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), footer}, "\n")
}

func (m *Model) heights() (int, int) {
	header := lipgloss.Height(activeNavStyle.Render("X")) + 1
	return header, max(m.height-header-1, 1)
}

func (m *Model) resize() {
	_, body := m.heights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = body
	}
	m.keyTable.SetWidth(m.width)
	m.keyTable.SetHeight(max(body-1, 1))
}

func (m *Model) refresh() {
	report, err := stats.BuildReport(context.Background(), m.src, m.cfg)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load stats: %v", err)
		return
	}
	m.errMsg = ""
	m.report = report
	m.keyTable.SetRows(keyRows(report.Keys, m.lay))
	m.renderContents()
}

func (m *Model) renderContents() {
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.window, m.width))
	var buf bytes.Buffer
	if err := stats.RenderSectorUsage(&buf, m.report.Keys, m.lay); err != nil {
		buf.Reset()
		buf.WriteString(err.Error())
	}
	m.viewports[tabSectors].SetContent(buf.String())
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		style := inactiveNavStyle
		if i == m.activeTab {
			style = activeNavStyle
		}
		parts = append(parts, style.Render(tab))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderSettings() string {
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = fmt.Sprintf("%d", m.cfg.Last)
	}
	return headerStyle.Render(fmt.Sprintf("Settings: since=%s  last=%s  window=%dd", since, last, m.window))
}

func renderOverview(r stats.Report, window, width int) string {
	if len(r.Sessions) == 0 && len(r.Days) == 0 {
		return "No usage recorded."
	}
	var commits, cancels int
	for _, s := range r.Sessions {
		commits += s.Commits
		cancels += s.Cancels
	}
	top := strings.Join(stats.TopKeys(r.Keys, 5), " ")
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", len(r.Sessions))),
		metricCard("Commits", fmt.Sprintf("%d", commits)),
		metricCard("Cancels", fmt.Sprintf("%d", cancels)),
		metricCard("Top keys", labelList(top)),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		grid = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderDaily(&buf, r.Days, window); err != nil {
		return grid + "\n" + err.Error()
	}
	return grid + "\n\n" + buf.String()
}

func labelList(values string) string {
	if values == "" {
		return "-"
	}
	fields := strings.Split(values, " ")
	for i, v := range fields {
		fields[i] = stats.KeyLabel(v)
	}
	return strings.Join(fields, " ")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func keyColumns() []table.Column {
	return []table.Column{
		{Title: "Key", Width: 11},
		{Title: "Sector", Width: 6},
		{Title: "Pick", Width: 6},
		{Title: "Swipe", Width: 6},
		{Title: "Other", Width: 6},
		{Title: "Total", Width: 7},
	}
}

func keyRows(aggs []model.KeyAggregate, lay *layout.Layout) []table.Row {
	sorted := stats.SortByTotal(aggs)
	rows := make([]table.Row, 0, len(sorted))
	for _, agg := range sorted {
		sector := "-"
		if si, _, ok := lay.Locate(agg.Value); ok {
			sector = fmt.Sprintf("%d", si)
		}
		rows = append(rows, table.Row{
			stats.KeyLabel(agg.Value),
			sector,
			fmt.Sprintf("%d", agg.Pick),
			fmt.Sprintf("%d", agg.Swipe),
			fmt.Sprintf("%d", agg.Other),
			fmt.Sprintf("%d", agg.Total()),
		})
	}
	return rows
}

func keyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func stepWindow(current, delta int) int {
	idx := 0
	for i, w := range windows {
		if w <= current {
			idx = i
		}
	}
	idx = max(0, min(idx+delta, len(windows)-1))
	return windows[idx]
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}
