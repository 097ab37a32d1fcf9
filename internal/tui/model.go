// Package tui provides the Bubble Tea preview simulator. Mouse gestures on a
// rendered pie drive a private router, and committed keys feed a typing drill.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/radialkb/internal/commit"
	"github.com/verte-zerg/radialkb/internal/engine"
	"github.com/verte-zerg/radialkb/internal/generator"
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

// reservedRows is everything below and above the pad: header, status,
// drill text, footer and help.
const reservedRows = 9

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// Options configures the preview.
type Options struct {
	Layout *layout.Layout
	Tuning model.SelectionTuning
	// Router must commit into a recorder, never the system keyboard.
	Router     *engine.Router
	Generator  *generator.Generator
	Words      []string
	DrillWords int
	PunctPct   float64
	Rare       map[rune]struct{}
	RareFactor float64
	// Width and Height seed the layout before the first WindowSizeMsg.
	Width  int
	Height int
	Now    func() time.Time
}

// Model implements the Bubble Tea preview UI.
type Model struct {
	opts   Options
	lay    *layout.Layout
	router *engine.Router
	gen    *generator.Generator
	now    func() time.Time
	keys   keyMap
	help   help.Model

	width  int
	height int

	pressed bool
	status  string

	alphabet []rune
	punctSet []rune

	targetRunes []rune
	inputRunes  []rune
	started     bool
	startedAt   time.Time
	correct     int
	incorrect   int

	drills   int
	commits  int
	cancels  int
	lastRate float64
	lastAcc  float64
	hasLast  bool
}

// NewModel constructs a preview model.
func NewModel(opts Options) *Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.DrillWords <= 0 {
		opts.DrillWords = 8
	}
	gen := opts.Generator
	if gen == nil {
		gen = generator.New()
	}
	m := &Model{
		opts:   opts,
		lay:    opts.Layout,
		router: opts.Router,
		gen:    gen,
		now:    now,
		keys:   defaultKeyMap(),
		help:   help.New(),
		width:  opts.Width,
		height: opts.Height,
		status: "press and drag on the pie",
	}
	for _, r := range opts.Layout.Alphabet() {
		if unicode.IsLetter(r) {
			m.alphabet = append(m.alphabet, r)
		} else if unicode.IsPunct(r) {
			m.punctSet = append(m.punctSet, r)
		}
	}
	m.resetDrill()
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
		m.help.Width = msg.Width
		return m, nil
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextDrill):
			m.status = "drill skipped"
			m.resetDrill()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Backspace):
			m.send(protocol.ActionRequest{Action: model.ActionBackspace})
		case key.Matches(msg, m.keys.Enter):
			m.send(protocol.ActionRequest{Action: model.ActionEnter})
		case key.Matches(msg, m.keys.Cancel):
			m.send(protocol.ActionRequest{Action: model.ActionCancel})
		case msg.Type == tea.KeySpace:
			m.send(protocol.CommitChar{Char: ' '})
		case msg.Type == tea.KeyRunes:
			for _, r := range msg.Runes {
				m.send(protocol.CommitChar{Char: r})
			}
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	p := padFor(m.width, m.height, reservedRows)
	x, y := p.normalize(msg.X, msg.Y)
	point := protocol.Point{X: x, Y: y, TimestampMs: m.now().UnixMilli()}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !p.contains(msg.X, msg.Y) {
			return
		}
		m.pressed = true
		m.send(protocol.TouchDown{Point: point})
	case tea.MouseActionMotion:
		if m.pressed {
			m.send(protocol.TouchMove{Point: point})
		}
	case tea.MouseActionRelease:
		if m.pressed {
			m.pressed = false
			m.send(protocol.TouchUp{Point: point})
		}
	}
}

// send runs one event through the private router and applies its commits.
func (m *Model) send(ev protocol.Event) {
	res := m.router.Handle(context.Background(), ev)
	if res.Cancelled {
		m.cancels++
		m.status = "cancelled"
	}
	for _, em := range res.Commits {
		m.commits++
		m.status = fmt.Sprintf("%s %s", em.Origin, displayValue(em))
		m.applyCommit(em)
	}
}

func (m *Model) applyCommit(em commit.Emission) {
	switch em.Action {
	case model.ActionNone:
		for _, r := range em.Text {
			m.typeRune(r)
		}
	case model.ActionSpace:
		m.typeRune(' ')
	case model.ActionBackspace:
		if len(m.inputRunes) > 0 {
			m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
		}
	case model.ActionEnter:
		m.finishDrill()
		m.resetDrill()
	}
}

func (m *Model) typeRune(r rune) {
	if len(m.inputRunes) >= len(m.targetRunes) {
		return
	}
	if !m.started {
		m.started = true
		m.startedAt = m.now()
	}
	expected := m.targetRunes[len(m.inputRunes)]
	m.inputRunes = append(m.inputRunes, r)
	if expected != ' ' {
		if r == expected {
			m.correct++
		} else {
			m.incorrect++
		}
	}
	if len(m.inputRunes) == len(m.targetRunes) {
		m.finishDrill()
		m.resetDrill()
	}
}

func (m *Model) finishDrill() {
	if !m.started {
		return
	}
	m.drills++
	elapsed := m.now().Sub(m.startedAt)
	m.lastRate = 0
	if minutes := elapsed.Minutes(); minutes > 0 {
		m.lastRate = float64(len(m.inputRunes)) / minutes
	}
	m.lastAcc = 0
	if total := m.correct + m.incorrect; total > 0 {
		m.lastAcc = float64(m.correct) / float64(total)
	}
	m.hasLast = true
}

func (m *Model) resetDrill() {
	m.inputRunes = nil
	m.started = false
	m.startedAt = time.Time{}
	m.correct = 0
	m.incorrect = 0
	m.targetRunes = []rune(m.generateText())
}

func (m *Model) generateText() string {
	var words []string
	switch {
	case len(m.opts.Words) > 0 && len(m.opts.Rare) > 0:
		words = m.gen.GenerateWeighted(m.opts.Words, m.opts.DrillWords, m.opts.PunctPct, m.punctSet, m.opts.Rare, m.opts.RareFactor)
	case len(m.opts.Words) > 0:
		words = m.gen.Generate(m.opts.Words, m.opts.DrillWords, m.opts.PunctPct, m.punctSet)
	default:
		words = m.gen.Synthesize(m.alphabet, m.opts.DrillWords, 2, 5, m.opts.Rare, m.opts.RareFactor)
	}
	return strings.Join(words, " ")
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	p := padFor(m.width, m.height, reservedRows)
	sel := m.router.Selection()
	grid := pieGrid(m.lay, m.opts.Tuning, sel, p.width, p.height)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("radialkb preview · %s · %s", m.router.State(), describe(m.lay, sel))))
	b.WriteByte('\n')
	for _, line := range renderPie(grid, p.left) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footerStyle.Render(m.status)))
	b.WriteString("\n\n")

	cursor := -1
	if len(m.inputRunes) < len(m.targetRunes) {
		cursor = len(m.inputRunes)
	}
	contentWidth := max(int(float64(m.width)*0.70), 1)
	drill := wrapStyledRunes(styleDrill(m.targetRunes, m.inputRunes, cursor), contentWidth)
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, lipgloss.NewStyle().Width(contentWidth).Render(drill)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.renderFooter()))
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderFooter() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	progress := int(float64(len(m.inputRunes)) / float64(len(m.targetRunes)) * 100)
	segments := []string{fmt.Sprintf("Drill %d", m.drills+1), fmt.Sprintf("Progress %d%%", progress)}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f CPM · %.1f%%", m.lastRate, m.lastAcc*100))
	}
	segments = append(segments, fmt.Sprintf("Commits %d · Cancels %d", m.commits, m.cancels))
	return footerStyle.Render(strings.Join(segments, "  "))
}

func displayValue(em commit.Emission) string {
	if em.Action != model.ActionNone {
		return keyGlyph(model.ActionKey(em.Action))
	}
	if em.Text == " " {
		return keyGlyph(model.CharKey(' '))
	}
	return fmt.Sprintf("%q", em.Text)
}
