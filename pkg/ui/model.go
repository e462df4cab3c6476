// Package ui is the chainview terminal interface: a bubbletea program that
// draws the supply-chain graph next to a detail panel or assistant chat and
// drives an explore.Session from keyboard input.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/chainview/pkg/explore"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// DefaultSplitRatio is the graph pane's share of the terminal width.
const DefaultSplitRatio = 0.6

type focusArea int

const (
	focusGraph focusArea = iota
	focusSide
)

// snapshotChangedMsg is sent when the watched snapshot file changes.
type snapshotChangedMsg struct{}

// Options configures a Model.
type Options struct {
	// SourceLabel names the data source in the header. Defaults to the
	// source's String method when it has one.
	SourceLabel string
	// SplitRatio is the graph pane's share of the width.
	SplitRatio float64
	// Changes triggers a graph reload on every receive.
	Changes <-chan struct{}
	// Clipboard writes text to the system clipboard.
	Clipboard func(string) error
	// MarkdownStyle is a glamour standard style name, or "auto".
	MarkdownStyle string
}

// Model is the top-level bubbletea model.
type Model struct {
	session *explore.Session
	sink    *renderSink
	theme   Theme
	help    help.Model

	graph  GraphPane
	detail DetailPane
	chat   ChatPane

	mode  model.ViewMode
	focus focusArea

	width  int
	height int
	ready  bool

	statusMsg     string
	statusIsError bool
	showHelp      bool
	fatal         error

	source     string
	splitRatio float64
	changes    <-chan struct{}
	writeClip  func(string) error
}

// NewModel wires a Session over src to a fresh Model. Session options are
// passed through.
func NewModel(src explore.Source, opts Options, sessionOpts ...explore.Option) Model {
	sink := &renderSink{}
	session := explore.New(src, sink, sessionOpts...)

	theme := DefaultTheme(lipgloss.DefaultRenderer())
	md := newMarkdownRenderer(opts.MarkdownStyle)

	label := opts.SourceLabel
	if label == "" {
		if s, ok := src.(fmt.Stringer); ok {
			label = s.String()
		}
	}
	ratio := opts.SplitRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultSplitRatio
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	return Model{
		session:    session,
		sink:       sink,
		theme:      theme,
		help:       help.New(),
		graph:      NewGraphPane(theme),
		detail:     NewDetailPane(theme, md),
		chat:       NewChatPane(theme, md),
		mode:       session.ViewMode(),
		source:     label,
		splitRatio: ratio,
		changes:    opts.Changes,
		writeClip:  copyFn,
		statusMsg:  "Loading graph…",
	}
}

// Init starts the first graph load and the snapshot watch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.session.Load(), waitForChange(m.changes))
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return snapshotChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()

	case explore.GraphLoadedMsg, explore.DetailCycleMsg, explore.ConversationReplyMsg:
		cmds = append(cmds, m.session.Update(msg))
		cmds = append(cmds, m.drain())
		cmds = append(cmds, m.syncLoading())
		if err := m.session.Fatal(); err != nil {
			m.fatal = err
		}

	case snapshotChangedMsg:
		m.setStatus("Snapshot changed, reloading…", false)
		cmds = append(cmds, m.session.Reload(), waitForChange(m.changes))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		if m.mode == model.ViewConversation {
			m.chat, cmd = m.chat.Update(msg)
		} else {
			m.detail, cmd = m.detail.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.graph.Filtering() {
		switch msg.Type {
		case tea.KeyEnter:
			m.graph.StopFilter(false)
		case tea.KeyEsc:
			m.graph.StopFilter(true)
		default:
			m.graph.UpdateFilter(msg)
		}
		return m, nil
	}

	if m.chat.Focused() {
		switch {
		case key.Matches(msg, keys.Back):
			m.chat.Blur()
			m.focus = focusGraph
			return m, nil
		case msg.Type == tea.KeyEnter:
			return m.submit()
		case key.Matches(msg, keys.Tab):
			// handled below
		default:
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			return m, cmd
		}
	}

	m.statusMsg, m.statusIsError = "", false

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = true

	case key.Matches(msg, keys.Tab):
		return m.toggleView()

	case key.Matches(msg, keys.Reload):
		m.setStatus("Reloading graph…", false)
		return m, m.session.Reload()

	case key.Matches(msg, keys.Copy):
		m.copyPanel()

	case key.Matches(msg, keys.Filter):
		m.focus = focusGraph
		m.chat.Blur()
		m.graph.StartFilter()

	case key.Matches(msg, keys.Back):
		m.focus = focusGraph
		m.chat.Blur()

	case key.Matches(msg, keys.Focus):
		m.focus = focusSide
		if m.mode == model.ViewConversation {
			return m, m.chat.Focus()
		}

	case key.Matches(msg, keys.PageUp):
		m.scrollSide(true)

	case key.Matches(msg, keys.PageDown):
		m.scrollSide(false)

	case m.focus == focusSide && (key.Matches(msg, keys.Up) || key.Matches(msg, keys.Down)):
		m.scrollSide(key.Matches(msg, keys.Up))

	case key.Matches(msg, keys.Up):
		m.graph.MoveUp()

	case key.Matches(msg, keys.Down):
		m.graph.MoveDown()

	case key.Matches(msg, keys.Top):
		m.graph.Top()

	case key.Matches(msg, keys.Bottom):
		m.graph.Bottom()

	case key.Matches(msg, keys.Select):
		return m.selectCurrent()
	}

	return m, nil
}

// selectCurrent treats the row under the cursor as a node click.
func (m Model) selectCurrent() (tea.Model, tea.Cmd) {
	row, ok := m.graph.Current()
	if !ok {
		return m, nil
	}
	cmd := m.session.Select(row.ID, row.Kind)
	drained := m.drain()
	if row.Kind != model.KindPart {
		m.setStatus(m.graph.Hover(), false)
		return m, drained
	}
	m.graph.SetActive(row.ID)
	m.chat.SetPart(row.ID)
	return m, tea.Batch(cmd, drained, m.syncLoading())
}

func (m Model) toggleView() (tea.Model, tea.Cmd) {
	target := model.ViewConversation
	if m.mode == model.ViewConversation {
		target = model.ViewDetail
	}
	if err := m.session.SwitchView(target); err != nil {
		if errors.Is(err, explore.ErrSwitchBlocked) {
			m.setStatus(fmt.Sprintf("Can't open %s: %s", target, strings.TrimPrefix(err.Error(), explore.ErrSwitchBlocked.Error()+": ")), true)
			return m, nil
		}
		m.setStatus(err.Error(), true)
		return m, nil
	}
	return m, m.drain()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.chat.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	cmd := m.session.Submit(text)
	if cmd == nil {
		m.setStatus("Waiting for the assistant…", false)
		return m, nil
	}
	m.chat.ClearInput()
	return m, tea.Batch(cmd, m.drain())
}

func (m *Model) copyPanel() {
	p := m.session.Panel()
	if p.IsEmpty() {
		m.setStatus("Nothing to copy: no part selected", true)
		return
	}
	if err := m.writeClip(p.Markdown()); err != nil {
		m.setStatus(fmt.Sprintf("Copy failed: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s to clipboard", p.Part), false)
}

func (m *Model) scrollSide(up bool) {
	switch {
	case m.mode == model.ViewConversation && up:
		m.chat.ScrollUp()
	case m.mode == model.ViewConversation:
		m.chat.ScrollDown()
	case up:
		m.detail.ScrollUp()
	default:
		m.detail.ScrollDown()
	}
}

// drain applies the session's queued renderer instructions.
func (m *Model) drain() tea.Cmd {
	var cmds []tea.Cmd
	for _, ev := range m.sink.take() {
		switch ev := ev.(type) {
		case graphReadyEvent:
			m.graph.SetGraph(ev.graph)
			s := ev.graph.Stats()
			m.setStatus(fmt.Sprintf("Loaded %d parts, %d suppliers, %d links", s.Parts, s.Suppliers, s.Links), false)

		case panelEvent:
			m.detail.SetPanel(ev.panel)

		case conversationEvent:
			m.chat.SetConversation(ev.state)
			if ev.state.Phase == model.PhaseError {
				m.setStatus("Assistant unavailable", true)
			}
			if !ev.state.Pending && m.mode == model.ViewConversation && m.focus == focusSide {
				cmds = append(cmds, m.chat.Focus())
			}

		case viewModeEvent:
			m.mode = ev.mode
			if ev.mode == model.ViewConversation {
				m.focus = focusSide
				cmds = append(cmds, m.chat.Focus())
			} else {
				m.chat.Blur()
			}

		case focusEvent:
			m.graph.FocusNode(ev.id)

		case failureEvent:
			m.setStatus("Error: "+ev.err.Error(), true)
		}
	}
	return tea.Batch(cmds...)
}

// syncLoading mirrors the session's detail loading flag into the pane.
func (m *Model) syncLoading() tea.Cmd {
	return m.detail.SetLoading(m.session.DetailLoading(), m.session.Selected())
}

func (m *Model) setStatus(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
}

// bodyHeight is the pane height between the header and footer lines.
func (m Model) bodyHeight() int {
	return max(m.height-2, 3)
}

func (m Model) paneWidths() (graphW, sideW int) {
	graphW = int(float64(m.width) * m.splitRatio)
	return graphW, m.width - graphW
}

func (m *Model) layout() {
	graphW, sideW := m.paneWidths()
	h := m.bodyHeight()
	m.graph.SetSize(max(graphW-2, 1), max(h-2, 1))
	m.detail.SetSize(max(sideW-2, 1), max(h-2, 1))
	m.chat.SetSize(max(sideW-2, 1), max(h-2, 1))
	m.help.Width = m.width
}

func (m Model) View() string {
	if m.fatal != nil {
		return m.theme.StatusError.Render("Error: "+m.fatal.Error()) + "\n"
	}
	if !m.ready {
		return "Loading…"
	}
	if m.showHelp {
		return m.renderHelp()
	}

	graphW, sideW := m.paneWidths()
	h := m.bodyHeight()

	side := m.detail.View()
	if m.mode == model.ViewConversation {
		side = m.chat.View()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelFrame(m.focus == focusGraph, graphW, h).Render(m.graph.View()),
		panelFrame(m.focus == focusSide, sideW, h).Render(side),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	t := m.theme
	s := m.session.Graph().Stats()
	info := fmt.Sprintf(" %s · %d parts · %d suppliers · %d links · %s view",
		m.source, s.Parts, s.Suppliers, s.Links, m.mode)
	return t.Header.Render("chainview") + t.MutedText.Render(truncate(info, max(m.width-12, 0)))
}

func (m Model) renderFooter() string {
	t := m.theme
	if m.statusMsg != "" {
		style := t.StatusInfo
		if m.statusIsError {
			style = t.StatusError
		}
		return style.Render(truncate(m.statusMsg, m.width))
	}
	return m.help.ShortHelpView(keys.ShortHelp())
}

func (m Model) renderHelp() string {
	t := m.theme
	h := m.help
	h.ShowAll = true
	content := t.PrimaryBold.Render("Keyboard shortcuts") + "\n\n" + h.View(keys) +
		"\n\n" + t.MutedText.Render("Press any key to close")
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

// Session returns the underlying exploration session.
func (m Model) Session() *explore.Session { return m.session }

// Mode returns the visible side pane.
func (m Model) Mode() model.ViewMode { return m.mode }

// Status returns the footer status line and whether it reports an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

// Graph returns the graph pane.
func (m Model) Graph() GraphPane { return m.graph }

// Detail returns the detail pane.
func (m Model) Detail() DetailPane { return m.detail }

// Chat returns the chat pane.
func (m Model) Chat() ChatPane { return m.chat }

// Fatal returns the error that ended the program, if any.
func (m Model) Fatal() error { return m.fatal }

// Stop cancels in-flight requests.
func (m Model) Stop() { m.session.Stop() }
