package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"

	"github.com/tessro/earshot/internal/engine"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/seek"
	"github.com/tessro/earshot/internal/session"
	"github.com/tessro/earshot/internal/tui/components"
	"github.com/tessro/earshot/internal/tui/styles"
)

// Panel represents which lower panel is focused
type Panel int

const (
	PanelMarks Panel = iota
	PanelTranscript
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeLabel
)

const (
	volumeStep   = 5
	scrubStep    = 5 * time.Second
	noticeExpiry = 5 * time.Second
)

// Options configures the TUI.
type Options struct {
	Theme          string
	ShowTranscript bool
	Skip           time.Duration
}

// Model is the main TUI model
type Model struct {
	engine  *engine.Engine
	updates <-chan session.Update
	opts    Options
	keys    keyMap

	width   int
	height  int
	focused Panel
	mode    mode

	state session.State

	nowPlaying *components.NowPlaying
	marks      *components.Marks
	transcript *components.Transcript

	searchInput textinput.Model
	labelInput  textinput.Model
	scrub       *seek.Scrubber

	showHelp bool

	notice       *errors.Notice
	lastError    error
	statusExpiry time.Time

	quitting bool
}

// NewModel creates a TUI model reading session updates from updates.
func NewModel(eng *engine.Engine, updates <-chan session.Update, opts Options) Model {
	search := textinput.New()
	search.Placeholder = "Search the transcript..."
	search.CharLimit = 200
	search.Width = 40

	label := textinput.New()
	label.Placeholder = "Bookmark label"
	label.CharLimit = 100
	label.Width = 40

	focused := PanelMarks
	if opts.ShowTranscript {
		focused = PanelTranscript
	}

	return Model{
		engine:      eng,
		updates:     updates,
		opts:        opts,
		keys:        defaultKeys(),
		focused:     focused,
		state:       eng.State(),
		nowPlaying:  components.NewNowPlaying(),
		marks:       components.NewMarks(),
		transcript:  components.NewTranscript(),
		searchInput: search,
		labelInput:  label,
	}
}

// Messages
type updateMsg session.Update
type errMsg struct{ err error }
type clearStatusMsg struct{}

func waitForUpdate(ch <-chan session.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg(u)
	}
}

// do runs an engine call off the UI goroutine.
func (m Model) do(fn func(ctx context.Context, e *engine.Engine) error) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		if err := fn(context.Background(), eng); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case updateMsg:
		if m.state.Search.Generation != msg.State.Search.Generation {
			m.transcript.Reset()
		}
		m.state = msg.State
		cmds := []tea.Cmd{waitForUpdate(m.updates)}
		if msg.Notice != nil {
			m.notice = msg.Notice
			m.statusExpiry = time.Now().Add(noticeExpiry)
			cmds = append(cmds, clearStatusAfter(noticeExpiry))
		}
		return m, tea.Batch(cmds...)

	case errMsg:
		if alreadyReported(msg.err) {
			return m, nil
		}
		m.lastError = msg.err
		m.statusExpiry = time.Now().Add(noticeExpiry)
		return m, clearStatusAfter(noticeExpiry)

	case clearStatusMsg:
		if time.Now().After(m.statusExpiry) {
			m.notice = nil
			m.lastError = nil
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

// alreadyReported filters errors that reached the session as a notice,
// plus superseded selections.
func alreadyReported(err error) bool {
	for _, target := range []error{
		errors.ErrSuperseded,
		errors.ErrPlaybackRejected,
		errors.ErrRemote,
		errors.ErrNotAuthenticated,
		errors.ErrNetworkError,
		errors.ErrPlayerUnavailable,
	} {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case modeLabel:
		m.labelInput, cmd = m.labelInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKeyPress(msg)
	case modeLabel:
		return m.handleLabelKeyPress(msg)
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, k.Toggle):
		return m, m.do(func(ctx context.Context, e *engine.Engine) error { return e.Toggle(ctx) })

	case key.Matches(msg, k.ScrubBack), key.Matches(msg, k.ScrubAhead):
		if m.scrub == nil {
			s, err := m.engine.Scrubber()
			if err != nil {
				return m, nil
			}
			m.scrub = s
		}
		delta := scrubStep
		if key.Matches(msg, k.ScrubBack) {
			delta = -delta
		}
		m.scrub.Nudge(delta)
		return m, nil

	case key.Matches(msg, k.Commit):
		if m.scrub != nil && m.scrub.Active() {
			s := m.scrub
			m.scrub = nil
			return m, m.do(func(ctx context.Context, _ *engine.Engine) error {
				_, err := s.Commit(ctx)
				return err
			})
		}
		if m.focused == PanelTranscript {
			return m, m.jumpToHit()
		}
		return m, m.jumpToMark()

	case key.Matches(msg, k.Cancel):
		if m.scrub != nil {
			m.scrub.Cancel()
			m.scrub = nil
		}
		return m, nil

	case key.Matches(msg, k.SkipBack):
		skip := m.opts.Skip
		return m, m.do(func(ctx context.Context, e *engine.Engine) error {
			_, err := e.SkipBackward(ctx, skip)
			return err
		})

	case key.Matches(msg, k.SkipForward):
		skip := m.opts.Skip
		return m, m.do(func(ctx context.Context, e *engine.Engine) error {
			_, err := e.SkipForward(ctx, skip)
			return err
		})

	case key.Matches(msg, k.VolumeUp), key.Matches(msg, k.VolumeDown):
		step := volumeStep
		if key.Matches(msg, k.VolumeDown) {
			step = -step
		}
		target := m.state.Volume + step
		return m, m.do(func(ctx context.Context, e *engine.Engine) error {
			_, err := e.SetVolume(ctx, target)
			return err
		})

	case key.Matches(msg, k.Mute):
		muted := !m.state.IsMuted
		return m, m.do(func(ctx context.Context, e *engine.Engine) error { return e.SetMuted(ctx, muted) })

	case key.Matches(msg, k.Rate):
		return m, m.do(func(ctx context.Context, e *engine.Engine) error {
			_, err := e.CycleRate(ctx)
			return err
		})

	case key.Matches(msg, k.AddMark):
		m.mode = modeLabel
		m.labelInput.SetValue("")
		m.labelInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, k.PrevMark):
		m.focused = PanelMarks
		m.marks.SelectPrev()
		return m, nil

	case key.Matches(msg, k.NextMark):
		m.focused = PanelMarks
		m.marks.SelectNext(len(m.state.Marks))
		return m, nil

	case key.Matches(msg, k.JumpMark):
		return m, m.jumpToMark()

	case key.Matches(msg, k.RemoveMark):
		b, ok := m.marks.Selected(m.state.Marks)
		if !ok {
			return m, nil
		}
		return m, m.do(func(ctx context.Context, e *engine.Engine) error { return e.RemoveBookmark(ctx, b.ID) })

	case key.Matches(msg, k.Search):
		m.mode = modeSearch
		m.focused = PanelTranscript
		m.opts.ShowTranscript = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, k.FocusNext):
		if m.opts.ShowTranscript {
			m.focused = (m.focused + 1) % 2
		}
		return m, nil

	case key.Matches(msg, k.Up):
		if m.focused == PanelTranscript {
			m.transcript.Prev()
		} else {
			m.marks.SelectPrev()
		}
		return m, nil

	case key.Matches(msg, k.Down):
		if m.focused == PanelTranscript {
			m.transcript.Next(len(m.state.Search.Hits))
		} else {
			m.marks.SelectNext(len(m.state.Marks))
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		return m, nil

	case "enter":
		m.mode = modeNormal
		m.searchInput.Blur()
		return m, m.jumpToHit()

	case "up", "ctrl+p":
		m.transcript.Prev()
		return m, nil

	case "down", "ctrl+n":
		m.transcript.Next(len(m.state.Search.Hits))
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		// the debouncer only arms a timer here
		_ = m.engine.SetSearchQuery(after)
	}
	return m, cmd
}

func (m Model) handleLabelKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.labelInput.Blur()
		return m, nil

	case "enter":
		label := strings.TrimSpace(m.labelInput.Value())
		m.mode = modeNormal
		m.labelInput.Blur()
		if label == "" {
			return m, nil
		}
		return m, m.do(func(ctx context.Context, e *engine.Engine) error {
			_, err := e.AddBookmark(ctx, label)
			return err
		})
	}

	var cmd tea.Cmd
	m.labelInput, cmd = m.labelInput.Update(msg)
	return m, cmd
}

func (m Model) jumpToMark() tea.Cmd {
	b, ok := m.marks.Selected(m.state.Marks)
	if !ok || b.Pending {
		return nil
	}
	return m.do(func(ctx context.Context, e *engine.Engine) error { return e.JumpToBookmark(ctx, b.ID) })
}

func (m Model) jumpToHit() tea.Cmd {
	hit, ok := m.transcript.Selected(m.state.Search.Hits)
	if !ok {
		return nil
	}
	return m.do(func(ctx context.Context, e *engine.Engine) error {
		if _, err := e.Seek(ctx, hit.Start); err != nil {
			return err
		}
		return e.Play(ctx)
	})
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	topHeight := 10
	bottomHeight := max(m.height-topHeight-1, 6)

	var scrub mo.Option[time.Duration]
	if m.scrub != nil && m.scrub.Active() {
		scrub = mo.Some(m.scrub.Position())
	}
	nowPlaying := m.nowPlaying.Render(m.state, scrub, m.width-2, topHeight-2)

	var bottom string
	if m.opts.ShowTranscript {
		leftWidth := m.width * 40 / 100
		rightWidth := m.width - leftWidth
		marks := m.marks.Render(m.state.Marks, leftWidth-2, bottomHeight-2, m.focused == PanelMarks)

		input := ""
		if m.mode == modeSearch || m.searchInput.Value() != "" {
			input = m.searchInput.View()
		}
		transcript := m.transcript.Render(m.state.Search, input, rightWidth-2, bottomHeight-2, m.focused == PanelTranscript)
		bottom = lipgloss.JoinHorizontal(lipgloss.Top, marks, transcript)
	} else {
		bottom = m.marks.Render(m.state.Marks, m.width-2, bottomHeight-2, true)
	}

	return lipgloss.JoinVertical(lipgloss.Left, nowPlaying, bottom, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  space:play/pause  ←/→:skip  b:bookmark  g:jump  /:search")

	switch {
	case m.mode == modeLabel:
		status = styles.Highlight.Render("Label: ") + m.labelInput.View()
	case m.notice != nil:
		status = styles.ErrorText.Render(m.notice.String())
	case m.lastError != nil:
		status = styles.ErrorText.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "earshot - Keyboard Shortcuts"

	var b strings.Builder
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render(strings.Repeat("═", len(title))))
	b.WriteString("\n")

	for _, row := range m.keys.helpRows() {
		b.WriteString("\n")
		for _, binding := range row {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, styles.Muted.Render(h.Desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("  Press ? or Esc to close"))

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Padding(1, 2).Render(b.String()))
}

// Run starts the TUI against eng and blocks until the user quits.
func Run(eng *engine.Engine, opts Options) error {
	styles.Apply(opts.Theme)

	updates := make(chan session.Update, 64)
	unsubscribe := eng.Subscribe(func(u session.Update) { forward(updates, u) })
	defer unsubscribe()

	p := tea.NewProgram(NewModel(eng, updates, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// forward delivers u without blocking the session. When the buffer is
// full the oldest snapshot is dropped, keeping its notice if u has none.
func forward(ch chan session.Update, u session.Update) {
	for {
		select {
		case ch <- u:
			return
		default:
		}
		select {
		case old := <-ch:
			if u.Notice == nil {
				u.Notice = old.Notice
			}
		default:
		}
	}
}
