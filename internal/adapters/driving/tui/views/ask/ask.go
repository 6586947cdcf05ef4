// Package ask provides the single-screen question and answer view.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driving"
)

// View is the ask screen: question input, answer viewport, retrieved
// sources and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.SourceList
	answer    viewport.Model
	statusbar *status.Bar

	queryService  driving.QueryService
	statusService driving.StatusService
	ctx           context.Context
	topK          int

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
	showHelp   bool
	last       *domain.Answer
}

// NewView creates a new ask view. statusService may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	queryService driving.QueryService,
	statusService driving.StatusService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQueryInput(s),
		list:          list.NewSourceList(s),
		answer:        viewport.New(80, 8),
		statusbar:     status.NewBar(s, km),
		queryService:  queryService,
		statusService: statusService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets the topK sent with every question.
func (v *View) WithTopK(topK int) *View {
	v.topK = topK
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadCounts())
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.QuestionSubmitted:
		return v, v.submit(msg.Query)

	case messages.AnswerCompleted:
		v.handleAnswer(msg)
		return v, nil

	case messages.CountsLoaded:
		if msg.Err == nil {
			v.statusbar.SetMessage(formatCounts(msg.Counts))
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit(v.input.Value())
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Quit):
		return v, tea.Quit
	case keymap.Matches(key, v.keymap.Back), keymap.Matches(key, v.keymap.NewQuestion):
		v.focusInput = true
		if keymap.Matches(key, v.keymap.NewQuestion) {
			v.input.SetValue("")
		}
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Help):
		v.showHelp = !v.showHelp
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.answer, cmd = v.answer.Update(msg)
		return v, cmd
	}
	return v, nil
}

// submit starts an ask for query. Blank queries are ignored.
func (v *View) submit(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	v.err = nil
	v.statusbar.SetState(status.StateAsking)
	v.focusInput = false
	v.input.Blur()

	ctx, svc, topK := v.ctx, v.queryService, v.topK
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		answer, err := svc.Ask(ctx, query, topK)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (v *View) loadCounts() tea.Cmd {
	if v.statusService == nil {
		return nil
	}
	ctx, svc := v.ctx, v.statusService
	return func() tea.Msg {
		counts, err := svc.Counts(ctx)
		return messages.CountsLoaded{Counts: counts, Err: err}
	}
}

// handleAnswer shows a completed answer and its sources.
func (v *View) handleAnswer(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.last = msg.Answer
	v.list.SetContext(msg.Answer.Context)
	v.renderAnswer()
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetSourceCount(msg.Answer.Context.Total())
	v.statusbar.SetMessage("")
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.focusInput = true
	v.input.Focus()
}

func (v *View) renderAnswer() {
	if v.last == nil {
		v.answer.SetContent("")
		return
	}
	text := v.last.Text
	if text == "" {
		text = v.styles.Muted.Render("(the model returned no answer)")
	}
	v.answer.SetContent(lipgloss.NewStyle().Width(max(20, v.answer.Width)).Render(text))
	v.answer.GotoTop()
}

func formatCounts(counts map[domain.SourceType]int) string {
	parts := make([]string, 0, len(domain.SourceTypes))
	for _, t := range domain.SourceTypes {
		parts = append(parts, fmt.Sprintf("%s %d", t.Label(), counts[t]))
	}
	return strings.Join(parts, " | ")
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("evidence-rag"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.last != nil {
		sections = append(sections, v.styles.Answer.Render(v.answer.View()), "", v.list.View())
	}

	if v.showHelp {
		sections = append(sections, "", v.renderHelp())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderHelp() string {
	rows := make([]string, 0, 3)
	for _, group := range v.keymap.FullHelp() {
		hints := make([]string, 0, len(group))
		for _, b := range group {
			h := b.Help()
			hints = append(hints, h.Key+" "+h.Desc)
		}
		rows = append(rows, strings.Join(hints, "  "))
	}
	return v.styles.Muted.Render(strings.Join(rows, "\n"))
}

// SetDimensions sets the view dimensions and splits the height between
// the answer and the source list.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// header, input, spacing and status bar
	body := max(6, height-10)
	answerHeight := max(3, body/2)

	v.input.SetWidth(width)
	v.answer.Width = max(20, width-4)
	v.answer.Height = answerHeight
	v.list.SetDimensions(width, body-answerHeight)
	v.statusbar.SetWidth(width)
	v.renderAnswer()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current question text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the question text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Answer returns the last completed answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.last
}

// Sources returns the retrieved rows shown in the list.
func (v *View) Sources() []domain.RetrievedRow {
	return v.list.Rows()
}

// SelectedIndex returns the index of the selected source row.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// HelpVisible returns whether the full help is shown.
func (v *View) HelpVisible() bool {
	return v.showHelp
}

// StatusState returns the status bar state.
func (v *View) StatusState() status.State {
	return v.statusbar.State()
}
