// Package tui implements the interactive kanban view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"spacequest/internal/board"
	"spacequest/internal/notify"
	"spacequest/internal/output"
	xp "spacequest/internal/progress"
	"spacequest/internal/service"
)

// refreshInterval re-renders so expired notifications disappear.
const refreshInterval = 500 * time.Millisecond

// Options configures the kanban view.
type Options struct {
	Table     xp.ExperienceTable
	NotifyTTL time.Duration
	Logger    *zap.Logger

	// Revert controls whether failed moves are rolled back.
	Revert bool
}

// RunBoard runs the kanban view for the project ref until the user quits.
func RunBoard(ctx context.Context, svc service.Service, ref string, opts Options, in io.Reader, out io.Writer) error {
	hub := notify.NewHub(opts.NotifyTTL)
	defer hub.Close()

	m := newModel(ctx, svc, ref, hub, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(model); ok && fm.coord != nil {
		// Let moves already sent settle so their outcome is not lost. A move
		// still unanswered after the timeout keeps only its own goroutine.
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = fm.coord.Wait(wctx)
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type model struct {
	ctx    context.Context
	svc    service.Service
	ref    string
	opts   Options
	hub    *notify.Hub
	sub    <-chan notify.Notification
	logger *zap.Logger

	coord   *board.Coordinator
	profile service.Profile

	col int // selected column
	row int // selected task within the column

	spinner spinner.Model
	bar     progress.Model
	width   int
	loading bool
	err     error
}

type loadedMsg struct {
	project service.Project
	profile service.Profile
	err     error
}

type notifyMsg notify.Notification

type settledMsg struct{}

type completedMsg struct {
	res service.CompleteResult
	err error
}

type tickMsg time.Time

func newModel(ctx context.Context, svc service.Service, ref string, hub *notify.Hub, opts Options) model {
	if len(opts.Table) == 0 {
		opts.Table = xp.CurveTable(50)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		ctx:     ctx,
		svc:     svc,
		ref:     ref,
		opts:    opts,
		hub:     hub,
		sub:     hub.Subscribe(),
		logger:  logger,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		loading: true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(), m.listenCmd(), tick())
}

func (m model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.svc.ResolveProject(m.ctx, m.ref)
		if err != nil {
			return loadedMsg{err: err}
		}
		p, err := m.svc.GetProject(m.ctx, summary.ID)
		if err != nil {
			return loadedMsg{err: err}
		}
		prof, err := m.svc.Profile(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{project: p, profile: prof}
	}
}

// listenCmd turns the next hub notification into a message.
func (m model) listenCmd() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		n, ok := <-sub
		if !ok {
			return nil
		}
		return notifyMsg(n)
	}
}

func waitCmd(mu *board.Mutation) tea.Cmd {
	return func() tea.Msg {
		<-mu.Done()
		return settledMsg{}
	}
}

func (m model) completeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteTask(m.ctx, id)
		return completedMsg{res: res, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tickMsg:
		return m, tick()
	case notifyMsg:
		return m, m.listenCmd()
	case settledMsg:
		m.clamp()
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.hub.Notify(notify.New(notify.Error, "Load failed", msg.err.Error()))
			return m, nil
		}
		m.profile = msg.profile
		if m.coord == nil {
			m.coord = board.New(board.FromProject(msg.project), m.svc, m.hub,
				board.WithRevertOnFailure(m.opts.Revert),
				board.WithLogger(m.logger),
			)
		} else {
			m.coord.Reconcile(msg.project)
		}
		m.clamp()
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.hub.Notify(notify.New(notify.Error, "Completion failed", msg.err.Error()))
			return m, nil
		}
		text := fmt.Sprintf("+%d XP +%d cr", msg.res.XPAwarded, msg.res.CreditsAwarded)
		if msg.res.LevelUp {
			text += fmt.Sprintf(", level %d -> %d", msg.res.LevelBefore, msg.res.LevelAfter)
		}
		m.hub.Notify(notify.New(notify.Success, "Objective complete", text))
		m.loading = true
		return m, m.loadCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.loadCmd()
	}
	if m.coord == nil {
		return m, nil
	}

	b := m.coord.Board()
	dragging := m.coord.Phase() != board.Idle

	switch msg.String() {
	case "left", "h":
		m.shift(b, -1, dragging)
	case "right", "l":
		m.shift(b, 1, dragging)
	case "up", "k":
		if !dragging && m.row > 0 {
			m.row--
		}
	case "down", "j":
		if !dragging {
			m.row++
			m.clamp()
		}
	case " ":
		task, ok := m.selected(b)
		if !ok || dragging {
			return m, nil
		}
		if err := m.coord.BeginDrag(task.ID); err != nil {
			m.hub.Notify(notify.New(notify.Warning, "Cannot grab", err.Error()))
			return m, nil
		}
		m.coord.Hover(task.Status)
	case "enter":
		if !dragging {
			return m, nil
		}
		target := m.coord.Target()
		mu, err := m.coord.Drop(m.ctx)
		if err != nil {
			m.hub.Notify(notify.New(notify.Error, "Move failed", err.Error()))
			return m, nil
		}
		if mu == nil {
			return m, nil
		}
		// Follow the task into its new column.
		if i := b.ColumnIndex(target); i >= 0 {
			m.col = i
			m.row = len(m.coord.Board().TasksIn(target)) - 1
		}
		m.clamp()
		return m, waitCmd(mu)
	case "esc":
		m.coord.Cancel()
	case "c":
		task, ok := m.selected(b)
		if !ok || dragging || task.Completed {
			return m, nil
		}
		return m, m.completeCmd(task.ID)
	}
	return m, nil
}

// shift moves the selection, or the hovered column while dragging.
func (m *model) shift(b *board.Board, delta int, dragging bool) {
	if len(b.Columns) == 0 {
		return
	}
	if !dragging {
		m.col = clampInt(m.col+delta, 0, len(b.Columns)-1)
		m.clamp()
		return
	}
	cur := b.ColumnIndex(m.coord.Target())
	if cur < 0 {
		cur = m.col
	}
	next := clampInt(cur+delta, 0, len(b.Columns)-1)
	m.coord.Hover(b.Columns[next].ID)
}

func (m model) selected(b *board.Board) (service.Task, bool) {
	if m.col >= len(b.Columns) {
		return service.Task{}, false
	}
	tasks := b.TasksIn(b.Columns[m.col].ID)
	if m.row < 0 || m.row >= len(tasks) {
		return service.Task{}, false
	}
	return tasks[m.row], true
}

func (m *model) clamp() {
	if m.coord == nil {
		return
	}
	b := m.coord.Board()
	if len(b.Columns) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = clampInt(m.col, 0, len(b.Columns)-1)
	n := len(b.TasksIn(b.Columns[m.col].ID))
	m.row = clampInt(m.row, 0, max(n-1, 0))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m model) View() string {
	var sb strings.Builder

	if m.coord == nil {
		if m.loading {
			sb.WriteString(m.spinner.View() + " Loading " + m.ref + "…\n")
		}
		if m.err != nil {
			sb.WriteString(output.Bad.Render("error: "+m.err.Error()) + "\n")
		}
		m.writeNotifications(&sb)
		sb.WriteString(output.Muted.Render("r retry · q quit") + "\n")
		return sb.String()
	}

	b := m.coord.Board()
	p := xp.ForXP(m.profile.XP, m.opts.Table)

	title := output.Heading(output.IconOrbit, b.Name)
	if m.loading {
		title += " " + m.spinner.View()
	}
	sb.WriteString(title + "\n")
	maxLevel := m.opts.Table.MaxLevel()
	level := fmt.Sprintf("%s Level %d/%d  %s  %d/%d XP", output.IconStar, p.Level, maxLevel, m.bar.ViewAs(p.Fraction), p.XPInCurrentLevel, p.TotalXPForLevel)
	if p.Maxed {
		level = fmt.Sprintf("%s Level %d/%d (max)  %d XP", output.IconStar, p.Level, maxLevel, p.XP)
	}
	sb.WriteString(level + "\n\n")

	sb.WriteString(m.columnsView(b) + "\n")

	if orphans := b.Orphans(); len(orphans) > 0 {
		sb.WriteString(output.Warn.Render(fmt.Sprintf("%s %d hidden task(s) match no column (r to reconcile)", output.IconWarn, len(orphans))) + "\n")
	}
	if n := len(m.coord.Pending()); n > 0 {
		sb.WriteString(output.Muted.Render(fmt.Sprintf("%d move(s) syncing…", n)) + "\n")
	}
	m.writeNotifications(&sb)

	help := "←/→ column · ↑/↓ task · space grab · c complete · r reload · q quit"
	if m.coord.Phase() != board.Idle {
		help = "←/→ choose column · enter drop · esc cancel"
	}
	sb.WriteString("\n" + output.Muted.Render(help) + "\n")
	return sb.String()
}

func (m model) columnsView(b *board.Board) string {
	dragging := m.coord.Phase() != board.Idle
	dragged := m.coord.Dragged()
	target := m.coord.Target()

	colWidth := 24
	if m.width > 0 && len(b.Columns) > 0 {
		colWidth = max(16, m.width/len(b.Columns)-4)
	}

	panels := make([]string, 0, len(b.Columns))
	counts := b.Counts()
	for ci, col := range b.Columns {
		var lines []string
		lines = append(lines, output.H2.Render(fmt.Sprintf("%s (%d)", col.Title, counts[col.ID])))
		for ri, t := range b.TasksIn(col.ID) {
			line := truncate(fmt.Sprintf("%s +%d", t.Title, t.XPReward), colWidth)
			switch {
			case t.ID == dragged:
				line = output.Grabbed.Render(line)
			case !dragging && ci == m.col && ri == m.row:
				line = output.Selected.Render(line)
			}
			lines = append(lines, line)
		}
		style := output.Panel
		if (dragging && col.ID == target) || (!dragging && ci == m.col) {
			style = output.ActivePanel
		}
		panels = append(panels, style.Width(colWidth).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func (m model) writeNotifications(sb *strings.Builder) {
	for _, n := range m.hub.Active() {
		sb.WriteString(notify.Line(n) + "\n")
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
