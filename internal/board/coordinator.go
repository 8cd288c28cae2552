package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spacequest/internal/notify"
	"spacequest/internal/service"
)

var (
	// ErrTaskNotFound is returned when the dragged task is not on the board.
	ErrTaskNotFound = errors.New("task not on board")

	// ErrUnknownColumn is returned when a task is dropped on a column the board lacks.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrDragInProgress is returned when a second drag starts before the first ends.
	ErrDragInProgress = errors.New("drag already in progress")

	// ErrNoDrag is returned when dropping without an active drag.
	ErrNoDrag = errors.New("no drag in progress")
)

// Mover sends a status change to the server.
type Mover interface {
	MoveTask(ctx context.Context, id, newStatus string) error
}

// Phase is the drag gesture state.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Hovering
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	default:
		return "unknown"
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRevertOnFailure controls whether a failed move restores the task's
// previous status. Enabled by default.
func WithRevertOnFailure(revert bool) Option {
	return func(c *Coordinator) { c.revert = revert }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// Coordinator applies drag-and-drop moves to a board optimistically and
// resolves them against server answers. Only the newest mutation of a task
// may change that task's status when it resolves; older answers only update
// their own record. A failed move falls back to the last status the server
// confirmed for the task, never to another unconfirmed optimistic one.
type Coordinator struct {
	mover    Mover
	notifier notify.Notifier
	logger   *zap.Logger
	revert   bool

	mu      sync.Mutex
	board   *Board
	phase   Phase
	dragged string
	target  string
	seq     uint64
	latest  map[string]*Mutation

	// confirmed is the last server-side status per task.
	confirmed map[string]string
	inflight  map[*Mutation]struct{}
}

// New creates a coordinator over b. A nil notifier discards notifications.
func New(b *Board, mover Mover, n notify.Notifier, opts ...Option) *Coordinator {
	if n == nil {
		n = notify.Discard
	}
	if b == nil {
		b = &Board{}
	}
	c := &Coordinator{
		mover:    mover,
		notifier: n,
		logger:   zap.NewNop(),
		revert:   true,
		board:    b.Clone(),
		latest:   make(map[string]*Mutation),
		inflight: make(map[*Mutation]struct{}),
	}
	c.confirmed = c.board.statuses()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Board returns a copy of the current local board.
func (c *Coordinator) Board() *Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone()
}

// Phase returns the gesture state.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Dragged returns the dragged task ID, empty when idle.
func (c *Coordinator) Dragged() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragged
}

// Target returns the hovered column ID, empty unless hovering.
func (c *Coordinator) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// BeginDrag starts a gesture on taskID.
func (c *Coordinator) BeginDrag(taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Idle {
		return ErrDragInProgress
	}
	if _, ok := c.board.Task(taskID); !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	c.phase = Dragging
	c.dragged = taskID
	c.target = ""
	return nil
}

// Hover records the column under the pointer. Ignored when idle.
func (c *Coordinator) Hover(columnID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Idle {
		return
	}
	c.phase = Hovering
	c.target = columnID
}

// Cancel ends the gesture without a move.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Coordinator) reset() {
	c.phase = Idle
	c.dragged = ""
	c.target = ""
}

// Drop ends the gesture over the hovered column. Dropping on the task's own
// column, or with no hovered column, returns a nil mutation and changes
// nothing. Otherwise the status change is applied locally and sent to the
// server in the background; the returned mutation tracks the answer.
// The request outlives ctx cancellation: a move in flight cannot be aborted.
func (c *Coordinator) Drop(ctx context.Context) (*Mutation, error) {
	c.mu.Lock()

	if c.phase == Idle {
		c.mu.Unlock()
		return nil, ErrNoDrag
	}
	taskID, target := c.dragged, c.target
	c.reset()

	if target == "" {
		c.mu.Unlock()
		return nil, nil
	}

	task, ok := c.board.Task(taskID)
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	col, ok := c.board.Column(target)
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, target)
	}
	if task.Status == target {
		c.mu.Unlock()
		return nil, nil
	}

	c.seq++
	m := newMutation(uuid.NewString(), taskID, task.Status, target, c.seq)
	c.board.setStatus(taskID, target)
	c.latest[taskID] = m
	c.inflight[m] = struct{}{}
	c.mu.Unlock()

	c.logger.Debug("optimistic move",
		zap.String("mutation", m.ID),
		zap.String("task", taskID),
		zap.String("from", m.From),
		zap.String("to", m.To),
		zap.Uint64("seq", m.Seq),
	)

	go c.send(context.WithoutCancel(ctx), m, task.Title, columnTitle(col))
	return m, nil
}

// Move performs a whole gesture: drag taskID and drop it on columnID.
func (c *Coordinator) Move(ctx context.Context, taskID, columnID string) (*Mutation, error) {
	if err := c.BeginDrag(taskID); err != nil {
		return nil, err
	}
	c.Hover(columnID)
	return c.Drop(ctx)
}

func (c *Coordinator) send(ctx context.Context, m *Mutation, taskTitle, colTitle string) {
	defer c.settle(m)

	err := c.mover.MoveTask(ctx, m.TaskID, m.To)
	if err == nil {
		c.commit(m)
		c.logger.Debug("move committed", zap.String("mutation", m.ID))
		c.notifier.Notify(notify.New(notify.Success, "Objective moved",
			fmt.Sprintf("%q moved to %s", taskTitle, colTitle)))
		return
	}

	reverted := c.fail(m, err)
	c.logger.Warn("move failed",
		zap.String("mutation", m.ID),
		zap.String("task", m.TaskID),
		zap.Bool("reverted", reverted),
		zap.Error(err),
	)
	msg := fmt.Sprintf("could not move %q to %s: %v", taskTitle, colTitle, err)
	if reverted {
		msg += " (reverted)"
	}
	c.notifier.Notify(notify.New(notify.Error, "Move failed", msg))
}

func (c *Coordinator) settle(m *Mutation) {
	c.mu.Lock()
	delete(c.inflight, m)
	c.mu.Unlock()
	m.finish()
}

// commit records a confirmed move. An older move confirmed after the newest
// one was already rolled back puts the board on the status it confirmed.
func (c *Coordinator) commit(m *Mutation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m.set(Committed, nil)
	c.confirmed[m.TaskID] = m.To
	if latest := c.latest[m.TaskID]; latest != m && latest.State() == Reverted {
		c.board.setStatus(m.TaskID, m.To)
	}
}

// fail records a failed mutation and reverts it when it is still the task's
// newest mutation and the board still shows its target status. The task goes
// back to its last confirmed status.
func (c *Coordinator) fail(m *Mutation, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m.set(FailedNeedsRevert, err)
	if !c.revert || c.latest[m.TaskID] != m {
		return false
	}
	task, ok := c.board.Task(m.TaskID)
	if !ok || task.Status != m.To {
		return false
	}
	to, ok := c.confirmed[m.TaskID]
	if !ok {
		to = m.From
	}
	c.board.setStatus(m.TaskID, to)
	m.set(Reverted, nil)
	return true
}

// Reconcile replaces the board with a fresh server copy. Statuses of moves
// still awaiting an answer are re-applied on top. Tasks that match no column
// are reported as a warning.
func (c *Coordinator) Reconcile(p service.Project) {
	nb := FromProject(p)

	c.mu.Lock()
	c.confirmed = nb.statuses()
	for taskID, m := range c.latest {
		if !m.State().Resolved() {
			nb.setStatus(taskID, m.To)
		}
	}
	c.board = nb
	if c.phase != Idle {
		if _, ok := nb.Task(c.dragged); !ok {
			c.reset()
		}
	}
	orphans := nb.Orphans()
	c.mu.Unlock()

	if len(orphans) > 0 {
		titles := make([]string, len(orphans))
		for i, t := range orphans {
			titles[i] = fmt.Sprintf("%q (%s)", t.Title, t.Status)
		}
		c.notifier.Notify(notify.New(notify.Warning, "Hidden objectives",
			fmt.Sprintf("%d task(s) match no column: %s", len(orphans), strings.Join(titles, ", "))))
	}
}

// Mutation returns the newest mutation recorded for taskID.
func (c *Coordinator) Mutation(taskID string) (*Mutation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.latest[taskID]
	return m, ok
}

// Pending returns the mutations still awaiting a server answer, oldest first.
func (c *Coordinator) Pending() []*Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Mutation
	for _, m := range c.latest {
		if !m.State().Resolved() {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Wait blocks until every move in flight has resolved or ctx ends.
// Moves issued while waiting are waited for too.
func (c *Coordinator) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		var next *Mutation
		for m := range c.inflight {
			next = m
			break
		}
		c.mu.Unlock()
		if next == nil {
			return nil
		}
		select {
		case <-next.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func columnTitle(col service.Column) string {
	if strings.TrimSpace(col.Title) == "" {
		return col.ID
	}
	return col.Title
}
