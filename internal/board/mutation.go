package board

import (
	"context"
	"sync"
)

// MutationState is the lifecycle of one optimistic move.
type MutationState int

const (
	// Pending: applied locally, server has not answered.
	Pending MutationState = iota
	// Committed: server confirmed the move.
	Committed
	// FailedNeedsRevert: server refused; local state may still show the move.
	FailedNeedsRevert
	// Reverted: the failed move was rolled back locally.
	Reverted
)

func (s MutationState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case FailedNeedsRevert:
		return "failed-needs-revert"
	case Reverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Resolved reports whether the server has answered.
func (s MutationState) Resolved() bool {
	return s != Pending
}

// Mutation records one optimistic status change of a task.
type Mutation struct {
	ID     string
	TaskID string
	From   string
	To     string
	Seq    uint64

	mu    sync.Mutex
	state MutationState
	err   error
	done  chan struct{}
}

func newMutation(id, taskID, from, to string, seq uint64) *Mutation {
	return &Mutation{
		ID:     id,
		TaskID: taskID,
		From:   from,
		To:     to,
		Seq:    seq,
		state:  Pending,
		done:   make(chan struct{}),
	}
}

// State returns the current state.
func (m *Mutation) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the server error for a failed mutation.
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Done is closed once the server has answered and the board is settled.
func (m *Mutation) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the mutation resolves or ctx ends. It returns the
// server error for a failed move.
func (m *Mutation) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mutation) set(state MutationState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	if err != nil {
		m.err = err
	}
}

func (m *Mutation) finish() {
	close(m.done)
}
