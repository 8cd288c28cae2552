// Package notify is the notification surface: components emit fire-and-forget
// notifications through an explicit Notifier; sinks decide how to show them.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies a notification.
type Type string

const (
	Success Type = "success"
	Error   Type = "error"
	Warning Type = "warning"
	Info    Type = "info"
)

// Notification is a single user-visible event.
type Notification struct {
	ID      string
	Type    Type
	Title   string
	Message string
	At      time.Time
}

// New builds a notification with a fresh ID and timestamp.
func New(typ Type, title, message string) Notification {
	return Notification{
		ID:      uuid.NewString(),
		Type:    typ,
		Title:   title,
		Message: message,
		At:      time.Now(),
	}
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

// Notify implements Notifier.
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Multi fans a notification out to several notifiers in order.
func Multi(ns ...Notifier) Notifier {
	return Func(func(n Notification) {
		for _, x := range ns {
			if x != nil {
				x.Notify(n)
			}
		}
	})
}

// Recorder keeps every notification it receives. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Len returns how many notifications were recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

// Count returns how many notifications of the given type were recorded.
func (r *Recorder) Count(typ Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for _, n := range r.all {
		if n.Type == typ {
			c++
		}
	}
	return c
}
