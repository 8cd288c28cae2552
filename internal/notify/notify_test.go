package notify_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"spacequest/internal/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_FansOutToSubscribers(t *testing.T) {
	hub := notify.NewHub(time.Minute)
	defer hub.Close()

	a := hub.Subscribe()
	b := hub.Subscribe()

	n := notify.New(notify.Success, "Moved", "Refuel moved to Done")
	hub.Notify(n)

	require.Equal(t, n, <-a)
	require.Equal(t, n, <-b)
	assert.Len(t, hub.Active(), 1)
}

func TestHub_AutoDismiss(t *testing.T) {
	hub := notify.NewHub(20 * time.Millisecond)
	defer hub.Close()

	hub.Notify(notify.New(notify.Info, "Hello", ""))
	require.Len(t, hub.Active(), 1)

	require.Eventually(t, func() bool {
		return len(hub.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_DismissKeepsOrder(t *testing.T) {
	hub := notify.NewHub(time.Minute)
	defer hub.Close()

	first := notify.New(notify.Info, "one", "")
	second := notify.New(notify.Info, "two", "")
	third := notify.New(notify.Info, "three", "")
	hub.Notify(first)
	hub.Notify(second)
	hub.Notify(third)

	hub.Dismiss(second.ID)
	hub.Dismiss("no-such-id")

	active := hub.Active()
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, third.ID, active[1].ID)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := notify.NewHub(time.Minute)
	defer hub.Close()

	_ = hub.Subscribe() // never drained

	for i := 0; i < 40; i++ {
		hub.Notify(notify.New(notify.Info, "spam", ""))
	}
	assert.Equal(t, 40-16, hub.Dropped())
}

func TestHub_CloseClosesSubscribers(t *testing.T) {
	hub := notify.NewHub(time.Minute)
	ch := hub.Subscribe()
	hub.Notify(notify.New(notify.Info, "pending timer", ""))

	hub.Close()
	hub.Close()

	<-ch // buffered notification
	_, ok := <-ch
	assert.False(t, ok)

	hub.Notify(notify.New(notify.Info, "after close", ""))
	assert.Len(t, hub.Active(), 1)

	late := hub.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestRecorder(t *testing.T) {
	var r notify.Recorder
	r.Notify(notify.New(notify.Error, "boom", ""))
	r.Notify(notify.New(notify.Success, "ok", ""))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.Count(notify.Error))
	assert.Len(t, r.All(), 2)
}

func TestMulti(t *testing.T) {
	var a, b notify.Recorder
	n := notify.Multi(&a, nil, &b)
	n.Notify(notify.New(notify.Warning, "w", ""))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := notify.NewWriterSink(&buf, false)

	sink.Notify(notify.New(notify.Success, "Objective moved", `"Refuel" moved to Done`))
	sink.Notify(notify.New(notify.Error, "Move failed", "rejected by server"))

	out := buf.String()
	assert.Contains(t, out, "Objective moved:")
	assert.Contains(t, out, `"Refuel" moved to Done`)
	assert.Contains(t, out, "Move failed:")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestWriterSink_Quiet(t *testing.T) {
	var buf bytes.Buffer
	sink := notify.NewWriterSink(&buf, true)

	sink.Notify(notify.New(notify.Success, "hidden", ""))
	sink.Notify(notify.New(notify.Info, "hidden", ""))
	sink.Notify(notify.New(notify.Warning, "shown", ""))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
