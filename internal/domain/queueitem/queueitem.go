// Package queueitem implements the per-tab, in-memory QueueModel: the
// ordered sequence of dispatchable items a QueueScheduler consumes
// head-first (spec §4.3). State here is never persisted across a reload.
package queueitem

import (
	"errors"

	"github.com/google/uuid"
)

// MaxSize bounds the number of items a QueueModel holds at once. The spec
// leaves the exact value to the implementer with a floor of 50; 200 gives
// comfortable headroom for long dictation sessions without letting a
// runaway enqueue loop grow state unboundedly.
const MaxSize = 200

// ErrQueueFull is returned by Enqueue when the queue is already at MaxSize.
var ErrQueueFull = errors.New("queueitem: queue is full")

// Item is a single dispatchable entry. Icon/Text/AutoSend are captured at
// enqueue time; later edits to the originating button do not retroactively
// mutate items already in the queue.
type Item struct {
	QueueID  string
	Icon     string
	Text     string
	AutoSend bool
}

// DelaySample records the most recent delay computed by QueueScheduler's
// sampleDelay, owned exclusively by the scheduler; Model only stores it.
type DelaySample struct {
	BaseMs    int64
	OffsetMs  int64
	TotalMs   int64
	Percent   int
	Timestamp int64
}

// Model is the ordered, bounded queue of Items for one page/tab.
type Model struct {
	items               []Item
	isRunning           bool
	pendingTimerID      string
	remainingOnPauseMs  int64
	lastDelaySample     DelaySample
	finished            bool
}

// New returns an empty Model.
func New() *Model {
	return &Model{}
}

// Enqueue appends a freshly assigned Item built from the given snapshot
// fields and clears Finished. Fails silently (ErrQueueFull) once the queue
// holds MaxSize items; callers surface this as a visible edge flash rather
// than a hard error.
func (m *Model) Enqueue(icon, text string, autoSend bool) (Item, error) {
	if len(m.items) >= MaxSize {
		return Item{}, ErrQueueFull
	}
	item := Item{
		QueueID:  uuid.NewString(),
		Icon:     icon,
		Text:     text,
		AutoSend: autoSend,
	}
	m.items = append(m.items, item)
	m.finished = false
	return item, nil
}

// RemoveAt removes and returns the item at index. No-op (zero value, false)
// if index is out of range.
func (m *Model) RemoveAt(index int) (Item, bool) {
	if index < 0 || index >= len(m.items) {
		return Item{}, false
	}
	removed := m.items[index]
	m.items = append(m.items[:index], m.items[index+1:]...)
	return removed, true
}

// Reorder moves the item at fromIndex to toIndex, preserving every item's
// QueueID identity. No-op if either index is out of range.
func (m *Model) Reorder(fromIndex, toIndex int) bool {
	n := len(m.items)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return false
	}
	if fromIndex == toIndex {
		return true
	}
	item := m.items[fromIndex]
	m.items = append(m.items[:fromIndex], m.items[fromIndex+1:]...)
	m.items = append(m.items[:toIndex], append([]Item{item}, m.items[toIndex:]...)...)
	return true
}

// Size returns the number of items currently queued.
func (m *Model) Size() int { return len(m.items) }

// Head returns the first item without removing it.
func (m *Model) Head() (Item, bool) {
	if len(m.items) == 0 {
		return Item{}, false
	}
	return m.items[0], true
}

// At returns the item at index.
func (m *Model) At(i int) (Item, bool) {
	if i < 0 || i >= len(m.items) {
		return Item{}, false
	}
	return m.items[i], true
}

// ShiftHead removes and returns the first item, consumed by the
// scheduler's dispatch algorithm.
func (m *Model) ShiftHead() (Item, bool) {
	if len(m.items) == 0 {
		return Item{}, false
	}
	item := m.items[0]
	m.items = m.items[1:]
	return item, true
}

// IsRunning reports whether the scheduler has this model running.
func (m *Model) IsRunning() bool { return m.isRunning }

// SetRunning sets the running flag; only QueueScheduler should call this.
func (m *Model) SetRunning(running bool) { m.isRunning = running }

// PendingTimerID returns the opaque handle of the currently armed timer, or
// "" if none is pending.
func (m *Model) PendingTimerID() string { return m.pendingTimerID }

// SetPendingTimerID sets the opaque timer handle.
func (m *Model) SetPendingTimerID(id string) { m.pendingTimerID = id }

// RemainingOnPauseMs returns the time left on a paused timer; 0 means no
// timer is paused.
func (m *Model) RemainingOnPauseMs() int64 { return m.remainingOnPauseMs }

// SetRemainingOnPauseMs sets the paused remaining time.
func (m *Model) SetRemainingOnPauseMs(ms int64) { m.remainingOnPauseMs = ms }

// LastDelaySample returns the most recently sampled delay.
func (m *Model) LastDelaySample() DelaySample { return m.lastDelaySample }

// SetLastDelaySample records a new delay sample.
func (m *Model) SetLastDelaySample(s DelaySample) { m.lastDelaySample = s }

// Finished reports whether the queue has run to completion since the last
// enqueue.
func (m *Model) Finished() bool { return m.finished }

// SetFinished sets the finished flag.
func (m *Model) SetFinished(v bool) { m.finished = v }

// Reset empties the queue and clears all run state. The scheduler is
// responsible for pausing and cancelling side effects before calling this.
func (m *Model) Reset() {
	m.items = nil
	m.isRunning = false
	m.pendingTimerID = ""
	m.remainingOnPauseMs = 0
	m.finished = false
}
