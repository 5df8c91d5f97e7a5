package console

import "sync"

// Ticket identifies one asynchronous resolution of a slot.
type Ticket struct {
	Slot    string
	Token   uint64
	Binding string
}

// ResolutionTracker drops out-of-order completions. Each Begin issues a
// strictly increasing token for a slot; only the completion holding the
// latest token of its slot is applied.
type ResolutionTracker struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]Ticket
}

// NewResolutionTracker creates a tracker.
func NewResolutionTracker() *ResolutionTracker {
	return &ResolutionTracker{latest: make(map[string]Ticket)}
}

// Begin supersedes any in-flight resolution of slot and returns the ticket of
// the new one. binding describes the inputs the resolution was started for.
func (t *ResolutionTracker) Begin(slot, binding string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	ticket := Ticket{Slot: slot, Token: t.next, Binding: binding}
	t.latest[slot] = ticket
	return ticket
}

// IsCurrent reports whether ticket is still the latest of its slot.
func (t *ResolutionTracker) IsCurrent(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[ticket.Slot] == ticket
}

// Complete runs apply if ticket is still current and reports whether it did.
// apply runs under the tracker lock so no newer Begin can interleave.
func (t *ResolutionTracker) Complete(ticket Ticket, apply func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[ticket.Slot] != ticket {
		return false
	}
	apply()
	return true
}
