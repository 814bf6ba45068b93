package event

import (
	"slices"
	"sync"
)

// Recorder is an append-only, concurrency-safe Sink that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the log ordered by tick, then insertion.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	out := slices.Clone(r.events)
	r.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Event) int { return a.Tick - b.Tick })
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// ForGuild returns the ordered events of one guild.
func (r *Recorder) ForGuild(guildID int64) []Event {
	return r.filter(func(e Event) bool { return e.GuildID == guildID })
}

// ByType returns the ordered events of one type.
func (r *Recorder) ByType(t Type) []Event {
	return r.filter(func(e Event) bool { return e.Type == t })
}

// Summary counts events per type.
func (r *Recorder) Summary() map[Type]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[Type]int)
	for _, e := range r.events {
		counts[e.Type]++
	}
	return counts
}

func (r *Recorder) filter(keep func(Event) bool) []Event {
	var out []Event
	for _, e := range r.Events() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Buffer collects events without locking for later replay into another sink.
// It is owned by a single goroutine.
type Buffer struct {
	events []Event
}

// Emit appends e.
func (b *Buffer) Emit(e Event) { b.events = append(b.events, e) }

// FlushTo empties the buffer and replays its events into sink. The buffer is
// empty afterwards even when sink panics.
func (b *Buffer) FlushTo(sink Sink) {
	events := b.events
	b.events = nil
	for _, e := range events {
		sink.Emit(e)
	}
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int { return len(b.events) }
