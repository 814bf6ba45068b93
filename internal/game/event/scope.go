package event

import "time"

// TickWindow is the number of ticks reserved for one room.
const TickWindow = 1000

// Scope stamps guild identity, time and tick onto events bound for a sink.
// A Scope belongs to one party's simulation and is not safe for concurrent use.
type Scope struct {
	GuildID   int64
	GuildName string
	Sink      Sink
	Clock     func() time.Time

	base int
	step int
}

// NewScope returns a scope for a guild. A nil sink discards; a nil clock uses time.Now.
func NewScope(guildID int64, guildName string, sink Sink, clock func() time.Time) *Scope {
	if sink == nil {
		sink = Discard
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scope{GuildID: guildID, GuildName: guildName, Sink: sink, Clock: clock}
}

// SetWindow starts tick window w: the next event gets tick w*TickWindow.
func (s *Scope) SetWindow(w int) {
	s.base = w * TickWindow
	s.step = 0
}

// Tick returns the tick the next event will carry.
func (s *Scope) Tick() int {
	return s.base + s.step
}

// Emit stamps and forwards one event, then advances the tick within the
// current window. The tick saturates at the window's last value.
func (s *Scope) Emit(t Type, p Priority, description string, payload Payload) {
	s.Sink.Emit(Event{
		Timestamp:   s.Clock(),
		GuildID:     s.GuildID,
		GuildName:   s.GuildName,
		Type:        t,
		Description: description,
		Priority:    p,
		Tick:        s.Tick(),
		Payload:     payload,
	})
	if s.step < TickWindow-1 {
		s.step++
	}
}
