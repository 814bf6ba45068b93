package event

import (
	"fmt"

	"go.uber.org/zap"
)

// Sink receives events synchronously. Implementations must not block indefinitely.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans each event out to sinks in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type safeSink struct {
	next   Sink
	logger *zap.Logger
}

// SafeSink wraps next so that a panicking sink is logged and the event dropped
// instead of unwinding into the simulation.
func SafeSink(next Sink, logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &safeSink{next: next, logger: logger}
}

func (s *safeSink) Emit(e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event sink panicked",
				zap.String("event_type", e.Type.String()),
				zap.Int64("guild_id", e.GuildID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	s.next.Emit(e)
}
