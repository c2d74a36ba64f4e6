package battle

import (
	"go.uber.org/zap"
)

// Notification wraps an event with its ordering metadata.
type Notification struct {
	BattleID string
	Seq      int
	Turn     int
	Event    BattleEvent
}

// Sink receives notifications in emission order. Implementations must not
// block the battle.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

// ChannelSink forwards notifications to a buffered channel and drops them
// when the consumer falls behind.
type ChannelSink struct {
	ch     chan Notification
	logger *zap.Logger
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buf int, logger *zap.Logger) *ChannelSink {
	if buf <= 0 {
		buf = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelSink{ch: make(chan Notification, buf), logger: logger}
}

// Events returns the receive side of the channel.
func (s *ChannelSink) Events() <-chan Notification { return s.ch }

// Close closes the channel. No Notify may follow.
func (s *ChannelSink) Close() { close(s.ch) }

func (s *ChannelSink) Notify(n Notification) {
	select {
	case s.ch <- n:
	default:
		s.logger.Warn("battle event dropped (channel full)",
			zap.String("type", n.Event.EventType()), zap.Int("seq", n.Seq))
	}
}

// RecorderSink keeps every notification in memory.
type RecorderSink struct {
	Notes []Notification
}

func (r *RecorderSink) Notify(n Notification) { r.Notes = append(r.Notes, n) }

// Events returns the recorded events.
func (r *RecorderSink) Events() []BattleEvent {
	out := make([]BattleEvent, len(r.Notes))
	for i, n := range r.Notes {
		out[i] = n.Event
	}
	return out
}

// Types returns the recorded event types.
func (r *RecorderSink) Types() []string {
	out := make([]string, len(r.Notes))
	for i, n := range r.Notes {
		out[i] = n.Event.EventType()
	}
	return out
}

// MultiSink fans a notification out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Notify(n Notification) {
	for _, s := range m {
		s.Notify(n)
	}
}

type nopSink struct{}

func (nopSink) Notify(Notification) {}
