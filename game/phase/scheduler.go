// Package phase runs a battle as an ordered queue of discrete steps.
package phase

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// ErrAwaitDecision is returned by a phase that cannot continue until an
// external decision arrives. The phase stays at the head of the queue and is
// run again on the next Run call.
var ErrAwaitDecision = errors.New("phase: awaiting decision")

// ErrHalted is returned by Run once the scheduler has reached its terminal
// state.
var ErrHalted = errors.New("phase: scheduler halted")

// Phase is one queued unit of battle work.
type Phase interface {
	Name() string
	Run(s *Scheduler) error
}

// Scheduler lifecycle states.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateSuspended = "suspended"
	StateHalted    = "halted"
)

const (
	evStart   = "start"
	evSuspend = "suspend"
	evDrain   = "drain"
	evHalt    = "halt"
)

// Scheduler is a FIFO work queue where a running phase can insert work that
// runs right after itself. It is single-threaded.
type Scheduler struct {
	queue   []Phase
	next    []Phase // EnqueueNext insertions made by the current phase
	current Phase
	fsm     *fsm.FSM
	logger  *zap.Logger
	ran     int
	failed  int
}

// New creates an idle Scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{logger: logger}
	s.fsm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: evStart, Src: []string{StateIdle, StateSuspended}, Dst: StateRunning},
			{Name: evSuspend, Src: []string{StateRunning}, Dst: StateSuspended},
			{Name: evDrain, Src: []string{StateRunning}, Dst: StateIdle},
			{Name: evHalt, Src: []string{StateIdle, StateRunning, StateSuspended}, Dst: StateHalted},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debug("scheduler state",
					zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
	return s
}

// State returns the current lifecycle state.
func (s *Scheduler) State() string { return s.fsm.Current() }

// Current returns the phase being run, or nil between phases.
func (s *Scheduler) Current() Phase { return s.current }

// Len returns the number of queued phases, excluding the current one.
func (s *Scheduler) Len() int { return len(s.queue) + len(s.next) }

// Queued returns the names of the queued phases in run order.
func (s *Scheduler) Queued() []string {
	names := make([]string, 0, s.Len())
	for _, p := range s.next {
		names = append(names, p.Name())
	}
	for _, p := range s.queue {
		names = append(names, p.Name())
	}
	return names
}

// Stats returns how many phases have completed and how many of those failed.
func (s *Scheduler) Stats() (ran, failed int) { return s.ran, s.failed }

// EnqueueEnd appends p to the tail of the queue.
func (s *Scheduler) EnqueueEnd(p Phase) {
	s.queue = append(s.queue, p)
}

// EnqueueNext schedules p to run right after the current phase, ahead of
// everything already queued. Several calls from one phase keep their order.
// Calls made between runs go ahead of the queue when the next run starts.
func (s *Scheduler) EnqueueNext(p Phase) {
	s.next = append(s.next, p)
}

// flushNext moves pending EnqueueNext insertions to the head of the queue.
func (s *Scheduler) flushNext() {
	if len(s.next) > 0 {
		s.queue = append(s.next, s.queue...)
		s.next = nil
	}
}

// Halt moves the scheduler to its terminal state and drops the queue.
func (s *Scheduler) Halt() {
	if s.fsm.Can(evHalt) {
		_ = s.transition(evHalt)
	}
	s.queue = nil
	s.next = nil
}

// Halted reports whether the scheduler reached its terminal state.
func (s *Scheduler) Halted() bool { return s.fsm.Is(StateHalted) }

// Run drains the queue. See RunUntil.
func (s *Scheduler) Run(ctx context.Context) error {
	return s.RunUntil(ctx, nil)
}

// RunUntil pops and runs phases until the queue is empty, the scheduler is
// halted, a phase asks to wait for a decision, ctx is done, or stop returns
// true after a completed phase.
//
// A phase that returns an error or panics is logged and abandoned; the queue
// carries on with the next phase.
func (s *Scheduler) RunUntil(ctx context.Context, stop func() bool) error {
	if s.Halted() {
		return ErrHalted
	}
	if err := s.transition(evStart); err != nil {
		return fmt.Errorf("phase: start: %w", err)
	}
	s.flushNext()

	for {
		if s.Halted() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			_ = s.transition(evSuspend)
			return err
		}
		if len(s.queue) == 0 {
			_ = s.transition(evDrain)
			return nil
		}

		p := s.queue[0]
		s.queue = s.queue[1:]
		s.current = p

		err := s.exec(p)
		s.current = nil

		if errors.Is(err, ErrAwaitDecision) {
			if len(s.next) > 0 {
				s.logger.Warn("suspended phase queued follow-ups; dropping them",
					zap.String("phase", p.Name()), zap.Int("dropped", len(s.next)))
				s.next = nil
			}
			s.queue = append([]Phase{p}, s.queue...)
			if !s.Halted() {
				_ = s.transition(evSuspend)
			}
			return nil
		}

		s.ran++
		if err != nil {
			s.failed++
			s.logger.Error("phase failed", zap.String("phase", p.Name()), zap.Error(err))
		}

		s.flushNext()

		if stop != nil && !s.Halted() && stop() {
			_ = s.transition(evSuspend)
			return nil
		}
	}
}

// transition fires a lifecycle event. State changes are internal bookkeeping
// and are never cancelled by the caller's context.
func (s *Scheduler) transition(event string) error {
	return s.fsm.Event(context.Background(), event)
}

func (s *Scheduler) exec(p Phase) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("phase panicked",
				zap.String("phase", p.Name()),
				zap.Any("recover", r))
			// Anything the broken phase queued is discarded with it.
			s.next = nil
			err = fmt.Errorf("phase %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Run(s)
}
