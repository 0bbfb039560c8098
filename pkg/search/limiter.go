package search

import (
	"context"
	"strings"
	"sync/atomic"
)

type StopReason int

const (
	StopNone      StopReason = 0
	StopInterrupt StopReason = 1 // Context of the search cancelled
	StopMovetime  StopReason = 2 // Time limit reached
	StopNodes     StopReason = 4 // Tree size limit reached
	StopCycles    StopReason = 8 // Cycle limit reached
)

func (sr StopReason) String() string {
	if sr == StopNone {
		return "None"
	}

	reasons := []struct {
		flag StopReason
		name string
	}{
		{StopInterrupt, "Interrupt"},
		{StopMovetime, "Movetime"},
		{StopNodes, "Nodes"},
		{StopCycles, "Cycles"},
	}

	names := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if sr&r.flag == r.flag {
			names = append(names, r.name)
		}
	}
	return strings.Join(names, "|")
}

// Decides when a search loop should stop. The limits and the timer are
// read-only during a search, so one limiter may be polled by many workers,
// each passing its own counters.
type Limiter struct {
	limits *Limits
	Timer  *Timer
	stop   atomic.Bool
	reason StopReason
	ctx    context.Context
}

func NewLimiter() *Limiter {
	return &Limiter{
		limits: DefaultLimits(),
		Timer:  NewTimer(),
		ctx:    context.Background(),
	}
}

// Prepare for a new search, starts the timer
func (l *Limiter) Reset() {
	l.Timer.Movetime(l.limits.Movetime)
	l.Timer.Reset()
	l.stop.Store(false)
	l.reason = StopNone
}

// Cancelling 'ctx' interrupts the search, the limiter keeps it until replaced
func (l *Limiter) SetContext(ctx context.Context) {
	l.ctx = ctx
}

// Whether the context was cancelled, sticky until the next 'Reset'
func (l *Limiter) stopped() bool {
	select {
	case <-l.ctx.Done():
		l.stop.Store(true)
	default:
	}
	return l.stop.Load()
}

func (l *Limiter) SetLimits(limits *Limits) {
	l.limits = limits
}

// Elapsed time in ms since the last 'Reset'
func (l *Limiter) Elapsed() uint32 {
	return uint32(l.Timer.Deltatime())
}

// Every limit reached for the given tree size and cycle count
func (l *Limiter) LimitMask(size, cycles uint32) StopReason {
	mask := StopNone
	if l.stopped() {
		mask |= StopInterrupt
	}

	// If infinite, only the stop signal counts
	if l.limits.Infinite {
		return mask
	}

	if l.Timer.IsEnd() {
		mask |= StopMovetime
	}
	if l.limits.Nodes <= size {
		mask |= StopNodes
	}
	if l.limits.Cycles <= cycles {
		mask |= StopCycles
	}
	return mask
}

// Wheter the search may continue, called in the main search loop
func (l *Limiter) Ok(size, cycles uint32) bool {
	return l.LimitMask(size, cycles) == StopNone
}

// Evaluate stop reason based on current state and remember it,
// called once by the main thread after the search ends
func (l *Limiter) EvaluateStopReason(size, cycles uint32) {
	l.reason = l.LimitMask(size, cycles)
}

// Get the reason why the search was stopped, valid after search ends
func (l *Limiter) StopReason() StopReason {
	return l.reason
}
