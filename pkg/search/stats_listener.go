package search

import "github.com/IlikeChooros/go-uttt/pkg/board"

// Snapshot of a running search, passed to listener callbacks
type Stats struct {
	Depth      int
	Cycles     int
	TimeMs     int
	Cps        uint32
	Size       uint32
	BestMove   board.Move
	Eval       float64
	Pv         []board.Move
	StopReason StopReason
}

// Listener function callback, will recieve current search statistics
type ListenerFunc func(Stats)

type StatsListener struct {
	// called when the search depth increases (deepest MCTS path, completed PV iteration)
	onDepth ListenerFunc

	// called every N full iterations
	onCycle ListenerFunc
	nCycles int

	// called when the search stops (either by limiter or 'stop' signal)
	onStop ListenerFunc
}

func NewStatsListener() *StatsListener {
	return &StatsListener{nCycles: 1}
}

// Attach new on depth change callback, called only by the main search thread
func (listener *StatsListener) OnDepth(onDepth ListenerFunc) *StatsListener {
	listener.onDepth = onDepth
	return listener
}

// Attach new on iteration increase callback, building the stats requires walking
// the principal variation, so keep the interval large
func (listener *StatsListener) OnCycle(onCycle ListenerFunc) *StatsListener {
	listener.onCycle = onCycle
	return listener
}

func (listener *StatsListener) SetCycleInterval(n int) *StatsListener {
	listener.nCycles = max(n, 1)
	return listener
}

// Attach 'on search end' callback, called once by the main thread,
// makes 'StopReason' available in the stats
func (listener *StatsListener) OnStop(onStop ListenerFunc) *StatsListener {
	listener.onStop = onStop
	return listener
}

// The 'Invoke' methods take a stats builder, so that nothing is computed
// when no callback is attached. A nil listener is valid and does nothing.

func (listener *StatsListener) InvokeDepth(stats func() Stats) {
	if listener != nil && listener.onDepth != nil {
		listener.onDepth(stats())
	}
}

func (listener *StatsListener) InvokeCycle(cycles int, stats func() Stats) {
	if listener != nil && listener.onCycle != nil && cycles%listener.nCycles == 0 {
		listener.onCycle(stats())
	}
}

func (listener *StatsListener) InvokeStop(stats func() Stats) {
	if listener != nil && listener.onStop != nil {
		listener.onStop(stats())
	}
}

// Cycles per second
func Cps(cycles int, timeMs int) uint32 {
	return uint32(float64(cycles) / float64(max(timeMs, 1)) * 1000)
}
