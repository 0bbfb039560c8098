package search

import (
	"math"
)

type Limits struct {
	Nodes    uint32
	Cycles   uint32
	Movetime int
	Infinite bool
}

const (
	DefaultNodeLimit     uint32 = math.MaxUint32
	DefaultMovetimeLimit int    = -1
	DefaultCyclesLimit   uint32 = math.MaxUint32
)

func DefaultLimits() *Limits {
	return &Limits{
		Nodes:    DefaultNodeLimit,
		Cycles:   DefaultCyclesLimit,
		Movetime: DefaultMovetimeLimit,
		Infinite: true,
	}
}

// Set the maximum number of nodes the tree may hold
func (l *Limits) SetNodes(nodes uint32) *Limits {
	l.Nodes = nodes
	l.Infinite = false
	return l
}

// Set the number of search iterations (playouts, training walks)
func (l *Limits) SetCycles(cycles uint32) *Limits {
	l.Cycles = cycles
	l.Infinite = false
	return l
}

// Set the maximum time for engine to think, in milliseconds
func (l *Limits) SetMovetime(movetime int) *Limits {
	l.Movetime = movetime
	l.Infinite = false
	return l
}
