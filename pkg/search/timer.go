package search

import (
	"time"
)

type Timer struct {
	start    time.Time
	duration time.Duration
}

func NewTimer() *Timer {
	return &Timer{time.Now(), -1}
}

// Check if this timer has ended
func (t *Timer) IsEnd() bool {
	return t.duration >= 0 && time.Since(t.start) >= t.duration
}

func (t *Timer) IsSet() bool {
	return t.duration != -1
}

// Set the 'start' as now
func (t *Timer) Reset() {
	t.start = time.Now()
}

// Point in time when the timer ends, zero if the timer is not set
func (t *Timer) Deadline() time.Time {
	if !t.IsSet() {
		return time.Time{}
	}
	return t.start.Add(t.duration)
}

// Milliseconds since the last reset, at least 1
func (t *Timer) Deltatime() int {
	return max(int(time.Since(t.start).Milliseconds()), 1)
}

// In milliseconds, negative values disable the timer
func (t *Timer) Movetime(movetime int) {
	if movetime < 0 {
		t.duration = -1
	} else {
		t.duration = time.Duration(movetime) * time.Millisecond
	}
}
