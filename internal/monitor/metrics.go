// Package monitor provides lock-free counters and timers for the worker runtime.
package monitor

import (
	"math"
	"sync/atomic"
	"time"
)

// Counter is a thread-safe monotonically increasing counter
type Counter struct {
	value int64
}

// NewCounter creates a new counter metric
func NewCounter() *Counter {
	return &Counter{}
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	atomic.AddInt64(&c.value, 1)
}

// Add adds the given value to the counter
func (c *Counter) Add(value int64) {
	atomic.AddInt64(&c.value, value)
}

// Get returns the current counter value
func (c *Counter) Get() int64 {
	return atomic.LoadInt64(&c.value)
}

// Gauge is a thread-safe value that can go up and down
type Gauge struct {
	value uint64 // float64 bits
}

// NewGauge creates a new gauge metric
func NewGauge() *Gauge {
	return &Gauge{}
}

// Get returns the current gauge value
func (g *Gauge) Get() float64 {
	return math.Float64frombits(atomic.LoadUint64(&g.value))
}

// Inc increments the gauge by 1
func (g *Gauge) Inc() {
	g.Add(1)
}

// Dec decrements the gauge by 1
func (g *Gauge) Dec() {
	g.Add(-1)
}

// Add adds the given value to the gauge
func (g *Gauge) Add(delta float64) {
	for {
		old := atomic.LoadUint64(&g.value)
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(&g.value, old, next) {
			return
		}
	}
}

const noMin = int64(^uint64(0) >> 1)

// Timer accumulates durations of a repeated operation
type Timer struct {
	count     int64
	totalTime int64
	minTime   int64
	maxTime   int64
}

// NewTimer creates a new timer metric
func NewTimer() *Timer {
	return &Timer{minTime: noMin}
}

// Record records a duration measurement
func (t *Timer) Record(d time.Duration) {
	nanos := d.Nanoseconds()

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTime, nanos)

	for {
		current := atomic.LoadInt64(&t.minTime)
		if nanos >= current || atomic.CompareAndSwapInt64(&t.minTime, current, nanos) {
			break
		}
	}
	for {
		current := atomic.LoadInt64(&t.maxTime)
		if nanos <= current || atomic.CompareAndSwapInt64(&t.maxTime, current, nanos) {
			break
		}
	}
}

// Count returns the number of recorded measurements
func (t *Timer) Count() int64 {
	return atomic.LoadInt64(&t.count)
}

// TotalTime returns the sum of all measurements
func (t *Timer) TotalTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.totalTime))
}

// MinTime returns the smallest measurement, 0 if none
func (t *Timer) MinTime() time.Duration {
	m := atomic.LoadInt64(&t.minTime)
	if m == noMin {
		return 0
	}
	return time.Duration(m)
}

// MaxTime returns the largest measurement
func (t *Timer) MaxTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.maxTime))
}

// AvgTime returns the mean measurement, 0 if none
func (t *Timer) AvgTime() time.Duration {
	count := atomic.LoadInt64(&t.count)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&t.totalTime) / count)
}
