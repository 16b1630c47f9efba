package monitor

import "time"

// ProcessingStats is a point-in-time view of a Processing recorder
type ProcessingStats struct {
	Requests   int64         `json:"requests"`
	Failures   int64         `json:"failures"`
	Lines      int64         `json:"lines"`
	Bytes      int64         `json:"bytes"`
	QueueDepth int           `json:"queue_depth"`
	TotalTime  time.Duration `json:"total_time_ns"`
	AvgTime    time.Duration `json:"avg_time_ns"`
	MinTime    time.Duration `json:"min_time_ns"`
	MaxTime    time.Duration `json:"max_time_ns"`
}

// Processing records per-request work done by a background worker
type Processing struct {
	requests *Counter
	failures *Counter
	lines    *Counter
	bytes    *Counter
	queue    *Gauge
	timer    *Timer
}

// NewProcessing creates an empty recorder
func NewProcessing() *Processing {
	return &Processing{
		requests: NewCounter(),
		failures: NewCounter(),
		lines:    NewCounter(),
		bytes:    NewCounter(),
		queue:    NewGauge(),
		timer:    NewTimer(),
	}
}

// Enqueued notes a request entering the queue
func (p *Processing) Enqueued() {
	p.queue.Inc()
}

// Dequeued notes a request leaving the queue, with or without being processed
func (p *Processing) Dequeued() {
	p.queue.Dec()
}

// Done records a finished request
func (p *Processing) Done(d time.Duration, inputBytes, outputLines int, ok bool) {
	p.requests.Inc()
	if !ok {
		p.failures.Inc()
	}
	p.bytes.Add(int64(inputBytes))
	p.lines.Add(int64(outputLines))
	p.timer.Record(d)
}

// Snapshot returns the current values
func (p *Processing) Snapshot() ProcessingStats {
	return ProcessingStats{
		Requests:   p.requests.Get(),
		Failures:   p.failures.Get(),
		Lines:      p.lines.Get(),
		Bytes:      p.bytes.Get(),
		QueueDepth: int(p.queue.Get()),
		TotalTime:  p.timer.TotalTime(),
		AvgTime:    p.timer.AvgTime(),
		MinTime:    p.timer.MinTime(),
		MaxTime:    p.timer.MaxTime(),
	}
}
