package observability

import (
	"sort"
	"sync"
	"time"
)

// OperationStats summarizes recorded durations for one named operation.
type OperationStats struct {
	Operation string        `json:"operation"`
	Count     int           `json:"count"`
	Errors    int           `json:"errors"`
	Avg       time.Duration `json:"avg"`
	Min       time.Duration `json:"min"`
	Max       time.Duration `json:"max"`
	P95       time.Duration `json:"p95"`
	P99       time.Duration `json:"p99"`
}

// ErrorRate returns errors / count, or 0 for an empty series.
func (s OperationStats) ErrorRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Count)
}

const maxSamplesPerOperation = 4096

type series struct {
	samples []time.Duration
	errors  int
}

// StatsRecorder keeps in-process duration series per operation and computes
// avg/min/max/p95/p99 summaries. It complements the OTel pipeline with a
// queryable in-memory view used by the status endpoints.
type StatsRecorder struct {
	mu     sync.RWMutex
	series map[string]*series
}

// NewStatsRecorder creates an empty recorder.
func NewStatsRecorder() *StatsRecorder {
	return &StatsRecorder{
		series: make(map[string]*series),
	}
}

// Record adds one observation for the operation.
func (r *StatsRecorder) Record(operation string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.series[operation]
	if !ok {
		s = &series{}
		r.series[operation] = s
	}
	if err != nil {
		s.errors++
	}
	s.samples = append(s.samples, d)
	if len(s.samples) > maxSamplesPerOperation {
		// Drop the oldest half to bound memory.
		s.samples = append(s.samples[:0], s.samples[len(s.samples)/2:]...)
	}
}

// Stats returns the summary for one operation.
func (r *StatsRecorder) Stats(operation string) (OperationStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.series[operation]
	if !ok || len(s.samples) == 0 {
		return OperationStats{Operation: operation}, false
	}
	return summarize(operation, s), true
}

// All returns summaries for every operation, ordered by name.
func (r *StatsRecorder) All() []OperationStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]OperationStats, 0, len(r.series))
	for op, s := range r.series {
		if len(s.samples) == 0 {
			continue
		}
		out = append(out, summarize(op, s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Reset clears all recorded series. Intended for tests.
func (r *StatsRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = make(map[string]*series)
}

func summarize(operation string, s *series) OperationStats {
	sorted := make([]time.Duration, len(s.samples))
	copy(sorted, s.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return OperationStats{
		Operation: operation,
		Count:     len(sorted),
		Errors:    s.errors,
		Avg:       total / time.Duration(len(sorted)),
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
		P95:       percentile(sorted, 0.95),
		P99:       percentile(sorted, 0.99),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
