package runtime

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric is one completed named timing sample, mirroring rustchain's
// PerfMetric{name, duration_ms}.
type Metric struct {
	Name       string
	DurationMs int64
}

// PerfCollector accumulates named start/stop timing samples for mission
// and step execution, the Go counterpart of rustchain's PerfCollector.
// Multiple in-flight timers of the same name are allowed — each Start
// call pushes an independent start time, and the matching Stop pops the
// most recent one, so overlapping steps sharing a name don't clobber
// each other's clocks.
type PerfCollector struct {
	mu        sync.Mutex
	active    map[string][]time.Time
	completed []Metric

	histogram *prometheus.HistogramVec
}

// NewPerfCollector builds a collector. When registerer is non-nil the
// collector also mirrors every completed sample into a Prometheus
// histogram labeled by name, registered against registerer — used when
// runtime.Config.MetricsEnabled is set.
func NewPerfCollector(registerer prometheus.Registerer) *PerfCollector {
	pc := &PerfCollector{active: make(map[string][]time.Time)}
	if registerer != nil {
		pc.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "missioncore",
			Subsystem: "perf",
			Name:      "timer_duration_seconds",
			Help:      "Duration of named timing samples recorded by the mission runtime.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"})
		registerer.MustRegister(pc.histogram)
	}
	return pc
}

// Start begins timing the named sample.
func (p *PerfCollector) Start(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[name] = append(p.active[name], time.Now())
}

// Stop ends the most recently started sample for name and records its
// duration. Stopping a name with no matching Start is a no-op, the way
// rustchain's `end` silently skips an unknown name.
func (p *PerfCollector) Stop(name string) {
	p.mu.Lock()
	starts := p.active[name]
	if len(starts) == 0 {
		p.mu.Unlock()
		return
	}
	start := starts[len(starts)-1]
	p.active[name] = starts[:len(starts)-1]
	elapsed := time.Since(start)
	p.completed = append(p.completed, Metric{Name: name, DurationMs: elapsed.Milliseconds()})
	hist := p.histogram
	p.mu.Unlock()

	if hist != nil {
		hist.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

// Measure times the execution of fn under name.
func (p *PerfCollector) Measure(name string, fn func()) {
	p.Start(name)
	defer p.Stop(name)
	fn()
}

// Completed returns a snapshot of every sample recorded so far.
func (p *PerfCollector) Completed() []Metric {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Metric, len(p.completed))
	copy(out, p.completed)
	return out
}

// Summary renders one "name: Nms" line per completed sample, in
// recording order, mirroring rustchain's PerfCollector::summary.
func (p *PerfCollector) Summary() string {
	samples := p.Completed()
	lines := make([]string, 0, len(samples))
	for _, m := range samples {
		lines = append(lines, fmt.Sprintf("%s: %dms", m.Name, m.DurationMs))
	}
	return strings.Join(lines, "\n")
}

// Aggregate describes count/total/mean for every distinct sample name,
// useful for a single `report` line instead of one line per sample.
type Aggregate struct {
	Name     string
	Count    int
	TotalMs  int64
	MeanMs   float64
}

// Aggregates groups completed samples by name, sorted by name for
// deterministic report output.
func (p *PerfCollector) Aggregates() []Aggregate {
	samples := p.Completed()
	byName := make(map[string]*Aggregate)
	order := make([]string, 0)
	for _, m := range samples {
		a, ok := byName[m.Name]
		if !ok {
			a = &Aggregate{Name: m.Name}
			byName[m.Name] = a
			order = append(order, m.Name)
		}
		a.Count++
		a.TotalMs += m.DurationMs
	}
	sort.Strings(order)
	out := make([]Aggregate, 0, len(order))
	for _, name := range order {
		a := byName[name]
		a.MeanMs = float64(a.TotalMs) / float64(a.Count)
		out = append(out, *a)
	}
	return out
}
