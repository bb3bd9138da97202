package telemetry

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/actioncore/internal/action"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "actioncore"

// tickBuckets cover sub-millisecond ticks up to a badly overrunning one.
var tickBuckets = []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1}

// Metrics exports scheduler activity as Prometheus collectors.
type Metrics struct {
	completions    *prom.CounterVec
	durations      *prom.HistogramVec
	queueLength    *prom.GaugeVec
	parallelQueues prom.Gauge
	tracksLocked   prom.Gauge
	liveRunners    prom.Gauge
	tickDuration   prom.Histogram
	ticks          prom.Counter
}

var (
	_ Observer     = (*Metrics)(nil)
	_ TickObserver = (*Metrics)(nil)
)

// NewMetrics creates and registers the collectors on reg, reusing
// collectors that are already registered there. A nil reg selects the
// default registerer.
func NewMetrics(namespace string, reg prom.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	completions := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "completions_total",
		Help:      "Runners that reached a terminal state.",
	}, []string{"type", "state"})
	durations := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "action_duration_seconds",
		Help:      "Time from first start to completion of top-level runners.",
		Buckets:   prom.ExponentialBuckets(0.01, 4, 8),
	}, []string{"type"})
	queueLength := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_length",
		Help:      "Top-level runners per queue.",
	}, []string{"queue"})
	parallelQueues := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "parallel_queues",
		Help:      "Occupied parallel slots.",
	})
	tracksLocked := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "tracks_locked",
		Help:      "Tracks currently held by a runner.",
	})
	liveRunners := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_runners",
		Help:      "Runners queued at any depth.",
	})
	tickDuration := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Time spent in one scheduler update.",
		Buckets:   tickBuckets,
	})
	ticks := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Scheduler updates run.",
	})

	var err error
	if completions, err = registerCollector(reg, completions); err != nil {
		return nil, err
	}
	if durations, err = registerCollector(reg, durations); err != nil {
		return nil, err
	}
	if queueLength, err = registerCollector(reg, queueLength); err != nil {
		return nil, err
	}
	if parallelQueues, err = registerCollector(reg, parallelQueues); err != nil {
		return nil, err
	}
	if tracksLocked, err = registerCollector(reg, tracksLocked); err != nil {
		return nil, err
	}
	if liveRunners, err = registerCollector(reg, liveRunners); err != nil {
		return nil, err
	}
	if tickDuration, err = registerCollector(reg, tickDuration); err != nil {
		return nil, err
	}
	if ticks, err = registerCollector(reg, ticks); err != nil {
		return nil, err
	}

	return &Metrics{
		completions:    completions,
		durations:      durations,
		queueLength:    queueLength,
		parallelQueues: parallelQueues,
		tracksLocked:   tracksLocked,
		liveRunners:    liveRunners,
		tickDuration:   tickDuration,
		ticks:          ticks,
	}, nil
}

// OnCompletion counts rec. Durations are observed for top-level runners only.
func (m *Metrics) OnCompletion(rec action.CompletionRecord) {
	if m == nil {
		return
	}
	typ := normalizeLabel(string(rec.Type), string(action.TypeUnknown))
	m.completions.WithLabelValues(typ, rec.State.String()).Inc()
	if rec.Parent == action.InvalidTag {
		m.durations.WithLabelValues(typ).Observe(rec.Duration.Seconds())
	}
}

// OnSnapshot updates the queue gauges.
func (m *Metrics) OnSnapshot(snap action.Snapshot) {
	if m == nil {
		return
	}
	// Slots come and go; stale queue labels are dropped.
	m.queueLength.Reset()
	for _, q := range snap.Queues {
		m.queueLength.WithLabelValues(strconv.Itoa(q.ID)).Set(float64(len(q.Runners)))
	}
	m.parallelQueues.Set(float64(snap.ParallelQueues()))
	m.tracksLocked.Set(float64(bits.OnesCount8(uint8(snap.Locked))))
	m.liveRunners.Set(float64(snap.Live))
}

// OnTick records how long an update took.
func (m *Metrics) OnTick(_ uint64, took time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(took.Seconds())
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}
	return collector, err
}
