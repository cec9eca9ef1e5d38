package stats

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
)

// Op names the direction of a serialization call
type Op string

const (
	OpSerialize   Op = "serialize"
	OpDeserialize Op = "deserialize"
)

// Recorder collects statistics of serialization calls per operation and
// backend.
//
// Thread-safe: all methods are safe for concurrent use
type Recorder struct {
	set    *metrics.Set
	timers gometrics.Registry
	sizes  *xsync.MapOf[string, *SizeHistogram]
}

// NewRecorder creates a recorder with its own metric set and timer registry
func NewRecorder() *Recorder {
	return &Recorder{
		set:    metrics.NewSet(),
		timers: gometrics.NewRegistry(),
		sizes:  xsync.NewMapOf[string, *SizeHistogram](),
	}
}

// Observe records one call that started at start and produced or consumed a
// payload of size bytes. A non nil err counts the call as failed.
func (r *Recorder) Observe(op Op, backend string, start time.Time, size int, err error) {
	labels := metricLabels(op, backend)

	r.set.GetOrCreateCounter("dser_calls_total" + labels).Inc()
	if err != nil {
		r.set.GetOrCreateCounter("dser_errors_total" + labels).Inc()
	}
	r.set.GetOrCreateHistogram("dser_payload_bytes" + labels).Update(float64(size))

	gometrics.GetOrRegisterTimer(timerName(op, backend), r.timers).UpdateSince(start)

	h, _ := r.sizes.LoadOrCompute(timerName(op, backend), NewSizeHistogram)
	h.AddSample(size)
}

// Calls returns the number of observed calls
func (r *Recorder) Calls(op Op, backend string) uint64 {
	return r.set.GetOrCreateCounter("dser_calls_total" + metricLabels(op, backend)).Get()
}

// Errors returns the number of observed failed calls
func (r *Recorder) Errors(op Op, backend string) uint64 {
	return r.set.GetOrCreateCounter("dser_errors_total" + metricLabels(op, backend)).Get()
}

// Latency returns a snapshot of the call latencies
func (r *Recorder) Latency(op Op, backend string) gometrics.Timer {
	return gometrics.GetOrRegisterTimer(timerName(op, backend), r.timers).Snapshot()
}

// Sizes returns the payload size histogram, nil if nothing was observed
func (r *Recorder) Sizes(op Op, backend string) *SizeHistogram {
	h, _ := r.sizes.Load(timerName(op, backend))
	return h
}

// Keys returns the observed "op.backend" combinations in sorted order
func (r *Recorder) Keys() []string {
	keys := make([]string, 0, r.sizes.Size())
	r.sizes.Range(func(k string, _ *SizeHistogram) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	return keys
}

// WritePrometheus writes the counters and histograms in the Prometheus text
// exposition format
func (r *Recorder) WritePrometheus(w io.Writer) {
	r.set.WritePrometheus(w)
}

// ---- Helper ----

func metricLabels(op Op, backend string) string {
	return fmt.Sprintf(`{op=%q,backend=%q}`, op, backend)
}

func timerName(op Op, backend string) string {
	return string(op) + "." + backend
}
