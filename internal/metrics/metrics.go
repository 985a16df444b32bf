// Package metrics records reconciliation activity as Prometheus metrics
// and keeps a snapshot for the status API.
package metrics

import (
	"net/http"
	"net/netip"
	"sync"
	"time"

	"netloc/internal/reconciler"
	"netloc/internal/state"
	"netloc/internal/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netloc"

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Status is a point-in-time view of the loop
type Status struct {
	StartTime      time.Time `json:"start_time"`
	LastCheckTime  time.Time `json:"last_check_time,omitempty"`
	LastChangeTime time.Time `json:"last_change_time,omitempty"`
	IP             string    `json:"ip,omitempty"`
	Effect         string    `json:"effect,omitempty"`
	CycleCount     int64     `json:"cycle_count"`
	ChangeCount    int64     `json:"change_count"`
	DeliveryCount  int64     `json:"delivery_count"`
	ErrorCount     int64     `json:"error_count"`
	RestartCount   int64     `json:"restart_count"`
	LastError      string    `json:"last_error,omitempty"`
	LastErrorPhase string    `json:"last_error_phase,omitempty"`
	LastErrorTime  time.Time `json:"last_error_time,omitempty"`
}

// Recorder implements the reconciler and supervisor observers. It is safe
// for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	cycles           prometheus.Counter
	resolutions      *prometheus.CounterVec
	resolveDuration  prometheus.Histogram
	changes          *prometheus.CounterVec
	lastChange       prometheus.Gauge
	deliveries       *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	failures         *prometheus.CounterVec
	restarts         prometheus.Counter

	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

// NewRecorder creates a recorder backed by its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Reconciliation cycles started.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "IP resolution attempts by result.",
		}, []string{"result"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of successful IP resolutions.",
			Buckets:   prometheus.DefBuckets,
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ip_changes_total",
			Help:      "Observed IP changes by effect.",
		}, []string{"effect"}),
		lastChange: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_change_timestamp_seconds",
			Help:      "Unix time of the last observed IP change.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Reporter invocations by reporter and result.",
		}, []string{"reporter", "result"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Duration of reporter invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"reporter"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Fatal reconciler errors by phase.",
		}, []string{"phase"}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Reconciler restarts after a fatal error.",
		}),
		now: time.Now,
	}

	info := version.GetInfo()
	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information, value is always 1.",
	}, []string{"version", "commit", "go_version"})
	buildInfo.WithLabelValues(info.Version, info.GitCommit, info.GoVersion).Set(1)

	r.registry.MustRegister(
		r.cycles,
		r.resolutions,
		r.resolveDuration,
		r.changes,
		r.lastChange,
		r.deliveries,
		r.deliveryDuration,
		r.failures,
		r.restarts,
		buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.status.StartTime = r.now()
	return r
}

// Registry returns the registry the recorder's metrics live in
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// CycleStarted records the start of a reconciliation cycle
func (r *Recorder) CycleStarted() {
	r.cycles.Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.CycleCount++
	r.status.LastCheckTime = r.now()
}

// Resolved records a successful resolution and its effect on the state
func (r *Recorder) Resolved(addr netip.Addr, effect state.UpdateEffect[netip.Addr], d time.Duration) {
	r.resolutions.WithLabelValues(resultSuccess).Inc()
	r.resolveDuration.Observe(d.Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.IP = addr.String()
	if !effect.Changed() {
		return
	}

	now := r.now()
	r.changes.WithLabelValues(effect.String()).Inc()
	r.lastChange.Set(float64(now.Unix()))
	r.status.Effect = effect.String()
	r.status.ChangeCount++
	r.status.LastChangeTime = now
}

// ResolveFailed records a failed resolution
func (r *Recorder) ResolveFailed(error) {
	r.resolutions.WithLabelValues(resultFailure).Inc()
}

// Reported records a single reporter invocation
func (r *Recorder) Reported(reporter string, err error, d time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	r.deliveries.WithLabelValues(reporter, result).Inc()
	r.deliveryDuration.WithLabelValues(reporter).Observe(d.Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.DeliveryCount++
}

// Failed records a fatal error that ended a reconciler run
func (r *Recorder) Failed(err error) {
	phase := reconciler.Phase(err)
	if phase == "" {
		phase = "unknown"
	}
	r.failures.WithLabelValues(phase).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.ErrorCount++
	r.status.LastError = err.Error()
	r.status.LastErrorPhase = phase
	r.status.LastErrorTime = r.now()
}

// Restarted records a reconciler restart
func (r *Recorder) Restarted() {
	r.restarts.Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.RestartCount++
}

// Snapshot returns a copy of the current status
func (r *Recorder) Snapshot() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
