package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors. All methods are safe
// on a nil receiver so components can run without metrics wired.
type Metrics struct {
	SessionsOpened  prometheus.Counter
	Saves           *prometheus.CounterVec
	SaveLatency     prometheus.Histogram
	Uploads         *prometheus.CounterVec
	UploadBytes     prometheus.Counter
	RenderCache     *prometheus.CounterVec
	BackrefFailures *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "portgen_edit_sessions_opened_total",
			Help: "Edit sessions that finished loading successfully",
		}),
		Saves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portgen_portfolio_saves_total",
			Help: "Portfolio saves by result",
		}, []string{"result"}),
		SaveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "portgen_portfolio_save_duration_seconds",
			Help:    "Latency of the document store update issued by save",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portgen_asset_uploads_total",
			Help: "Asset uploads by result",
		}, []string{"result"}),
		UploadBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "portgen_asset_upload_bytes_total",
			Help: "Bytes accepted by the blob store",
		}),
		RenderCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portgen_render_cache_lookups_total",
			Help: "Public render cache lookups by outcome",
		}, []string{"outcome"}),
		BackrefFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portgen_backref_failures_total",
			Help: "Second-write failures that left a user back-reference inconsistent",
		}, []string{"operation"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
}

func (m *Metrics) ObserveSave(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(result(err)).Inc()
	m.SaveLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveUpload(bytes int64, err error) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result(err)).Inc()
	if err == nil && bytes > 0 {
		m.UploadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) RenderCacheHit() {
	if m == nil {
		return
	}
	m.RenderCache.WithLabelValues("hit").Inc()
}

func (m *Metrics) RenderCacheMiss() {
	if m == nil {
		return
	}
	m.RenderCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) BackrefFailed(operation string) {
	if m == nil {
		return
	}
	m.BackrefFailures.WithLabelValues(operation).Inc()
}
