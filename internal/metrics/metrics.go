// Package metrics exposes classification outcomes to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pbaille/memoir/internal/theme"
)

var storiesDesc = prometheus.NewDesc(
	"memoir_stories",
	"Stored stories by chapter",
	[]string{"chapter"},
	nil,
)

// ChapterCounter reports how many stories each chapter holds
type ChapterCounter interface {
	ChapterCounts() (map[string]int, error)
}

// StoryCollector is a custom Prometheus collector that reads chapter counts
// from the store on each scrape.
type StoryCollector struct {
	counter ChapterCounter
	logger  *zap.Logger
}

// Describe sends the metric descriptor to the channel.
func (c *StoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- storiesDesc
}

// Collect emits one gauge per chapter, including empty chapters.
func (c *StoryCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.counter.ChapterCounts()
	if err != nil {
		c.logger.Error("failed to collect story metrics", zap.Error(err))
		return
	}
	for _, chapter := range theme.Chapters() {
		ch <- prometheus.MustNewConstMetric(
			storiesDesc,
			prometheus.GaugeValue,
			float64(counts[string(chapter)]),
			string(chapter),
		)
	}
}

// Recorder tracks classification outcomes on its own registry
type Recorder struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	confidence      prometheus.Histogram
}

// New creates a Recorder. counter may be nil when no store is attached.
func New(counter ChapterCounter, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memoir_classifications_total",
			Help: "Classifications performed by chapter and sentiment",
		}, []string{"chapter", "sentiment"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "memoir_classification_confidence",
			Help:    "Confidence of the winning chapter",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}

	r.registry.MustRegister(r.classifications, r.confidence)
	if counter != nil {
		r.registry.MustRegister(&StoryCollector{counter: counter, logger: logger})
	}
	return r
}

// Observe records one classification result
func (r *Recorder) Observe(res theme.Result) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(string(res.Chapter), string(res.Sentiment)).Inc()
	r.confidence.Observe(res.Confidence)
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
