package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wordtiles",
			Name:      "pages_processed_total",
			Help:      "Total pages processed by result (success, skipped, failed)",
		},
		[]string{"result"},
	)

	pageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wordtiles",
			Name:      "page_duration_seconds",
			Help:      "Duration of one page from render to last tile by result",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	regionsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wordtiles",
			Name:      "regions_detected_total",
			Help:      "Regions kept after size filtering",
		},
	)

	tilesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wordtiles",
			Name:      "tiles_written_total",
			Help:      "Tiles written to the output sink",
		},
	)

	pixelsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wordtiles",
			Name:      "tile_pixels_dropped_total",
			Help:      "Trailing region columns discarded by the tail policy",
		},
	)

	pagesInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wordtiles",
			Name:      "pages_inflight",
			Help:      "Pages currently being processed",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(pagesProcessed, pageDuration, regionsDetected, tilesWritten, pixelsDropped, pagesInflight)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObservePage(result string, dur time.Duration) {
	pagesProcessed.WithLabelValues(result).Inc()
	pageDuration.WithLabelValues(result).Observe(dur.Seconds())
}

func AddRegions(n int)       { regionsDetected.Add(float64(n)) }
func IncTile()               { tilesWritten.Inc() }
func AddDroppedPixels(n int) { pixelsDropped.Add(float64(n)) }
func PageStarted()           { pagesInflight.Inc() }
func PageFinished()          { pagesInflight.Dec() }
