// Package httpmetrics wraps an http.Handler with OpenCensus request metrics.
package httpmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	keyPath   = tag.MustNewKey("path")
	keyMethod = tag.MustNewKey("method")
	keyStatus = tag.MustNewKey("status")
)

type Wrapper struct {
	requestCount   *stats.Int64Measure
	requestLatency *stats.Float64Measure
	views          []*view.View

	inner http.Handler
}

func New(inner http.Handler) *Wrapper {
	w := &Wrapper{inner: inner}

	w.requestCount = stats.Int64("requests", "Count of requests handled", stats.UnitDimensionless)
	w.requestLatency = stats.Float64("request_latency", "Latency of handled requests", stats.UnitMilliseconds)

	w.views = []*view.View{
		{
			Name:        "requests",
			Description: "Counter of requests that have been handled",
			TagKeys:     []tag.Key{keyPath, keyMethod, keyStatus},
			Measure:     w.requestCount,
			Aggregation: view.Count(),
		},
		{
			Name:        "request_latency",
			Description: "Latency distribution of requests that have been handled",
			TagKeys:     []tag.Key{keyPath, keyMethod},
			Measure:     w.requestLatency,
			Aggregation: view.Distribution(1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000),
		},
	}

	return w
}

func (h *Wrapper) RegisterMetrics() {
	view.Register(h.views...)
}

// statusRecorder remembers the status code written to the response.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Wrapper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	start := time.Now()
	h.inner.ServeHTTP(recorder, r)
	elapsed := time.Since(start)

	glog.Infof("Served path=%q method=%q status=%d elapsed=%v", r.URL.Path, r.Method, recorder.status, elapsed)

	stats.RecordWithOptions(
		r.Context(),
		stats.WithTags(
			tag.Insert(keyPath, r.URL.Path),
			tag.Insert(keyMethod, r.Method),
			tag.Insert(keyStatus, strconv.Itoa(recorder.status)),
		),
		stats.WithMeasurements(
			h.requestCount.M(1),
			h.requestLatency.M(float64(elapsed)/float64(time.Millisecond)),
		))
}
