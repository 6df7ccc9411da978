package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	feedbackRequestsTotal  atomic.Uint64
	feedbackCompletedTotal atomic.Uint64

	feedbackRejectedTotal = newLabeledCounter()
	feedbackFailedTotal   = newLabeledCounter()

	feedbackDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	llmDuration      = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 20000, 30000, 60000, 120000})
)

// IncFeedbackRequests counts an upload that reached the handler.
func IncFeedbackRequests() {
	feedbackRequestsTotal.Add(1)
}

// IncFeedbackRejected counts a validation rejection by code.
func IncFeedbackRejected(code string) {
	feedbackRejectedTotal.Inc(code)
}

// IncFeedbackCompleted counts a persisted analysis.
func IncFeedbackCompleted() {
	feedbackCompletedTotal.Add(1)
}

// IncFeedbackFailed counts a pipeline failure by stage.
func IncFeedbackFailed(stage string) {
	feedbackFailedTotal.Inc(stage)
}

// ObserveFeedbackDurationMs records a full pipeline duration in milliseconds.
func ObserveFeedbackDurationMs(value float64) {
	feedbackDuration.Observe(clamp(value))
}

// ObserveLLMDurationMs records one language model call in milliseconds.
func ObserveLLMDurationMs(value float64) {
	llmDuration.Observe(clamp(value))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "feedback_requests_total", "Total resume uploads received", feedbackRequestsTotal.Load())
	writeLabeledCounter(&buf, "feedback_rejected_total", "Uploads rejected by validation", "code", feedbackRejectedTotal.Snapshot())
	writeCounter(&buf, "feedback_completed_total", "Total analyses persisted", feedbackCompletedTotal.Load())
	writeLabeledCounter(&buf, "feedback_failed_total", "Analyses failed after validation", "stage", feedbackFailedTotal.Snapshot())
	writeHistogram(&buf, "feedback_duration_ms", "Pipeline duration in milliseconds", feedbackDuration.Snapshot())
	writeHistogram(&buf, "llm_request_duration_ms", "Language model call duration in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

// SinceMs returns the milliseconds elapsed since start.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values[label]++
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in its smallest bucket; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
