package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates in-memory counters for HTTP requests, authentication
// events, asset gateway operations, and video playback. It coordinates
// concurrent writers via a RWMutex and exposes everything in Prometheus text
// format.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	authEvents      map[string]uint64
	assetOperations map[string]uint64
	assetFailures   map[string]uint64
	videoViews      atomic.Uint64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers
// can immediately record metrics without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		authEvents:      make(map[string]uint64),
		assetOperations: make(map[string]uint64),
		assetFailures:   make(map[string]uint64),
	}
}

// Default returns the singleton Recorder instance shared across helper
// functions for packages that do not require custom instrumentation pipelines.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest normalizes the request label set and accumulates totals for
// request count and cumulative duration by HTTP method, normalized path, and
// status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveAuthEvent records an authentication lifecycle event keyed by name
// (e.g. "register", "login", "login_failure", "refresh", "logout").
func (r *Recorder) ObserveAuthEvent(event string) {
	name := normalizeName(event)
	r.mu.Lock()
	r.authEvents[name]++
	r.mu.Unlock()
}

// ObserveAssetOperation records an asset gateway operation attempt keyed by
// operation name ("upload" or "delete").
func (r *Recorder) ObserveAssetOperation(operation string) {
	op := normalizeName(operation)
	r.mu.Lock()
	r.assetOperations[op]++
	r.mu.Unlock()
}

// ObserveAssetFailure records a failed asset gateway operation. The caller
// should also record the attempt separately.
func (r *Recorder) ObserveAssetFailure(operation string) {
	op := normalizeName(operation)
	r.mu.Lock()
	r.assetFailures[op]++
	r.mu.Unlock()
}

// VideoViewed increments the playback counter.
func (r *Recorder) VideoViewed() {
	r.videoViews.Add(1)
}

// VideoViews exposes the current playback counter value.
func (r *Recorder) VideoViews() uint64 {
	return r.videoViews.Load()
}

// AuthEventCounts returns a copy of the authentication event counters for
// testing and reporting purposes.
func (r *Recorder) AuthEventCounts() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make(map[string]uint64, len(r.authEvents))
	for k, v := range r.authEvents {
		events[k] = v
	}
	return events
}

// AssetCounts returns copies of asset operation and failure counters.
func (r *Recorder) AssetCounts() (operations map[string]uint64, failures map[string]uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	operations = make(map[string]uint64, len(r.assetOperations))
	for k, v := range r.assetOperations {
		operations[k] = v
	}
	failures = make(map[string]uint64, len(r.assetFailures))
	for k, v := range r.assetFailures {
		failures[k] = v
	}
	return operations, failures
}

// Reset clears all counters on the recorder. It is intended for test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.authEvents = make(map[string]uint64)
	r.assetOperations = make(map[string]uint64)
	r.assetFailures = make(map[string]uint64)
	r.videoViews.Store(0)
}

// Handler exposes the Recorder as an http.Handler that writes Prometheus text
// exposition data with the appropriate content type.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the Recorder's metrics in Prometheus text format, sorting
// label sets to provide stable output for scrapes and tests.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()
	authEvents := sortedKeys(r.authEvents)
	assetOperations := r.sortedAssetOperations()

	fmt.Fprintln(w, "# HELP clipstream_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE clipstream_http_requests_total counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "clipstream_http_requests_total{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE clipstream_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		duration := r.requestDuration[label].Seconds()
		fmt.Fprintf(w, "clipstream_http_request_duration_seconds_sum{method=\"%s\",path=\"%s\",status=\"%s\"} %f\n", label.method, label.path, label.status, duration)
	}

	fmt.Fprintln(w, "# HELP clipstream_http_request_duration_seconds_count Total number of observations for request durations")
	fmt.Fprintln(w, "# TYPE clipstream_http_request_duration_seconds_count counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "clipstream_http_request_duration_seconds_count{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_auth_events_total Authentication lifecycle events by type")
	fmt.Fprintln(w, "# TYPE clipstream_auth_events_total counter")
	for _, event := range authEvents {
		value := r.authEvents[event]
		fmt.Fprintf(w, "clipstream_auth_events_total{event=\"%s\"} %d\n", event, value)
	}

	fmt.Fprintln(w, "# HELP clipstream_asset_operations_total Total asset gateway operations attempted by action")
	fmt.Fprintln(w, "# TYPE clipstream_asset_operations_total counter")
	for _, op := range assetOperations {
		count := r.assetOperations[op]
		fmt.Fprintf(w, "clipstream_asset_operations_total{operation=\"%s\"} %d\n", op, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_asset_failures_total Total asset gateway operation failures by action")
	fmt.Fprintln(w, "# TYPE clipstream_asset_failures_total counter")
	for _, op := range assetOperations {
		count := r.assetFailures[op]
		fmt.Fprintf(w, "clipstream_asset_failures_total{operation=\"%s\"} %d\n", op, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_video_views_total Total recorded video playbacks")
	fmt.Fprintln(w, "# TYPE clipstream_video_views_total counter")
	fmt.Fprintf(w, "clipstream_video_views_total %d\n", r.videoViews.Load())
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func (r *Recorder) sortedAssetOperations() []string {
	seen := make(map[string]struct{}, len(r.assetOperations)+len(r.assetFailures))
	for op := range r.assetOperations {
		seen[op] = struct{}{}
	}
	for op := range r.assetFailures {
		seen[op] = struct{}{}
	}
	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func sortedKeys(counters map[string]uint64) []string {
	keys := make([]string, 0, len(counters))
	for key := range counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if looksLikeIdentifier(part) {
			parts[i] = ":id"
			continue
		}
	}
	normalized := strings.Join(parts, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasSuffix(normalized, "/") && len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

func looksLikeIdentifier(segment string) bool {
	if len(segment) >= 16 {
		return true
	}
	digitCount := 0
	for _, r := range segment {
		if r >= '0' && r <= '9' {
			digitCount++
		}
	}
	return digitCount >= 3
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// ObserveRequest is a helper on the default recorder.
func ObserveRequest(method, path string, status int, duration time.Duration) {
	defaultRecorder.ObserveRequest(method, path, status, duration)
}

// ObserveAuthEvent records an authentication event on the default recorder.
func ObserveAuthEvent(event string) {
	defaultRecorder.ObserveAuthEvent(event)
}

// ObserveAssetOperation records an asset operation on the default recorder.
func ObserveAssetOperation(operation string) {
	defaultRecorder.ObserveAssetOperation(operation)
}

// ObserveAssetFailure records an asset failure on the default recorder.
func ObserveAssetFailure(operation string) {
	defaultRecorder.ObserveAssetFailure(operation)
}

// VideoViewed increments the playback counter on the default recorder.
func VideoViewed() {
	defaultRecorder.VideoViewed()
}

// Handler exposes the default recorder as an HTTP handler.
func Handler() http.Handler {
	return defaultRecorder.Handler()
}
