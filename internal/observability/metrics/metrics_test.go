package metrics

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestObserveRequestAndNormalizePath(t *testing.T) {
	recorder := New()

	type testCase struct {
		name     string
		method   string
		path     string
		status   int
		duration time.Duration
	}

	cases := []testCase{
		{
			name:     "root path",
			method:   "get",
			path:     "/",
			status:   200,
			duration: 50 * time.Millisecond,
		},
		{
			name:     "empty path",
			method:   "GET",
			path:     "",
			status:   200,
			duration: 25 * time.Millisecond,
		},
		{
			name:     "id segment",
			method:   "post",
			path:     "/videos/123",
			status:   201,
			duration: 100 * time.Millisecond,
		},
		{
			name:     "trailing slash and hex id",
			method:   "POST",
			path:     "/videos/0a1b2c3d4e5f60718293a4b5c6d7e8f9/",
			status:   201,
			duration: 50 * time.Millisecond,
		},
		{
			name:     "multi ids",
			method:   "PATCH",
			path:     "playlists/add/456/789",
			status:   404,
			duration: 10 * time.Millisecond,
		},
	}

	expectedCounts := make(map[requestLabel]struct {
		count    uint64
		duration time.Duration
	})

	for _, tc := range cases {
		recorder.ObserveRequest(tc.method, tc.path, tc.status, tc.duration)

		label := requestLabel{
			method: strings.ToUpper(tc.method),
			path:   normalizePath(tc.path),
			status: fmt.Sprintf("%d", tc.status),
		}
		current := expectedCounts[label]
		current.count++
		current.duration += tc.duration
		expectedCounts[label] = current
	}

	if len(recorder.requestCount) != len(expectedCounts) {
		t.Fatalf("unexpected number of labels: got %d want %d", len(recorder.requestCount), len(expectedCounts))
	}

	for label, expected := range expectedCounts {
		gotCount := recorder.requestCount[label]
		gotDuration := recorder.requestDuration[label]
		if gotCount != expected.count {
			t.Errorf("count mismatch for %+v: got %d want %d", label, gotCount, expected.count)
		}
		if gotDuration != expected.duration {
			t.Errorf("duration mismatch for %+v: got %s want %s", label, gotDuration, expected.duration)
		}
	}

	labels := recorder.sortedRequestLabels()
	sortedExpected := make([]requestLabel, 0, len(expectedCounts))
	for label := range expectedCounts {
		sortedExpected = append(sortedExpected, label)
	}
	sort.Slice(sortedExpected, func(i, j int) bool {
		if sortedExpected[i].method != sortedExpected[j].method {
			return sortedExpected[i].method < sortedExpected[j].method
		}
		if sortedExpected[i].path != sortedExpected[j].path {
			return sortedExpected[i].path < sortedExpected[j].path
		}
		return sortedExpected[i].status < sortedExpected[j].status
	})

	if len(labels) != len(sortedExpected) {
		t.Fatalf("sorted labels length mismatch: got %d want %d", len(labels), len(sortedExpected))
	}

	for i := range labels {
		if labels[i] != sortedExpected[i] {
			t.Errorf("sorted label %d mismatch: got %+v want %+v", i, labels[i], sortedExpected[i])
		}
	}
}

func TestNormalizePathKeepsRouteWords(t *testing.T) {
	cases := map[string]string{
		"/users/change-password": "/users/change-password",
		"/users/current-user":    "/users/current-user",
		"/users/refresh-token":   "/users/refresh-token",
		"/videos/0a1b2c3d4e5f60718293a4b5c6d7e8f9": "/videos/:id",
		"/likes/toggle/v/123456":                   "/likes/toggle/v/:id",
	}
	for input, want := range cases {
		if got := normalizePath(input); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCountersConcurrent(t *testing.T) {
	recorder := New()

	var wg sync.WaitGroup
	views := 100
	events := 50

	wg.Add(views + events)
	for i := 0; i < views; i++ {
		go func() {
			defer wg.Done()
			recorder.VideoViewed()
		}()
	}
	for i := 0; i < events; i++ {
		go func() {
			defer wg.Done()
			recorder.ObserveAuthEvent("login")
		}()
	}
	wg.Wait()

	if got := recorder.VideoViews(); got != uint64(views) {
		t.Fatalf("video views = %d, want %d", got, views)
	}
	if got := recorder.AuthEventCounts()["login"]; got != uint64(events) {
		t.Fatalf("login events = %d, want %d", got, events)
	}
}

func TestWriteAndHandlerOutput(t *testing.T) {
	recorder := New()

	recorder.ObserveRequest("GET", "/videos/0a1b2c3d4e5f60718293a4b5c6d7e8f9", 200, 150*time.Millisecond)
	recorder.ObserveRequest("get", "/videos/1b2c3d4e5f60718293a4b5c6d7e8f90a/", 200, 50*time.Millisecond)
	recorder.ObserveRequest("POST", "/videos", 201, time.Second)

	recorder.ObserveAuthEvent(" Login ")
	recorder.ObserveAuthEvent("login")
	recorder.ObserveAuthEvent("register")

	recorder.ObserveAssetOperation("upload")
	recorder.ObserveAssetOperation("upload")
	recorder.ObserveAssetFailure("upload")
	recorder.ObserveAssetOperation("delete")

	recorder.VideoViewed()
	recorder.VideoViewed()

	var buf bytes.Buffer
	recorder.Write(&buf)

	expected := `# HELP clipstream_http_requests_total Total number of HTTP requests processed by the API
# TYPE clipstream_http_requests_total counter
clipstream_http_requests_total{method="GET",path="/videos/:id",status="200"} 2
clipstream_http_requests_total{method="POST",path="/videos",status="201"} 1
# HELP clipstream_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds
# TYPE clipstream_http_request_duration_seconds_sum counter
clipstream_http_request_duration_seconds_sum{method="GET",path="/videos/:id",status="200"} 0.200000
clipstream_http_request_duration_seconds_sum{method="POST",path="/videos",status="201"} 1.000000
# HELP clipstream_http_request_duration_seconds_count Total number of observations for request durations
# TYPE clipstream_http_request_duration_seconds_count counter
clipstream_http_request_duration_seconds_count{method="GET",path="/videos/:id",status="200"} 2
clipstream_http_request_duration_seconds_count{method="POST",path="/videos",status="201"} 1
# HELP clipstream_auth_events_total Authentication lifecycle events by type
# TYPE clipstream_auth_events_total counter
clipstream_auth_events_total{event="login"} 2
clipstream_auth_events_total{event="register"} 1
# HELP clipstream_asset_operations_total Total asset gateway operations attempted by action
# TYPE clipstream_asset_operations_total counter
clipstream_asset_operations_total{operation="delete"} 1
clipstream_asset_operations_total{operation="upload"} 2
# HELP clipstream_asset_failures_total Total asset gateway operation failures by action
# TYPE clipstream_asset_failures_total counter
clipstream_asset_failures_total{operation="delete"} 0
clipstream_asset_failures_total{operation="upload"} 1
# HELP clipstream_video_views_total Total recorded video playbacks
# TYPE clipstream_video_views_total counter
clipstream_video_views_total 2`

	if diff := compareLines(buf.String(), expected); diff != "" {
		t.Fatalf("unexpected write output:\n%s", diff)
	}

	res := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(res, httptest.NewRequest("GET", "/metrics", nil))

	if contentType := res.Result().Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/plain") {
		t.Fatalf("unexpected content type: %s", contentType)
	}

	if diff := compareLines(res.Body.String(), expected); diff != "" {
		t.Fatalf("unexpected handler output:\n%s", diff)
	}
}

func compareLines(actual, expected string) string {
	actualLines := strings.Split(strings.TrimSpace(actual), "\n")
	expectedLines := strings.Split(strings.TrimSpace(expected), "\n")
	if len(actualLines) != len(expectedLines) {
		return formatDiff(actualLines, expectedLines)
	}
	for i := range actualLines {
		if actualLines[i] != expectedLines[i] {
			return formatDiff(actualLines, expectedLines)
		}
	}
	return ""
}

func formatDiff(actual, expected []string) string {
	var b strings.Builder
	b.WriteString("expected\n")
	for _, line := range expected {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("got\n")
	for _, line := range actual {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
