package loglens

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loglens/loglens-go/internal/mockapi"
)

// TestStaticQueryJob_Results_CollectsAllSegments verifies that the sequence
// yields every segment up to completion and then ends.
func TestStaticQueryJob_Results_CollectsAllSegments(t *testing.T) {
	mock := mockapi.New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	id := mock.AddJob("sandbox",
		mockapi.Segment{WorkDone: 1, TotalWork: 3, Events: []map[string]any{{"@rawstring": "a"}}},
		mockapi.Segment{WorkDone: 2, TotalWork: 3, Events: []map[string]any{{"@rawstring": "b"}}},
		mockapi.Segment{WorkDone: 3, TotalWork: 3, Done: true, Events: []map[string]any{{"@rawstring": "c"}}},
	)

	job, err := NewStaticQueryJob(id, ts.URL, "sandbox", "token")
	if err != nil {
		t.Fatalf("NewStaticQueryJob() error = %v", err)
	}

	var lines []string
	for result, err := range job.Results(context.Background()) {
		if err != nil {
			t.Fatalf("Results() yielded error = %v", err)
		}
		for _, event := range result.Events {
			lines = append(lines, event["@rawstring"].(string))
		}
	}

	if len(lines) != 3 || lines[0] != "a" || lines[1] != "b" || lines[2] != "c" {
		t.Errorf("expected events a, b, c in order, got %v", lines)
	}
	if got := mock.Polls(id); got != 3 {
		t.Errorf("expected 3 polls on the server, got %d", got)
	}
}

// TestStaticQueryJob_Results_ExhaustedYieldsNothing verifies that a sequence
// over an already-exhausted handle ends immediately and performs no request.
func TestStaticQueryJob_Results_ExhaustedYieldsNothing(t *testing.T) {
	mock := mockapi.New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	id := mock.AddJob("sandbox", mockapi.Segment{Done: true, WorkDone: 1, TotalWork: 1})

	job, err := NewStaticQueryJob(id, ts.URL, "sandbox", "token")
	if err != nil {
		t.Fatalf("NewStaticQueryJob() error = %v", err)
	}
	if _, err := job.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	for range job.Results(context.Background()) {
		t.Fatal("expected no elements from an exhausted handle")
	}
	if got := mock.Polls(id); got != 1 {
		t.Errorf("expected no further polls, server saw %d", got)
	}
}

// TestStaticQueryJob_Results_EarlyBreakStopsPolling verifies that leaving
// the loop stops all network activity.
func TestStaticQueryJob_Results_EarlyBreakStopsPolling(t *testing.T) {
	mock := mockapi.New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	id := mock.AddJob("sandbox",
		mockapi.Segment{WorkDone: 1, TotalWork: 3, Events: []map[string]any{{"@rawstring": "a"}}},
		mockapi.Segment{WorkDone: 2, TotalWork: 3, Events: []map[string]any{{"@rawstring": "b"}}},
		mockapi.Segment{WorkDone: 3, TotalWork: 3, Done: true},
	)

	job, err := NewStaticQueryJob(id, ts.URL, "sandbox", "token")
	if err != nil {
		t.Fatalf("NewStaticQueryJob() error = %v", err)
	}

	for _, err := range job.Results(context.Background()) {
		if err != nil {
			t.Fatalf("Results() yielded error = %v", err)
		}
		break
	}

	if got := mock.Polls(id); got != 1 {
		t.Errorf("expected polling to stop after the break, server saw %d polls", got)
	}
}

// TestStaticQueryJob_Results_YieldsErrorOnce verifies that a poll failure is
// delivered as the final element of the sequence.
func TestStaticQueryJob_Results_YieldsErrorOnce(t *testing.T) {
	mock := mockapi.New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	id := mock.AddJob("sandbox",
		mockapi.Segment{Status: http.StatusServiceUnavailable, Body: "overloaded"},
	)

	job, err := NewStaticQueryJob(id, ts.URL, "sandbox", "token")
	if err != nil {
		t.Fatalf("NewStaticQueryJob() error = %v", err)
	}

	var iterations int
	var yielded error
	for _, err := range job.Results(context.Background()) {
		iterations++
		yielded = err
	}

	if iterations != 1 {
		t.Fatalf("expected exactly 1 element, got %d", iterations)
	}
	var apiErr *APIError
	if !errors.As(yielded, &apiErr) {
		t.Fatalf("expected *APIError, got %v", yielded)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", apiErr.StatusCode)
	}
}

// TestLiveQueryJob_Results_EndsOnContextCancel verifies that cancelling the
// context ends a live sequence silently, without an error element.
func TestLiveQueryJob_Results_EndsOnContextCancel(t *testing.T) {
	mock := mockapi.New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	id := mock.AddJob("sandbox", mockapi.Segment{
		PollAfter: 50,
		WorkDone:  1,
		TotalWork: 1,
		Events:    []map[string]any{{"@rawstring": "tick"}},
	})

	job, err := NewLiveQueryJob(id, ts.URL, "sandbox", "token")
	if err != nil {
		t.Fatalf("NewLiveQueryJob() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var results int
	for _, err := range job.Results(ctx) {
		if err != nil {
			t.Fatalf("Results() yielded error = %v", err)
		}
		results++
	}

	if results == 0 {
		t.Error("expected at least one result before cancellation")
	}
}
