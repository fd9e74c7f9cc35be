package mockapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestServer_ScriptedSegments verifies polls walk the script in order and
// the final segment repeats.
func TestServer_ScriptedSegments(t *testing.T) {
	mock := New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	id := mock.AddJob("sandbox",
		Segment{WorkDone: 1, TotalWork: 2},
		Segment{WorkDone: 2, TotalWork: 2, Done: true},
	)

	wantWorkDone := []float64{1, 2, 2} // the last segment repeats
	for i, want := range wantWorkDone {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/dataspaces/sandbox/queryjobs/%s", ts.URL, id))
		if err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}

		var envelope struct {
			MetaData map[string]any `json:"metaData"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("poll %d: failed to decode body: %v", i, err)
		}
		_ = resp.Body.Close()

		if got := envelope.MetaData["workDone"]; got != want {
			t.Errorf("poll %d: workDone = %v, want %v", i, got, want)
		}
	}

	if got := mock.Polls(id); got != 3 {
		t.Errorf("Polls() = %d, want 3", got)
	}
}

// TestServer_CreateAndDelete verifies the job lifecycle over the API: a
// created job is pollable until it is deleted, then answers 404.
func TestServer_CreateAndDelete(t *testing.T) {
	mock := New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	mock.QueueJob(Segment{Done: true})

	resp, err := http.Post(
		ts.URL+"/api/v1/dataspaces/sandbox/queryjobs",
		"application/json",
		bytes.NewReader([]byte(`{"queryString":"*","isLive":false}`)),
	)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	_ = resp.Body.Close()
	if created.ID == "" {
		t.Fatal("expected a job id from create")
	}

	jobURL := fmt.Sprintf("%s/api/v1/dataspaces/sandbox/queryjobs/%s", ts.URL, created.ID)

	resp, err = http.Get(jobURL)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("poll status = %d, want 200", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, jobURL, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	if !mock.Deleted(created.ID) {
		t.Error("expected Deleted() to report true")
	}

	resp, err = http.Get(jobURL)
	if err != nil {
		t.Fatalf("poll after delete failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("poll after delete status = %d, want 404", resp.StatusCode)
	}
}

// TestServer_RequireToken verifies the bearer token check.
func TestServer_RequireToken(t *testing.T) {
	mock := New()
	mock.RequireToken("secret")
	ts := httptest.NewServer(mock)
	defer ts.Close()

	id := mock.AddJob("sandbox", Segment{Done: true})
	jobURL := fmt.Sprintf("%s/api/v1/dataspaces/sandbox/queryjobs/%s", ts.URL, id)

	resp, err := http.Get(jobURL)
	if err != nil {
		t.Fatalf("unauthenticated poll failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated poll status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, jobURL, nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authenticated poll failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated poll status = %d, want 200", resp.StatusCode)
	}
}

// TestServer_DefaultScript verifies creations fall back to the default
// script when nothing is queued, and that a queued script still wins.
func TestServer_DefaultScript(t *testing.T) {
	mock := New()
	ts := httptest.NewServer(mock)
	defer ts.Close()

	mock.SetDefaultJob(
		Segment{WorkDone: 1, TotalWork: 2},
		Segment{WorkDone: 2, TotalWork: 2, Done: true},
	)
	mock.QueueJob(Segment{WorkDone: 9, TotalWork: 9, Done: true})

	createJob := func() string {
		t.Helper()
		resp, err := http.Post(
			ts.URL+"/api/v1/dataspaces/sandbox/queryjobs",
			"application/json",
			bytes.NewReader([]byte(`{"queryString":"*","isLive":false}`)),
		)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			t.Fatalf("failed to decode create response: %v", err)
		}
		_ = resp.Body.Close()
		return created.ID
	}

	pollWorkDone := func(id string) any {
		t.Helper()
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/dataspaces/sandbox/queryjobs/%s", ts.URL, id))
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		var envelope struct {
			MetaData map[string]any `json:"metaData"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		_ = resp.Body.Close()
		return envelope.MetaData["workDone"]
	}

	// the queued script is consumed first
	queuedID := createJob()
	if got := pollWorkDone(queuedID); got != float64(9) {
		t.Errorf("queued job workDone = %v, want 9", got)
	}

	// every later creation replays the default script from the start
	for run := 0; run < 2; run++ {
		id := createJob()
		if got := pollWorkDone(id); got != float64(1) {
			t.Errorf("run %d: first poll workDone = %v, want 1", run, got)
		}
		if got := pollWorkDone(id); got != float64(2) {
			t.Errorf("run %d: second poll workDone = %v, want 2", run, got)
		}
	}
}
