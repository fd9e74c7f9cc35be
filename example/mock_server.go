package main

import (
	"log/slog"
	"net/http"

	"github.com/loglens/loglens-go/internal/mockapi"
)

// newMockLogServer builds a scripted LogLens API with one static aggregate
// search and one live search queued, in the order main submits them.
func newMockLogServer() *mockapi.Server {
	api := mockapi.New()

	// script for the aggregate search: two partial snapshots, then the
	// complete result
	api.QueueJob(
		mockapi.Segment{
			IsAggregate: true,
			WorkDone:    40,
			TotalWork:   120,
			PollAfter:   200,
			Events:      []map[string]any{{"_count": "312"}},
		},
		mockapi.Segment{
			IsAggregate: true,
			WorkDone:    80,
			TotalWork:   120,
			PollAfter:   200,
			Events:      []map[string]any{{"_count": "644"}},
		},
		mockapi.Segment{
			IsAggregate: true,
			Done:        true,
			WorkDone:    120,
			TotalWork:   120,
			Events:      []map[string]any{{"_count": "731"}},
		},
	)

	// script for the live tail: the current window changes a little each poll
	api.QueueJob(
		mockapi.Segment{
			PollAfter: 300,
			WorkDone:  1,
			TotalWork: 1,
			Events: []map[string]any{
				{"@rawstring": "GET /api/users 500 12ms"},
			},
		},
		mockapi.Segment{
			PollAfter: 300,
			WorkDone:  1,
			TotalWork: 1,
			Events: []map[string]any{
				{"@rawstring": "GET /api/users 500 12ms"},
				{"@rawstring": "POST /api/orders 502 148ms"},
			},
		},
		mockapi.Segment{
			PollAfter: 300,
			WorkDone:  1,
			TotalWork: 1,
			Events: []map[string]any{
				{"@rawstring": "POST /api/orders 502 148ms"},
				{"@rawstring": "GET /api/carts 500 9ms"},
			},
		},
	)

	return api
}

// StartMockLogServer serves the scripted API on addr.
// Call this in a goroutine before creating the client.
func StartMockLogServer(addr string, api *mockapi.Server) {
	if err := http.ListenAndServe(addr, api); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
