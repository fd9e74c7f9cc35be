// Standalone scripted LogLens server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	loglens search '#level=ERROR' -r web --address http://localhost:9876 --token demo-token
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/loglens/loglens-go/internal/mockapi"
)

func main() {
	fmt.Println("Scripted LogLens server starting on :9876")
	fmt.Println("Every submitted query job replays the same three windows")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	api := mockapi.New()
	api.SetDefaultJob(
		mockapi.Segment{
			WorkDone:  1,
			TotalWork: 3,
			PollAfter: 400,
			Events: []map[string]any{
				{"@rawstring": "GET /api/users 500 12ms", "#level": "ERROR"},
			},
		},
		mockapi.Segment{
			WorkDone:  2,
			TotalWork: 3,
			PollAfter: 400,
			Events: []map[string]any{
				{"@rawstring": "POST /api/orders 502 148ms", "#level": "ERROR"},
				{"@rawstring": "GET /api/carts 500 9ms", "#level": "ERROR"},
			},
		},
		mockapi.Segment{
			Done:      true,
			WorkDone:  3,
			TotalWork: 3,
			Events: []map[string]any{
				{"@rawstring": "GET /api/users 500 31ms", "#level": "ERROR"},
			},
		},
	)

	if err := http.ListenAndServe(":9876", api); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
