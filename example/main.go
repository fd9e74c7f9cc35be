package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loglens/loglens-go"
)

func main() {
	// start the scripted server (see mock_server.go)
	api := newMockLogServer()
	go StartMockLogServer(":9876", api)
	time.Sleep(100 * time.Millisecond)

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   LogLens Client Demo                                 ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A scripted server on :9876 answers two queries:     ║")
	fmt.Println("  ║   • a static aggregate search (error count)           ║")
	fmt.Println("  ║   • a live tail polled for three windows              ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop early                          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling so Ctrl+C stops polling cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := loglens.NewClient("http://localhost:9876", "demo-token",
		loglens.WithUserAgent("loglens-example/"+loglens.Version),
	)
	if err != nil {
		slog.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := runAggregateSearch(ctx, client); err != nil {
		slog.Error("aggregate search failed", "error", err)
		os.Exit(1)
	}
	if err := runLiveTail(ctx, client); err != nil {
		slog.Error("live tail failed", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Done.")
}

// runAggregateSearch submits a static aggregate query and prints the result
// table. Poll refetches until the aggregate is complete, so the first result
// is already the final one.
func runAggregateSearch(ctx context.Context, client *loglens.Client) error {
	fmt.Println("=> static aggregate search: #level=ERROR | count()")

	job, err := client.CreateStaticQueryJob(ctx, "web", "#level=ERROR | count()",
		loglens.WithStart("24hours"),
	)
	if err != nil {
		return err
	}

	for result, err := range job.Results(ctx) {
		if err != nil {
			return err
		}
		for _, event := range result.Events {
			fmt.Printf("   errors in the last 24h: %v\n", event["_count"])
		}
	}
	return nil
}

// runLiveTail submits a live query, prints three result windows, then
// deletes the job server-side.
func runLiveTail(ctx context.Context, client *loglens.Client) error {
	fmt.Println()
	fmt.Println("=> live tail: #level=ERROR (three windows)")

	job, err := client.CreateLiveQueryJob(ctx, "web", "#level=ERROR",
		loglens.WithStart("5m"),
	)
	if err != nil {
		return err
	}
	defer job.Close()

	for i := 1; i <= 3; i++ {
		result, err := job.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("   interrupted")
				return nil
			}
			return err
		}
		fmt.Printf("   window %d (%d events):\n", i, len(result.Events))
		for _, event := range result.Events {
			fmt.Printf("     %v\n", event["@rawstring"])
		}
	}
	return nil
}
