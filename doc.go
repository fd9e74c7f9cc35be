// Package loglens is a client library for the LogLens log management
// platform, built around its query job API.
//
// A query job is a search the server runs asynchronously: the client
// submits a query, receives a job id, and polls the job for segments of the
// result until it completes. This library wraps that lifecycle in typed
// handles that pace their polling the way the server asks them to, so
// callers can consume results in a plain loop without thinking about
// backoff, partial aggregates, or job expiry.
//
// # Quick Start
//
// Create a client and stream the results of a static query:
//
//	client, _ := loglens.NewClient("https://logs.example.com", token)
//	defer client.Close()
//
//	job, err := client.CreateStaticQueryJob(ctx, "web", "#level=ERROR | tail(200)",
//	    loglens.WithStart("24hours"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for result, err := range job.Results(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, event := range result.Events {
//	        fmt.Println(event["@rawstring"])
//	    }
//	}
//
// # Query Jobs
//
// Queries come in two kinds, with a handle type for each:
//
//   - [StaticQueryJob]: a query over a fixed time interval. Its result is
//     finite; polls advance through it, and once completion has been
//     observed the handle is exhausted.
//   - [LiveQueryJob]: a query over a moving time window. It never
//     completes; each poll returns the window's current state, and the
//     handle should be closed when no longer needed.
//
// Handles are usually obtained from [Client.CreateStaticQueryJob] and
// [Client.CreateLiveQueryJob]. To resume polling a job whose id is already
// known, attach to it directly with [NewStaticQueryJob] or
// [NewLiveQueryJob].
//
// # Polling Behaviour
//
// The server tells the client how to poll, and the handles obey:
//
//   - Pacing: every response carries the minimum delay before the next
//     poll. Poll blocks until it has elapsed, counted from the previous
//     poll, and honours its context while waiting.
//   - Aggregates: a snapshot computed from partial input is misleading, so
//     polls keep fetching until the server has processed all work before
//     returning an aggregate result.
//   - Failures commit nothing: a poll that fails in transport, decoding,
//     or with a server error leaves the handle's state untouched, so it is
//     always safe to poll again.
//
// # Errors
//
// Failures surface as three distinguishable kinds:
//
//   - [APIError]: the server answered with a non-2xx status.
//   - [QueryJobExpiredError]: the job no longer exists on the server;
//     resubmitting the query is the caller's decision.
//   - [ErrQueryJobExhausted]: a static job was polled after its completion
//     had already been observed. Detected locally, without a request.
//
// # Architecture
//
// The library consists of this package and two internal ones:
//
//   - internal/rest: the HTTP transport with pooling, read limits, and
//     request correlation
//   - internal/mockapi: a scripted LogLens server for tests and examples
//
// The internal packages are not part of the public API and may change
// without notice.
package loglens
