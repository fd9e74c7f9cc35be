// Package mockapi provides an in-memory LogLens server for tests and
// examples.
//
// A [Server] implements http.Handler and speaks the query job API: job
// creation, polling, deletion, and the status endpoint. Poll responses are
// scripted per job as a sequence of [Segment] values, and every request is
// recorded with its arrival time so tests can assert on pacing and headers.
package mockapi
