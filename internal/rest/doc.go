// Package rest performs the HTTP calls behind the loglens client.
//
// This package is internal to loglens and handles the transport concerns of
// talking to a LogLens instance: base URL normalization under the versioned
// API prefix, connection pooling, response size limits, and per-request
// correlation ids for debug logging.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper bound to one LogLens base URL
//   - [Response]: Outcome of a single request, including status and latency
//
// The package deliberately does not interpret status codes; translating
// non-2xx responses into the public error taxonomy is the job of the loglens
// package, which knows which codes are meaningful for which endpoint.
//
// Users of the loglens library should not need to interact with this package
// directly. Configuration is done through the main loglens package.
package rest
