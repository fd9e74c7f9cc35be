package loglens

import (
	"errors"
	"fmt"
	"strings"
)

// maxErrorMessageLen caps how much of a response body is carried into an
// error message. Bodies can be up to the transport's 1MB read limit.
const maxErrorMessageLen = 256

// ErrQueryJobExhausted is returned by [StaticQueryJob.Poll] when the job's
// completion has already been observed on an earlier poll.
//
// The check is purely local: an exhausted poll performs no network call.
// A static query job has a finite result, so once the server reported it
// done there is nothing further to fetch.
var ErrQueryJobExhausted = errors.New("query job is exhausted: completion was already observed")

// APIError is returned when the server answers with a non-2xx status code.
//
// APIError carries the HTTP status code and the (truncated) response body so
// callers can distinguish failure classes:
//
//	var apiErr *loglens.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
//	    // back off and retry at the application's discretion
//	}
//
// The client never retries on APIError; retry policy belongs to the caller.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Message is the response body, trimmed and truncated.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// QueryJobExpiredError is returned when a poll receives a 404: the query job
// no longer exists on the server, typically because its retention window
// elapsed since the last poll.
//
// The client never resubmits the query itself. A restarted job is a new job
// whose early segments may repeat results the caller has already consumed,
// so the decision belongs to the caller:
//
//	var expired *loglens.QueryJobExpiredError
//	if errors.As(err, &expired) {
//	    job, err = client.CreateStaticQueryJob(ctx, repo, query)
//	}
//
// QueryJobExpiredError is deliberately not an [APIError]; a 404 on the job
// endpoint is a lifecycle signal, not a transport failure.
type QueryJobExpiredError struct {
	// QueryID identifies the job that expired.
	QueryID string

	// Message is the server's response body, when present.
	Message string
}

func (e *QueryJobExpiredError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("query job %s has expired", e.QueryID)
	}
	return fmt.Sprintf("query job %s has expired: %s", e.QueryID, e.Message)
}

// newAPIError builds an [APIError] from a response status and body.
func newAPIError(statusCode int, body []byte) *APIError {
	return &APIError{StatusCode: statusCode, Message: errorMessage(body)}
}

// errorMessage extracts a bounded, printable message from a response body.
func errorMessage(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen] + "..."
	}
	return msg
}
