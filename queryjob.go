package loglens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/loglens/loglens-go/internal/rest"
)

// closeTimeout bounds the best-effort delete issued by [LiveQueryJob.Close].
const closeTimeout = 10 * time.Second

// queryJob is the polling engine shared by [StaticQueryJob] and
// [LiveQueryJob]. It tracks the pacing and completion state the server
// dictates and performs the paced fetches both handle kinds build on.
//
// State is committed only after a fetch fully succeeds (transport and
// decode), so a failed poll leaves the handle exactly as it was and the
// caller can simply poll again.
//
// A queryJob is not safe for concurrent use; poll from one goroutine.
type queryJob struct {
	queryID    string
	repository string
	token      string

	isDone         bool
	isCancelled    bool
	waitTime       time.Duration
	timeAtLastPoll time.Time

	rest   *rest.Client
	logger *slog.Logger
}

// newQueryJob validates the handle parameters and builds the shared engine.
func newQueryJob(queryID, baseURL, repository, token string, opts []Option) (queryJob, error) {
	if queryID == "" {
		return queryJob{}, errors.New("query id cannot be empty")
	}
	if repository == "" {
		return queryJob{}, errors.New("repository cannot be empty")
	}
	if token == "" {
		return queryJob{}, errors.New("token cannot be empty")
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return queryJob{}, fmt.Errorf("invalid option: %w", err)
		}
	}

	restClient, err := rest.NewClient(baseURL, cfg.httpClient, cfg.userAgent, cfg.logger)
	if err != nil {
		return queryJob{}, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return queryJob{
		queryID:    queryID,
		repository: repository,
		token:      token,
		rest:       restClient,
		logger:     logger,
	}, nil
}

// QueryID returns the server-assigned identifier of the query job.
func (j *queryJob) QueryID() string { return j.queryID }

// Repository returns the repository the query runs against.
func (j *queryJob) Repository() string { return j.repository }

// IsDone reports whether the server has marked the job complete.
func (j *queryJob) IsDone() bool { return j.isDone }

// IsCancelled reports whether the job was cancelled server-side.
func (j *queryJob) IsCancelled() bool { return j.isCancelled }

// endpoint returns the REST path of this job, relative to the API root.
func (j *queryJob) endpoint() string {
	return queryJobEndpoint(j.repository, j.queryID)
}

// queryJobsEndpoint is the collection path query jobs are created under.
func queryJobsEndpoint(repository string) string {
	return "dataspaces/" + url.PathEscape(repository) + "/queryjobs"
}

// queryJobEndpoint is the path of a single query job.
func queryJobEndpoint(repository, queryID string) string {
	return queryJobsEndpoint(repository) + "/" + url.PathEscape(queryID)
}

// defaultHeaders returns the headers every request carries unless the caller
// overrides them.
func defaultHeaders(token string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + token,
	}
}

// waitUntilNextPoll blocks until the server-requested delay since the last
// successful poll has elapsed. It returns immediately when no delay is
// pending, including before the first poll.
func (j *queryJob) waitUntilNextPoll(ctx context.Context) error {
	elapsed := time.Since(j.timeAtLastPoll)
	if elapsed >= j.waitTime {
		return nil
	}

	timer := time.NewTimer(j.waitTime - elapsed)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fetchNextSegment performs one paced fetch against the job endpoint and, on
// success, commits the pacing and completion state the server returned.
func (j *queryJob) fetchNextSegment(ctx context.Context, headers map[string]string) (PollResult, error) {
	if err := j.waitUntilNextPoll(ctx); err != nil {
		return PollResult{}, err
	}

	resp := j.rest.Do(ctx, http.MethodGet, j.endpoint(), headers, nil)
	if resp.Error != nil {
		return PollResult{}, resp.Error
	}
	if resp.StatusCode == http.StatusNotFound {
		// The job no longer exists server-side, typically because its
		// retention window elapsed. Resubmitting is the caller's decision.
		j.logger.Warn("query job expired", "query_id", j.queryID)
		return PollResult{}, &QueryJobExpiredError{QueryID: j.queryID, Message: errorMessage(resp.Body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PollResult{}, newAPIError(resp.StatusCode, resp.Body)
	}

	result, err := decodePollResponse(resp.Body)
	if err != nil {
		return PollResult{}, err
	}

	// Single commit point: nothing before this mutates the handle.
	j.waitTime = time.Duration(result.Metadata.PollAfter) * time.Millisecond
	j.isDone = result.Metadata.Done
	j.isCancelled = result.Metadata.Cancelled
	j.timeAtLastPoll = time.Now()

	j.logger.Debug("segment fetched",
		"query_id", j.queryID,
		"events", len(result.Events),
		"work_done", result.Metadata.WorkDone,
		"total_work", result.Metadata.TotalWork,
		"poll_after_ms", result.Metadata.PollAfter,
	)
	return result, nil
}

// poll fetches the next segment, compensating for partial results.
//
// Aggregate segments are refetched until the server has processed all work,
// so callers never see a snapshot computed from partial input. A first
// streaming segment that arrives empty before any work was done gets one
// extra fetch, which absorbs the server's warm-up.
func (j *queryJob) poll(ctx context.Context, opts []PollOption) (PollResult, error) {
	cfg := pollConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return PollResult{}, fmt.Errorf("invalid poll option: %w", err)
		}
	}

	headers := defaultHeaders(j.token)
	for key, value := range cfg.headers {
		headers[key] = value
	}

	result, err := j.fetchNextSegment(ctx, headers)
	if err != nil {
		return PollResult{}, err
	}

	if result.Metadata.IsAggregate {
		for result.Metadata.WorkDone != result.Metadata.TotalWork {
			result, err = j.fetchNextSegment(ctx, headers)
			if err != nil {
				return PollResult{}, err
			}
		}
	} else if result.Metadata.WorkDone == 0 && !j.isDone {
		result, err = j.fetchNextSegment(ctx, headers)
		if err != nil {
			return PollResult{}, err
		}
	}

	return result, nil
}

// StaticQueryJob is a handle to a query job over a fixed time interval.
//
// A static job has a finite result. Each [StaticQueryJob.Poll] returns the
// next segment; once a poll has returned the segment on which the server
// reported the job done, the handle is exhausted and further polls return
// [ErrQueryJobExhausted] without touching the network.
//
// Obtain a handle from [Client.CreateStaticQueryJob], or attach to an
// already-submitted job with [NewStaticQueryJob].
//
// A StaticQueryJob is not safe for concurrent use.
type StaticQueryJob struct {
	queryJob
}

// NewStaticQueryJob returns a handle attached to an existing static query
// job. queryID must identify a job previously submitted to the server at
// baseURL for the given repository.
//
// The handle starts with a clean polling state: the first Poll fires
// immediately, and completion is tracked from the responses it observes.
func NewStaticQueryJob(queryID, baseURL, repository, token string, opts ...Option) (*StaticQueryJob, error) {
	job, err := newQueryJob(queryID, baseURL, repository, token, opts)
	if err != nil {
		return nil, err
	}
	return &StaticQueryJob{queryJob: job}, nil
}

// Poll returns the next segment of the job's result.
//
// Poll blocks until the server-requested delay from the previous poll has
// elapsed, honours ctx while waiting, and keeps fetching past partial
// aggregate segments so the returned snapshot always reflects the full
// input. After the job's completion has been observed, Poll returns
// [ErrQueryJobExhausted].
//
// On any error the handle's state is unchanged and Poll may be called again.
func (s *StaticQueryJob) Poll(ctx context.Context, opts ...PollOption) (PollResult, error) {
	if s.isDone {
		return PollResult{}, ErrQueryJobExhausted
	}
	return s.poll(ctx, opts)
}

// LiveQueryJob is a handle to a query job over a moving time window.
//
// A live job never completes on its own: each [LiveQueryJob.Poll] returns
// the current state of the window, indefinitely. The server keeps the job
// alive as long as it is polled; call [LiveQueryJob.Close] when done with it
// to release the server-side resources early.
//
// Obtain a handle from [Client.CreateLiveQueryJob], or attach to an
// already-submitted job with [NewLiveQueryJob].
//
// A LiveQueryJob is not safe for concurrent use.
type LiveQueryJob struct {
	queryJob

	closed bool
}

// NewLiveQueryJob returns a handle attached to an existing live query job.
// queryID must identify a job previously submitted to the server at baseURL
// for the given repository.
func NewLiveQueryJob(queryID, baseURL, repository, token string, opts ...Option) (*LiveQueryJob, error) {
	job, err := newQueryJob(queryID, baseURL, repository, token, opts)
	if err != nil {
		return nil, err
	}
	return &LiveQueryJob{queryJob: job}, nil
}

// Poll returns the current state of the job's moving window.
//
// Poll blocks until the server-requested delay from the previous poll has
// elapsed and honours ctx while waiting. Live jobs do not exhaust; Poll can
// be called for as long as the results are wanted.
func (l *LiveQueryJob) Poll(ctx context.Context, opts ...PollOption) (PollResult, error) {
	return l.poll(ctx, opts)
}

// Close deletes the query job on the server, releasing the resources held
// for it. It is best effort: a failed delete is logged and swallowed, since
// the job may already be gone and the server reclaims unpolled live jobs on
// its own. Close may be called more than once; only the first call issues a
// request.
func (l *LiveQueryJob) Close() {
	if l.closed {
		return
	}
	l.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	resp := l.rest.Do(ctx, http.MethodDelete, l.endpoint(), defaultHeaders(l.token), nil)
	switch {
	case resp.Error != nil:
		l.logger.Debug("query job delete failed", "query_id", l.queryID, "error", resp.Error)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		l.logger.Debug("query job delete refused", "query_id", l.queryID, "status", resp.StatusCode)
	default:
		l.logger.Debug("query job deleted", "query_id", l.queryID)
	}
}
