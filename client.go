package loglens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/loglens/loglens-go/internal/rest"
)

// Client talks to a LogLens server: it submits queries as server-side query
// jobs and hands back the job handles used to poll their results.
//
// All query job handles created through a Client share its HTTP connection
// pool and logger. The Client itself is stateless beyond those, so it is
// safe for concurrent use; the handles it returns are not.
type Client struct {
	token  string
	rest   *rest.Client
	logger *slog.Logger
}

// ServerStatus is the server's self-reported health.
type ServerStatus struct {
	// Status is the health indicator, "OK" on a healthy server.
	Status string `json:"status"`

	// Version is the server's release version.
	Version string `json:"version"`
}

// NewClient creates a Client for the LogLens server at baseURL,
// authenticating with the given API token.
//
// baseURL is the server's root address, such as "https://logs.example.com";
// the API path prefix is appended internally. Behaviour can be adjusted with
// options:
//
//	client, err := loglens.NewClient("https://logs.example.com", token,
//	    loglens.WithLogger(logger),
//	)
//
// Returns an error if the URL is invalid, the token is empty, or an option
// fails validation.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	restClient, err := rest.NewClient(baseURL, cfg.httpClient, cfg.userAgent, cfg.logger)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{token: token, rest: restClient, logger: logger}, nil
}

// CreateStaticQueryJob submits queryString against repository as a static
// query job and returns a handle polling its finite result.
//
// The queried interval defaults to the server's and can be pinned with
// [WithStart] and [WithEnd]:
//
//	job, err := client.CreateStaticQueryJob(ctx, "web", "#level=ERROR | tail(200)",
//	    loglens.WithStart("24hours"),
//	)
func (c *Client) CreateStaticQueryJob(ctx context.Context, repository, queryString string, opts ...QueryOption) (*StaticQueryJob, error) {
	queryID, err := c.createQueryJob(ctx, repository, queryString, false, opts)
	if err != nil {
		return nil, err
	}
	return &StaticQueryJob{queryJob: c.job(queryID, repository)}, nil
}

// CreateLiveQueryJob submits queryString against repository as a live query
// job and returns a handle polling its moving window.
//
// [WithStart] sets the window width. Close the returned job when done with
// it to release the server-side resources.
func (c *Client) CreateLiveQueryJob(ctx context.Context, repository, queryString string, opts ...QueryOption) (*LiveQueryJob, error) {
	queryID, err := c.createQueryJob(ctx, repository, queryString, true, opts)
	if err != nil {
		return nil, err
	}
	return &LiveQueryJob{queryJob: c.job(queryID, repository)}, nil
}

// DeleteQueryJob deletes a query job on the server, releasing the resources
// held for it. Unlike [LiveQueryJob.Close] it reports failures: a missing
// job surfaces as an [APIError] with status 404.
func (c *Client) DeleteQueryJob(ctx context.Context, repository, queryID string) error {
	if repository == "" {
		return errors.New("repository cannot be empty")
	}
	if queryID == "" {
		return errors.New("query id cannot be empty")
	}

	resp := c.rest.Do(ctx, http.MethodDelete, queryJobEndpoint(repository, queryID), defaultHeaders(c.token), nil)
	if resp.Error != nil {
		return resp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, resp.Body)
	}

	c.logger.Debug("query job deleted", "query_id", queryID, "repository", repository)
	return nil
}

// Status fetches the server's health and version. Useful as a connectivity
// check before submitting queries.
func (c *Client) Status(ctx context.Context) (ServerStatus, error) {
	resp := c.rest.Do(ctx, http.MethodGet, "status", defaultHeaders(c.token), nil)
	if resp.Error != nil {
		return ServerStatus{}, resp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ServerStatus{}, newAPIError(resp.StatusCode, resp.Body)
	}

	var status ServerStatus
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return ServerStatus{}, fmt.Errorf("failed to decode status response: %w", err)
	}
	return status, nil
}

// Close releases the Client's idle HTTP connections. Handles created by the
// Client remain usable; they re-establish connections as needed.
func (c *Client) Close() {
	c.rest.Close()
}

// job builds the engine for a handle created through the Client, sharing its
// transport and logger.
func (c *Client) job(queryID, repository string) queryJob {
	return queryJob{
		queryID:    queryID,
		repository: repository,
		token:      c.token,
		rest:       c.rest,
		logger:     c.logger,
	}
}

// queryJobRequest is the submission body for a query job.
type queryJobRequest struct {
	QueryString           string            `json:"queryString"`
	Start                 string            `json:"start,omitempty"`
	End                   string            `json:"end,omitempty"`
	IsLive                bool              `json:"isLive"`
	TimeZoneOffsetMinutes *int              `json:"timeZoneOffsetMinutes,omitempty"`
	Arguments             map[string]string `json:"arguments,omitempty"`
}

// createQueryJob submits a query job and returns its server-assigned id.
func (c *Client) createQueryJob(ctx context.Context, repository, queryString string, isLive bool, opts []QueryOption) (string, error) {
	if repository == "" {
		return "", errors.New("repository cannot be empty")
	}
	if queryString == "" {
		return "", errors.New("query string cannot be empty")
	}

	cfg := queryConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return "", fmt.Errorf("invalid query option: %w", err)
		}
	}

	body, err := json.Marshal(queryJobRequest{
		QueryString:           queryString,
		Start:                 cfg.start,
		End:                   cfg.end,
		IsLive:                isLive,
		TimeZoneOffsetMinutes: cfg.timeZoneOffsetMinutes,
		Arguments:             cfg.arguments,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode query job request: %w", err)
	}

	resp := c.rest.Do(ctx, http.MethodPost, queryJobsEndpoint(repository), defaultHeaders(c.token), body)
	if resp.Error != nil {
		return "", resp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newAPIError(resp.StatusCode, resp.Body)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		return "", fmt.Errorf("failed to decode query job response: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("query job response is missing an id")
	}

	c.logger.Debug("query job created", "query_id", created.ID, "repository", repository, "live", isLive)
	return created.ID, nil
}
