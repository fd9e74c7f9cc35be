package loglens

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// options holds mutable state during Client and query job handle construction.
type options struct {
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

func defaultOptions() *options {
	return &options{userAgent: defaultUserAgent}
}

// Option is a function that configures a [Client] or a query job handle
// during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [NewClient], [NewStaticQueryJob] and
// [NewLiveQueryJob] in a type-safe, extensible way. Options return an error
// if validation fails.
//
// Built-in options: [WithHTTPClient], [WithLogger], [WithUserAgent].
type Option func(*options) error

// WithHTTPClient sets the HTTP client used for all requests, replacing the
// built-in pooled transport.
//
// Use this to supply custom TLS settings, a proxy, or request timeouts.
//
// Example:
//
//	client, err := loglens.NewClient(addr, token,
//	    loglens.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
//	)
//
// Returns an error if the client is nil.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *options) error {
		if httpClient == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = httpClient
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for request and polling diagnostics.
//
// The library logs at debug level only, so a default logger stays silent.
// If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	client, err := loglens.NewClient(addr, token,
//	    loglens.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *options) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithUserAgent overrides the User-Agent header reported on outgoing
// requests. Defaults to "loglens-go/" followed by [Version].
//
// Returns an error if the value is empty.
func WithUserAgent(userAgent string) Option {
	return func(cfg *options) error {
		if userAgent == "" {
			return errors.New("user agent cannot be empty")
		}
		cfg.userAgent = userAgent
		return nil
	}
}

// queryConfig holds the optional parameters of a query job submission.
type queryConfig struct {
	start                 string
	end                   string
	timeZoneOffsetMinutes *int
	arguments             map[string]string
}

// QueryOption configures a query job submission via
// [Client.CreateStaticQueryJob] or [Client.CreateLiveQueryJob].
//
// Built-in options: [WithStart], [WithEnd], [WithTimeZoneOffset],
// [WithArguments].
type QueryOption func(*queryConfig) error

// WithStart sets the start of the queried interval.
//
// The value is passed to the server as-is: either a relative time such as
// "24hours" or epoch milliseconds such as "1745596800000". For live queries
// the start defines the width of the moving window.
//
// Example:
//
//	job, err := client.CreateStaticQueryJob(ctx, "web", "#level=ERROR",
//	    loglens.WithStart("7days"),
//	)
//
// Returns an error if the value is empty.
func WithStart(start string) QueryOption {
	return func(cfg *queryConfig) error {
		if start == "" {
			return errors.New("start cannot be empty")
		}
		cfg.start = start
		return nil
	}
}

// WithEnd sets the end of the queried interval, in the same formats as
// [WithStart]. Only meaningful for static queries.
//
// Returns an error if the value is empty.
func WithEnd(end string) QueryOption {
	return func(cfg *queryConfig) error {
		if end == "" {
			return errors.New("end cannot be empty")
		}
		cfg.end = end
		return nil
	}
}

// WithTimeZoneOffset sets the UTC offset, in minutes, applied when the query
// contains calendar-dependent expressions such as bucketing by day.
func WithTimeZoneOffset(minutes int) QueryOption {
	return func(cfg *queryConfig) error {
		cfg.timeZoneOffsetMinutes = &minutes
		return nil
	}
}

// WithArguments sets the values of free variables referenced by the query
// string. The map is copied.
//
// Example:
//
//	job, err := client.CreateStaticQueryJob(ctx, "web", "status=?code",
//	    loglens.WithArguments(map[string]string{"code": "500"}),
//	)
//
// Returns an error if the map is empty.
func WithArguments(arguments map[string]string) QueryOption {
	return func(cfg *queryConfig) error {
		if len(arguments) == 0 {
			return errors.New("arguments cannot be empty")
		}
		cfg.arguments = make(map[string]string, len(arguments))
		for name, value := range arguments {
			cfg.arguments[name] = value
		}
		return nil
	}
}

// pollConfig holds per-poll overrides.
type pollConfig struct {
	headers map[string]string
}

// PollOption adjusts a single [StaticQueryJob.Poll] or [LiveQueryJob.Poll]
// call.
type PollOption func(*pollConfig) error

// WithPollHeaders adds headers to the requests a poll performs, overriding
// the default headers on collision. keyValues must be an even number of
// strings, alternating keys and values.
//
// Example:
//
//	result, err := job.Poll(ctx,
//	    loglens.WithPollHeaders("X-Trace-Id", traceID),
//	)
//
// Returns an error if the number of arguments is odd.
func WithPollHeaders(keyValues ...string) PollOption {
	return func(cfg *pollConfig) error {
		if len(keyValues)%2 != 0 {
			return fmt.Errorf("WithPollHeaders requires an even number of arguments, got %d", len(keyValues))
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string, len(keyValues)/2)
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}
