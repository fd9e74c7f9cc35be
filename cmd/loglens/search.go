package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/loglens/loglens-go"
	"github.com/loglens/loglens-go/config"
)

// searchCmd submits a query job and streams its events to stdout.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a search and stream events as NDJSON",
	Long: `Run a LogLens search and stream matching events to stdout, one JSON
object per line.

The search runs as a server-side query job. The CLI polls the job at
the pace the server requests and prints events as they arrive. All
progress output goes to stderr, so stdout stays clean for piping.

With --live the query runs until interrupted, printing the current
result window at every poll. Events can repeat across windows as the
window slides.

Examples:
  loglens search '#level=ERROR | tail(200)' -r web
  loglens search 'count()' -r web --start 24hours
  loglens search '#service=checkout' -r web --live | jq .message`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringP("repo", "r", "", "repository to search (env LOGLENS_REPOSITORY)")
	searchCmd.Flags().Bool("live", false, "run a live query and tail results until interrupted")
	searchCmd.Flags().String("start", "", `start of the search interval, relative ("24hours") or epoch ms`)
	searchCmd.Flags().String("end", "", `end of the search interval, relative ("now") or epoch ms`)
	searchCmd.Flags().String("address", "", "LogLens server address (env LOGLENS_ADDRESS)")
	searchCmd.Flags().String("token", "", "API token (env LOGLENS_TOKEN)")
	searchCmd.Flags().StringP("config", "c", "", "path to YAML config file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	conn, cfg, err := resolveConnection(cmd)
	if err != nil {
		return err
	}
	repository, err := resolveRepository(cmd, cfg)
	if err != nil {
		return err
	}

	client, err := newSDKClient(conn)
	if err != nil {
		return err
	}
	defer client.Close()

	var queryOpts []loglens.QueryOption
	if start, _ := cmd.Flags().GetString("start"); start != "" {
		queryOpts = append(queryOpts, loglens.WithStart(start))
	}
	if end, _ := cmd.Flags().GetString("end"); end != "" {
		queryOpts = append(queryOpts, loglens.WithEnd(end))
	}

	// Stop polling cleanly on Ctrl+C; live jobs also get deleted server-side.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if live, _ := cmd.Flags().GetBool("live"); live {
		return runLiveSearch(ctx, client, repository, args[0], queryOpts)
	}
	return runStaticSearch(ctx, client, repository, args[0], queryOpts)
}

func runStaticSearch(ctx context.Context, client *loglens.Client, repository, query string, opts []loglens.QueryOption) error {
	// Progress lives on stderr so stdout stays valid NDJSON.
	spinner, _ := pterm.DefaultSpinner.WithWriter(os.Stderr).Start("submitting query")

	job, err := client.CreateStaticQueryJob(ctx, repository, query, opts...)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.UpdateText(fmt.Sprintf("polling query job %s", job.QueryID()))

	enc := json.NewEncoder(os.Stdout)
	total := 0
	for result, err := range job.Results(ctx) {
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		for _, event := range result.Events {
			if err := enc.Encode(event); err != nil {
				spinner.Fail(err.Error())
				return err
			}
		}
		total += len(result.Events)
		spinner.UpdateText(fmt.Sprintf("%3.0f%% searched, %d events", result.Metadata.Progress()*100, total))
	}
	if ctx.Err() != nil {
		spinner.Warning("search interrupted")
		return nil
	}
	spinner.Success(fmt.Sprintf("search complete, %d events", total))
	return nil
}

func runLiveSearch(ctx context.Context, client *loglens.Client, repository, query string, opts []loglens.QueryOption) error {
	spinner, _ := pterm.DefaultSpinner.WithWriter(os.Stderr).Start("submitting live query")

	job, err := client.CreateLiveQueryJob(ctx, repository, query, opts...)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	defer job.Close()
	spinner.UpdateText(fmt.Sprintf("tailing query job %s", job.QueryID()))

	enc := json.NewEncoder(os.Stdout)
	for result, err := range job.Results(ctx) {
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		for _, event := range result.Events {
			if err := enc.Encode(event); err != nil {
				spinner.Fail(err.Error())
				return err
			}
		}
		spinner.UpdateText(fmt.Sprintf("live window: %d events", len(result.Events)))
	}
	spinner.Warning("live tail stopped")
	return nil
}

// connection holds the resolved server settings for a command invocation.
type connection struct {
	address string
	token   string
	timeout time.Duration
}

// resolveConnection merges connection settings from the config file, the
// environment, and command line flags. Precedence, lowest to highest:
// config file, LOGLENS_* environment variables, flags.
func resolveConnection(cmd *cobra.Command) (connection, *config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return connection{}, nil, err
	}

	conn := connection{
		address: cfg.Address,
		token:   cfg.Token,
		timeout: cfg.Timeout.Duration(),
	}
	if v := os.Getenv("LOGLENS_ADDRESS"); v != "" {
		conn.address = v
	}
	if v := os.Getenv("LOGLENS_TOKEN"); v != "" {
		conn.token = v
	}
	if v, _ := cmd.Flags().GetString("address"); v != "" {
		conn.address = v
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		conn.token = v
	}

	if conn.address == "" {
		return connection{}, nil, errors.New("server address is required: pass --address, set LOGLENS_ADDRESS, or set address in a config file")
	}
	if conn.token == "" {
		return connection{}, nil, errors.New("API token is required: pass --token, set LOGLENS_TOKEN, or set token in a config file")
	}
	return conn, cfg, nil
}

// resolveRepository picks the target repository from the config file, the
// LOGLENS_REPOSITORY environment variable, or the --repo flag.
func resolveRepository(cmd *cobra.Command, cfg *config.Config) (string, error) {
	repository := cfg.Repository
	if v := os.Getenv("LOGLENS_REPOSITORY"); v != "" {
		repository = v
	}
	if v, _ := cmd.Flags().GetString("repo"); v != "" {
		repository = v
	}
	if repository == "" {
		return "", errors.New("repository is required: pass --repo, set LOGLENS_REPOSITORY, or set repository in a config file")
	}
	return repository, nil
}

// newSDKClient builds a LogLens client from resolved connection settings.
func newSDKClient(conn connection) (*loglens.Client, error) {
	return loglens.NewClient(conn.address, conn.token,
		loglens.WithHTTPClient(&http.Client{Timeout: conn.timeout}),
		loglens.WithLogger(newLogger()),
		loglens.WithUserAgent("loglens-cli/"+version),
	)
}

// newLogger builds the logger handed to the SDK. Diagnostics go to stderr
// as JSON so they never corrupt the NDJSON stream on stdout.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
