package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"unanswered-notifier/internal/config"
	"unanswered-notifier/internal/digest"
	"unanswered-notifier/internal/github"
	"unanswered-notifier/internal/logger"
	"unanswered-notifier/internal/notifier"
	"unanswered-notifier/internal/tracker"
)

// Options holds the command-line options
type Options struct {
	Debug       bool
	LogFile     string
	ConfigPath  string
	QueryPath   string
	Concurrency int
	DryRun      bool
}

// loggedError marks errors already written to the log
type loggedError struct{ error }

func (e loggedError) Unwrap() error { return e.error }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stderr).ExecuteContext(ctx)
	if err != nil {
		var logged loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "unanswered-notifier",
		Short: "Notify chats about issues and pull requests waiting for a maintainer",
		Long: `Queries every configured GitHub repository for open issues and pull
requests, keeps the threads whose comment was written outside the maintainer
list and sends one digest per repository to its chat.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, stderr)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Toggle DEBUG logging mode")
	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "logs", "logs.log", "Logs filepath")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Configuration file")
	_ = rootCmd.MarkPersistentFlagRequired("config")

	rootCmd.Flags().StringVar(&opts.QueryPath, "query", "", "GraphQL query template (default: embedded query)")
	rootCmd.Flags().IntVar(&opts.Concurrency, "concurrency", 1, "Number of repositories processed at once")
	rootCmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log digests instead of sending them")

	rootCmd.AddCommand(newCheckCmd(opts, stderr))

	return rootCmd
}

func newCheckCmd(opts *Options, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and the GitHub token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd.Context(), opts, stderr)
		},
	}
}

// setup builds the logger, loads the configuration and creates the GitHub client
func setup(ctx context.Context, opts *Options, stderr io.Writer) (*slog.Logger, io.Closer, *config.Config, *github.Client, error) {
	log, closer, err := logger.New(logger.Options{
		File:    opts.LogFile,
		Console: stderr,
		Debug:   opts.Debug,
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	fail := func(msg string, err error, args ...any) (*slog.Logger, io.Closer, *config.Config, *github.Client, error) {
		log.Error(msg, append(args, "error", err)...)
		closer.Close()
		return nil, nil, nil, nil, loggedError{err}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fail("Failed to load configuration", err, "path", opts.ConfigPath)
	}

	tmpl, err := github.LoadQueryTemplate(opts.QueryPath)
	if err != nil {
		return fail("Failed to load query template", err, "path", opts.QueryPath)
	}

	client, err := github.NewClient(ctx, cfg.Token,
		github.WithBaseURL(cfg.APIURL),
		github.WithQueryTemplate(tmpl),
		github.WithLogger(log),
	)
	if err != nil {
		return fail("Failed to create GitHub client", err)
	}

	log.Debug("Loaded configuration",
		"path", opts.ConfigPath,
		"repositories", len(cfg.Repositories),
		"api_url", cfg.APIURL,
		"notify_url", cfg.NotifyURL,
		"comment_policy", cfg.CommentPolicy)

	return log, closer, cfg, client, nil
}

// run contains the main monitoring logic
func run(ctx context.Context, opts *Options, stderr io.Writer) error {
	log, closer, cfg, client, err := setup(ctx, opts, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	policy, err := digest.ParsePolicy(cfg.CommentPolicy)
	if err != nil {
		log.Error("Invalid comment policy", "error", err)
		return loggedError{err}
	}

	var n notifier.Notifier = notifier.NewCodexNotifier(cfg.NotifyURL, log)
	if opts.DryRun {
		n = notifier.NewLogNotifier(log)
	}

	t := tracker.New(client, n, log,
		tracker.WithPolicy(policy),
		tracker.WithConcurrency(opts.Concurrency),
	)
	t.Run(ctx, cfg.Repositories)
	return nil
}

// check verifies the configuration and that the token is accepted by the API
func check(ctx context.Context, opts *Options, stderr io.Writer) error {
	log, closer, cfg, client, err := setup(ctx, opts, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	login, err := client.CheckConnection(ctx)
	if err != nil {
		log.Error("GitHub connection test failed", "api_url", cfg.APIURL, "error", err)
		return loggedError{err}
	}

	log.Info("GitHub connection test succeeded", "login", login, "repositories", len(cfg.Repositories))
	return nil
}
