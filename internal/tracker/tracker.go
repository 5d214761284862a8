// Package tracker runs the unanswered-thread check over every configured repository.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"unanswered-notifier/internal/config"
	"unanswered-notifier/internal/digest"
	"unanswered-notifier/internal/notifier"
	"unanswered-notifier/pkg/models"
)

// Fetcher returns the open threads of a repository
type Fetcher interface {
	FetchThreads(ctx context.Context, owner, name string) (*models.RepositoryThreads, error)
}

// Summary counts the outcome of a run
type Summary struct {
	Processed int
	Notified  int
	Empty     int
	Failed    int
	Skipped   int
	Errors    map[string]error // keyed by repository key
}

// Tracker checks repositories one by one and notifies each about its unanswered threads
type Tracker struct {
	fetcher     Fetcher
	notifier    notifier.Notifier
	log         *slog.Logger
	now         func() time.Time
	policy      digest.Policy
	concurrency int
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the reference time used to compute thread ages
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithPolicy selects which comment decides whether a thread is unanswered
func WithPolicy(p digest.Policy) Option {
	return func(t *Tracker) {
		t.policy = p
	}
}

// WithConcurrency processes up to n repositories at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// New creates a Tracker
func New(fetcher Fetcher, n notifier.Notifier, log *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		fetcher:     fetcher,
		notifier:    n,
		log:         log,
		now:         time.Now,
		policy:      digest.PolicyFirst,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type outcome int

const (
	outcomeEmpty outcome = iota
	outcomeNotified
)

// Run processes repos in order. A failing repository is logged and recorded;
// the remaining repositories are still processed. Cancelling ctx stops
// scheduling new repositories.
func (t *Tracker) Run(ctx context.Context, repos []config.Repository) Summary {
	summary := Summary{Errors: make(map[string]error)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(t.concurrency)

	for i, repo := range repos {
		if ctx.Err() != nil {
			mu.Lock()
			summary.Skipped += len(repos) - i
			mu.Unlock()
			t.log.Warn("Run cancelled, skipping remaining repositories", "skipped", len(repos)-i)
			break
		}

		g.Go(func() error {
			result, err := t.process(ctx, repo)

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			switch {
			case err != nil:
				summary.Failed++
				summary.Errors[repoKey(repo)] = err
				t.log.Error("Error processing repository", "repository", repo.FullName(), "key", repo.Key, "error", err)
			case result == outcomeNotified:
				summary.Notified++
			default:
				summary.Empty++
			}
			return nil
		})
	}
	_ = g.Wait()

	t.log.Info("Run complete",
		"processed", summary.Processed,
		"notified", summary.Notified,
		"empty", summary.Empty,
		"failed", summary.Failed,
		"skipped", summary.Skipped)
	return summary
}

func (t *Tracker) process(ctx context.Context, repo config.Repository) (result outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", repo.FullName(), r)
		}
	}()

	log := t.log.With("repository", repo.FullName())
	log.Debug("Fetching open threads")

	threads, err := t.fetcher.FetchThreads(ctx, repo.Owner, repo.Name)
	if err != nil {
		return outcomeEmpty, fmt.Errorf("fetch threads: %w", err)
	}

	d := digest.Build(repo.Owner, repo.Name, repo.Chat, threads, repo, t.now(), t.policy)
	if d == nil {
		log.Info("No unanswered threads", "issues", len(threads.Issues), "pull_requests", len(threads.PullRequests))
		return outcomeEmpty, nil
	}

	log.Debug("Sending digest", "chat", d.Chat, "alerts", len(d.Lines))
	if err := t.notifier.Notify(ctx, d.Chat, d.Text()); err != nil {
		return outcomeEmpty, fmt.Errorf("notify chat %s: %w", d.Chat, err)
	}

	log.Info("Updated repository", "alerts", len(d.Lines))
	return outcomeNotified, nil
}

func repoKey(repo config.Repository) string {
	if repo.Key != "" {
		return repo.Key
	}
	return repo.FullName()
}
