package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"unanswered-notifier/pkg/models"
)

const requestTimeout = 30 * time.Second

var (
	// ErrUnexpectedResponse reports a GraphQL payload missing the fields the query asks for
	ErrUnexpectedResponse = errors.New("unexpected response shape")
	// ErrGraphQL reports errors returned by the GraphQL endpoint
	ErrGraphQL = errors.New("graphql error")
)

// Client executes the repository query against the GitHub GraphQL API
type Client struct {
	gh    *gh.Client
	query *template.Template
	log   *slog.Logger
}

// Option configures a Client
type Option func(*Client) error

// WithBaseURL points the client at another API root, e.g. a GitHub Enterprise server or a test server.
// The GraphQL endpoint is resolved as <base>graphql.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid API URL %q: %w", raw, err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithQueryTemplate replaces the embedded repository query
func WithQueryTemplate(t *template.Template) Option {
	return func(c *Client) error {
		c.query = t
		return nil
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// NewClient creates a GraphQL client authenticated with a bearer token
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = requestTimeout

	c := &Client{
		gh:  gh.NewClient(tc),
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.query == nil {
		t, err := LoadQueryTemplate("")
		if err != nil {
			return nil, err
		}
		c.query = t
	}
	return c, nil
}

// graphqlRequest is the JSON body sent to the GraphQL endpoint
type graphqlRequest struct {
	Query string `json:"query"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *Client) execute(ctx context.Context, query string, v any) error {
	req, err := c.gh.NewRequest(http.MethodPost, "graphql", graphqlRequest{Query: query})
	if err != nil {
		return fmt.Errorf("failed to create GraphQL request: %w", err)
	}

	c.log.Debug("Executing GraphQL query", "url", req.URL.String())
	if _, err := c.gh.Do(ctx, req, v); err != nil {
		return fmt.Errorf("GraphQL request failed: %w", err)
	}
	return nil
}

// FetchThreads returns the first page of open issues and pull requests of owner/name
func (c *Client) FetchThreads(ctx context.Context, owner, name string) (*models.RepositoryThreads, error) {
	query, err := RenderQuery(c.query, owner, name)
	if err != nil {
		return nil, err
	}

	var resp repositoryResponse
	if err := c.execute(ctx, query, &resp); err != nil {
		return nil, err
	}

	threads, err := resp.threads()
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", owner, name, err)
	}
	c.log.Debug("Fetched open threads",
		"repository", owner+"/"+name,
		"issues", len(threads.Issues),
		"pull_requests", len(threads.PullRequests))
	return threads, nil
}

const viewerQuery = `query { viewer { login } }`

// CheckConnection verifies the API is reachable and the token is accepted.
// It returns the login the token belongs to.
func (c *Client) CheckConnection(ctx context.Context) (string, error) {
	var resp struct {
		Data *struct {
			Viewer struct {
				Login string `json:"login"`
			} `json:"viewer"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}
	if err := c.execute(ctx, viewerQuery, &resp); err != nil {
		return "", err
	}
	if resp.Data == nil {
		if len(resp.Errors) > 0 {
			return "", graphqlErrors(resp.Errors)
		}
		return "", fmt.Errorf("%w: missing data.viewer", ErrUnexpectedResponse)
	}
	return resp.Data.Viewer.Login, nil
}

func graphqlErrors(errs []graphqlError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
}
