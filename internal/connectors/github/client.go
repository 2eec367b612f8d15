package github

import (
	"context"
	"net/http"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client bundles the REST and GraphQL API clients behind one retrying,
// rate-limited HTTP transport.
type Client struct {
	rest        *gh.Client
	graphql     *githubv4.Client
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewClient creates a client authenticated with a static bearer token.
// Works for both PAT and OAuth access tokens.
func NewClient(ctx context.Context, token string) *Client {
	limiter := NewRateLimiter()
	transport := &RetryTransport{Limiter: limiter}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: transport}),
		ts,
	)
	tc.Timeout = DefaultTimeout

	return &Client{
		rest:        gh.NewClient(tc),
		graphql:     githubv4.NewClient(tc),
		httpClient:  tc,
		rateLimiter: limiter,
	}
}

// NewEnterpriseClient targets custom REST and GraphQL endpoints with a
// caller-supplied http.Client. Used against test servers.
func NewEnterpriseClient(restURL, graphqlURL string, httpClient *http.Client) (*Client, error) {
	rest, err := gh.NewClient(httpClient).WithEnterpriseURLs(restURL, restURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		rest:        rest,
		graphql:     githubv4.NewEnterpriseClient(graphqlURL, httpClient),
		httpClient:  httpClient,
		rateLimiter: NewRateLimiter(),
	}, nil
}

// REST returns the underlying go-github client.
func (c *Client) REST() *gh.Client {
	return c.rest
}

// GraphQL returns the underlying githubv4 client.
func (c *Client) GraphQL() *githubv4.Client {
	return c.graphql
}

// HTTPClient returns the shared HTTP client, for plain requests that
// should go through the same retry and rate-limit path.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// RateLimiter returns the rate limiter for external inspection.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}
