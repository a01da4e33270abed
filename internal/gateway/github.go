// Package gateway provides a gateway to the GitHub REST API for listing an
// organization's repositories and their open pull requests.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// userAgent is sent with every request.
const userAgent = "ibr"

// PullRequest is the raw shape of one open pull request as fetched from the
// API, before aggregation.
type PullRequest struct {
	Number             int
	URL                string
	RequestedReviewers []string
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// ListRepositories returns the names of the organization's repositories
	// in API order. Only the first page of results is considered; paginating
	// further is a known limitation of the tool.
	ListRepositories(ctx context.Context, org string) ([]string, error)
	// ListOpenPullRequests returns the repository's open pull requests with
	// their requested reviewer logins.
	ListOpenPullRequests(ctx context.Context, org, repo string) ([]PullRequest, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	logger     *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The returned gateway holds one HTTP client reused for every call in a run;
// it keeps no other state between calls.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	client := github.NewClient(httpClient)
	client.UserAgent = userAgent
	return &GitHubGateway{
		restClient: client,
		logger:     logger,
	}, nil
}

// ListRepositories fetches the organization's repositories. A response body
// that does not decode as a repository list reads as an empty list rather
// than aborting the run; only transport failures and error statuses abort.
func (g *GitHubGateway) ListRepositories(ctx context.Context, org string) ([]string, error) {
	g.logger.Printf("[1/2] Fetching repositories for organization %s...", org)
	repos, resp, err := g.restClient.Repositories.ListByOrg(ctx, org, nil)
	if err != nil {
		if succeeded(resp) {
			g.logger.Printf("  Repository list for %s did not decode, treating as empty: %v", org, err)
			return []string{}, nil
		}
		return nil, &NetworkError{URL: g.repositoriesURL(resp, org), Err: err}
	}
	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		// An element without a name is not a well-formed repository object;
		// skipping it keeps the run going, like the fail-open above.
		if name := repo.GetName(); name != "" {
			names = append(names, name)
		}
	}
	g.logger.Printf("Found %d repositories in %s.", len(names), org)
	return names, nil
}

// ListOpenPullRequests fetches the repository's open pull requests. The open
// filter is applied server-side. Unlike the repository list, a body that
// does not decode is a hard ParseError: aggregation cannot proceed without
// knowing which reviewers are requested.
func (g *GitHubGateway) ListOpenPullRequests(ctx context.Context, org, repo string) ([]PullRequest, error) {
	path := fmt.Sprintf("repos/%s/%s/pulls?state=open", org, repo)
	req, err := g.restClient.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request listing for %s/%s: %w", org, repo, err)
	}
	pullsURL := req.URL.String()
	g.logger.Printf("  Fetching open pull requests for %s/%s...", org, repo)

	var body bytes.Buffer
	resp, err := g.restClient.Do(ctx, req, &body)
	if err != nil {
		if succeeded(resp) {
			return nil, &ParseError{URL: pullsURL, Err: err}
		}
		return nil, &NetworkError{URL: pullsURL, Err: err}
	}

	// Decode from the raw body rather than through the client so that a
	// degenerate 200 response (empty body, literal null) is a hard failure
	// instead of reading as zero pull requests.
	var payload []pullPayload
	if err := json.Unmarshal(body.Bytes(), &payload); err != nil {
		return nil, &ParseError{URL: pullsURL, Err: err}
	}
	if payload == nil {
		return nil, &ParseError{URL: pullsURL, Err: errors.New("pull request list is not a JSON array")}
	}

	pulls := make([]PullRequest, 0, len(payload))
	for _, p := range payload {
		logins, err := p.reviewerLogins()
		if err != nil {
			return nil, &ParseError{URL: pullsURL, Err: err}
		}
		pulls = append(pulls, PullRequest{
			Number:             p.Number,
			URL:                p.URL,
			RequestedReviewers: logins,
		})
	}
	g.logger.Printf("  Found %d open pull requests in %s/%s.", len(pulls), org, repo)
	return pulls, nil
}

// succeeded reports whether the call completed with a 2xx status, so that a
// trailing error can only be a decode failure.
func succeeded(resp *github.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}

// repositoriesURL names the repository listing in error messages, preferring
// the URL of the request the client actually issued.
func (g *GitHubGateway) repositoriesURL(resp *github.Response, org string) string {
	if resp != nil && resp.Request != nil {
		return resp.Request.URL.String()
	}
	return fmt.Sprintf("%sorgs/%s/repos", g.restClient.BaseURL, org)
}

// pullPayload keeps requested_reviewers raw so an absent field can be told
// apart from an empty list.
type pullPayload struct {
	Number             int             `json:"number"`
	URL                string          `json:"url"`
	RequestedReviewers json.RawMessage `json:"requested_reviewers"`
}

type reviewerPayload struct {
	Login string `json:"login"`
}

// reviewerLogins validates the requested_reviewers shape and extracts the
// logins. An absent, null, or non-list field is a fault.
func (p pullPayload) reviewerLogins() ([]string, error) {
	if len(p.RequestedReviewers) == 0 || string(p.RequestedReviewers) == "null" {
		return nil, fmt.Errorf("pull request #%d has no requested_reviewers list", p.Number)
	}
	var reviewers []reviewerPayload
	if err := json.Unmarshal(p.RequestedReviewers, &reviewers); err != nil {
		return nil, fmt.Errorf("pull request #%d has a malformed requested_reviewers list: %w", p.Number, err)
	}
	logins := make([]string, 0, len(reviewers))
	for _, r := range reviewers {
		logins = append(logins, r.Login)
	}
	return logins, nil
}
