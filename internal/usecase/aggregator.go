// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/youzhen0x38/ibr/internal/domain"
	"github.com/youzhen0x38/ibr/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds parallel per-repository pull request fetches.
const fetchConcurrency = 4

// Aggregator is the use case for aggregating review assignments.
// It orchestrates the fetching and folding of pull request data.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Aggregate performs the main business logic: list the organization's
// repositories, fetch each repository's open pull requests, and fold them
// into a deduplicated reviewer-and-repository result. The first fetch error
// aborts the whole run; no partial result is returned.
func (a *Aggregator) Aggregate(ctx context.Context, org string) (*domain.Organization, error) {
	a.logger.Println("Usecase: Starting review assignment aggregation...")

	repos, err := a.fetcher.ListRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	// Fetches are independent per repository, so they run concurrently, each
	// writing into its own slot. The fold below walks the slots in
	// repository-list order, keeping first-seen ordering deterministic.
	pullsByRepo := make([][]gateway.PullRequest, len(repos))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchConcurrency)
	for i, repo := range repos {
		i, repo := i, repo
		eg.Go(func() error {
			pulls, err := a.fetcher.ListOpenPullRequests(egCtx, org, repo)
			if err != nil {
				return err
			}
			pullsByRepo[i] = pulls
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	a.logger.Println("Usecase: All pull requests fetched.")

	result := &domain.Organization{
		Reviewers:    []*domain.Reviewer{},
		Repositories: []domain.Repository{},
	}
	seenRepos := make(map[string]struct{})
	reviewerIndex := make(map[string]int)
	for i, repoName := range repos {
		for _, pull := range pullsByRepo[i] {
			if len(pull.RequestedReviewers) == 0 {
				// No reviewers requested; the repository stays unregistered
				// unless another of its pull requests has some.
				continue
			}
			pr := domain.PullRequest{
				ID:       strconv.Itoa(pull.Number),
				URL:      rewritePullRequestURL(pull.URL),
				RepoName: repoName,
			}
			if _, ok := seenRepos[repoName]; !ok {
				seenRepos[repoName] = struct{}{}
				result.Repositories = append(result.Repositories, domain.Repository{Name: repoName})
			}
			for _, login := range pull.RequestedReviewers {
				idx, ok := reviewerIndex[login]
				if !ok {
					idx = len(result.Reviewers)
					reviewerIndex[login] = idx
					result.Reviewers = append(result.Reviewers, &domain.Reviewer{Name: login})
				}
				result.Reviewers[idx].AssignedPullRequests = append(result.Reviewers[idx].AssignedPullRequests, pr)
			}
		}
	}

	a.logger.Println("Usecase: Aggregation complete.")
	return result, nil
}

// rewritePullRequestURL turns a canonical API pull request URL into its
// human-facing form: drop the "api." subdomain marker, drop the "repos/"
// path segment, and singularize "pulls" to "pull". Plain substring
// replacement; applying it to an already rewritten URL changes nothing.
func rewritePullRequestURL(apiURL string) string {
	u := strings.ReplaceAll(apiURL, "api.", "")
	u = strings.ReplaceAll(u, "repos/", "")
	return strings.ReplaceAll(u, "pulls", "pull")
}
