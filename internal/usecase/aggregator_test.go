package usecase

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/youzhen0x38/ibr/internal/domain"
	"github.com/youzhen0x38/ibr/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListRepositories(ctx context.Context, org string) ([]string, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockFetcher) ListOpenPullRequests(ctx context.Context, org, repo string) ([]gateway.PullRequest, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.PullRequest), args.Error(1)
}

func TestAggregator_Aggregate(t *testing.T) {
	testCases := []struct {
		name           string
		repos          []string
		reposErr       error
		pullsByRepo    map[string][]gateway.PullRequest
		pullsErrByRepo map[string]error
		expectedResult *domain.Organization
		expectError    bool
	}{
		{
			name:  "happy path - reviewers and repositories fold in first-seen order",
			repos: []string{"widgets", "gadgets"},
			pullsByRepo: map[string][]gateway.PullRequest{
				"widgets": {
					{Number: 1, URL: "https://api.github.com/repos/acme/widgets/pulls/1", RequestedReviewers: []string{"alice"}},
				},
				"gadgets": {
					{Number: 7, URL: "https://api.github.com/repos/acme/gadgets/pulls/7", RequestedReviewers: []string{"alice", "bob"}},
				},
			},
			expectedResult: &domain.Organization{
				Repositories: []domain.Repository{{Name: "widgets"}, {Name: "gadgets"}},
				Reviewers: []*domain.Reviewer{
					{
						Name: "alice",
						AssignedPullRequests: []domain.PullRequest{
							{ID: "1", URL: "https://github.com/acme/widgets/pull/1", RepoName: "widgets"},
							{ID: "7", URL: "https://github.com/acme/gadgets/pull/7", RepoName: "gadgets"},
						},
					},
					{
						Name: "bob",
						AssignedPullRequests: []domain.PullRequest{
							{ID: "7", URL: "https://github.com/acme/gadgets/pull/7", RepoName: "gadgets"},
						},
					},
				},
			},
			expectError: false,
		},
		{
			name:  "lazy registration - reviewerless pull requests register nothing",
			repos: []string{"widgets", "gadgets"},
			pullsByRepo: map[string][]gateway.PullRequest{
				"widgets": {
					{Number: 2, URL: "https://api.github.com/repos/acme/widgets/pulls/2", RequestedReviewers: []string{}},
				},
				"gadgets": {
					{Number: 8, URL: "https://api.github.com/repos/acme/gadgets/pulls/8", RequestedReviewers: []string{"carol"}},
					{Number: 9, URL: "https://api.github.com/repos/acme/gadgets/pulls/9", RequestedReviewers: []string{}},
				},
			},
			expectedResult: &domain.Organization{
				Repositories: []domain.Repository{{Name: "gadgets"}},
				Reviewers: []*domain.Reviewer{
					{
						Name: "carol",
						AssignedPullRequests: []domain.PullRequest{
							{ID: "8", URL: "https://github.com/acme/gadgets/pull/8", RepoName: "gadgets"},
						},
					},
				},
			},
			expectError: false,
		},
		{
			name:  "dedup - repeated reviewers and repositories collapse to one entry",
			repos: []string{"widgets"},
			pullsByRepo: map[string][]gateway.PullRequest{
				"widgets": {
					{Number: 1, URL: "https://api.github.com/repos/acme/widgets/pulls/1", RequestedReviewers: []string{"alice"}},
					{Number: 2, URL: "https://api.github.com/repos/acme/widgets/pulls/2", RequestedReviewers: []string{"alice", "Alice"}},
				},
			},
			expectedResult: &domain.Organization{
				Repositories: []domain.Repository{{Name: "widgets"}},
				Reviewers: []*domain.Reviewer{
					{
						Name: "alice",
						AssignedPullRequests: []domain.PullRequest{
							{ID: "1", URL: "https://github.com/acme/widgets/pull/1", RepoName: "widgets"},
							{ID: "2", URL: "https://github.com/acme/widgets/pull/2", RepoName: "widgets"},
						},
					},
					// Dedup is exact string equality, so a differently cased
					// login is its own reviewer.
					{
						Name: "Alice",
						AssignedPullRequests: []domain.PullRequest{
							{ID: "2", URL: "https://github.com/acme/widgets/pull/2", RepoName: "widgets"},
						},
					},
				},
			},
			expectError: false,
		},
		{
			name:  "error case - pull request fetch failure aborts the run",
			repos: []string{"widgets", "gadgets"},
			pullsByRepo: map[string][]gateway.PullRequest{
				"widgets": {},
			},
			pullsErrByRepo: map[string]error{
				"gadgets": errors.New("could not reach https://api.github.com/repos/acme/gadgets/pulls?state=open: 502"),
			},
			expectedResult: nil,
			expectError:    true,
		},
		{
			name:        "error case - repository list failure aborts the run",
			reposErr:    errors.New("could not reach https://api.github.com/orgs/acme/repos: 401"),
			expectError: true,
		},
		{
			name:  "empty case - no repositories yields an empty organization",
			repos: []string{},
			expectedResult: &domain.Organization{
				Repositories: []domain.Repository{},
				Reviewers:    []*domain.Reviewer{},
			},
			expectError: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			logger := log.New(io.Discard, "", 0)
			fetcher := new(mockFetcher)

			if tc.reposErr != nil {
				fetcher.On("ListRepositories", mock.Anything, "acme").Return(nil, tc.reposErr)
			} else {
				fetcher.On("ListRepositories", mock.Anything, "acme").Return(tc.repos, nil)
			}
			for repo, pulls := range tc.pullsByRepo {
				fetcher.On("ListOpenPullRequests", mock.Anything, "acme", repo).Return(pulls, nil).Maybe()
			}
			for repo, err := range tc.pullsErrByRepo {
				fetcher.On("ListOpenPullRequests", mock.Anything, "acme", repo).Return(nil, err).Maybe()
			}

			aggregator := NewAggregator(fetcher, logger)

			result, err := aggregator.Aggregate(ctx, "acme")

			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedResult, result)
			}
		})
	}
}

func TestRewritePullRequestURL(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "api URL becomes the human-facing URL",
			input:    "https://api.example.com/repos/acme/widgets/pulls/42",
			expected: "https://example.com/acme/widgets/pull/42",
		},
		{
			name:     "already rewritten URL is unchanged",
			input:    "https://example.com/acme/widgets/pull/42",
			expected: "https://example.com/acme/widgets/pull/42",
		},
		{
			name:     "rest of the path is preserved",
			input:    "https://api.github.com/repos/acme/board-gadgets/pulls/7",
			expected: "https://github.com/acme/board-gadgets/pull/7",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := rewritePullRequestURL(tc.input)
			assert.Equal(t, tc.expected, got)
			// Rewriting must be idempotent.
			assert.Equal(t, tc.expected, rewritePullRequestURL(got))
		})
	}
}
