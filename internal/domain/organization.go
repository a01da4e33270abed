// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strings"
)

// Organization is the result of one aggregation run: every reviewer who owes
// a review, and every repository that produced at least one assignment.
// Both sequences are deduplicated by name and keep first-seen order.
type Organization struct {
	Reviewers    []*Reviewer  `json:"reviewers"`
	Repositories []Repository `json:"repositories"`
}

// Repository is one repository of the organization.
type Repository struct {
	Name string `json:"name"`
}

// Reviewer is a person requested to review at least one open pull request.
// Name is the raw login exactly as the API returned it.
type Reviewer struct {
	Name                 string        `json:"name"`
	AssignedPullRequests []PullRequest `json:"assigned_pull_requests"`
}

// PullRequest is one open pull request assigned to a given reviewer. A pull
// request requesting N reviewers yields N of these, one per reviewer, all
// sharing the same ID, URL and RepoName.
type PullRequest struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	RepoName string `json:"repo_name"`
}

// LoadSummary describes how review load spreads across reviewers.
type LoadSummary struct {
	Reviewers         int     `json:"reviewers"`
	Repositories      int     `json:"repositories"`
	Assignments       int     `json:"assignments"`
	MeanPerReviewer   float64 `json:"mean_per_reviewer"`
	MedianPerReviewer float64 `json:"median_per_reviewer"`
	MaxPerReviewer    float64 `json:"max_per_reviewer"`
	BusiestReviewer   string  `json:"busiest_reviewer"`
}

// DisplayName returns the login with any quote characters stripped.
// Stripping is a render-time concern only; Name keeps the raw login.
func (r *Reviewer) DisplayName() string {
	return strings.ReplaceAll(r.Name, `"`, "")
}

// AvatarURL returns the reviewer's GitHub avatar image URL.
func (r *Reviewer) AvatarURL() string {
	return fmt.Sprintf("https://github.com/%s.png", r.DisplayName())
}

// PullRequestsFor returns the reviewer's assignments within one repository.
func (r *Reviewer) PullRequestsFor(repoName string) []PullRequest {
	var prs []PullRequest
	for _, pr := range r.AssignedPullRequests {
		if pr.RepoName == repoName {
			prs = append(prs, pr)
		}
	}
	return prs
}
