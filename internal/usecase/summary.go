package usecase

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/youzhen0x38/ibr/internal/domain"
)

// Summarize computes a per-reviewer load summary for one aggregation result.
func Summarize(org *domain.Organization) (*domain.LoadSummary, error) {
	summary := &domain.LoadSummary{
		Reviewers:    len(org.Reviewers),
		Repositories: len(org.Repositories),
	}
	if len(org.Reviewers) == 0 {
		return summary, nil
	}

	counts := make([]float64, 0, len(org.Reviewers))
	for _, reviewer := range org.Reviewers {
		n := len(reviewer.AssignedPullRequests)
		summary.Assignments += n
		if float64(n) > summary.MaxPerReviewer {
			summary.MaxPerReviewer = float64(n)
			summary.BusiestReviewer = reviewer.DisplayName()
		}
		counts = append(counts, float64(n))
	}

	mean, err := stats.Mean(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean review load: %w", err)
	}
	summary.MeanPerReviewer = mean

	median, err := stats.Median(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute median review load: %w", err)
	}
	summary.MedianPerReviewer = median

	return summary, nil
}
