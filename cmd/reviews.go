// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/youzhen0x38/ibr/internal/domain"
	"github.com/youzhen0x38/ibr/internal/gateway"
	"github.com/youzhen0x38/ibr/internal/usecase"
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Aggregates outstanding review assignments and outputs the result",
	Long: `Aggregates open pull request review assignments across every repository of
a GitHub organization and outputs the reviewer-by-repository result as JSON
or as a text matrix.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		// Get other flags.
		org, _ := cmd.Flags().GetString("org")
		format, _ := cmd.Flags().GetString("format")
		withSummary, _ := cmd.Flags().GetBool("summary")
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		aggregator := usecase.NewAggregator(githubGateway, logger)

		result, err := aggregator.Aggregate(ctx, org)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to aggregate review assignments: %v\n", err)
			os.Exit(1)
		}

		switch format {
		case "table":
			if err := renderMatrix(os.Stdout, result); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to render matrix: %v\n", err)
				os.Exit(1)
			}
		case "json":
			// Marshal the result into a pretty-printed JSON string.
			jsonData, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal result to JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(jsonData))
		default:
			fmt.Fprintf(os.Stderr, "Unknown --format %q, expected json or table.\n", format)
			os.Exit(1)
		}

		if withSummary {
			summary, err := usecase.Summarize(result)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to summarize review load: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr,
				"%d reviewers across %d repositories, %d assignments (mean %.1f, median %.1f, max %.0f held by %s)\n",
				summary.Reviewers, summary.Repositories, summary.Assignments,
				summary.MeanPerReviewer, summary.MedianPerReviewer,
				summary.MaxPerReviewer, summary.BusiestReviewer)
		}
	},
}

// renderMatrix writes the reviewer-by-repository matrix as tab-aligned text.
// Reviewers are rows, repositories are columns, cells hold PR numbers.
func renderMatrix(w io.Writer, org *domain.Organization) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "REVIEWER")
	for _, repo := range org.Repositories {
		fmt.Fprintf(tw, "\t%s", repo.Name)
	}
	fmt.Fprintln(tw)
	for _, reviewer := range org.Reviewers {
		fmt.Fprint(tw, reviewer.DisplayName())
		for _, repo := range org.Repositories {
			ids := make([]string, 0)
			for _, pr := range reviewer.PullRequestsFor(repo.Name) {
				ids = append(ids, "#"+pr.ID)
			}
			cell := strings.Join(ids, " ")
			if cell == "" {
				cell = "-"
			}
			fmt.Fprintf(tw, "\t%s", cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(reviewsCmd)
	reviewsCmd.PersistentFlags().StringP("org", "o", "", "Target GitHub organization name (required)")
	reviewsCmd.MarkPersistentFlagRequired("org")
	reviewsCmd.Flags().String("format", "json", "Output format: json or table")
	reviewsCmd.Flags().Bool("summary", false, "Print a review load summary to standard error")
}
