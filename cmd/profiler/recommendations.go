package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/observability"
	"github.com/jonathan/profiler/internal/types"
	"github.com/spf13/cobra"
)

var (
	recsUserID string
	recsStatus string

	generateAllConcurrency int

	summaryUserID  string
	summaryRefresh bool
)

var recommendationsCmd = &cobra.Command{
	Use:     "recommendations",
	Aliases: []string{"recs"},
	Short:   "Generate and list a user's recommendations",
}

var recsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new recommendations for a user",
	Long:  "Collects profile, peer, document and answer signals for the user, runs every generator, drops duplicates of active recommendations and stores the rest.",
	RunE:  runRecsGenerate,
}

var recsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's recommendations",
	RunE:  runRecsList,
}

var generateAllCmd = &cobra.Command{
	Use:   "generate-all",
	Short: "Generate recommendations for every user",
	Long:  "Runs recommendation generation for every user with a profile or recommendation, with bounded concurrency. One user's failure does not stop the batch.",
	RunE:  runGenerateAll,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a user's profile summary",
	RunE:  runSummary,
}

func init() {
	for _, c := range []*cobra.Command{recsGenerateCmd, recsListCmd} {
		c.Flags().StringVarP(&recsUserID, "user-id", "u", "", "User ID (required)")
		mustMarkRequired(c, "user-id")
	}
	recsListCmd.Flags().StringVar(&recsStatus, "status", "", "Filter by status: active, completed or dismissed")
	recommendationsCmd.AddCommand(recsGenerateCmd, recsListCmd)

	generateAllCmd.Flags().IntVar(&generateAllConcurrency, "concurrency", 0, "Users processed in parallel (default from config)")

	summaryCmd.Flags().StringVarP(&summaryUserID, "user-id", "u", "", "User ID (required)")
	summaryCmd.Flags().BoolVar(&summaryRefresh, "refresh", false, "Rebuild the summary before printing it")
	mustMarkRequired(summaryCmd, "user-id")

	rootCmd.AddCommand(recommendationsCmd, generateAllCmd, summaryCmd)
}

// connectApp loads configuration and connects every database-backed service
func connectApp(ctx context.Context) (*app, error) {
	a, err := loadApp()
	if err != nil {
		return nil, err
	}
	if err := a.connect(ctx, false); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user-id %q: %w", raw, err)
	}
	return id, nil
}

func runRecsGenerate(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(recsUserID)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := connectApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.recommendations.GenerateForUser(ctx, userID)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Generated %d recommendation(s)\n", len(recs))
	if len(recs) == 0 {
		return nil
	}
	return observability.NewPrinter(cmd.OutOrStdout()).PrintRecommendations(recs)
}

func runRecsList(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(recsUserID)
	if err != nil {
		return err
	}
	switch recsStatus {
	case "", types.StatusActive, types.StatusCompleted, types.StatusDismissed:
	default:
		return fmt.Errorf("invalid status %q", recsStatus)
	}

	ctx := context.Background()
	a, err := connectApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.recommendations.ListForUser(ctx, userID, recsStatus)
	if err != nil {
		return err
	}
	return observability.NewPrinter(cmd.OutOrStdout()).PrintRecommendations(recs)
}

func runGenerateAll(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := connectApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	concurrency := generateAllConcurrency
	if concurrency <= 0 {
		concurrency = a.cfg.Recommendations.Concurrency
	}

	result, err := a.recommendations.GenerateForAllUsers(ctx, concurrency)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Users: %d  Succeeded: %d  Failed: %d  Generated: %d  (%s)\n",
		result.Users, result.Succeeded, result.Failed, result.Generated, result.Duration)
	return nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(summaryUserID)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := connectApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var summary *types.ProfileSummary
	if summaryRefresh {
		summary, err = a.profiles.RefreshSummary(ctx, userID)
	} else {
		summary, err = a.profiles.Summary(ctx, userID)
	}
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSummary(summary)
	return nil
}
