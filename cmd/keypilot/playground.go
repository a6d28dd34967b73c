package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newPlaygroundCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playground",
		Short: "Test routing intents and inspect analytics",
		Long: `The playground runs against the analytics surface of the backend:
intent classification, cache statistics, usage trends, and feedback
aggregates. Requests are rate limited client-side to stay inside the
demo quota.`,
	}

	cmd.AddCommand(
		newPlaygroundIntentCmd(getApp),
		newPlaygroundCacheCmd(getApp),
		newPlaygroundTrendsCmd(getApp),
		newPlaygroundFeedbackCmd(getApp),
	)

	return cmd
}

func newPlaygroundIntentCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "intent <prompt...>",
		Short: "Classify a prompt against the routing intents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			ctx, cancel := a.ctx()
			defer cancel()

			raw, err := a.client.TestIntent(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printJSON(raw)
			return nil
		},
	}
}

func newPlaygroundCacheCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show semantic cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			ctx, cancel := a.ctx()
			defer cancel()

			raw, err := a.client.CacheStats(ctx)
			if err != nil {
				return err
			}
			printJSON(raw)
			return nil
		},
	}
}

func newPlaygroundTrendsCmd(getApp func() *app) *cobra.Command {
	var window string

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show usage trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			ctx, cancel := a.ctx()
			defer cancel()

			raw, err := a.client.Trends(ctx, window)
			if err != nil {
				return err
			}
			printJSON(raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&window, "window", "7d", "Trend window (e.g. 24h, 7d, 30d)")

	return cmd
}

func newPlaygroundFeedbackCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback",
		Short: "Show aggregated routing feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.requireAuth(); err != nil {
				return err
			}

			ctx, cancel := a.ctx()
			defer cancel()

			raw, err := a.client.FeedbackStats(ctx)
			if err != nil {
				return err
			}
			printJSON(raw)
			return nil
		},
	}
}
