package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/guarzo/crosslist/internal/aggregator"
	"github.com/guarzo/crosslist/internal/market"
	"github.com/guarzo/crosslist/internal/model"
	"github.com/guarzo/crosslist/internal/progress"
)

// queryFlags mirrors the SearchQuery fields exposed on the command line.
type queryFlags struct {
	platforms  []string
	minPrice   string
	maxPrice   string
	conditions []string
	itemType   string
	sortBy     string
	limit      int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.platforms, "platforms", "p", nil, "platforms to search (default: configured set)")
	cmd.Flags().StringVar(&f.minPrice, "min-price", "", "minimum total price")
	cmd.Flags().StringVar(&f.maxPrice, "max-price", "", "maximum total price")
	cmd.Flags().StringSliceVar(&f.conditions, "condition", nil, "accepted conditions, e.g. new,good")
	cmd.Flags().StringVar(&f.itemType, "item-type", "", "item type hint")
	cmd.Flags().StringVar(&f.sortBy, "sort", string(model.SortNewest), "lowest_price, newest, best_value or most_listings")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", model.DefaultLimit, "maximum number of results per platform")
}

func (f *queryFlags) query(args []string) (model.SearchQuery, error) {
	opts := []model.QueryOption{
		model.WithSort(model.SortBy(strings.ToLower(f.sortBy))),
		model.WithLimit(f.limit),
	}
	if f.itemType != "" {
		opts = append(opts, model.WithItemType(f.itemType))
	}
	if len(f.conditions) > 0 {
		opts = append(opts, model.WithConditions(f.conditions...))
	}
	if f.minPrice != "" {
		d, err := decimal.NewFromString(f.minPrice)
		if err != nil {
			return model.SearchQuery{}, fmt.Errorf("--min-price: %w", err)
		}
		opts = append(opts, model.WithMinPrice(d))
	}
	if f.maxPrice != "" {
		d, err := decimal.NewFromString(f.maxPrice)
		if err != nil {
			return model.SearchQuery{}, fmt.Errorf("--max-price: %w", err)
		}
		opts = append(opts, model.WithMaxPrice(d))
	}
	return model.NewSearchQuery(strings.Join(args, " "), opts...)
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		qf           queryFlags
		deadline     time.Duration
		summary      bool
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "search <keywords...>",
		Short: "Search every enabled platform",
		Long: `Runs one federated search and prints the merged, normalized results
with market statistics as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := qf.query(args)
			if err != nil {
				return err
			}

			ind := progress.NewIndicator(cmd.ErrOrStderr(), "searching", showProgress)
			agg := a.aggregator(deadline, aggregator.WithProgress(ind.Update))

			resp, err := agg.SearchAllPlatforms(cmd.Context(), query, qf.platforms)
			if err != nil {
				ind.FinishWithError(err)
				return fmt.Errorf("search failed: %w", err)
			}
			ind.Finish()

			out := cmd.OutOrStdout()
			if summary {
				fmt.Fprintln(out, market.Summary(resp.Intelligence))
				for _, f := range resp.Failures {
					fmt.Fprintf(out, "  %s\n", f.Error())
				}
				return nil
			}

			data, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal response: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "overall search deadline (default: configured)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a one-line market summary instead of JSON")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show per-platform progress on stderr")
	return cmd
}
