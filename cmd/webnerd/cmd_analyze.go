package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"webnerd/internal/cache"
	"webnerd/internal/crawl"
)

var (
	analyzeQuery string
	analyzeJSON  bool
)

// analyzeCmd crawls and scores a set of pages
var analyzeCmd = &cobra.Command{
	Use:   "analyze [urls...]",
	Short: "Fetch, extract, and score pages against a query",
	Long: `Analyzes each URL: fetches the page, extracts heading-scoped sections,
scores the content against the query, and caches the result for a day.
Pages analyzed within the last day are served from the cache.

Example:
  webnerd analyze --query "solar panel efficiency" https://example.com/a https://example.com/b`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [url]",
	Short: "Re-analyze a page, bypassing the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefresh,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuery, "query", "q", "", "Query to score page relevance against")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Emit results as JSON")
	refreshCmd.Flags().StringVarP(&analyzeQuery, "query", "q", "", "Query to score page relevance against")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	go printProgress(ctx, a.orchestrator)

	results, err := a.orchestrator.Analyze(ctx, analyzeQuery, targetsFromArgs(args))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "cancelled; %d of %d pages analyzed\n", len(results), len(args))
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		printResult(r)
	}
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.orchestrator.Refresh(ctx, analyzeQuery, crawl.Target{URL: args[0], Position: 1})
	if err != nil {
		return fmt.Errorf("refresh %s: %w", args[0], err)
	}
	printResult(result)
	return nil
}

func targetsFromArgs(args []string) []crawl.Target {
	targets := make([]crawl.Target, len(args))
	for i, u := range args {
		targets[i] = crawl.Target{URL: u, Position: i + 1}
	}
	return targets
}

// printProgress relays advisory crawl events to stderr until ctx ends.
func printProgress(ctx context.Context, o *crawl.Orchestrator) {
	for {
		select {
		case ev := <-o.Events():
			switch ev.Kind {
			case crawl.EventFetching:
				fmt.Fprintf(os.Stderr, "[%d/%d] fetching %s\n", ev.Index+1, ev.Total, ev.URL)
			case crawl.EventCached:
				fmt.Fprintf(os.Stderr, "[%d/%d] cached   %s\n", ev.Index+1, ev.Total, ev.URL)
			case crawl.EventFailed:
				fmt.Fprintf(os.Stderr, "[%d/%d] failed   %s\n", ev.Index+1, ev.Total, ev.URL)
			}
		case <-ctx.Done():
			return
		}
	}
}

func printResult(r cache.AnalysisResult) {
	fmt.Printf("\n%s\n", r.URL)
	if r.Error {
		fmt.Printf("  error: %s\n", r.ErrorMessage)
		return
	}

	title := r.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Printf("  title:     %s\n", title)
	fmt.Printf("  relevance: %d/100\n", r.RelevanceScore)
	if r.FromCache {
		fmt.Printf("  cached:    %s\n", r.CacheAge)
	}
	if r.Summary != "" {
		fmt.Printf("  summary:   %s\n", indentWrap(r.Summary))
	}
	if r.Extracted != nil {
		fmt.Printf("  sections:  %d (%d words)\n",
			r.Extracted.Metadata.SectionCount, r.Extracted.Metadata.TotalWords)
	}
}

func indentWrap(s string) string {
	return strings.ReplaceAll(s, "\n", "\n             ")
}
