package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webnerd/internal/answer"
	"webnerd/internal/cache"
	"webnerd/internal/crawl"
)

var summarizeQuery string

// summarizeCmd digests one analyzed page
var summarizeCmd = &cobra.Command{
	Use:   "summarize [url]",
	Short: "Produce a short digest of one page",
	Long: `Analyzes the page (or reuses a fresh cache entry) and asks the model
for a 2-3 sentence digest. Without an API key the digest degrades to an
extractive summary built from the page's own sections.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeQuery, "query", "q", "", "Hint for what the digest should focus on")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.orchestrator.Analyze(ctx, summarizeQuery, []crawl.Target{{URL: args[0], Position: 1}})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("could not analyze %s", args[0])
	}
	if results[0].Error {
		return fmt.Errorf("could not analyze %s: %s", args[0], results[0].ErrorMessage)
	}

	client, err := a.llmClient(ctx)
	if err != nil {
		// No usable model: the extractive summary from analysis still
		// serves.
		logger.Warn("llm unavailable, printing extractive summary")
		fmt.Println(results[0].Summary)
		return nil
	}

	engine := answer.NewEngine(client, a.assembler, logger)
	digest := engine.Summarize(ctx, results[0], summarizeQuery)

	// Persist the model digest so repeat summarize/analyze runs within
	// the TTL reuse it instead of re-asking the model.
	if digest != "" && digest != results[0].Summary {
		err := a.cache.Update(ctx, results[0].URL, func(r *cache.AnalysisResult) {
			r.Summary = digest
		})
		if err != nil {
			logger.Warn("failed to persist digest", zap.String("url", results[0].URL), zap.Error(err))
		}
	}

	fmt.Println(digest)
	return nil
}
