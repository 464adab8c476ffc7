package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"webnerd/internal/answer"
	"webnerd/internal/llm"
)

var (
	askURLs   []string
	askStream bool
)

// askCmd answers a question grounded in crawled pages
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from analyzed pages",
	Long: `Crawls the given URLs (cache permitting), ranks the most relevant
passages for the question, and asks the model to answer using only that
material, with [Source N] citations.

Example:
  webnerd ask "how efficient are modern solar panels" \
    --url https://example.com/a --url https://example.com/b`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVar(&askURLs, "url", nil, "Page to ground the answer in (repeatable)")
	askCmd.Flags().BoolVar(&askStream, "stream", true, "Stream the answer as it generates")
	askCmd.MarkFlagRequired("url")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	question := strings.Join(args, " ")

	go printProgress(ctx, a.orchestrator)
	results, err := a.orchestrator.Analyze(ctx, question, targetsFromArgs(askURLs))
	if err != nil {
		return err
	}

	client, err := a.llmClient(ctx)
	if err != nil {
		return err
	}
	engine := answer.NewEngine(client, a.assembler, logger)

	if askStream {
		deltas, err := engine.AnswerStream(ctx, question, results, nil)
		if err != nil {
			return askErr(err)
		}
		for d := range deltas {
			if d.Err != nil {
				return askErr(d.Err)
			}
			fmt.Print(d.Text)
		}
		fmt.Println()
		return nil
	}

	text, err := engine.Answer(ctx, question, results, nil)
	if err != nil {
		return askErr(err)
	}
	fmt.Println(text)
	return nil
}

// askErr rewrites pipeline sentinels into actionable messages.
func askErr(err error) error {
	switch {
	case errors.Is(err, answer.ErrNoContent):
		fmt.Fprintln(os.Stderr, "none of the pages could be analyzed; check the URLs and try again")
	case errors.Is(err, answer.ErrContextTooLarge):
		fmt.Fprintln(os.Stderr, "the sources are too large for one question; ask something more specific")
	case llm.IsOverflow(err):
		fmt.Fprintln(os.Stderr, "the model rejected the prompt as too large; ask something more specific")
	}
	return err
}
