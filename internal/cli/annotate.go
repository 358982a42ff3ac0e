package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/ppiankov/needscore/internal/cache"
	"github.com/ppiankov/needscore/internal/dataset"
	"github.com/ppiankov/needscore/internal/llm"
	"github.com/ppiankov/needscore/internal/model"
	"github.com/ppiankov/needscore/internal/pipeline"
	"github.com/ppiankov/needscore/internal/util"
	"github.com/ppiankov/needscore/internal/worker"
)

// newFetcher builds the rate limited fetcher shared by the article source
// and the crawler
func newFetcher(c *model.Config) (*pipeline.Fetcher, *worker.Limiter) {
	limiter := worker.NewLimiter(c.RateLimiting.RequestsPerSecond, c.RateLimiting.BurstSize)
	fetcher := pipeline.NewFetcher(
		util.NewHTTPClient(c.HTTP),
		c.HTTP.UserAgent,
		c.HTTP.MaxBodyBytes,
		pipeline.WithLimiter(limiter),
		pipeline.WithFetchLogger(logger),
	)
	return fetcher, limiter
}

// newPipeline wires gateway source, cache and LLM annotator
func newPipeline(c *model.Config, mode string, noCache bool) (*pipeline.Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(c.LLM, c.HTTP))
	if err != nil {
		return nil, err
	}
	annotator, err := llm.NewAnnotator(provider, mode, logger)
	if err != nil {
		return nil, err
	}

	var articleCache cache.Cache
	if !noCache {
		articleCache = cache.New(c.Cache)
	}

	fetcher, _ := newFetcher(c)
	source := pipeline.NewArticleSource(fetcher, c.Source, articleCache, logger)
	return pipeline.NewPipeline(source, annotator, logger), nil
}

var (
	inferArticleID int64
	inferText      string
	inferMode      string
	inferNoCache   bool
)

// inferCmd represents the infer command
var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Annotate one article or a piece of text with the LLM",
	Long: `Infer asks the configured LLM for a user need label and impact scores.
With --article-id the article is fetched from the gateway; the model sees
the title, the lead and the first sentences of the body.

Example:
  needscore infer --article-id 4817234
  needscore infer --text "..." --mode separate`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runInfer,
}

func init() {
	rootCmd.AddCommand(inferCmd)

	inferCmd.Flags().Int64Var(&inferArticleID, "article-id", 0, "article id to fetch and annotate")
	inferCmd.Flags().StringVar(&inferText, "text", "", "text to annotate")
	inferCmd.Flags().StringVar(&inferMode, "mode", "", "prompting mode: combined or separate (default from config llm.mode)")
	inferCmd.Flags().BoolVar(&inferNoCache, "no-cache", false, "disable cache (force fresh fetch)")
	inferCmd.MarkFlagsMutuallyExclusive("article-id", "text")
	inferCmd.MarkFlagsOneRequired("article-id", "text")
}

func runInfer(cmd *cobra.Command, args []string) error {
	mode := cfg.LLM.Mode
	if inferMode != "" {
		mode = inferMode
	}

	p, err := newPipeline(cfg, mode, inferNoCache)
	if err != nil {
		return err
	}

	var annotation *model.Annotation
	if cmd.Flags().Changed("article-id") {
		annotation, err = p.AnnotateArticle(cmd.Context(), inferArticleID)
	} else {
		annotation, err = p.AnnotateText(cmd.Context(), inferText)
	}
	if err != nil {
		return err
	}

	if !verbose {
		annotation.RawResponse = ""
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(annotation)
}

var (
	batchCategory    string
	batchOutput      string
	batchConcurrency int
	batchMode        string
	batchNoCache     bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <ids-file>",
	Short: "Annotate many articles in parallel into a predictions dataset",
	Long: `Batch annotates every article listed in the input file and writes a
predictions dataset that evaluate can read directly.

The input is either JSON shaped {"articles_id": {"<category>": [ids...]}}
or plain text with one article id or article URL per line.

Example:
  needscore batch ids.json --output data/predictions.json
  needscore batch ids.txt --category thoi-su --concurrency 8`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchCategory, "category", "uncategorized", "category for ids read from a plain text file")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "predictions dataset to write (default from config paths.predictions)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "number of concurrent workers (default from config concurrency.workers)")
	batchCmd.Flags().StringVar(&batchMode, "mode", "", "prompting mode: combined or separate (default from config llm.mode)")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable cache (force fresh fetch)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	items, err := worker.ReadItems(args[0], batchCategory)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return &model.InputError{Path: args[0], Err: errors.New("no article ids found")}
	}

	output := cfg.Paths.Predictions
	if batchOutput != "" {
		output = batchOutput
	}
	concurrency := cfg.Concurrency.Workers
	if batchConcurrency > 0 {
		concurrency = batchConcurrency
	}
	mode := cfg.LLM.Mode
	if batchMode != "" {
		mode = batchMode
	}

	p, err := newPipeline(cfg, mode, batchNoCache)
	if err != nil {
		return err
	}

	logger.Info().Int("articles", len(items)).Int("workers", concurrency).Msg("annotating")

	processor := worker.NewBatchProcessor(p, concurrency, logger)
	results := processor.Process(cmd.Context(), items)

	d, failed, err := worker.BuildDataset(results)
	if err != nil {
		return err
	}
	for _, r := range failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "✗ %d: %v\n", r.Item.ArticleID, r.Error)
	}
	if len(failed) == len(results) {
		return fmt.Errorf("all %d articles failed", len(results))
	}

	if err := dataset.WriteJSON(output, d); err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Annotated %d/%d articles -> %s\n", len(results)-len(failed), len(results), output)
	return nil
}

var (
	crawlLimit    int
	crawlCategory string
	crawlOutput   string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <category-url>",
	Short: "List article ids linked from a category page",
	Long: `Crawl fetches a category page, collects the article links in page order
and prints their ids. robots.txt is honored unless http.respect_robots is
false. With --output the ids are written in the batch input format.

Example:
  needscore crawl https://vnexpress.net/thoi-su --limit 20
  needscore crawl https://vnexpress.net/thoi-su --category thoi-su --output ids.json`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "maximum number of ids (0 = all)")
	crawlCmd.Flags().StringVar(&crawlCategory, "category", "uncategorized", "category name used with --output")
	crawlCmd.Flags().StringVar(&crawlOutput, "output", "", "write {\"articles_id\": {category: ids}} JSON to this path")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	fetcher, limiter := newFetcher(cfg)

	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(util.NewHTTPClient(cfg.HTTP), cfg.HTTP.UserAgent, logger)
		// a Crawl-delay slows this host below the configured rate
		_, delay, err := robots.CanFetch(cmd.Context(), args[0])
		if err == nil && delay > 0 {
			if u, perr := url.Parse(args[0]); perr == nil {
				limiter.SetHostRate(u.Host, 1/delay.Seconds(), 1)
			}
		}
	}

	crawler := pipeline.NewCrawler(fetcher, robots, logger)
	ids, err := crawler.ArticleIDs(cmd.Context(), args[0], crawlLimit)
	if err != nil {
		return err
	}

	if crawlOutput != "" {
		doc := map[string]map[string][]int64{
			"articles_id": {crawlCategory: ids},
		}
		if err := dataset.WriteJSON(crawlOutput, doc); err != nil {
			return fmt.Errorf("save ids: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d ids to %s\n", len(ids), crawlOutput)
		return nil
	}

	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
