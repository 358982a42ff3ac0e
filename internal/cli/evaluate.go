package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppiankov/needscore/internal/dataset"
	"github.com/ppiankov/needscore/internal/evaluate"
	"github.com/ppiankov/needscore/internal/model"
	"github.com/ppiankov/needscore/internal/report"
)

// inputFlags are the dataset paths shared by evaluate and analyze
type inputFlags struct {
	predictions  string
	groundTruths []string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.SetNormalizeFunc(groundTruthAlias)
	flags.StringVar(&f.predictions, "predictions", "", "model predictions dataset (default from config paths.predictions)")
	flags.StringSliceVar(&f.groundTruths, "ground-truths", nil, "ground truth dataset(s), repeatable, comma or space separated; alias --ground-truth (default from config paths.ground_truths)")
}

// resolve fills unset flags from the configured default paths. extra are
// positional paths that followed --ground-truths.
func (f *inputFlags) resolve(c *model.Config, extra []string) (string, []string) {
	predictions := c.Paths.Predictions
	if f.predictions != "" {
		predictions = f.predictions
	}
	truths := c.Paths.GroundTruths
	if len(f.groundTruths) > 0 {
		truths = append(append([]string(nil), f.groundTruths...), extra...)
	}
	return predictions, truths
}

// groundTruthArgs lets --ground-truths take space separated paths:
// "--ground-truths a.json b.json" leaves b.json as a positional argument.
func groundTruthArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && !cmd.Flags().Changed("ground-truths") {
		return &UsageError{Err: fmt.Errorf("unexpected argument %q: dataset paths follow --predictions or --ground-truths", args[0])}
	}
	return nil
}

func groundTruthAlias(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "ground-truth" {
		name = "ground-truths"
	}
	return pflag.NormalizedName(name)
}

// loadAndEvaluate reads the datasets and runs the evaluator
func loadAndEvaluate(ctx context.Context, predictionsPath string, truthPaths []string) (*model.Evaluation, error) {
	if len(truthPaths) == 0 {
		return nil, model.ErrNoGroundTruth
	}

	predictions, err := dataset.Load(predictionsPath)
	if err != nil {
		return nil, err
	}
	truths, err := dataset.LoadAll(truthPaths)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("predictions", predictionsPath).
		Strs("ground_truths", truthPaths).
		Msg("evaluating")

	return evaluate.NewEvaluator(evaluate.WithLogger(logger)).Evaluate(ctx, predictions, truths)
}

var (
	evalInputs inputFlags
	evalSave   string
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score model predictions against human annotations",
	Long: `Evaluate scores every article annotated by both the model and at least one
human. With several ground truth files each field is scored against the
annotator the model agrees with most.

Example:
  needscore evaluate
  needscore evaluate --predictions data/predictions.json \
    --ground-truths scores_annotator_a.json scores_annotator_b.json --save results.json`,
	Args: groundTruthArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evalInputs.register(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalSave, "save", "", "write the full evaluation as JSON to this path")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	predictions, truths := evalInputs.resolve(cfg, args)

	eval, err := loadAndEvaluate(cmd.Context(), predictions, truths)
	if err != nil {
		return err
	}

	report.WriteSummary(cmd.OutOrStdout(), eval.Summary)

	if evalSave != "" {
		if err := dataset.WriteJSON(evalSave, eval); err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nSaved results to %s\n", evalSave)
	}
	return nil
}

var (
	analyzeInputs inputFlags
	analyzeTop    int
	analyzePairs  int
	analyzeOutDir string
	analyzeJSON   string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report best and worst cases, common confusions and confusion matrices",
	Long: `Analyze runs an evaluation and reports:
- the top and bottom articles by final score
- the most common (model, human) user need pairs
- confusion matrices for the user need label, its group and each impact metric

Matrix rows are human values and columns are model values. With --out-dir
every matrix is also written as Markdown and CSV.

Example:
  needscore analyze --top 10 --out-dir reports`,
	Args: groundTruthArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeInputs.register(analyzeCmd)
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 0, "number of best and worst cases (default from config report.top)")
	analyzeCmd.Flags().IntVar(&analyzePairs, "pairs", 0, "number of common pairs (default from config report.pairs)")
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "out-dir", "", "directory for Markdown and CSV matrices (default from config report.out_dir)")
	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "", "write the analysis as JSON to this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	predictions, truths := analyzeInputs.resolve(cfg, args)

	top, pairs, outDir := cfg.Report.Top, cfg.Report.Pairs, cfg.Report.OutDir
	if cmd.Flags().Changed("top") {
		top = analyzeTop
	}
	if cmd.Flags().Changed("pairs") {
		pairs = analyzePairs
	}
	if cmd.Flags().Changed("out-dir") {
		outDir = analyzeOutDir
	}

	eval, err := loadAndEvaluate(cmd.Context(), predictions, truths)
	if err != nil {
		return err
	}

	analysis := report.Analyze(eval, top, pairs)
	report.WriteAnalysis(cmd.OutOrStdout(), analysis, top)

	if outDir != "" {
		paths, err := report.SaveMatrices(outDir, analysis.Matrices)
		if err != nil {
			return err
		}
		logger.Info().Str("dir", outDir).Int("files", len(paths)).Msg("matrices saved")
	}

	if analyzeJSON != "" {
		if err := dataset.WriteJSON(analyzeJSON, analysis); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
	}
	return nil
}
