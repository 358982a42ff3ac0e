// Package evaluate scores a predictions dataset against one or more ground
// truth datasets.
package evaluate

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ppiankov/needscore/internal/dataset"
	"github.com/ppiankov/needscore/internal/model"
	"github.com/ppiankov/needscore/internal/score"
)

// Evaluator runs the resolver over every article annotated by both the
// model and at least one human
type Evaluator struct {
	logger zerolog.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithLogger sets the logger used for per-article debug output
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an evaluator
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate flattens all datasets and scores the intersection of prediction
// ids with the union of ground truth ids. Any invalid record aborts the run.
func (e *Evaluator) Evaluate(ctx context.Context, predictions dataset.Dataset, truths []dataset.Dataset) (*model.Evaluation, error) {
	if len(truths) == 0 {
		return nil, model.ErrNoGroundTruth
	}

	modelIndex, err := dataset.Flatten(predictions)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}

	truthIndexes := make([]dataset.Index, len(truths))
	for i, t := range truths {
		idx, err := dataset.Flatten(t)
		if err != nil {
			return nil, fmt.Errorf("ground truth #%d: %w", i+1, err)
		}
		truthIndexes[i] = idx
	}

	return e.EvaluateIndexes(ctx, modelIndex, truthIndexes)
}

// EvaluateIndexes is Evaluate over already flattened indexes
func (e *Evaluator) EvaluateIndexes(ctx context.Context, modelIndex dataset.Index, truthIndexes []dataset.Index) (*model.Evaluation, error) {
	if len(truthIndexes) == 0 {
		return nil, model.ErrNoGroundTruth
	}

	union := make(map[int64]struct{})
	for _, idx := range truthIndexes {
		for id := range idx {
			union[id] = struct{}{}
		}
	}

	summary := model.Summary{
		MissingInPredictions: []int64{},
		MissingInGroundTruth: []int64{},
	}

	var common []int64
	for _, id := range modelIndex.IDs() {
		if _, ok := union[id]; ok {
			common = append(common, id)
		} else {
			summary.MissingInGroundTruth = append(summary.MissingInGroundTruth, id)
		}
	}

	for _, id := range sortedIDs(union) {
		if _, ok := modelIndex[id]; !ok {
			summary.MissingInPredictions = append(summary.MissingInPredictions, id)
		}
	}

	results := make([]model.ArticleResult, 0, len(common))
	var totals model.FieldStats

	for _, id := range common {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := modelIndex[id]

		var candidates []model.Response
		for _, idx := range truthIndexes {
			if gt, ok := idx[id]; ok {
				candidates = append(candidates, gt.Response)
			}
		}

		res, err := score.Resolve(rec.Response, candidates)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", id, err)
		}

		e.logger.Debug().
			Int64("article_id", id).
			Int("candidates", len(candidates)).
			Float64("final_score", res.Scores.Final).
			Msg("article scored")

		results = append(results, model.ArticleResult{
			ArticleID:     id,
			Category:      rec.Category,
			ModelResponse: rec.Response,
			GroundTruth:   res.GroundTruth,
			Candidates:    res.Candidates,
			ScoreBundle:   res.Scores,
		})
		totals.Add(res.Scores)
	}

	summary.Evaluated = len(results)
	summary.Totals = totals
	summary.Averages = totals.Div(len(results))

	e.logger.Info().
		Int("evaluated", summary.Evaluated).
		Int("missing_in_predictions", len(summary.MissingInPredictions)).
		Int("missing_in_ground_truth", len(summary.MissingInGroundTruth)).
		Float64("final_score_avg", summary.Averages.Final).
		Msg("evaluation complete")

	return &model.Evaluation{
		Summary: summary,
		Results: results,
	}, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
