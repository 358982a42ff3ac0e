package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/needscore/internal/dataset"
	"github.com/ppiankov/needscore/internal/model"
)

func mustDataset(t *testing.T, doc string) dataset.Dataset {
	t.Helper()
	var d dataset.Dataset
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	return d
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate_TwoAnnotators(t *testing.T) {
	predictions := mustDataset(t, `{
		"thoi-su": [
			{"article_id": 1, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}},
			{"article_id": 2, "response": {"user_need": "Inspire me", "I1": 7, "I3": 3, "I4": 9}},
			{"article_id": 4, "response": {"user_need": "Help me", "I1": 1, "I3": 1, "I4": 1}}
		]
	}`)
	annotatorA := mustDataset(t, `{
		"x": [
			{"article_id": 1, "response": {"user_need": "Keep me engaged", "I1": 5, "I3": 5, "I4": 5}},
			{"article_id": 2, "response": {"user_need": "Inspire me", "I1": 7, "I3": 3, "I4": 9}},
			{"article_id": 3, "response": {"user_need": "Divert me", "I1": 3, "I3": 3, "I4": 3}}
		]
	}`)
	annotatorB := mustDataset(t, `{
		"y": [
			{"article_id": 1, "response": {"user_need": "Update me", "I1": 3, "I3": 3, "I4": 3}}
		]
	}`)

	eval, err := NewEvaluator().Evaluate(context.Background(), predictions, []dataset.Dataset{annotatorA, annotatorB})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	s := eval.Summary
	if s.Evaluated != 2 {
		t.Errorf("Expected 2 evaluated articles, got %d", s.Evaluated)
	}
	if len(s.MissingInPredictions) != 1 || s.MissingInPredictions[0] != 3 {
		t.Errorf("Expected missing_in_predictions [3], got %v", s.MissingInPredictions)
	}
	if len(s.MissingInGroundTruth) != 1 || s.MissingInGroundTruth[0] != 4 {
		t.Errorf("Expected missing_in_ground_truth [4], got %v", s.MissingInGroundTruth)
	}

	first := eval.Results[0]
	if first.ArticleID != 1 || first.Category != "thoi-su" {
		t.Errorf("Unexpected first result: id=%d category=%q", first.ArticleID, first.Category)
	}
	if len(first.Candidates) != 2 {
		t.Errorf("Expected 2 candidates for article 1, got %d", len(first.Candidates))
	}
	if first.GroundTruth.UserNeed != "Update me" || first.UserNeed != 2 || first.GroundTruth.I1 != 3 || first.I1 != 1 {
		t.Errorf("Unexpected resolution for article 1: gt=%+v scores=%+v", first.GroundTruth, first.ScoreBundle)
	}
	if !approx(first.Final, 2.5) {
		t.Errorf("Expected final_score 2.5 for article 1, got %v", first.Final)
	}

	second := eval.Results[1]
	if len(second.Candidates) != 1 {
		t.Errorf("Expected 1 candidate for article 2, got %d", len(second.Candidates))
	}
	if second.Final != 3.0 {
		t.Errorf("Expected final_score 3.0 for article 2, got %v", second.Final)
	}

	if !approx(s.Totals.Final, 5.5) {
		t.Errorf("Expected final_score total 5.5, got %v", s.Totals.Final)
	}
	if !approx(s.Averages.Final, 2.75) {
		t.Errorf("Expected final_score average 2.75, got %v", s.Averages.Final)
	}
	if !approx(s.Averages.UserNeed, 2) {
		t.Errorf("Expected score_userneed average 2, got %v", s.Averages.UserNeed)
	}
}

func TestEvaluate_NoOverlap(t *testing.T) {
	predictions := mustDataset(t, `{"a": [{"article_id": 1, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}}]}`)
	truth := mustDataset(t, `{"a": [{"article_id": 2, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}}]}`)

	eval, err := NewEvaluator().Evaluate(context.Background(), predictions, []dataset.Dataset{truth})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if eval.Summary.Evaluated != 0 {
		t.Errorf("Expected 0 evaluated, got %d", eval.Summary.Evaluated)
	}
	if eval.Summary.Averages != (model.FieldStats{}) {
		t.Errorf("Expected zero averages, got %+v", eval.Summary.Averages)
	}
	if len(eval.Results) != 0 {
		t.Errorf("Expected no results, got %d", len(eval.Results))
	}
}

func TestEvaluate_EmptyDatasets(t *testing.T) {
	eval, err := NewEvaluator().Evaluate(context.Background(), mustDataset(t, `{}`), []dataset.Dataset{mustDataset(t, `{}`)})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	data, err := json.Marshal(eval)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"missing_in_predictions":[]`, `"missing_in_ground_truth":[]`, `"results":[]`, `"evaluated":0`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %s, got %s", want, out)
		}
	}
}

func TestEvaluate_NoGroundTruth(t *testing.T) {
	_, err := NewEvaluator().Evaluate(context.Background(), mustDataset(t, `{}`), nil)
	if !errors.Is(err, model.ErrNoGroundTruth) {
		t.Errorf("Expected ErrNoGroundTruth, got %v", err)
	}
}

func TestEvaluate_AbortsOnInvalidRecord(t *testing.T) {
	predictions := mustDataset(t, `{"a": [
		{"article_id": 1, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}},
		{"article_id": 2, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 6}}
	]}`)
	truth := mustDataset(t, `{"a": [{"article_id": 1, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}}]}`)

	_, err := NewEvaluator().Evaluate(context.Background(), predictions, []dataset.Dataset{truth})
	if !errors.Is(err, model.ErrInvalidOrdinal) {
		t.Fatalf("Expected ErrInvalidOrdinal, got %v", err)
	}
	if !strings.Contains(err.Error(), "predictions") || !strings.Contains(err.Error(), "article 2") {
		t.Errorf("Expected error to carry dataset and article context, got %q", err.Error())
	}
}

func TestEvaluate_DuplicateInGroundTruth(t *testing.T) {
	predictions := mustDataset(t, `{}`)
	truth := mustDataset(t, `{
		"a": [{"article_id": 9, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}}],
		"b": [{"article_id": 9, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}}]
	}`)

	_, err := NewEvaluator().Evaluate(context.Background(), predictions, []dataset.Dataset{truth})
	if !errors.Is(err, model.ErrDuplicateArticleID) {
		t.Errorf("Expected ErrDuplicateArticleID, got %v", err)
	}
	if !model.IsInputError(err) {
		t.Error("Expected duplicate id to classify as input error")
	}
}

func TestEvaluate_MaximallyWrong(t *testing.T) {
	predictions := mustDataset(t, `{"a": [{"article_id": 1, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}}]}`)
	truth := mustDataset(t, `{"a": [{"article_id": 1, "response": {"user_need": "Connect me", "I1": 9, "I3": 9, "I4": 9}}]}`)

	eval, err := NewEvaluator().Evaluate(context.Background(), predictions, []dataset.Dataset{truth})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if eval.Results[0].Final != 0.0 {
		t.Errorf("Expected final_score 0.0, got %v", eval.Results[0].Final)
	}
}

func TestEvaluate_Cancelled(t *testing.T) {
	predictions := mustDataset(t, `{"a": [{"article_id": 1, "response": {"user_need": "Update me", "I1": 1, "I3": 1, "I4": 1}}]}`)
	truth := predictions

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator().Evaluate(ctx, predictions, []dataset.Dataset{truth})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
