// Package report turns evaluation results into analyses: best and worst
// cases, common label pairings, confusion matrices and value distributions.
package report

import (
	"sort"
	"strconv"

	"github.com/ppiankov/needscore/internal/model"
)

// Matrix is a confusion matrix. Rows are ground truth values, columns are
// model values, both in Labels order.
type Matrix struct {
	Title  string   `json:"title"`
	Name   string   `json:"name"` // file-safe identifier
	Labels []string `json:"labels"`
	Counts [][]int  `json:"counts"`
}

// Total returns the number of counted results
func (m Matrix) Total() int {
	n := 0
	for _, row := range m.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// Diagonal returns the number of exact agreements
func (m Matrix) Diagonal() int {
	n := 0
	for i := range m.Counts {
		n += m.Counts[i][i]
	}
	return n
}

// ValueFunc extracts a label from a result
type ValueFunc func(model.ArticleResult) string

// BuildConfusion counts (truth, model) pairs over results. Values outside
// labels are ignored.
func BuildConfusion(title, name string, results []model.ArticleResult, labels []string, modelValue, truthValue ValueFunc) Matrix {
	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}

	for _, r := range results {
		mi, okModel := pos[modelValue(r)]
		ti, okTruth := pos[truthValue(r)]
		if !okModel || !okTruth {
			continue
		}
		counts[ti][mi]++
	}

	return Matrix{
		Title:  title,
		Name:   name,
		Labels: append([]string(nil), labels...),
		Counts: counts,
	}
}

// UserNeedConfusion is the 8x8 label matrix
func UserNeedConfusion(results []model.ArticleResult) Matrix {
	return BuildConfusion("User need confusion (8x8)", "user_need", results, model.UserNeedLabels(),
		func(r model.ArticleResult) string { return r.ModelResponse.UserNeed },
		func(r model.ArticleResult) string { return r.GroundTruth.UserNeed },
	)
}

// GroupConfusion is the 4x4 group matrix
func GroupConfusion(results []model.ArticleResult) Matrix {
	groups := model.Groups()
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = string(g)
	}

	groupOf := func(label string) string {
		g, err := model.GroupOf(label)
		if err != nil {
			return ""
		}
		return string(g)
	}

	return BuildConfusion("Group confusion (4x4)", "group", results, labels,
		func(r model.ArticleResult) string { return groupOf(r.ModelResponse.UserNeed) },
		func(r model.ArticleResult) string { return groupOf(r.GroundTruth.UserNeed) },
	)
}

// ImpactConfusion is the 5x5 matrix for one impact metric
func ImpactConfusion(results []model.ArticleResult, f model.Field) Matrix {
	levels := model.ImpactLevels()
	labels := make([]string, len(levels))
	for i, l := range levels {
		labels[i] = strconv.Itoa(l)
	}

	return BuildConfusion(string(f)+" impact confusion (5x5)", string(f), results, labels,
		func(r model.ArticleResult) string { return strconv.Itoa(r.ModelResponse.Ordinal(f)) },
		func(r model.ArticleResult) string { return strconv.Itoa(r.GroundTruth.Ordinal(f)) },
	)
}

// AllConfusions returns the label, group and per-metric matrices
func AllConfusions(results []model.ArticleResult) []Matrix {
	matrices := []Matrix{UserNeedConfusion(results), GroupConfusion(results)}
	for _, f := range model.OrdinalFields {
		matrices = append(matrices, ImpactConfusion(results, f))
	}
	return matrices
}

// TopAndBottom returns the n best results (highest final score first) and
// the n worst (lowest first). Equal scores keep article order.
func TopAndBottom(results []model.ArticleResult, n int) (best, worst []model.ArticleResult) {
	if n <= 0 || len(results) == 0 {
		return nil, nil
	}

	ordered := append([]model.ArticleResult(nil), results...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Final < ordered[j].Final
	})

	if n > len(ordered) {
		n = len(ordered)
	}

	worst = append(worst, ordered[:n]...)
	tail := ordered[len(ordered)-n:]
	for i := len(tail) - 1; i >= 0; i-- {
		best = append(best, tail[i])
	}
	return best, worst
}

// PairCount is how often the model predicted Model where the resolved human label was Human
type PairCount struct {
	Model string `json:"model"`
	Human string `json:"human"`
	Count int    `json:"count"`
}

// CommonPairs returns the n most frequent (model, human) user_need pairs.
// Equal counts keep first-seen order.
func CommonPairs(results []model.ArticleResult, n int) []PairCount {
	type key struct{ model, human string }

	index := make(map[key]int)
	var pairs []PairCount
	for _, r := range results {
		k := key{r.ModelResponse.UserNeed, r.GroundTruth.UserNeed}
		if i, ok := index[k]; ok {
			pairs[i].Count++
			continue
		}
		index[k] = len(pairs)
		pairs = append(pairs, PairCount{Model: k.model, Human: k.human, Count: 1})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Count > pairs[j].Count
	})

	if n >= 0 && n < len(pairs) {
		pairs = pairs[:n]
	}
	return pairs
}

// Analysis bundles everything the analyze command reports
type Analysis struct {
	Summary  model.Summary         `json:"summary"`
	Best     []model.ArticleResult `json:"best"`
	Worst    []model.ArticleResult `json:"worst"`
	Pairs    []PairCount           `json:"pairs"`
	Matrices []Matrix              `json:"matrices"`
}

// Analyze builds an Analysis from an evaluation
func Analyze(eval *model.Evaluation, top, pairs int) *Analysis {
	best, worst := TopAndBottom(eval.Results, top)
	return &Analysis{
		Summary:  eval.Summary,
		Best:     best,
		Worst:    worst,
		Pairs:    CommonPairs(eval.Results, pairs),
		Matrices: AllConfusions(eval.Results),
	}
}
