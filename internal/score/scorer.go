package score

import (
	"github.com/ppiankov/needscore/internal/model"
)

const (
	sideModel = "model"
	sideTruth = "ground truth"
)

// Categorical scores a user_need label against a ground truth label:
// 2 for an exact match, 1 for the same group, 0 otherwise.
func Categorical(modelLabel, truthLabel string) (int, error) {
	if modelLabel == truthLabel {
		return 2, nil
	}

	modelGroup, err := model.GroupOf(modelLabel)
	if err != nil {
		return 0, &model.UnknownLabelError{Label: modelLabel, Side: sideModel}
	}
	truthGroup, err := model.GroupOf(truthLabel)
	if err != nil {
		return 0, &model.UnknownLabelError{Label: truthLabel, Side: sideTruth}
	}

	if modelGroup == truthGroup {
		return 1, nil
	}
	return 0, nil
}

// Ordinal scores an impact value against a ground truth value by rank
// distance within {1,3,5,7,9}: 2 when equal, 1 when adjacent, 0 otherwise.
// Numeric spacing is not used, so 1 vs 5 scores the same as 1 vs 9.
func Ordinal(modelValue, truthValue int) (int, error) {
	modelRank, ok := model.Rank(modelValue)
	if !ok {
		return 0, &model.InvalidOrdinalError{Side: sideModel, Value: modelValue}
	}
	truthRank, ok := model.Rank(truthValue)
	if !ok {
		return 0, &model.InvalidOrdinalError{Side: sideTruth, Value: truthValue}
	}

	switch distance := abs(modelRank - truthRank); distance {
	case 0:
		return 2, nil
	case 1:
		return 1, nil
	default:
		return 0, nil
	}
}

// Emotion normalizes the three impact scores into [0,1]
func Emotion(i1, i3, i4 int) float64 {
	return float64(i1+i3+i4) / 6
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
