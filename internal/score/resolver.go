package score

import (
	"github.com/ppiankov/needscore/internal/model"
)

// Resolution is the outcome of scoring one model response against every
// available ground truth candidate
type Resolution struct {
	// GroundTruth holds, per field, the candidate value that scored best for
	// the model. Fields may come from different annotators.
	GroundTruth model.Response
	Candidates  []model.Response
	Scores      model.ScoreBundle
}

// Resolve picks, independently for every field, the candidate that gives the
// model its highest score. Ties go to the earliest candidate.
func Resolve(modelResp model.Response, candidates []model.Response) (*Resolution, error) {
	if len(candidates) == 0 {
		return nil, model.ErrEmptyGroundTruth
	}

	res := &Resolution{
		Candidates: append([]model.Response(nil), candidates...),
	}

	needScore, needValue, err := bestUserNeed(modelResp.UserNeed, candidates)
	if err != nil {
		return nil, err
	}
	res.GroundTruth.UserNeed = needValue
	res.Scores.UserNeed = needScore

	for _, f := range model.OrdinalFields {
		s, v, err := bestOrdinal(f, modelResp.Ordinal(f), candidates)
		if err != nil {
			return nil, err
		}
		res.GroundTruth.SetOrdinal(f, v)
		switch f {
		case model.FieldI1:
			res.Scores.I1 = s
		case model.FieldI3:
			res.Scores.I3 = s
		case model.FieldI4:
			res.Scores.I4 = s
		}
	}

	res.Scores.Emotion = Emotion(res.Scores.I1, res.Scores.I3, res.Scores.I4)
	res.Scores.Final = float64(res.Scores.UserNeed) + res.Scores.Emotion

	return res, nil
}

func bestUserNeed(modelLabel string, candidates []model.Response) (int, string, error) {
	best, value := -1, ""
	for _, c := range candidates {
		s, err := Categorical(modelLabel, c.UserNeed)
		if err != nil {
			return 0, "", err
		}
		if s > best {
			best, value = s, c.UserNeed
		}
	}
	return best, value, nil
}

func bestOrdinal(f model.Field, modelValue int, candidates []model.Response) (int, int, error) {
	best, value := -1, 0
	for _, c := range candidates {
		s, err := Ordinal(modelValue, c.Ordinal(f))
		if err != nil {
			if oe, ok := err.(*model.InvalidOrdinalError); ok {
				oe.Field = f
			}
			return 0, 0, err
		}
		if s > best {
			best, value = s, c.Ordinal(f)
		}
	}
	return best, value, nil
}
