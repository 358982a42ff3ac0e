package model

// Maximum attainable values, used for percentages in summaries
const (
	MaxUserNeedScore = 2
	MaxOrdinalScore  = 2
	MaxEmotionScore  = 1
	MaxFinalScore    = 3
)

// ScoreBundle holds the per-article scores. It is embedded in ArticleResult
// so its keys sit next to article_id in the JSON output.
type ScoreBundle struct {
	UserNeed int     `json:"score_userneed"` // 0, 1 or 2
	I1       int     `json:"score_I1"`       // 0, 1 or 2
	I3       int     `json:"score_I3"`
	I4       int     `json:"score_I4"`
	Emotion  float64 `json:"score_emotion"` // (I1+I3+I4)/6, in [0,1]
	Final    float64 `json:"final_score"`   // UserNeed + Emotion, in [0,3]
}

// Ordinal returns the score of an impact field
func (s ScoreBundle) Ordinal(f Field) int {
	switch f {
	case FieldI1:
		return s.I1
	case FieldI3:
		return s.I3
	case FieldI4:
		return s.I4
	}
	return 0
}

// FieldStats is a per-field aggregate (averages or totals) across a dataset
type FieldStats struct {
	UserNeed float64 `json:"score_userneed"`
	I1       float64 `json:"score_I1"`
	I3       float64 `json:"score_I3"`
	I4       float64 `json:"score_I4"`
	Emotion  float64 `json:"score_emotion"`
	Final    float64 `json:"final_score"`
}

// Add accumulates one article's scores
func (s *FieldStats) Add(b ScoreBundle) {
	s.UserNeed += float64(b.UserNeed)
	s.I1 += float64(b.I1)
	s.I3 += float64(b.I3)
	s.I4 += float64(b.I4)
	s.Emotion += b.Emotion
	s.Final += b.Final
}

// Div returns the stats divided by n; n == 0 yields zeros
func (s FieldStats) Div(n int) FieldStats {
	if n == 0 {
		return FieldStats{}
	}
	d := float64(n)
	return FieldStats{
		UserNeed: s.UserNeed / d,
		I1:       s.I1 / d,
		I3:       s.I3 / d,
		I4:       s.I4 / d,
		Emotion:  s.Emotion / d,
		Final:    s.Final / d,
	}
}

// ArticleResult is the evaluation of one article
type ArticleResult struct {
	ArticleID     int64      `json:"article_id"`
	Category      string     `json:"category"`
	ModelResponse Response   `json:"model_response"`
	GroundTruth   Response   `json:"ground_truth"` // best-per-field composite
	Candidates    []Response `json:"ground_truth_candidates"`
	ScoreBundle
}

// Summary aggregates a dataset evaluation
type Summary struct {
	Evaluated            int        `json:"evaluated"`
	MissingInPredictions []int64    `json:"missing_in_predictions"`
	MissingInGroundTruth []int64    `json:"missing_in_ground_truth"`
	Averages             FieldStats `json:"averages"`
	Totals               FieldStats `json:"totals"`
}

// Evaluation is the complete output of a dataset evaluation
type Evaluation struct {
	Summary Summary         `json:"summary"`
	Results []ArticleResult `json:"results"`
}
