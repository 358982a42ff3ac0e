package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Group is one of the four coarse Smartocto user-need groups
type Group string

const (
	GroupKnow       Group = "Know"       // fact driven
	GroupUnderstand Group = "Understand" // context driven
	GroupFeel       Group = "Feel"       // emotion driven
	GroupDo         Group = "Do"         // action driven
)

// User need labels
const (
	NeedUpdateMe          = "Update me"
	NeedKeepMeEngaged     = "Keep me engaged"
	NeedEducateMe         = "Educate me"
	NeedGiveMePerspective = "Give me perspective"
	NeedInspireMe         = "Inspire me"
	NeedDivertMe          = "Divert me"
	NeedHelpMe            = "Help me"
	NeedConnectMe         = "Connect me"
)

var (
	userNeedLabels = []string{
		NeedUpdateMe, NeedKeepMeEngaged,
		NeedEducateMe, NeedGiveMePerspective,
		NeedInspireMe, NeedDivertMe,
		NeedHelpMe, NeedConnectMe,
	}

	userNeedGroups = map[string]Group{
		NeedUpdateMe:          GroupKnow,
		NeedKeepMeEngaged:     GroupKnow,
		NeedEducateMe:         GroupUnderstand,
		NeedGiveMePerspective: GroupUnderstand,
		NeedInspireMe:         GroupFeel,
		NeedDivertMe:          GroupFeel,
		NeedHelpMe:            GroupDo,
		NeedConnectMe:         GroupDo,
	}

	groups = []Group{GroupKnow, GroupUnderstand, GroupFeel, GroupDo}

	impactLevels = []int{1, 3, 5, 7, 9}
	impactRank   = map[int]int{1: 0, 3: 1, 5: 2, 7: 3, 9: 4}
)

// UserNeedLabels returns the eight labels in taxonomy order
func UserNeedLabels() []string {
	out := make([]string, len(userNeedLabels))
	copy(out, userNeedLabels)
	return out
}

// Groups returns the four groups in taxonomy order
func Groups() []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	return out
}

// ImpactLevels returns the allowed ordinal values in ascending order
func ImpactLevels() []int {
	out := make([]int, len(impactLevels))
	copy(out, impactLevels)
	return out
}

// GroupOf returns the group a user need label belongs to
func GroupOf(label string) (Group, error) {
	group, ok := userNeedGroups[label]
	if !ok {
		return "", &UnknownLabelError{Label: label}
	}
	return group, nil
}

// IsUserNeed reports whether label is one of the eight taxonomy labels
func IsUserNeed(label string) bool {
	_, ok := userNeedGroups[label]
	return ok
}

// Rank returns the index of v within the impact levels, or false if v is not a level
func Rank(v int) (int, bool) {
	r, ok := impactRank[v]
	return r, ok
}

// Field names an annotated field of a Response
type Field string

const (
	FieldUserNeed Field = "user_need"
	FieldI1       Field = "I1" // emotional impact
	FieldI3       Field = "I3" // public discourse potential
	FieldI4       Field = "I4" // policy or social change relevance
)

// OrdinalFields lists the impact metrics in output order
var OrdinalFields = [...]Field{FieldI1, FieldI3, FieldI4}

// Response is one annotation of one article
type Response struct {
	UserNeed string `json:"user_need"`
	I1       int    `json:"I1"`
	I3       int    `json:"I3"`
	I4       int    `json:"I4"`
}

// Ordinal returns the value of an impact field
func (r Response) Ordinal(f Field) int {
	switch f {
	case FieldI1:
		return r.I1
	case FieldI3:
		return r.I3
	case FieldI4:
		return r.I4
	}
	panic(fmt.Sprintf("model: %q is not an ordinal field", f))
}

// SetOrdinal sets the value of an impact field
func (r *Response) SetOrdinal(f Field, v int) {
	switch f {
	case FieldI1:
		r.I1 = v
	case FieldI3:
		r.I3 = v
	case FieldI4:
		r.I4 = v
	default:
		panic(fmt.Sprintf("model: %q is not an ordinal field", f))
	}
}

// Validate checks the label against the taxonomy and every impact value against the allowed levels
func (r Response) Validate() error {
	if !IsUserNeed(r.UserNeed) {
		return &UnknownLabelError{Label: r.UserNeed}
	}
	for _, f := range OrdinalFields {
		if _, ok := Rank(r.Ordinal(f)); !ok {
			return &InvalidOrdinalError{Field: f, Value: r.Ordinal(f)}
		}
	}
	return nil
}

// UnmarshalJSON accepts impact values as integers, integral floats or numeric strings.
// Range checking is left to Validate.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserNeed string          `json:"user_need"`
		I1       json.RawMessage `json:"I1"`
		I3       json.RawMessage `json:"I3"`
		I4       json.RawMessage `json:"I4"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Response{UserNeed: strings.TrimSpace(raw.UserNeed)}
	for _, f := range OrdinalFields {
		var msg json.RawMessage
		switch f {
		case FieldI1:
			msg = raw.I1
		case FieldI3:
			msg = raw.I3
		case FieldI4:
			msg = raw.I4
		}
		if len(msg) == 0 {
			continue // absent: zero value fails Validate with field context
		}
		v, err := CoerceInt(msg)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		out.SetOrdinal(f, int(v))
	}

	*r = out
	return nil
}

// CoerceInt converts a JSON scalar to an integer. Numbers must be integral,
// strings must parse as integers. Booleans and null are rejected.
func CoerceInt(msg json.RawMessage) (int64, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return 0, fmt.Errorf("missing integer value")
	}

	switch msg[0] {
	case '"':
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", s)
		}
		return integral(f)
	case 't', 'f':
		return 0, fmt.Errorf("not an integer: %s", msg)
	}

	var num json.Number
	if err := json.Unmarshal(msg, &num); err != nil {
		return 0, fmt.Errorf("not an integer: %s", msg)
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil {
		return 0, fmt.Errorf("not an integer: %s", msg)
	}
	return integral(f)
}

func integral(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int64(f), nil
}
