package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/needscore/internal/model"
)

// Annotation modes
const (
	ModeCombined = "combined"
	ModeSeparate = "separate"
)

// ErrNoJSON means the completion contained no JSON object
var ErrNoJSON = errors.New("no JSON object in model output")

// Result is a validated annotation plus the raw completions it came from
type Result struct {
	Response model.Response
	Raw      []string
}

// Annotator turns article text into a model.Response
type Annotator struct {
	provider Provider
	mode     string
	logger   zerolog.Logger
}

// NewAnnotator creates an annotator. mode is ModeCombined or ModeSeparate.
func NewAnnotator(provider Provider, mode string, logger zerolog.Logger) (*Annotator, error) {
	switch mode {
	case "":
		mode = ModeCombined
	case ModeCombined, ModeSeparate:
	default:
		return nil, fmt.Errorf("unknown annotation mode %q (supported: %s, %s)", mode, ModeCombined, ModeSeparate)
	}
	return &Annotator{provider: provider, mode: mode, logger: logger}, nil
}

// Annotate asks the model about articleText and validates the answer
func (a *Annotator) Annotate(ctx context.Context, articleText string) (*Result, error) {
	if strings.TrimSpace(articleText) == "" {
		return nil, fmt.Errorf("article text is empty")
	}

	var (
		fields map[string]json.RawMessage
		raw    []string
		err    error
	)
	if a.mode == ModeSeparate {
		fields, raw, err = a.separate(ctx, articleText)
	} else {
		fields, raw, err = a.ask(ctx, CombinedPrompt(articleText))
	}
	if err != nil {
		return nil, err
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}

	var resp model.Response
	if err := json.Unmarshal(merged, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return &Result{Response: resp, Raw: raw}, fmt.Errorf("model answer: %w", err)
	}

	return &Result{Response: resp, Raw: raw}, nil
}

// separate asks for the label and the scores in two requests and merges them.
// The label comes from the first answer, falling back to the scoring answer.
func (a *Annotator) separate(ctx context.Context, articleText string) (map[string]json.RawMessage, []string, error) {
	needFields, needRaw, err := a.ask(ctx, UserNeedPrompt(articleText))
	if err != nil {
		return nil, nil, fmt.Errorf("user need: %w", err)
	}
	scoreFields, scoreRaw, err := a.ask(ctx, ScoringPrompt(articleText))
	if err != nil {
		return nil, nil, fmt.Errorf("scoring: %w", err)
	}

	merged := make(map[string]json.RawMessage)
	if v, ok := needFields["user_need"]; ok {
		merged["user_need"] = v
	} else if v, ok := scoreFields["user_need"]; ok {
		merged["user_need"] = v
	}
	for _, f := range model.OrdinalFields {
		if v, ok := scoreFields[string(f)]; ok {
			merged[string(f)] = v
		}
	}

	a.logger.Debug().
		Str("user_need_raw", needRaw[0]).
		Str("scoring_raw", scoreRaw[0]).
		Msg("separate annotation")

	return merged, []string{needRaw[0], scoreRaw[0]}, nil
}

func (a *Annotator) ask(ctx context.Context, prompt string) (map[string]json.RawMessage, []string, error) {
	completion, err := a.provider.Complete(ctx, CompletionRequest{
		System: SystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return nil, nil, err
	}

	a.logger.Debug().
		Str("provider", a.provider.Name()).
		Int("tokens", completion.TokensUsed).
		Msg("completion received")

	obj, err := ExtractJSON(completion.Text)
	if err != nil {
		return nil, []string{completion.Text}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, []string{completion.Text}, fmt.Errorf("parse model output: %w", err)
	}
	return fields, []string{completion.Text}, nil
}

// ExtractJSON returns the text between the first '{' and the last '}'.
// A leading <think>…</think> block is dropped first.
func ExtractJSON(output string) (json.RawMessage, error) {
	if end := strings.LastIndex(output, "</think>"); end >= 0 {
		output = output[end+len("</think>"):]
	}

	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}

	candidate := json.RawMessage(output[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("%w: %q", ErrNoJSON, output[start:end+1])
	}
	return candidate, nil
}
