package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/needscore/internal/llm"
	"github.com/ppiankov/needscore/internal/model"
)

// TextAnnotator produces a validated response for article text
type TextAnnotator interface {
	Annotate(ctx context.Context, articleText string) (*llm.Result, error)
}

// Pipeline fetches an article, builds the model input and annotates it
type Pipeline struct {
	source    *ArticleSource
	annotator TextAnnotator
	logger    zerolog.Logger
}

// NewPipeline wires a source to an annotator
func NewPipeline(source *ArticleSource, annotator TextAnnotator, logger zerolog.Logger) *Pipeline {
	return &Pipeline{source: source, annotator: annotator, logger: logger}
}

// AnnotateArticle fetches article id and annotates it
func (p *Pipeline) AnnotateArticle(ctx context.Context, id int64) (*model.Annotation, error) {
	text, article, err := p.source.InputText(ctx, id)
	if err != nil {
		return nil, err
	}

	annotation, err := p.annotate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("article %d: %w", id, err)
	}
	annotation.ArticleID = id
	annotation.Title = article.Title
	annotation.URL = article.ShareURL

	p.logger.Debug().
		Int64("article_id", id).
		Str("user_need", annotation.Response.UserNeed).
		Msg("article annotated")

	return annotation, nil
}

// AnnotateText annotates free text that did not come from the gateway
func (p *Pipeline) AnnotateText(ctx context.Context, text string) (*model.Annotation, error) {
	return p.annotate(ctx, text)
}

func (p *Pipeline) annotate(ctx context.Context, text string) (*model.Annotation, error) {
	result, err := p.annotator.Annotate(ctx, text)
	if err != nil {
		return nil, err
	}
	return &model.Annotation{
		Response:    result.Response,
		RawResponse: strings.Join(result.Raw, "\n---\n"),
	}, nil
}
