package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/needscore/internal/dataset"
	"github.com/ppiankov/needscore/internal/model"
	"github.com/ppiankov/needscore/internal/pipeline"
)

// ArticleAnnotator annotates one article by id
type ArticleAnnotator interface {
	AnnotateArticle(ctx context.Context, id int64) (*model.Annotation, error)
}

// Item is one article to annotate and the dataset category it belongs to
type Item struct {
	Category  string
	ArticleID int64
}

// AnnotateJob annotates one Item. Index is the item's position in the batch.
type AnnotateJob struct {
	Index     int
	Item      Item
	Annotator ArticleAnnotator
}

// Run annotates the item
func (j *AnnotateJob) Run(ctx context.Context) *AnnotateResult {
	annotation, err := j.Annotator.AnnotateArticle(ctx, j.Item.ArticleID)
	return &AnnotateResult{
		Index:      j.Index,
		Item:       j.Item,
		Annotation: annotation,
		Error:      err,
	}
}

// AnnotateResult is the outcome of one AnnotateJob
type AnnotateResult struct {
	Index      int
	Item       Item
	Annotation *model.Annotation
	Error      error
}

// BatchProcessor annotates many articles concurrently
type BatchProcessor struct {
	annotator   ArticleAnnotator
	concurrency int
	logger      zerolog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(annotator ArticleAnnotator, concurrency int, logger zerolog.Logger) *BatchProcessor {
	return &BatchProcessor{
		annotator:   annotator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Process annotates items and returns one result per item in input order.
// Items never started because ctx was cancelled carry ctx.Err().
func (b *BatchProcessor) Process(ctx context.Context, items []Item) []*AnnotateResult {
	out := make([]*AnnotateResult, len(items))
	if len(items) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, item := range items {
			if !pool.Submit(&AnnotateJob{Index: i, Item: item, Annotator: b.annotator}) {
				return
			}
		}
	}()

	done := 0
	for r := range pool.Results() {
		out[r.Index] = r
		done++

		var event *zerolog.Event
		if r.Error != nil {
			event = b.logger.Warn().Err(r.Error)
		} else {
			event = b.logger.Info()
		}
		event.Int64("article_id", r.Item.ArticleID).
			Str("category", r.Item.Category).
			Int("done", done).
			Int("total", len(items)).
			Msg("article annotated")
	}

	for i, r := range out {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &AnnotateResult{Index: i, Item: items[i], Error: err}
		}
	}
	return out
}

// BuildDataset groups successful annotations by category in input order
// and returns the failed results separately
func BuildDataset(results []*AnnotateResult) (dataset.Dataset, []*AnnotateResult, error) {
	builder := dataset.NewBuilder()
	var failed []*AnnotateResult

	for _, r := range results {
		if r.Error != nil || r.Annotation == nil {
			failed = append(failed, r)
			continue
		}
		if err := builder.Add(r.Item.Category, r.Annotation); err != nil {
			return dataset.Dataset{}, nil, err
		}
	}

	d, err := builder.Dataset()
	return d, failed, err
}

// idList is the JSON batch file shape: {"articles_id": {"category": [ids...]}}
type idList struct {
	ArticlesID dataset.Dataset `json:"articles_id"`
}

// ReadItems loads the articles to annotate from path. JSON files use the
// {"articles_id": {category: [ids]}} shape; anything else is read as one
// article id or article URL per line under defaultCategory. Blank lines and
// # comments are skipped and duplicates dropped.
func ReadItems(path, defaultCategory string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.InputError{Path: path, Err: err}
	}

	var items []Item
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		items, err = readJSONItems(trimmed)
	} else {
		items, err = readLineItems(data, defaultCategory)
	}
	if err != nil {
		return nil, &model.InputError{Path: path, Err: err}
	}
	return dedupe(items), nil
}

func readJSONItems(data []byte) ([]Item, error) {
	var list idList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}

	var items []Item
	for _, category := range list.ArticlesID.Categories {
		var ids []json.RawMessage
		if err := json.Unmarshal(category.Items, &ids); err != nil {
			return nil, fmt.Errorf("category %q: ids must be an array", category.Name)
		}
		for _, raw := range ids {
			id, err := model.CoerceInt(raw)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", category.Name, err)
			}
			items = append(items, Item{Category: category.Name, ArticleID: id})
		}
	}
	return items, nil
}

func readLineItems(data []byte, category string) ([]Item, error) {
	var items []Item

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			if id, err = pipeline.ArticleID(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
		items = append(items, Item{Category: category, ArticleID: id})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return items, nil
}

func dedupe(items []Item) []Item {
	seen := make(map[int64]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item.ArticleID] {
			continue
		}
		seen[item.ArticleID] = true
		out = append(out, item)
	}
	return out
}
