package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/needscore/internal/dataset"
	"github.com/ppiankov/needscore/internal/model"
)

// mockAnnotator fails for ids in fail and records calls
type mockAnnotator struct {
	mu    sync.Mutex
	calls []int64
	fail  map[int64]bool
	delay time.Duration
}

func (m *mockAnnotator) AnnotateArticle(ctx context.Context, id int64) (*model.Annotation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, id)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.fail[id] {
		return nil, errors.New("gateway unavailable")
	}
	return &model.Annotation{
		ArticleID: id,
		Response:  model.Response{UserNeed: model.NeedUpdateMe, I1: 1, I3: 3, I4: 5},
	}, nil
}

func TestBatchProcessor_Process(t *testing.T) {
	annotator := &mockAnnotator{fail: map[int64]bool{3: true}}
	processor := NewBatchProcessor(annotator, 3, zerolog.Nop())

	var items []Item
	for i := int64(1); i <= 20; i++ {
		category := "thoi-su"
		if i%2 == 0 {
			category = "the-gioi"
		}
		items = append(items, Item{Category: category, ArticleID: i})
	}

	results := processor.Process(context.Background(), items)

	if len(results) != 20 {
		t.Fatalf("expected 20 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Item != items[i] {
			t.Errorf("result %d out of order: %+v", i, r.Item)
		}
	}
	if results[2].Error == nil {
		t.Error("expected article 3 to fail")
	}

	d, failed, err := BuildDataset(results)
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Item.ArticleID != 3 {
		t.Errorf("expected article 3 to be the only failure, got %v", failed)
	}
	if len(d.Categories) != 2 || d.Categories[0].Name != "thoi-su" {
		t.Fatalf("expected categories in first-seen order, got %+v", d.Categories)
	}

	ix, err := dataset.Flatten(d)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if len(ix) != 19 {
		t.Errorf("expected 19 annotated articles, got %d", len(ix))
	}
	if ix[4].Category != "the-gioi" {
		t.Errorf("expected article 4 under the-gioi, got %q", ix[4].Category)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnnotator{}, 2, zerolog.Nop())
	if results := processor.Process(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	annotator := &mockAnnotator{delay: time.Second}
	processor := NewBatchProcessor(annotator, 1, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	items := []Item{{"a", 1}, {"a", 2}, {"a", 3}}
	start := time.Now()
	results := processor.Process(ctx, items)

	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("expected cancellation to stop the batch quickly")
	}
	for _, r := range results {
		if r == nil || r.Error == nil {
			t.Fatalf("expected every result to carry an error, got %+v", r)
		}
	}
}

func TestReadItems_Lines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	content := "# thoi-su batch\n4817234\n\nhttps://vnexpress.net/some-slug-4817301.html\n4817234\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := ReadItems(path, "thoi-su")
	if err != nil {
		t.Fatalf("ReadItems failed: %v", err)
	}

	want := []Item{{"thoi-su", 4817234}, {"thoi-su", 4817301}}
	if len(items) != len(want) {
		t.Fatalf("expected %v, got %v", want, items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d: expected %v, got %v", i, want[i], items[i])
		}
	}
}

func TestReadItems_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	content := `{"articles_id": {"the-gioi": [3, "4"], "thoi-su": [1]}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := ReadItems(path, "ignored")
	if err != nil {
		t.Fatalf("ReadItems failed: %v", err)
	}

	want := []Item{{"the-gioi", 3}, {"the-gioi", 4}, {"thoi-su", 1}}
	if len(items) != len(want) {
		t.Fatalf("expected %v, got %v", want, items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d: expected %v, got %v", i, want[i], items[i])
		}
	}
}

func TestReadItems_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadItems(filepath.Join(dir, "missing.txt"), "x"); !model.IsInputError(err) {
		t.Errorf("expected input error for missing file, got %v", err)
	}

	bad := filepath.Join(dir, "bad.txt")
	_ = os.WriteFile(bad, []byte("not-an-id\n"), 0o644)
	if _, err := ReadItems(bad, "x"); !model.IsInputError(err) {
		t.Errorf("expected input error for bad line, got %v", err)
	}
}
