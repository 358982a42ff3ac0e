package dataset

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ppiankov/needscore/internal/model"
)

// Record is one flattened article
type Record struct {
	ArticleID int64
	Category  string
	Response  model.Response
	Raw       json.RawMessage // the original item, passthrough for reporting
}

// Index maps article ids to records
type Index map[int64]Record

// IDs returns the indexed article ids in ascending order
func (ix Index) IDs() []int64 {
	ids := make([]int64, 0, len(ix))
	for id := range ix {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Flatten walks every category and indexes its items by article_id.
//
// Non-array categories, non-object items and items without article_id or
// response are skipped. A repeated article_id is fatal, as are an
// article_id that is not an integer and a response that fails to decode or
// validate. Errors carry the category and article id.
func Flatten(d Dataset) (Index, error) {
	index := make(Index)

	for _, category := range d.Categories {
		var items []json.RawMessage
		if err := json.Unmarshal(category.Items, &items); err != nil {
			continue
		}

		for pos, raw := range items {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
				continue
			}

			rawID, hasID := fields["article_id"]
			rawResp, hasResp := fields["response"]
			if !hasID || !hasResp {
				continue
			}

			id, err := model.CoerceInt(rawID)
			if err != nil {
				return nil, fmt.Errorf("category %q item %d: %w: article_id: %w", category.Name, pos, model.ErrMalformedRecord, err)
			}

			if prev, dup := index[id]; dup {
				return nil, &model.DuplicateArticleIDError{
					ID:             id,
					FirstCategory:  prev.Category,
					SecondCategory: category.Name,
				}
			}

			var resp model.Response
			if err := json.Unmarshal(rawResp, &resp); err != nil {
				return nil, fmt.Errorf("article %d (category %q): %w: response: %w", id, category.Name, model.ErrMalformedRecord, err)
			}
			if err := resp.Validate(); err != nil {
				return nil, fmt.Errorf("article %d (category %q): %w", id, category.Name, err)
			}

			index[id] = Record{
				ArticleID: id,
				Category:  category.Name,
				Response:  resp,
				Raw:       raw,
			}
		}
	}

	return index, nil
}

// Responses returns every decodable response of a dataset in document
// order, without validation. Used for value distributions of raw model dumps.
func Responses(d Dataset) []map[string]json.RawMessage {
	var out []map[string]json.RawMessage
	for _, category := range d.Categories {
		var items []json.RawMessage
		if err := json.Unmarshal(category.Items, &items); err != nil {
			continue
		}
		for _, raw := range items {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(raw, &fields); err != nil {
				continue
			}
			var resp map[string]json.RawMessage
			if err := json.Unmarshal(fields["response"], &resp); err != nil || resp == nil {
				continue
			}
			out = append(out, resp)
		}
	}
	return out
}
