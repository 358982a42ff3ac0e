package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/needscore/internal/model"
)

// Load reads and decodes a dataset document
func Load(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, &model.InputError{Path: path, Err: err}
	}

	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return Dataset{}, &model.InputError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	return d, nil
}

// LoadAll loads several datasets, failing on the first error
func LoadAll(paths []string) ([]Dataset, error) {
	out := make([]Dataset, 0, len(paths))
	for _, p := range paths {
		d, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
// Non-ASCII text is written as-is.
func WriteJSON(path string, v any) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
