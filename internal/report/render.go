package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ppiankov/needscore/internal/model"
)

// FormatScore renders "value / max | pct%"
func FormatScore(value, maximum float64) string {
	percent := 0.0
	if maximum != 0 {
		percent = value / maximum * 100
	}
	return fmt.Sprintf("%.3f / %s | %.0f%%", value, strconv.FormatFloat(maximum, 'g', -1, 64), percent)
}

// FormatCase renders one result on a single line
func FormatCase(r model.ArticleResult) string {
	m, g := r.ModelResponse, r.GroundTruth
	return fmt.Sprintf("%d: final_score=%.3f | user_need model=%s, human=%s | impacts model={I1: %d, I3: %d, I4: %d}, human={I1: %d, I3: %d, I4: %d}",
		r.ArticleID, r.Final, m.UserNeed, g.UserNeed,
		m.I1, m.I3, m.I4, g.I1, g.I3, g.I4)
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// WriteSummary prints the evaluation counts and average scores
func WriteSummary(w io.Writer, s model.Summary) {
	fmt.Fprintf(w, "Evaluated articles: %d\n", s.Evaluated)
	if len(s.MissingInPredictions) > 0 {
		fmt.Fprintf(w, "Missing in predictions: %s\n", formatIDs(s.MissingInPredictions))
	}
	if len(s.MissingInGroundTruth) > 0 {
		fmt.Fprintf(w, "Missing in ground truth: %s\n", formatIDs(s.MissingInGroundTruth))
	}

	a := s.Averages
	fmt.Fprintln(w, "\nAverage scores:")
	fmt.Fprintf(w, "  user_need      : %s\n", FormatScore(a.UserNeed, model.MaxUserNeedScore))
	fmt.Fprintf(w, "  I1             : %s\n", FormatScore(a.I1, model.MaxOrdinalScore))
	fmt.Fprintf(w, "  I3             : %s\n", FormatScore(a.I3, model.MaxOrdinalScore))
	fmt.Fprintf(w, "  I4             : %s\n", FormatScore(a.I4, model.MaxOrdinalScore))
	fmt.Fprintf(w, "  score_emotion  : %s\n", FormatScore(a.Emotion, model.MaxEmotionScore))
	fmt.Fprintf(w, "  final_score    : %s\n", FormatScore(a.Final, model.MaxFinalScore))
}

// WriteAnalysis prints the best and worst cases, common pairings and
// the confusion matrices as aligned tables
func WriteAnalysis(w io.Writer, a *Analysis, top int) {
	s := a.Summary
	fmt.Fprintf(w, "Evaluated articles: %d\n", s.Evaluated)
	fmt.Fprintf(w, "Missing in predictions: %s\n", formatIDs(s.MissingInPredictions))
	fmt.Fprintf(w, "Missing in ground truth: %s\n", formatIDs(s.MissingInGroundTruth))

	fmt.Fprintf(w, "\nTop %d matches:\n", top)
	for _, r := range a.Best {
		fmt.Fprintf(w, "  - %s\n", FormatCase(r))
	}

	fmt.Fprintf(w, "\nWorst %d mismatches:\n", top)
	for _, r := range a.Worst {
		fmt.Fprintf(w, "  - %s\n", FormatCase(r))
	}

	fmt.Fprintln(w, "\nMost common user_need pairings (model, human):")
	for _, p := range a.Pairs {
		fmt.Fprintf(w, "  - %s -> %s: %d\n", p.Model, p.Human, p.Count)
	}

	for _, m := range a.Matrices {
		fmt.Fprintf(w, "\n%s (rows: human, columns: model)\n", m.Title)
		for _, line := range alignTable(matrixRows(m)) {
			fmt.Fprintln(w, line)
		}
	}
}

// WriteDistribution prints per-field value counts and payload combinations
func WriteDistribution(w io.Writer, d *Distribution) {
	fmt.Fprintf(w, "Total responses: %d\n", d.Total)
	for _, name := range d.FieldNames() {
		fmt.Fprintf(w, "\n%s:\n", name)
		rows := [][]string{{"value", "count"}}
		for _, vc := range d.Fields[name] {
			rows = append(rows, []string{vc.Value, strconv.Itoa(vc.Count)})
		}
		for _, line := range alignTable(rows) {
			fmt.Fprintln(w, "  "+line)
		}
	}

	fmt.Fprintln(w, "\nResponse combinations:")
	for _, vc := range d.Combos {
		fmt.Fprintf(w, "  %d x %s\n", vc.Count, vc.Value)
	}
}

// MatrixMarkdown renders a matrix as a Markdown document
func MatrixMarkdown(m Matrix) string {
	var sb strings.Builder
	sb.WriteString("# " + m.Title + "\n\n")
	sb.WriteString("Rows are human labels, columns are model labels.\n\n")
	for _, line := range alignTable(matrixRows(m)) {
		sb.WriteString(line + "\n")
	}
	fmt.Fprintf(&sb, "\nAgreement: %d / %d\n", m.Diagonal(), m.Total())
	return sb.String()
}

// WriteMatrixCSV writes the matrix with a header row and a label column
func WriteMatrixCSV(w io.Writer, m Matrix) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(matrixRows(m)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// SaveMatrices writes <name>_confusion.md and <name>_confusion.csv for each
// matrix under dir and returns the written paths
func SaveMatrices(dir string, matrices []Matrix) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var paths []string
	for _, m := range matrices {
		base := filepath.Join(dir, m.Name+"_confusion")

		mdPath := base + ".md"
		if err := os.WriteFile(mdPath, []byte(MatrixMarkdown(m)), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", mdPath, err)
		}
		paths = append(paths, mdPath)

		csvPath := base + ".csv"
		if err := writeFile(csvPath, func(w io.Writer) error { return WriteMatrixCSV(w, m) }); err != nil {
			return paths, err
		}
		paths = append(paths, csvPath)
	}
	return paths, nil
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return fn(f)
}

func matrixRows(m Matrix) [][]string {
	header := append([]string{"human \\ model"}, m.Labels...)
	rows := [][]string{header}
	for i, label := range m.Labels {
		row := []string{label}
		for _, c := range m.Counts[i] {
			row = append(row, strconv.Itoa(c))
		}
		rows = append(rows, row)
	}
	return rows
}

// alignTable renders rows as a pipe table. The first row is the header.
// Widths are display widths so wide runes stay aligned.
func alignTable(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}

	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	widths := make([]int, colCount)
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	line := func(cells []string, sep bool) string {
		var sb strings.Builder
		sb.WriteString("|")
		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")
			if sep {
				sb.WriteString(strings.Repeat("-", widths[j]))
			} else {
				content := ""
				if j < len(cells) {
					content = cells[j]
				}
				sb.WriteString(runewidth.FillRight(content, widths[j]))
			}
			sb.WriteString(" |")
		}
		return sb.String()
	}

	out := []string{line(rows[0], false), line(nil, true)}
	for _, row := range rows[1:] {
		out = append(out, line(row, false))
	}
	return out
}
