package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/needscore/internal/dataset"
)

// ValueCount is how often a value appeared
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Distribution summarizes the raw response values of one dataset, valid or not
type Distribution struct {
	Total  int                     `json:"total"`
	Fields map[string][]ValueCount `json:"fields"` // most common first
	Combos []ValueCount            `json:"combos"` // full payloads, most common first
}

// FieldNames returns the observed field names sorted
func (d *Distribution) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Distribute counts response values per field and per full payload
func Distribute(d dataset.Dataset) *Distribution {
	fieldCounts := make(map[string]*counter)
	combos := newCounter()
	total := 0

	for _, resp := range dataset.Responses(d) {
		total++

		keys := make([]string, 0, len(resp))
		for k := range resp {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v := renderValue(resp[k])
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))

			c, ok := fieldCounts[k]
			if !ok {
				c = newCounter()
				fieldCounts[k] = c
			}
			c.add(plainValue(resp[k]))
		}
		combos.add("{" + strings.Join(parts, ", ") + "}")
	}

	out := &Distribution{
		Total:  total,
		Fields: make(map[string][]ValueCount, len(fieldCounts)),
		Combos: combos.mostCommon(),
	}
	for k, c := range fieldCounts {
		out.Fields[k] = c.mostCommon()
	}
	return out
}

type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(v string) {
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *counter) mostCommon() []ValueCount {
	out := make([]ValueCount, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, ValueCount{Value: v, Count: c.counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// renderValue keeps JSON quoting so strings and numbers stay distinguishable
func renderValue(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func plainValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return renderValue(raw)
}
