// Package observation turns a decoded provider response into the single
// tabular row stored per run.
package observation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Column is one named scalar cell. Values are string, float64 or bool.
type Column struct {
	Name  string
	Value any
}

// Row is one flat observation record with deterministically ordered columns.
type Row struct {
	Columns []Column
}

// Value returns the named column's value.
func (r Row) Value(name string) (any, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// TransformError indicates the response shape is missing an expected
// top-level section. Any well-formed document transforms without error.
type TransformError struct {
	Section string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform: response missing %s section", e.Section)
}

// Flatten produces one row from the decoded document. Leaves under
// "current" keep their key, nested objects concatenate parent and child
// keys with "_", and every leaf under "location" is prefixed "location_"
// so the two sections cannot collide. Lists are joined into one string
// column. Column order is sorted by name.
func Flatten(doc map[string]any) (Row, error) {
	current, ok := doc["current"].(map[string]any)
	if !ok {
		return Row{}, &TransformError{Section: "current"}
	}
	location, ok := doc["location"].(map[string]any)
	if !ok {
		return Row{}, &TransformError{Section: "location"}
	}

	cells := make(map[string]any)
	flattenInto("", current, cells)
	flattenInto("location", location, cells)

	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)

	row := Row{Columns: make([]Column, 0, len(names))}
	for _, name := range names {
		row.Columns = append(row.Columns, Column{Name: name, Value: cells[name]})
	}
	return row, nil
}

func flattenInto(prefix string, section map[string]any, out map[string]any) {
	for key, value := range section {
		name := key
		if prefix != "" {
			name = prefix + "_" + key
		}

		switch v := value.(type) {
		case map[string]any:
			flattenInto(name, v, out)
		case []any:
			out[name] = joinList(v)
		case string, float64, bool:
			out[name] = v
		case nil:
			// JSON null carries no value; drop the column.
		default:
			out[name] = fmt.Sprint(v)
		}
	}
}

func joinList(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, scalarString(item))
	}
	return strings.Join(parts, ", ")
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
