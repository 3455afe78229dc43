package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Table is tabular output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabler is implemented by results with a preferred table layout.
type Tabler interface {
	Table() *Table
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table with aligned columns.
func (t *Table) Render(w io.Writer) error {
	return t.render(w, false)
}

func (t *Table) render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// TableFormatter writes tables.
type TableFormatter struct {
	NoHeaders bool
}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	switch d := data.(type) {
	case *Table:
		return d.render(w, f.NoHeaders)
	case Table:
		return d.render(w, f.NoHeaders)
	case Tabler:
		return d.Table().render(w, f.NoHeaders)
	}

	v, err := normalize(data)
	if err != nil {
		return err
	}
	return genericTable(v).render(w, f.NoHeaders)
}

func genericTable(v any) *Table {
	switch val := v.(type) {
	case map[string]any:
		t := &Table{Headers: []string{"FIELD", "VALUE"}}
		for _, k := range sortedKeys(val) {
			t.AddRow(k, Cell(val[k]))
		}
		return t
	case []any:
		if len(val) == 0 {
			return &Table{}
		}
		first, ok := val[0].(map[string]any)
		if !ok {
			t := &Table{Headers: []string{"VALUE"}}
			for _, item := range val {
				t.AddRow(Cell(item))
			}
			return t
		}
		keys := sortedKeys(first)
		t := &Table{}
		for _, k := range keys {
			t.Headers = append(t.Headers, strings.ToUpper(k))
		}
		for _, item := range val {
			obj, _ := item.(map[string]any)
			row := make([]string, len(keys))
			for i, k := range keys {
				row[i] = Cell(obj[k])
			}
			t.Rows = append(t.Rows, row)
		}
		return t
	default:
		return &Table{Headers: []string{"VALUE"}, Rows: [][]string{{Cell(val)}}}
	}
}

// Cell formats one generic JSON value for a table cell.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		if len(val) == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", len(val))
	case map[string]any:
		if len(val) == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", len(val))
	default:
		return fmt.Sprint(val)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
