// Package table is a generic, client-local dataset engine: global text
// search, per-column faceted filtering, sorting and pagination over an
// immutable row slice. It backs every list page in the shell.
package table

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PageSizes is the fixed menu of page-size choices.
var PageSizes = []int{10, 20, 30, 40, 50}

// DefaultPageSize is used until the caller picks another size.
const DefaultPageSize = 10

// Column describes one table column.
type Column[T any] struct {
	Key    string
	Header string
	// Value extracts the raw cell value used for filtering and sorting.
	Value func(T) any
	// Cell optionally overrides how the value is rendered. When nil the
	// stringified Value is used.
	Cell     func(T) string
	Sortable bool
	// MultiSort opts this column into participating in multi-column sorts.
	// Default is single-column: toggling a sort replaces the previous one.
	MultiSort bool
}

// FacetOption is one enumerated choice of a faceted filter.
type FacetOption struct {
	Label string
	Value string
}

// Facet narrows rows to those whose column value is in the selected set.
type Facet struct {
	Key     string
	Title   string
	Options []FacetOption
}

// SortEntry is one (column, direction) pair of the sort order.
type SortEntry struct {
	Key  string
	Desc bool
}

// State is the recomputable table state.
type State struct {
	Sorting   []SortEntry
	Filters   map[string][]string
	Global    string
	PageIndex int
	PageSize  int
}

// Page is the view model produced for the current state.
type Page[T any] struct {
	Rows      []T
	PageIndex int
	PageSize  int
	PageCount int
	Total     int
	Filtered  int
	// CanReset is true when at least one column filter is active; the reset
	// affordance clears column filters only, never the global search.
	CanReset bool
	// Empty marks the single full-width "No results" placeholder row.
	Empty      bool
	ColumnSpan int
}

// Table binds rows, columns and facets to a State.
type Table[T any] struct {
	rows    []T
	columns []Column[T]
	facets  []Facet
	state   State
}

// New builds a table over rows with DefaultPageSize.
func New[T any](rows []T, columns []Column[T], facets ...Facet) *Table[T] {
	return &Table[T]{
		rows:    rows,
		columns: columns,
		facets:  facets,
		state: State{
			Filters:  make(map[string][]string),
			PageSize: DefaultPageSize,
		},
	}
}

// Facets returns the configured facet descriptors.
func (t *Table[T]) Facets() []Facet {
	return t.facets
}

// Columns returns the configured column descriptors.
func (t *Table[T]) Columns() []Column[T] {
	return t.columns
}

// State returns a copy of the current state.
func (t *Table[T]) State() State {
	st := t.state
	st.Sorting = append([]SortEntry(nil), t.state.Sorting...)
	st.Filters = make(map[string][]string, len(t.state.Filters))
	for k, v := range t.state.Filters {
		st.Filters[k] = append([]string(nil), v...)
	}
	return st
}

// SetRows replaces the dataset. The page index is clamped so a shrunken
// dataset never leaves the caller on an out-of-range page.
func (t *Table[T]) SetRows(rows []T) {
	t.rows = rows
	t.clampPage()
}

// SetGlobalFilter sets the free-text query and resets to the first page.
func (t *Table[T]) SetGlobalFilter(q string) {
	t.state.Global = q
	t.state.PageIndex = 0
}

// SetFacetSelection replaces the selected option set for one facet key and
// resets to the first page. An empty selection removes the constraint.
func (t *Table[T]) SetFacetSelection(key string, values []string) {
	if len(values) == 0 {
		delete(t.state.Filters, key)
	} else {
		t.state.Filters[key] = append([]string(nil), values...)
	}
	t.state.PageIndex = 0
}

// ResetColumnFilters clears every column filter in one action. The global
// search is deliberately left untouched.
func (t *Table[T]) ResetColumnFilters() {
	t.state.Filters = make(map[string][]string)
	t.state.PageIndex = 0
}

// ToggleSort cycles the column through unsorted, ascending and descending.
// Columns not opted into MultiSort replace the whole sort order.
func (t *Table[T]) ToggleSort(key string) {
	col := t.column(key)
	if col == nil || !col.Sortable {
		return
	}
	for i, entry := range t.state.Sorting {
		if entry.Key != key {
			continue
		}
		if !entry.Desc {
			t.state.Sorting[i].Desc = true
		} else {
			t.state.Sorting = append(t.state.Sorting[:i], t.state.Sorting[i+1:]...)
		}
		return
	}
	entry := SortEntry{Key: key}
	if col.MultiSort {
		t.state.Sorting = append(t.state.Sorting, entry)
	} else {
		t.state.Sorting = []SortEntry{entry}
	}
}

// SetSort sets an absolute sort, used when the order arrives via query
// parameters rather than header clicks.
func (t *Table[T]) SetSort(key string, desc bool) {
	col := t.column(key)
	if col == nil || !col.Sortable {
		t.state.Sorting = nil
		return
	}
	t.state.Sorting = []SortEntry{{Key: key, Desc: desc}}
}

// SetPageSize switches to one of the fixed page-size choices; other values
// are ignored.
func (t *Table[T]) SetPageSize(n int) {
	for _, allowed := range PageSizes {
		if n == allowed {
			t.state.PageSize = n
			t.clampPage()
			return
		}
	}
}

// SetPageIndex moves to a page, clamped to the valid range.
func (t *Table[T]) SetPageIndex(i int) {
	if i < 0 {
		i = 0
	}
	t.state.PageIndex = i
	t.clampPage()
}

// ApplyQuery maps request query parameters onto the table state:
// q (global search), <facet key> (repeatable facet values), sort and dir,
// page (1-based) and size.
func (t *Table[T]) ApplyQuery(values url.Values) {
	if values.Has("q") {
		t.SetGlobalFilter(values.Get("q"))
	}
	for _, facet := range t.facets {
		if selected, ok := values[facet.Key]; ok {
			t.SetFacetSelection(facet.Key, nonEmpty(selected))
		}
	}
	if key := values.Get("sort"); key != "" {
		t.SetSort(key, values.Get("dir") == "desc")
	}
	if size, err := strconv.Atoi(values.Get("size")); err == nil {
		t.SetPageSize(size)
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		t.SetPageIndex(page - 1)
	}
}

// Rows returns the full filtered, sorted row set for the current state.
func (t *Table[T]) Rows() []T {
	return t.sorted(t.filtered())
}

// Page recomputes the view model for the current state. The computation is
// synchronous and eager; the engine holds no derived caches.
func (t *Table[T]) Page() Page[T] {
	filtered := t.sorted(t.filtered())
	t.clampPageFor(len(filtered))

	pageCount := pageCount(len(filtered), t.state.PageSize)
	start := t.state.PageIndex * t.state.PageSize
	end := start + t.state.PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page[T]{
		Rows:       filtered[start:end],
		PageIndex:  t.state.PageIndex,
		PageSize:   t.state.PageSize,
		PageCount:  pageCount,
		Total:      len(t.rows),
		Filtered:   len(filtered),
		CanReset:   len(t.state.Filters) > 0,
		Empty:      len(filtered) == 0,
		ColumnSpan: len(t.columns),
	}
}

// CellText renders the cell for a row and column key.
func (t *Table[T]) CellText(key string, row T) string {
	col := t.column(key)
	if col == nil {
		return ""
	}
	return cellText(*col, row)
}

func (t *Table[T]) filtered() []T {
	out := make([]T, 0, len(t.rows))
	query := strings.ToLower(strings.TrimSpace(t.state.Global))
	for _, row := range t.rows {
		if query != "" && !t.matchesGlobal(row, query) {
			continue
		}
		if !t.matchesFacets(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// matchesGlobal implements the externally observable search contract: the
// row matches when the query is a case-insensitive substring of any visible
// cell's stringified value.
func (t *Table[T]) matchesGlobal(row T, query string) bool {
	for _, col := range t.columns {
		if strings.Contains(strings.ToLower(cellText(col, row)), query) {
			return true
		}
	}
	return false
}

// matchesFacets ANDs every active facet: the row's value at the facet key
// must be a member of the selected option set.
func (t *Table[T]) matchesFacets(row T) bool {
	for key, selected := range t.state.Filters {
		col := t.column(key)
		if col == nil || col.Value == nil {
			return false
		}
		value := fmt.Sprint(col.Value(row))
		found := false
		for _, want := range selected {
			if value == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (t *Table[T]) sorted(rows []T) []T {
	if len(t.state.Sorting) == 0 {
		return rows
	}
	entries := make([]struct {
		col  Column[T]
		desc bool
	}, 0, len(t.state.Sorting))
	for _, s := range t.state.Sorting {
		if col := t.column(s.Key); col != nil {
			entries = append(entries, struct {
				col  Column[T]
				desc bool
			}{*col, s.Desc})
		}
	}
	if len(entries) == 0 {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, e := range entries {
			c := compareValues(columnValue(e.col, rows[i]), columnValue(e.col, rows[j]))
			if c == 0 {
				continue
			}
			if e.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return rows
}

func (t *Table[T]) column(key string) *Column[T] {
	for i := range t.columns {
		if t.columns[i].Key == key {
			return &t.columns[i]
		}
	}
	return nil
}

func (t *Table[T]) clampPage() {
	t.clampPageFor(len(t.filtered()))
}

func (t *Table[T]) clampPageFor(filtered int) {
	count := pageCount(filtered, t.state.PageSize)
	if count == 0 {
		t.state.PageIndex = 0
		return
	}
	if t.state.PageIndex >= count {
		t.state.PageIndex = count - 1
	}
	if t.state.PageIndex < 0 {
		t.state.PageIndex = 0
	}
}

func pageCount(filtered, pageSize int) int {
	if pageSize <= 0 || filtered == 0 {
		return 0
	}
	return (filtered + pageSize - 1) / pageSize
}

func columnValue[T any](col Column[T], row T) any {
	if col.Value != nil {
		return col.Value(row)
	}
	if col.Cell != nil {
		return col.Cell(row)
	}
	return nil
}

func cellText[T any](col Column[T], row T) string {
	if col.Cell != nil {
		return col.Cell(row)
	}
	if col.Value != nil {
		return fmt.Sprint(col.Value(row))
	}
	return ""
}

func compareValues(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
