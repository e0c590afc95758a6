package view

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/pilotdeck/pilotdeck/internal/table"
)

// ColumnView is a rendered column header.
type ColumnView struct {
	Key      string
	Header   string
	Sortable bool
	// Dir is "", "asc" or "desc" for the current sort order.
	Dir string
	// ToggleURL applies the next step of the sort cycle for this column.
	ToggleURL string
}

// FacetOptionView is one facet choice with its selection state.
type FacetOptionView struct {
	Label    string
	Value    string
	Selected bool
}

// FacetView is a rendered faceted filter.
type FacetView struct {
	Key     string
	Title   string
	Options []FacetOptionView
}

// RowView is one rendered table row.
type RowView struct {
	ID    string
	Cells []string
}

// TableView is the generic view model consumed by the data-table partial.
type TableView struct {
	BasePath   string
	Query      string
	Columns    []ColumnView
	Rows       []RowView
	Facets     []FacetView
	CanReset   bool
	ResetURL   string
	Empty      bool
	ColumnSpan int
	PageIndex  int
	PageCount  int
	PageSize   int
	PageSizes  []int
	Filtered   int
	Total      int
	PrevURL    string
	NextURL    string
	// Actions enables the per-row edit/delete controls.
	Actions bool
}

// BuildTableView flattens a table page into the generic view model. The id
// func names each row for action forms; pass nil for read-only tables.
func BuildTableView[T any](basePath string, tbl *table.Table[T], id func(T) string) TableView {
	page := tbl.Page()
	state := tbl.State()

	sortKey, sortDir := "", ""
	if len(state.Sorting) > 0 {
		sortKey = state.Sorting[0].Key
		sortDir = "asc"
		if state.Sorting[0].Desc {
			sortDir = "desc"
		}
	}

	v := TableView{
		BasePath:   basePath,
		Query:      state.Global,
		CanReset:   page.CanReset,
		Empty:      page.Empty,
		ColumnSpan: page.ColumnSpan,
		PageIndex:  page.PageIndex,
		PageCount:  page.PageCount,
		PageSize:   page.PageSize,
		PageSizes:  table.PageSizes,
		Filtered:   page.Filtered,
		Total:      page.Total,
		Actions:    id != nil,
	}
	if v.Actions {
		v.ColumnSpan++
	}

	for _, col := range tbl.Columns() {
		cv := ColumnView{Key: col.Key, Header: col.Header, Sortable: col.Sortable}
		if col.Key == sortKey {
			cv.Dir = sortDir
		}
		cv.ToggleURL = buildURL(basePath, state, withSortCycle(col.Key, sortKey, sortDir))
		v.Columns = append(v.Columns, cv)
	}

	for _, facet := range tbl.Facets() {
		fv := FacetView{Key: facet.Key, Title: facet.Title}
		selected := state.Filters[facet.Key]
		for _, opt := range facet.Options {
			fv.Options = append(fv.Options, FacetOptionView{
				Label:    opt.Label,
				Value:    opt.Value,
				Selected: contains(selected, opt.Value),
			})
		}
		v.Facets = append(v.Facets, fv)
	}

	for _, row := range page.Rows {
		rv := RowView{Cells: make([]string, 0, len(v.Columns))}
		if id != nil {
			rv.ID = id(row)
		}
		for _, col := range tbl.Columns() {
			rv.Cells = append(rv.Cells, tbl.CellText(col.Key, row))
		}
		v.Rows = append(v.Rows, rv)
	}

	v.ResetURL = buildURL(basePath, state, dropFilters)
	if page.PageIndex > 0 {
		// The page query parameter is 1-based.
		v.PrevURL = buildURL(basePath, state, withPage(page.PageIndex))
	}
	if page.PageIndex+1 < page.PageCount {
		v.NextURL = buildURL(basePath, state, withPage(page.PageIndex+2))
	}
	return v
}

type urlOption func(url.Values)

func withPage(page int) urlOption {
	return func(values url.Values) {
		values.Set("page", strconv.Itoa(page))
	}
}

func withSortCycle(key, currentKey, currentDir string) urlOption {
	return func(values url.Values) {
		values.Del("sort")
		values.Del("dir")
		if key != currentKey {
			values.Set("sort", key)
			values.Set("dir", "asc")
			return
		}
		switch currentDir {
		case "asc":
			values.Set("sort", key)
			values.Set("dir", "desc")
		case "desc":
			// cycle back to unsorted
		default:
			values.Set("sort", key)
			values.Set("dir", "asc")
		}
	}
}

func dropFilters(values url.Values) {
	for key := range values {
		switch key {
		case "q", "sort", "dir", "size":
		default:
			values.Del(key)
		}
	}
}

func buildURL(basePath string, state table.State, opts ...urlOption) string {
	values := url.Values{}
	if state.Global != "" {
		values.Set("q", state.Global)
	}
	for key, selected := range state.Filters {
		for _, v := range selected {
			values.Add(key, v)
		}
	}
	if len(state.Sorting) > 0 {
		values.Set("sort", state.Sorting[0].Key)
		if state.Sorting[0].Desc {
			values.Set("dir", "desc")
		} else {
			values.Set("dir", "asc")
		}
	}
	if state.PageSize != table.DefaultPageSize {
		values.Set("size", strconv.Itoa(state.PageSize))
	}
	for _, opt := range opts {
		opt(values)
	}
	if len(values) == 0 {
		return basePath
	}
	return fmt.Sprintf("%s?%s", basePath, values.Encode())
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
