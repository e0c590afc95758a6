package table_test

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pilotdeck/pilotdeck/internal/table"
)

type row struct {
	ID     int
	Name   string
	Status string
	Price  int
}

func columns() []table.Column[row] {
	return []table.Column[row]{
		{Key: "name", Header: "Name", Value: func(r row) any { return r.Name }, Sortable: true},
		{Key: "status", Header: "Status", Value: func(r row) any { return r.Status }, Sortable: true},
		{Key: "price", Header: "Price", Value: func(r row) any { return r.Price }, Sortable: true},
	}
}

func statusFacet() table.Facet {
	return table.Facet{Key: "status", Title: "Status", Options: []table.FacetOption{
		{Label: "Active", Value: "active"},
		{Label: "Draft", Value: "draft"},
		{Label: "Archived", Value: "archived"},
	}}
}

func dataset() []row {
	// 10 products; 4 active, of which 2 match "pro".
	return []row{
		{1, "Pro Keyboard", "active", 120},
		{2, "Mouse", "active", 40},
		{3, "Pro Monitor", "active", 300},
		{4, "Webcam", "active", 80},
		{5, "Pro Hub", "draft", 60},
		{6, "Desk", "draft", 150},
		{7, "Chair", "archived", 200},
		{8, "Lamp", "archived", 25},
		{9, "Cable", "draft", 5},
		{10, "Stand", "archived", 30},
	}
}

func TestGlobalFilterIsCaseInsensitiveSubstring(t *testing.T) {
	tbl := table.New(dataset(), columns())
	tbl.SetGlobalFilter("PRO")

	page := tbl.Page()
	require.Equal(t, 3, page.Filtered)
	for _, r := range page.Rows {
		require.True(t, strings.Contains(strings.ToLower(r.Name), "pro"))
	}
}

func TestGlobalFilterMatchesAnyCell(t *testing.T) {
	tbl := table.New(dataset(), columns())
	tbl.SetGlobalFilter("archived")
	require.Equal(t, 3, tbl.Page().Filtered)

	// Numeric cells participate through their stringified value.
	tbl.SetGlobalFilter("300")
	page := tbl.Page()
	require.Equal(t, 1, page.Filtered)
	require.Equal(t, "Pro Monitor", page.Rows[0].Name)
}

func TestFacetNarrowsToSelectedSet(t *testing.T) {
	tbl := table.New(dataset(), columns(), statusFacet())
	tbl.SetFacetSelection("status", []string{"active"})
	require.Equal(t, 4, tbl.Page().Filtered)

	tbl.SetFacetSelection("status", []string{"active", "draft"})
	require.Equal(t, 7, tbl.Page().Filtered)

	// Empty selection removes the constraint.
	tbl.SetFacetSelection("status", nil)
	require.Equal(t, 10, tbl.Page().Filtered)
}

func TestFacetAndGlobalFilterIntersect(t *testing.T) {
	tbl := table.New(dataset(), columns(), statusFacet())
	tbl.SetFacetSelection("status", []string{"active"})
	tbl.SetGlobalFilter("pro")

	page := tbl.Page()
	require.Equal(t, 2, page.Filtered)
	names := []string{page.Rows[0].Name, page.Rows[1].Name}
	require.ElementsMatch(t, []string{"Pro Keyboard", "Pro Monitor"}, names)
	require.True(t, page.CanReset)
}

func TestResetClearsFacetsNotGlobalSearch(t *testing.T) {
	tbl := table.New(dataset(), columns(), statusFacet())
	tbl.SetFacetSelection("status", []string{"active"})
	tbl.SetGlobalFilter("pro")

	tbl.ResetColumnFilters()
	page := tbl.Page()
	require.False(t, page.CanReset)
	require.Equal(t, "pro", tbl.State().Global)
	require.Equal(t, 3, page.Filtered)
}

func TestSortCycleSingleColumn(t *testing.T) {
	tbl := table.New(dataset(), columns())

	tbl.ToggleSort("price")
	require.Equal(t, []table.SortEntry{{Key: "price"}}, tbl.State().Sorting)
	require.Equal(t, 5, tbl.Page().Rows[0].Price)

	tbl.ToggleSort("price")
	require.Equal(t, []table.SortEntry{{Key: "price", Desc: true}}, tbl.State().Sorting)
	require.Equal(t, 300, tbl.Page().Rows[0].Price)

	tbl.ToggleSort("price")
	require.Empty(t, tbl.State().Sorting)
}

func TestSortReplacesPreviousColumnByDefault(t *testing.T) {
	tbl := table.New(dataset(), columns())
	tbl.ToggleSort("name")
	tbl.ToggleSort("price")
	require.Equal(t, []table.SortEntry{{Key: "price"}}, tbl.State().Sorting)
}

func TestMultiSortOptIn(t *testing.T) {
	cols := columns()
	cols[1].MultiSort = true
	cols[2].MultiSort = true
	tbl := table.New(dataset(), cols)

	tbl.ToggleSort("status")
	tbl.ToggleSort("price")
	require.Equal(t, []table.SortEntry{{Key: "status"}, {Key: "price"}}, tbl.State().Sorting)

	rows := tbl.Rows()
	require.Equal(t, "active", rows[0].Status)
	require.Equal(t, 40, rows[0].Price)
}

func TestUnsortableColumnIgnored(t *testing.T) {
	cols := columns()
	cols[0].Sortable = false
	tbl := table.New(dataset(), cols)
	tbl.ToggleSort("name")
	require.Empty(t, tbl.State().Sorting)
}

func TestPageCountAndClamping(t *testing.T) {
	rows := make([]row, 25)
	for i := range rows {
		rows[i] = row{ID: i, Name: fmt.Sprintf("Item %02d", i), Status: "active", Price: i}
	}
	tbl := table.New(rows, columns(), statusFacet())

	page := tbl.Page()
	require.Equal(t, 3, page.PageCount) // ceil(25/10)

	tbl.SetPageIndex(2)
	require.Equal(t, 2, tbl.Page().PageIndex)
	require.Len(t, tbl.Page().Rows, 5)

	// Shrinking the filtered set clamps the page index.
	tbl.SetGlobalFilter("Item 0")
	page = tbl.Page()
	require.Equal(t, 0, page.PageIndex)

	tbl.SetGlobalFilter("")
	tbl.SetPageIndex(2)
	tbl.SetRows(rows[:8])
	page = tbl.Page()
	require.Equal(t, 0, page.PageIndex)
	require.Equal(t, 1, page.PageCount)
}

func TestPageSizeMenu(t *testing.T) {
	rows := make([]row, 45)
	for i := range rows {
		rows[i] = row{ID: i, Name: fmt.Sprintf("Item %d", i), Status: "active", Price: i}
	}
	tbl := table.New(rows, columns())

	tbl.SetPageSize(20)
	require.Equal(t, 3, tbl.Page().PageCount) // ceil(45/20)

	// Values outside the fixed menu are ignored.
	tbl.SetPageSize(7)
	require.Equal(t, 20, tbl.Page().PageSize)
}

func TestEmptyResultMarker(t *testing.T) {
	tbl := table.New(dataset(), columns())
	tbl.SetGlobalFilter("no such thing")
	page := tbl.Page()
	require.True(t, page.Empty)
	require.Empty(t, page.Rows)
	require.Equal(t, 0, page.PageCount)
	require.Equal(t, 0, page.PageIndex)
	require.Equal(t, 3, page.ColumnSpan)
}

func TestFiltersResetPageIndex(t *testing.T) {
	rows := make([]row, 30)
	for i := range rows {
		rows[i] = row{ID: i, Name: fmt.Sprintf("Item %d", i), Status: "active", Price: i}
	}
	tbl := table.New(rows, columns(), statusFacet())
	tbl.SetPageIndex(2)

	tbl.SetGlobalFilter("Item")
	require.Equal(t, 0, tbl.State().PageIndex)

	tbl.SetPageIndex(2)
	tbl.SetFacetSelection("status", []string{"active"})
	require.Equal(t, 0, tbl.State().PageIndex)
}

func TestApplyQuery(t *testing.T) {
	tbl := table.New(dataset(), columns(), statusFacet())
	values := url.Values{}
	values.Set("q", "pro")
	values.Add("status", "active")
	values.Set("sort", "price")
	values.Set("dir", "desc")
	values.Set("size", "20")
	values.Set("page", "1")
	tbl.ApplyQuery(values)

	page := tbl.Page()
	require.Equal(t, 2, page.Filtered)
	require.Equal(t, 300, page.Rows[0].Price)
	require.Equal(t, 20, page.PageSize)
	require.Equal(t, 0, page.PageIndex)
}

func TestCustomCellRendererUsedForSearch(t *testing.T) {
	cols := columns()
	cols[2].Cell = func(r row) string { return fmt.Sprintf("$%d.00", r.Price) }
	tbl := table.New(dataset(), cols)

	tbl.SetGlobalFilter("$300.00")
	page := tbl.Page()
	require.Equal(t, 1, page.Filtered)
	require.Equal(t, "Pro Monitor", page.Rows[0].Name)
	require.Equal(t, "$300.00", tbl.CellText("price", page.Rows[0]))
}
