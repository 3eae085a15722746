// Package pager slices ordered results into fixed-size pages.
//
// Paginate does not clamp the page index. Callers only move to the
// previous or next page when the matching control was rendered.
package pager

// PageSize is the number of items shown per page.
const PageSize = 3

// ControlKind identifies a navigation control.
type ControlKind int

const (
	ControlPrev ControlKind = iota
	ControlSelect
	ControlNext
)

// Control is one button of a page. Index is the absolute position of the
// selected item in the full sequence and is only set for ControlSelect.
type Control struct {
	Kind  ControlKind
	Index int
}

// Page is a window over a sequence.
type Page[T any] struct {
	Items    []T
	Number   int
	Start    int
	Total    int
	Controls []Control
}

// Paginate returns page p of items using PageSize.
func Paginate[T any](items []T, p int) Page[T] {
	return PaginateSize(items, p, PageSize)
}

// PaginateSize returns page p of items with k items per page.
func PaginateSize[T any](items []T, p, k int) Page[T] {
	if k <= 0 {
		k = PageSize
	}
	n := len(items)
	lo := bound(p*k, n)
	hi := bound(p*k+k, n)

	page := Page[T]{
		Items:  items[lo:hi],
		Number: p,
		Start:  lo,
		Total:  n,
	}

	if p > 0 {
		page.Controls = append(page.Controls, Control{Kind: ControlPrev})
	}
	for i := lo; i < hi; i++ {
		page.Controls = append(page.Controls, Control{Kind: ControlSelect, Index: i})
	}
	if hi < n {
		page.Controls = append(page.Controls, Control{Kind: ControlNext})
	}
	return page
}

// Has reports whether the page carries a control of the given kind.
func (pg Page[T]) Has(kind ControlKind) bool {
	for _, c := range pg.Controls {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Indices returns the absolute indices of the visible items.
func (pg Page[T]) Indices() []int {
	out := make([]int, 0, len(pg.Items))
	for _, c := range pg.Controls {
		if c.Kind == ControlSelect {
			out = append(out, c.Index)
		}
	}
	return out
}

// LastPage is the highest valid page index for n items.
func LastPage(n int) int {
	if n <= 0 {
		return 0
	}
	return (n - 1) / PageSize
}

func bound(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
