package pipeline

// Page is one slice of a sorted collection plus its position metadata.
// StartIndex/EndIndex are 0-based, end exclusive, clamped to the
// collection bounds.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalPages int `json:"total_pages"`
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
}

// Paginate slices records into the requested 1-indexed page. It does
// not clamp page itself: an out-of-range page yields an empty Items
// with correct TotalPages, which callers render as an empty table.
func Paginate[T any](records []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}

	total := (len(records) + pageSize - 1) / pageSize
	if total < 1 {
		total = 1
	}

	start := (page - 1) * pageSize
	if start < 0 || start >= len(records) {
		return Page[T]{Items: []T{}, TotalPages: total, StartIndex: 0, EndIndex: 0}
	}

	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}

	items := make([]T, end-start)
	copy(items, records[start:end])
	return Page[T]{Items: items, TotalPages: total, StartIndex: start, EndIndex: end}
}

// ClampPage pins page into [1, totalPages]; callers run this before
// Paginate so a shrinking result set cannot strand the view past the
// last page.
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages >= 1 && page > totalPages {
		return totalPages
	}
	return page
}

// TotalPages is the page count Paginate will report for n records.
func TotalPages(n, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	total := (n + pageSize - 1) / pageSize
	if total < 1 {
		total = 1
	}
	return total
}
