package repositories

import "math"

// PageOffset returns the number of rows before page (1-based) at limit rows
// per page. ok is false when the offset does not fit in an int; such a page
// lies past the end of any collection.
func PageOffset(page, limit int) (offset int, ok bool) {
	if page < 1 || limit < 1 {
		return 0, true
	}
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}
