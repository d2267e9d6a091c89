package services

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// normalizePagination applies the pagination contract: page >= 1, pageSize
// >= 1, with defaults for out-of-range values.
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
