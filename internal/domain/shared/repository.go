package shared

// Filter represents paging options of a list query
type Filter struct {
	Page     int
	PageSize int
}

// Normalize clamps paging values into a usable range
func (f Filter) Normalize(maxPageSize int) Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if maxPageSize > 0 && f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return f
}

// Offset returns the number of rows to skip for the filter's page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
