package dto

type ProductFilters struct {
	SearchQuery string
	IsActive    *bool
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}
