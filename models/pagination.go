package models

// Page is one page of a paginated list.
type Page[T any] struct {
	Data        []T `json:"data"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Total       int `json:"total"`
}
