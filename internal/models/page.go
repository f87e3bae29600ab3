package models

// Page страница списка в формате удаленного API.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Last          bool `json:"last"`
}

// PageMeta метаданные пагинации закешированной коллекции.
type PageMeta struct {
	Page          int  `json:"page"`
	PageSize      int  `json:"pageSize"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
	HasMore       bool `json:"hasMore"`
}

// Collection упорядоченный срез сущностей с уникальными ID и метаданными пагинации.
type Collection[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// EmptyCollection пустая коллекция без следующих страниц.
func EmptyCollection[T any](pageSize int) Collection[T] {
	return Collection[T]{Items: []T{}, Meta: PageMeta{PageSize: pageSize}}
}
