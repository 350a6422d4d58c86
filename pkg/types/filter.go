package types

import "time"

// Filter - параметры выборки списков: поиск, фильтры, период и пагинация.
type Filter struct {
	Search         string            `json:"search,omitempty"`
	SearchField    string            `json:"search_field,omitempty"`
	Filter         map[string]string `json:"filter,omitempty"`
	DateFrom       *time.Time        `json:"date_from,omitempty"`
	DateTo         *time.Time        `json:"date_to,omitempty"`
	Limit          uint64            `json:"limit"`
	Offset         uint64            `json:"offset"`
	Page           uint64            `json:"page"`
	WithPagination bool              `json:"with_pagination"`
}

// http://localhost:8080/api/equipment?search=INV&search_field=inventory_number&filter[status]=in_repair&page=2&limit=20
