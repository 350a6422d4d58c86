package utils

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"it-inventory/pkg/types"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage ограничивает OFFSET: (MaxPage-1)*MaxLimit помещается в bigint.
	MaxPage = 1_000_000
)

// ParseFilterFromQuery разбирает ?search=&search_field=&filter[x]=&date_from=&date_to=&page=&limit=.
// Параметр all=true отключает пагинацию (используется при выгрузке в Excel).
func ParseFilterFromQuery(query url.Values) types.Filter {
	f := types.Filter{
		Filter:         make(map[string]string),
		Limit:          DefaultLimit,
		Page:           1,
		WithPagination: true,
	}

	for key, values := range query {
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") && len(values) > 0 {
			f.Filter[key[7:len(key)-1]] = strings.TrimSpace(values[0])
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.ParseUint(limitStr, 10, 64); err == nil && l > 0 {
			f.Limit = min(l, MaxLimit)
		}
	}
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.ParseUint(pageStr, 10, 64); err == nil && p > 0 {
			f.Page = min(p, MaxPage)
		}
	}
	f.Offset = (f.Page - 1) * f.Limit

	f.Search = strings.TrimSpace(query.Get("search"))
	f.SearchField = strings.TrimSpace(query.Get("search_field"))
	f.DateFrom = parseDate(query.Get("date_from"), false)
	f.DateTo = parseDate(query.Get("date_to"), true)

	if query.Get("all") == "true" {
		f.WithPagination = false
		f.Limit, f.Offset, f.Page = 0, 0, 1
	}
	return f
}

// parseDate понимает RFC3339 и 2006-01-02. Для даты без времени конец периода - конец дня.
func parseDate(value string, endOfDay bool) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t
	}
	return nil
}
