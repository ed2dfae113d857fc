package utils

import "time"

const (
	DefaultPageSize int32 = 20
	MaxPageSize     int32 = 100
)

// NormalizePage clamps page to at least 1 and pageSize to [1, MaxPageSize],
// substituting def (or DefaultPageSize) when pageSize is unset.
func NormalizePage(page, pageSize, def int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if def <= 0 {
		def = DefaultPageSize
	}
	if pageSize <= 0 {
		pageSize = def
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// TotalPages returns how many pages of pageSize cover total rows.
func TotalPages(total, pageSize int32) int32 {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Offset is the number of rows before page. It is computed in int64 so a
// large page number cannot wrap around.
func Offset(page, pageSize int32) int64 {
	if page < 1 || pageSize < 1 {
		return 0
	}
	return int64(page-1) * int64(pageSize)
}

// MonthKey formats t as the YYYY-MM key used for monthly snapshots.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
