package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name             string
		page, size, def  int32
		wantPage, wantSz int32
	}{
		{"Defaults", 0, 0, 0, 1, 20},
		{"CustomDefault", 2, 0, 10, 2, 10},
		{"NegativePage", -3, 5, 0, 1, 5},
		{"Capped", 1, 500, 0, 1, 100},
		{"Untouched", 4, 50, 0, 4, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := NormalizePage(tt.page, tt.size, tt.def)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSz, size)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int32(0), TotalPages(0, 20))
	assert.Equal(t, int32(1), TotalPages(20, 20))
	assert.Equal(t, int32(2), TotalPages(21, 20))
	assert.Equal(t, int32(0), TotalPages(5, 0))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, int64(0), Offset(1, 20))
	assert.Equal(t, int64(40), Offset(3, 20))
	assert.Equal(t, int64(0), Offset(0, 20))
	assert.Equal(t, int64(2147483646)*100, Offset(2147483647, 100))
}

func TestMonthKey(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	assert.Equal(t, "2026-09", MonthKey(time.Date(2026, 10, 1, 5, 0, 0, 0, kst)))
	assert.Equal(t, "2026-10", MonthKey(time.Date(2026, 10, 31, 23, 30, 0, 0, time.UTC)))
}
