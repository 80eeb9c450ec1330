package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		aStart int
		aEnd   int
		bStart int
		bEnd   int
		want   bool
	}{
		{"back to back shifts do not overlap", 10, 12, 12, 14, false},
		{"one minute past the boundary overlaps", 10, 12, 11, 14, true},
		{"contained interval overlaps", 10, 14, 11, 12, true},
		{"identical intervals overlap", 10, 12, 10, 12, true},
		{"disjoint intervals do not overlap", 8, 9, 12, 14, false},
		{"order of arguments does not matter", 12, 14, 10, 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(at(tt.aStart, 0), at(tt.aEnd, 0), at(tt.bStart, 0), at(tt.bEnd, 0))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOverlapsMinuteBoundary(t *testing.T) {
	// [10:00, 12:01) against [12:00, 14:00) shares one minute
	assert.True(t, Overlaps(at(10, 0), at(12, 1), at(12, 0), at(14, 0)))
	// [10:00, 12:00) against [12:00, 14:00) only touches
	assert.False(t, Overlaps(at(10, 0), at(12, 0), at(12, 0), at(14, 0)))
}

func TestOccupancyIndex(t *testing.T) {
	idx := occupancyIndex{}
	idx.add(1, at(10, 0), at(12, 0))

	assert.False(t, idx.conflicts(1, at(12, 0), at(14, 0)), "touching interval should not conflict")
	assert.True(t, idx.conflicts(1, at(11, 0), at(13, 0)))
	assert.False(t, idx.conflicts(2, at(11, 0), at(13, 0)), "other users are unaffected")

	idx.add(1, at(14, 0), at(16, 0))
	assert.True(t, idx.conflicts(1, at(15, 0), at(17, 0)), "all recorded intervals are checked")
}
