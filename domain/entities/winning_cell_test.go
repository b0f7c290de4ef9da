package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectWinningCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		ticketsPerCell map[int]int
		want           []int
	}{
		{
			name:           "unique minimum",
			ticketsPerCell: map[int]int{1: 3, 2: 1, 3: 2},
			want:           []int{2},
		},
		{
			name:           "tie at minimum",
			ticketsPerCell: map[int]int{1: 2, 2: 2, 3: 5},
			want:           []int{1, 2},
		},
		{
			name:           "all cells tied",
			ticketsPerCell: map[int]int{1: 1, 2: 1, 3: 1},
			want:           []int{1, 2, 3},
		},
		{
			name:           "single cell",
			ticketsPerCell: map[int]int{7: 4},
			want:           []int{7},
		},
		{
			name:           "no tickets",
			ticketsPerCell: map[int]int{},
			want:           nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SelectWinningCells(tt.ticketsPerCell)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUncoveredCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		cellCount      int
		ticketsPerCell map[int]int
		want           []int
	}{
		{
			name:           "full coverage",
			cellCount:      3,
			ticketsPerCell: map[int]int{1: 1, 2: 4, 3: 2},
			want:           nil,
		},
		{
			name:           "one empty cell",
			cellCount:      3,
			ticketsPerCell: map[int]int{1: 1, 3: 2},
			want:           []int{2},
		},
		{
			name:           "all empty",
			cellCount:      2,
			ticketsPerCell: map[int]int{},
			want:           []int{1, 2},
		},
		{
			name:           "popularity of other cells is irrelevant",
			cellCount:      4,
			ticketsPerCell: map[int]int{1: 100, 2: 100, 3: 100},
			want:           []int{4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := UncoveredCells(tt.cellCount, tt.ticketsPerCell)
			assert.Equal(t, tt.want, got)
		})
	}
}
