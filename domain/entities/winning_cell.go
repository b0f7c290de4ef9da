package entities

import (
	"sort"
	"time"
)

// WinningCell records one winning cell of a settled session. Several cells may
// tie at the minimum ticket count, producing several rows.
type WinningCell struct {
	ID         int64     `db:"id"`
	SessionID  int64     `db:"session_id"`
	CellNumber int       `db:"cell_number"`
	CreatedAt  time.Time `db:"created_at"`
}

// SelectWinningCells returns the cells holding the fewest tickets, in
// ascending cell order. The least-crowded cells win: betting on an unpopular
// cell is what raises the odds in this game. All cells tied at the minimum
// count are winners.
func SelectWinningCells(ticketsPerCell map[int]int) []int {
	if len(ticketsPerCell) == 0 {
		return nil
	}

	minCount := -1
	for _, count := range ticketsPerCell {
		if minCount == -1 || count < minCount {
			minCount = count
		}
	}

	var winners []int
	for cell, count := range ticketsPerCell {
		if count == minCount {
			winners = append(winners, cell)
		}
	}
	sort.Ints(winners)
	return winners
}

// UncoveredCells returns the cells in [1, cellCount] that hold no ticket, in
// ascending order. A round with any uncovered cell cannot be adjudicated
// fairly and is voided.
func UncoveredCells(cellCount int, ticketsPerCell map[int]int) []int {
	var empty []int
	for cell := 1; cell <= cellCount; cell++ {
		if ticketsPerCell[cell] == 0 {
			empty = append(empty, cell)
		}
	}
	return empty
}
