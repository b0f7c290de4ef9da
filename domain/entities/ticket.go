package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketResult is the settlement outcome of a single ticket, written exactly once
type TicketResult string

const (
	TicketResultWin    TicketResult = "win"
	TicketResultLose   TicketResult = "lose"
	TicketResultRefund TicketResult = "refund"
)

// Ticket is a single cell bet by one user within a session. A user holds at
// most one ticket per cell per session.
type Ticket struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	CoinID        int64           `db:"coin_id"`
	SessionID     int64           `db:"session_id"`
	CellNumber    int             `db:"cell_number"`
	BetAmount     decimal.Decimal `db:"bet_amount"`
	Status        SessionStatus   `db:"status"`
	Result        *TicketResult   `db:"result"`
	WinningAmount decimal.Decimal `db:"winning_amount"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// IsSettled returns true once a result has been recorded
func (t *Ticket) IsSettled() bool {
	return t.Result != nil
}

// SettleWin records a win with the computed payout
func (t *Ticket) SettleWin(payout decimal.Decimal) {
	result := TicketResultWin
	t.Result = &result
	t.WinningAmount = payout
	t.Status = SessionStatusFinished
}

// SettleLose records a loss
func (t *Ticket) SettleLose() {
	result := TicketResultLose
	t.Result = &result
	t.Status = SessionStatusFinished
}

// SettleRefund records a refund of the ticket's own stake
func (t *Ticket) SettleRefund() {
	result := TicketResultRefund
	t.Result = &result
	t.Status = SessionStatusFinished
}
