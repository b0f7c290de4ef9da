package entities

import "time"

// User is the minimal identity record the core needs: the Telegram chat the
// notifier gateway delivers to and the memo phrase that keys inbound deposits.
// Authentication and profile management live outside this service.
type User struct {
	ID         int64     `db:"id"`
	Username   string    `db:"username"`
	TelegramID *int64    `db:"telegram_id"`
	MemoPhrase *string   `db:"memo_phrase"`
	CreatedAt  time.Time `db:"created_at"`
}

// HasTelegram returns true if the user can receive Telegram notifications
func (u *User) HasTelegram() bool {
	return u.TelegramID != nil && *u.TelegramID != 0
}
