package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cellbet/domain/interfaces"

	"github.com/avast/retry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// TelegramNotifier delivers settlement outcomes and operator alerts through a
// Telegram bot. Delivery is best effort; a user without a linked chat is
// skipped, not treated as an error.
type TelegramNotifier struct {
	bot            *tgbotapi.BotAPI
	userRepo       interfaces.UserRepository
	operatorChatID int64
}

// NewTelegramNotifier creates a notifier backed by the bot token
func NewTelegramNotifier(token string, operatorChatID int64, userRepo interfaces.UserRepository) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.WithField("account", bot.Self.UserName).Info("Telegram bot authorized")

	return &TelegramNotifier{
		bot:            bot,
		userRepo:       userRepo,
		operatorChatID: operatorChatID,
	}, nil
}

// NotifyOutcome sends one settlement outcome message to its user
func (n *TelegramNotifier) NotifyOutcome(ctx context.Context, notice interfaces.OutcomeNotice) error {
	user, err := n.userRepo.GetByID(ctx, notice.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve user %d for notification: %w", notice.UserID, err)
	}
	if user == nil || !user.HasTelegram() {
		log.WithField("userId", notice.UserID).Debug("User has no Telegram chat, skipping notification")
		return nil
	}

	return n.send(*user.TelegramID, formatOutcome(notice))
}

// NotifyOperator alerts the operator channel about a failure or a flagged withdrawal
func (n *TelegramNotifier) NotifyOperator(ctx context.Context, message string) error {
	if n.operatorChatID == 0 {
		log.Warn("Operator chat not configured, dropping alert")
		return nil
	}
	return n.send(n.operatorChatID, message)
}

// send delivers one message with retries against transient Telegram API failures
func (n *TelegramNotifier) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	err := retry.Do(
		func() error {
			_, err := n.bot.Send(msg)
			return err
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(attempt uint, err error) {
			log.WithFields(log.Fields{
				"chatId":  chatID,
				"attempt": attempt,
				"error":   err,
			}).Warn("Retrying Telegram delivery")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to send telegram message to chat %d: %w", chatID, err)
	}

	return nil
}

func formatOutcome(notice interfaces.OutcomeNotice) string {
	cells := make([]string, 0, len(notice.Cells))
	for _, cell := range notice.Cells {
		cells = append(cells, fmt.Sprintf("%d", cell))
	}
	cellList := strings.Join(cells, ", ")

	switch notice.Kind {
	case interfaces.OutcomeWin:
		return fmt.Sprintf("You won %s %s on cell(s) %s in round #%d!",
			notice.Amount.String(), notice.CoinSymbol, cellList, notice.SessionID)
	case interfaces.OutcomeRefund:
		return fmt.Sprintf("Round #%d was voided. Your stake of %s %s on cell(s) %s has been returned.",
			notice.SessionID, notice.Amount.String(), notice.CoinSymbol, cellList)
	default:
		return fmt.Sprintf("Round #%d finished. Your bet of %s %s on cell(s) %s did not win.",
			notice.SessionID, notice.Amount.String(), notice.CoinSymbol, cellList)
	}
}
