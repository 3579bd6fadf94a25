// Package notify sends operator notifications about orders and loop health.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/types"
)

// sendTimeout bounds a single Bot API request.
const sendTimeout = 15 * time.Second

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers notifications to a single chat.
type Telegram struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

var _ interfaces.Notifier = (*Telegram)(nil)

func NewTelegram(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Telegram, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := newBotAPI(botToken, tgbotapi.APIEndpoint, sendTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return newTelegram(bot, chatIDInt, maxRetries, retryDelayBase), nil
}

func newBotAPI(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
}

func newTelegram(bot sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Telegram {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Telegram{bot: bot, chatID: chatID, maxRetries: maxRetries, retryDelayBase: retryDelayBase}
}

// sendMarkdownV2 sends with linear-backoff retry, giving up early if ctx ends.
func (t *Telegram) sendMarkdownV2(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == t.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

func (t *Telegram) NotifyOrder(ctx context.Context, pair types.Pair, order types.OpenOrder) error {
	emoji := "🟢"
	if order.Side == types.Sell {
		emoji = "🔴"
	}
	text := fmt.Sprintf("%s *%s %s*\n%s @ %s\nid `%s`",
		emoji,
		escapeMarkdownV2(strings.ToUpper(string(order.Side))),
		escapeMarkdownV2(pair.String()),
		escapeMarkdownV2(strconv.FormatFloat(order.Amount, 'f', -1, 64)),
		escapeMarkdownV2(strconv.FormatFloat(order.Price, 'f', -1, 64)),
		escapeMarkdownV2(order.ID),
	)
	return t.sendMarkdownV2(ctx, text)
}

// NotifyError should be called only for the first failure of a streak.
func (t *Telegram) NotifyError(ctx context.Context, err error) error {
	text := fmt.Sprintf("⚠️ *Trading loop error*\n`%s`", escapeMarkdownV2(err.Error()))
	return t.sendMarkdownV2(ctx, text)
}

func (t *Telegram) NotifyRecovery(ctx context.Context, failures int) error {
	text := fmt.Sprintf("✅ *Trading loop recovered* after %d consecutive failure\\(s\\)", failures)
	return t.sendMarkdownV2(ctx, text)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
