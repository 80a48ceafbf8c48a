package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"content-commerce/internal/domain/ports/adapter"
)

var _ adapter.PaymentNotifier = (*AdminNotifier)(nil)

// AdminNotifier posts verified payments to operator chats.
type AdminNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

// NewAdminNotifier authenticates the bot token. endpoint and client are
// optional and default to the public Bot API.
func NewAdminNotifier(token string, chatIDs []int64, endpoint string, client *http.Client) (*AdminNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if len(chatIDs) == 0 {
		return nil, errors.New("telegram chat ids are empty")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &AdminNotifier{bot: bot, chatIDs: chatIDs}, nil
}

// NotifyPaymentSucceeded sends one message per chat and joins the failures.
func (n *AdminNotifier) NotifyPaymentSucceeded(ctx context.Context, ev adapter.PaymentEvent) error {
	text := FormatPaymentEvent(ev)
	var errs []error
	for _, id := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableWebPagePreview = true
		if _, err := n.bot.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func FormatPaymentEvent(ev adapter.PaymentEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s payment\n", ev.Kind)
	fmt.Fprintf(&b, "Amount: %d %s\n", ev.Amount, ev.Currency)
	if ev.Detail != "" {
		fmt.Fprintf(&b, "Item: %s\n", ev.Detail)
	}
	if ev.ExtUserID != "" {
		fmt.Fprintf(&b, "User: %s\n", ev.ExtUserID)
	}
	fmt.Fprintf(&b, "Reference: %s", ev.Reference)
	if !ev.At.IsZero() {
		fmt.Fprintf(&b, "\nAt: %s", ev.At.UTC().Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}
