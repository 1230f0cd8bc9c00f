package telegram

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-jobfeed-crawler/internal/scraper"
)

// sender is the part of tgbotapi.BotAPI the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    sender
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init telegram bot")
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// formatRecord renders one record as a MarkdownV2 message body
func formatRecord(source string, rec scraper.Record) string {
	var b strings.Builder
	role := rec.Role
	if role == "" {
		role = "Untitled role"
	}
	fmt.Fprintf(&b, "💼 *%s*\n", escapeMarkdown(role))

	employer := rec.Employer
	if employer == "" {
		employer = "N/A"
	}
	fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(employer))

	switch rec.Channel {
	case scraper.ChannelInstant:
		b.WriteString("⚡ Easy Apply\n")
	case scraper.ChannelExternal:
		b.WriteString("🌍 Apply on company site\n")
	}
	fmt.Fprintf(&b, "🔖 Source: %s\n", escapeMarkdown(source))
	return b.String()
}

func (b *Bot) SendRecord(source string, rec scraper.Record) error {
	msg := tgbotapi.NewMessage(b.chatID, formatRecord(source, rec))
	msg.ParseMode = "MarkdownV2"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Apply", rec.Link),
		),
	)

	_, err := b.api.Send(msg)
	return errors.Wrap(err, "send record")
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	_, err := b.api.Send(msg)
	return err
}
