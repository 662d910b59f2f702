package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// AlertCallbackPrefix префикс callback data кнопок ответа на оповещение
const AlertCallbackPrefix = "alert:"

// TelegramSender отправляет оповещения в Telegram с кнопками ответа
type TelegramSender struct {
	bot *bot.Bot
}

func NewTelegramSender(b *bot.Bot) *TelegramSender {
	return &TelegramSender{bot: b}
}

func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	if msg.ChatID == nil {
		return ErrNoChannel
	}

	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      *msg.ChatID,
		Text:        msg.Text(),
		ReplyMarkup: AlertKeyboard(msg.AlertID),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// AlertKeyboard клавиатура с кнопками ACCEPT/DECLINE
func AlertKeyboard(alertID uuid.UUID) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "✅ I can donate", CallbackData: AlertCallbackData(model.AlertActionAccept, alertID)},
			{Text: "❌ Not now", CallbackData: AlertCallbackData(model.AlertActionDecline, alertID)},
		}},
	}
}

// AlertCallbackData формат: alert:<ACTION>:<alert id>
func AlertCallbackData(action model.AlertAction, alertID uuid.UUID) string {
	return AlertCallbackPrefix + string(action) + ":" + alertID.String()
}

// ParseAlertCallback разбирает callback data кнопки ответа
func ParseAlertCallback(data string) (model.AlertAction, uuid.UUID, error) {
	rest, ok := strings.CutPrefix(data, AlertCallbackPrefix)
	if !ok {
		return "", uuid.Nil, fmt.Errorf("%w: not an alert callback", model.ErrInvalidRequest)
	}

	action, rawID, ok := strings.Cut(rest, ":")
	if !ok {
		return "", uuid.Nil, fmt.Errorf("%w: malformed alert callback", model.ErrInvalidRequest)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: alert id: %v", model.ErrInvalidRequest, err)
	}

	switch model.AlertAction(action) {
	case model.AlertActionAccept, model.AlertActionDecline:
		return model.AlertAction(action), id, nil
	}
	return "", uuid.Nil, fmt.Errorf("%w: unknown action %q", model.ErrInvalidRequest, action)
}
