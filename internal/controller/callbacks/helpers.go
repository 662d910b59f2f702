package callbacks

import (
	"context"
	"errors"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// answerCallback отвечает на callback query (без alert)
func answerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
}

// answerCallbackAlert отвечает на callback query всплывающим окном
func answerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// messageFromCallback извлекает сообщение из callback query
func messageFromCallback(callback *models.CallbackQuery) *models.Message {
	return callback.Message.Message
}

// errorMessage возвращает пользовательское сообщение для ошибки
func errorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "❌ Alert not found or this chat is not linked to a donor"
	case errors.Is(err, model.ErrForbidden):
		return "❌ This alert was sent to another donor"
	case errors.Is(err, model.ErrInvalidTransition):
		return "ℹ️ You have already answered this alert"
	case errors.Is(err, model.ErrInvalidRequest):
		return "❌ Invalid button data"
	default:
		return "❌ Something went wrong"
	}
}
