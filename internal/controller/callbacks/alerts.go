package callbacks

import (
	"context"
	"errors"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/notify"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// handleAlertResponse обрабатывает кнопки ACCEPT/DECLINE под оповещением
func (h *Handler) handleAlertResponse(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	action, alertID, err := notify.ParseAlertCallback(callback.Data)
	if err != nil {
		answerCallbackAlert(ctx, b, callback.ID, errorMessage(err))
		return
	}

	// В личном чате ID чата совпадает с ID пользователя
	donor, err := h.donorService.GetByTelegramChatID(ctx, callback.From.ID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			h.logger.Error("Failed to get donor", zap.Int64("chat_id", callback.From.ID), zap.Error(err))
		}
		answerCallbackAlert(ctx, b, callback.ID, errorMessage(err))
		return
	}

	alert, err := h.rareService.RespondToAlert(ctx, model.Donor{ID: donor.ID}, alertID, action)
	if err != nil {
		h.logger.Warn("Alert response rejected",
			zap.String("alert_id", alertID.String()),
			zap.String("donor_id", donor.ID.String()),
			zap.Error(err),
		)
		answerCallbackAlert(ctx, b, callback.ID, errorMessage(err))
		return
	}

	text := "Thank you! The blood bank will contact you through the app."
	if alert.Status == model.AlertStatusDeclined {
		text = "No problem. We will ask again next time."
	}
	answerCallback(ctx, b, callback.ID, text)

	// Убираем кнопки, чтобы не было повторного ответа
	if msg := messageFromCallback(callback); msg != nil {
		_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      msg.Text + "\n\n" + statusLine(alert.Status),
		})
		if err != nil {
			h.logger.Warn("Failed to edit alert message", zap.Error(err))
		}
	}
}

func statusLine(status model.AlertStatus) string {
	if status == model.AlertStatusAcknowledged {
		return "✅ You accepted this request."
	}
	return "❌ You declined this request."
}
