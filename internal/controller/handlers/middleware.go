package handlers

import (
	"context"
	"errors"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireDonor находит донора, привязанного к чату.
// Возвращает donor и true если OK, отправляет подсказку и false если нет
func (h *Handlers) requireDonor(ctx context.Context, b *bot.Bot, update *models.Update) (*model.DonorProfile, bool) {
	if update.Message == nil {
		return nil, false
	}

	chatID := update.Message.Chat.ID
	donor, err := h.donorService.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			h.sendError(ctx, b, chatID, "❌ This chat is not linked to a donor profile yet.\n\nUse /start to see your chat ID.")
			return nil, false
		}
		h.logger.Error("Failed to get donor", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Something went wrong. Please try again later.")
		return nil, false
	}

	return donor, true
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, params *bot.SendMessageParams) {
	_, err := b.SendMessage(ctx, params)
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Any("chat_id", params.ChatID),
			zap.Error(err),
		)
	}
}
