package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/notify"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	donor, err := h.donorService.GetByTelegramChatID(ctx, chatID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		h.logger.Error("Failed to get donor", zap.Int64("chat_id", chatID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	var text string
	if donor != nil {
		text = fmt.Sprintf(
			"👋 Hi, %s!\n\n"+
				"This chat is linked to your donor profile. Urgent requests for %s blood will arrive here.\n\n"+
				"/alerts - Alerts waiting for your answer\n"+
				"/rareprofile - Rare donor registry status\n"+
				"/help - Help",
			donor.Name,
			donor.BloodType,
		)
	} else {
		text = fmt.Sprintf(
			"👋 Welcome to Donor Saathi!\n\n"+
				"Your chat ID is %d.\n"+
				"Add it to your donor profile in the app to receive urgent blood requests here.",
			chatID,
		)
	}

	h.sendMessage(ctx, b, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Commands:\n\n" +
		"/start - Show your chat ID and link status\n" +
		"/alerts - Alerts waiting for your answer\n" +
		"/rareprofile - Rare donor registry status\n" +
		"/help - Show this help\n\n" +
		"When a hospital needs your blood type you will get a message with two buttons. " +
		"Your contact details are never shared with the requester."

	h.sendMessage(ctx, b, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   helpText,
	})
}

// HandleAlerts обрабатывает команду /alerts
func (h *Handlers) HandleAlerts(ctx context.Context, b *bot.Bot, update *models.Update) {
	donor, ok := h.requireDonor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	alerts, err := h.rareService.ListAlerts(ctx, model.Donor{ID: donor.ID})
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.String("donor_id", donor.ID.String()), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Failed to load alerts. Please try again later.")
		return
	}

	shown := 0
	for _, alert := range alerts {
		if alert.Status.IsResolved() {
			continue
		}
		if shown == MaxAlertsShown {
			break
		}
		h.sendMessage(ctx, b, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        FormatAlert(alert),
			ReplyMarkup: notify.AlertKeyboard(alert.ID),
		})
		shown++
	}

	if shown == 0 {
		h.sendMessage(ctx, b, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "📭 No alerts are waiting for your answer.",
		})
	}
}

// HandleRareProfile обрабатывает команду /rareprofile
func (h *Handlers) HandleRareProfile(ctx context.Context, b *bot.Bot, update *models.Update) {
	donor, ok := h.requireDonor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	profile, err := h.rareService.GetProfile(ctx, model.Donor{ID: donor.ID})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			h.sendMessage(ctx, b, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "ℹ️ You are not in the rare donor registry. You can opt in from the app if your blood type is rare.",
			})
			return
		}
		h.logger.Error("Failed to get rare profile", zap.String("donor_id", donor.ID.String()), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	h.sendMessage(ctx, b, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   FormatRareProfile(profile),
	})
}
