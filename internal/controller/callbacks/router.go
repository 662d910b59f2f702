package callbacks

import (
	"context"
	"strings"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/notify"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Noop кнопка без действия
const Noop = "noop"

// Handler обрабатывает нажатия на inline кнопки
type Handler struct {
	donorService *service.DonorService
	rareService  *service.RareDonorService
	logger       *zap.Logger
}

func NewHandler(donorService *service.DonorService, rareService *service.RareDonorService, logger *zap.Logger) *Handler {
	return &Handler{
		donorService: donorService,
		rareService:  rareService,
		logger:       logger,
	}
}

// HandleCallbackQuery распределяет callback query по обработчикам
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	h.logger.Info("Routing callback",
		zap.String("data", callback.Data),
		zap.Int64("user_id", callback.From.ID),
	)

	switch {
	case strings.HasPrefix(callback.Data, notify.AlertCallbackPrefix):
		h.handleAlertResponse(ctx, b, callback)
	case callback.Data == Noop:
		answerCallback(ctx, b, callback.ID, "")
	default:
		h.logger.Warn("Unknown callback", zap.String("data", callback.Data))
		answerCallback(ctx, b, callback.ID, "❌ Unknown action")
	}
}
