package handlers

import (
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
	"go.uber.org/zap"
)

// MaxAlertsShown сколько неотвеченных оповещений показывает /alerts
const MaxAlertsShown = 5

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	donorService *service.DonorService
	rareService  *service.RareDonorService
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	donorService *service.DonorService,
	rareService *service.RareDonorService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		donorService: donorService,
		rareService:  rareService,
		logger:       logger,
	}
}
