// Package notify доставляет оповещения редким донорам вне транзакций ядра.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoChannel у донора нет канала доставки, оповещение доступно только в приложении
var ErrNoChannel = errors.New("donor has no delivery channel")

// Message содержимое оповещения. Данные заявителя сюда не попадают.
type Message struct {
	AlertID   uuid.UUID
	DonorID   uuid.UUID
	ChatID    *int64
	BloodType model.BloodType
	Urgency   model.Urgency
	City      string
}

// Text текст оповещения для донора
func (m Message) Text() string {
	city := m.City
	if city == "" {
		city = "your area"
	}
	return fmt.Sprintf(
		"%s Urgent request for %s blood in %s.\n\nUrgency: %s\nCan you help? Reply with the buttons below.",
		urgencyEmoji(m.Urgency), m.BloodType, city, m.Urgency,
	)
}

func urgencyEmoji(u model.Urgency) string {
	switch u {
	case model.UrgencyCritical:
		return "🚨"
	case model.UrgencyUrgent:
		return "⚠️"
	}
	return "🩸"
}

// Sender канал доставки
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender пишет оповещения в лог, когда внешний канал не настроен
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Rare alert (log delivery)",
		zap.String("alert_id", msg.AlertID.String()),
		zap.String("donor_id", msg.DonorID.String()),
		zap.String("blood_type", string(msg.BloodType)),
		zap.String("urgency", string(msg.Urgency)),
	)
	return nil
}
