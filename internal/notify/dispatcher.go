package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/metrics"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultBatchSize сколько оповещений забирается за один проход
	DefaultBatchSize = 50
	// DefaultMaxAttempts после стольких неудач оповещение остаётся только в приложении
	DefaultMaxAttempts = 8

	defaultRetryDelay    = time.Minute
	defaultMaxRetryDelay = time.Hour
)

// Dispatcher забирает PENDING оповещения из очереди и отправляет их через Sender
type Dispatcher struct {
	store     repository.Store
	sender    Sender
	logger    *zap.Logger
	metrics   *metrics.Metrics
	batchSize int

	now           func() time.Time
	maxAttempts   int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

type DispatcherOption func(*Dispatcher)

// WithDispatchClock подменяет часы диспетчера
func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithRetryDelay задаёт первую задержку повтора и её предел. Задержка удваивается после каждой неудачи.
func WithRetryDelay(initial, limit time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if initial > 0 {
			d.retryDelay = initial
		}
		if limit >= d.retryDelay {
			d.maxRetryDelay = limit
		}
	}
}

func NewDispatcher(store repository.Store, sender Sender, logger *zap.Logger, m *metrics.Metrics, batchSize int, opts ...DispatcherOption) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	d := &Dispatcher{
		store:         store,
		sender:        sender,
		logger:        logger,
		metrics:       m,
		batchSize:     batchSize,
		now:           time.Now,
		maxAttempts:   DefaultMaxAttempts,
		retryDelay:    defaultRetryDelay,
		maxRetryDelay: defaultMaxRetryDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchResult итог одного прохода
type DispatchResult struct {
	Sent    int
	InApp   int
	Failed  int
	Expired int
	Skipped int
}

// Dispatch выполняет один проход по очереди. Неудачная отправка откладывается с растущей задержкой,
// после maxAttempts неудач оповещение закрывается как доступное только в приложении.
func (d *Dispatcher) Dispatch(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult
	now := d.now().UTC()

	alerts, err := d.store.Alerts.ListPending(ctx, now, d.batchSize)
	if err != nil {
		return result, fmt.Errorf("list pending alerts: %w", err)
	}
	if len(alerts) == 0 {
		return result, nil
	}

	donorIDs := make([]uuid.UUID, 0, len(alerts))
	for _, a := range alerts {
		donorIDs = append(donorIDs, a.DonorID)
	}
	donors, err := d.store.Donors.GetByIDs(ctx, donorIDs)
	if err != nil {
		return result, fmt.Errorf("get donors: %w", err)
	}

	requests := make(map[uuid.UUID]*model.RareDonorRequest)

	for _, alert := range alerts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		req, ok := requests[alert.RequestID]
		if !ok {
			req, err = d.store.RareRequests.GetByID(ctx, alert.RequestID)
			if err != nil {
				return result, fmt.Errorf("get request: %w", err)
			}
			requests[alert.RequestID] = req
		}
		if req == nil {
			d.logger.Warn("Alert without request", zap.String("alert_id", alert.ID.String()))
			result.Skipped++
			continue
		}

		msg := Message{
			AlertID:   alert.ID,
			DonorID:   alert.DonorID,
			BloodType: req.BloodType,
			Urgency:   req.Urgency,
			City:      req.Location.City,
		}
		if donor, ok := donors[alert.DonorID]; ok {
			msg.ChatID = donor.TelegramChatID
		}

		outcome := "sent"
		if err := d.sender.Send(ctx, msg); err != nil {
			switch {
			case errors.Is(err, ErrNoChannel):
				outcome = "in_app"
			case alert.Attempts+1 >= d.maxAttempts:
				d.logger.Warn("Giving up on rare alert delivery",
					zap.String("alert_id", alert.ID.String()),
					zap.Int("attempts", alert.Attempts+1),
					zap.Error(err),
				)
				outcome = "expired"
			default:
				next := now.Add(d.backoff(alert.Attempts + 1))
				if err := d.store.Alerts.RecordFailure(ctx, alert.ID, next); err != nil {
					return result, fmt.Errorf("record alert failure: %w", err)
				}
				d.logger.Warn("Failed to deliver rare alert",
					zap.String("alert_id", alert.ID.String()),
					zap.Int("attempts", alert.Attempts+1),
					zap.Time("next_attempt_at", next),
					zap.Error(err),
				)
				d.metrics.AlertDispatched("failed")
				result.Failed++
				continue
			}
		}

		marked, err := d.store.Alerts.MarkSent(ctx, alert.ID)
		if err != nil {
			return result, fmt.Errorf("mark alert sent: %w", err)
		}
		if !marked {
			// Донор ответил раньше, чем завершилась отправка
			result.Skipped++
			continue
		}

		d.metrics.AlertDispatched(outcome)
		switch outcome {
		case "sent":
			result.Sent++
		case "in_app":
			result.InApp++
		default:
			result.Expired++
		}
	}

	d.logger.Info("Rare alerts dispatched",
		zap.Int("sent", result.Sent),
		zap.Int("in_app", result.InApp),
		zap.Int("failed", result.Failed),
		zap.Int("expired", result.Expired),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// backoff задержка перед попыткой номер attempt+1
func (d *Dispatcher) backoff(attempt int) time.Duration {
	delay := d.retryDelay
	for i := 1; i < attempt && delay < d.maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, d.maxRetryDelay)
}
