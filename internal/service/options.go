package service

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/metrics"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("donorsaathi/service")

// checkInTokenPrefix префикс токена, который печатается в QR-коде
const checkInTokenPrefix = "BSN-"

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TokenGenerator выдаёт уникальные неугадываемые check-in токены
type TokenGenerator func() (string, error)

// NewCheckInToken генерирует токен из 128 случайных бит
func NewCheckInToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate check-in token: %w", err)
	}
	return checkInTokenPrefix + tokenEncoding.EncodeToString(b), nil
}

// PriorityScorer оценивает приоритет оповещения донора.
// Реального расчёта расстояния нет, используется константа.
type PriorityScorer interface {
	Score(req *model.RareDonorRequest, profile *model.RareDonorProfile) float64
}

// ConstantPriority возвращает одинаковый приоритет для всех доноров
type ConstantPriority float64

func (c ConstantPriority) Score(*model.RareDonorRequest, *model.RareDonorProfile) float64 {
	return float64(c)
}

// DefaultPriorityScore приоритет по умолчанию
const DefaultPriorityScore = 100

type options struct {
	now     func() time.Time
	tokens  TokenGenerator
	scorer  PriorityScorer
	metrics *metrics.Metrics
}

// Option настраивает сервисы
type Option func(*options)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTokenGenerator подменяет генератор check-in токенов
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(o *options) { o.tokens = gen }
}

// WithPriorityScorer подменяет расчёт приоритета оповещений
func WithPriorityScorer(scorer PriorityScorer) Option {
	return func(o *options) { o.scorer = scorer }
}

// WithMetrics включает метрики
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    func() time.Time { return time.Now().UTC() },
		tokens: NewCheckInToken,
		scorer: ConstantPriority(DefaultPriorityScore),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// endSpan фиксирует ошибку в span и закрывает его
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
