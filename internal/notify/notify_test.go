package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []Message
	err    error
	onSend func(Message)
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.onSend != nil {
		s.onSend(msg)
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

type fixture struct {
	store   repository.Store
	request *model.RareDonorRequest
	created time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore().Repositories()

	req := &model.RareDonorRequest{
		ID:            uuid.New(),
		RequesterID:   uuid.New(),
		RequesterType: model.RequesterHospital,
		BloodType:     model.BloodTypeABNeg,
		Urgency:       model.UrgencyCritical,
		Location:      model.Location{City: "Pune"},
		Status:        model.RequestStatusOpen,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.RareRequests.Create(ctx, req))

	return &fixture{store: store, request: req, created: req.CreatedAt.Add(-time.Hour)}
}

func (f *fixture) addAlert(t *testing.T, chatID *int64) *model.RareAlert {
	t.Helper()
	ctx := context.Background()

	donor := &model.DonorProfile{
		ID:             uuid.New(),
		Name:           "Donor",
		BloodType:      model.BloodTypeABNeg,
		TelegramChatID: chatID,
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, f.store.Donors.Upsert(ctx, donor))

	// Оповещения создаются строго по порядку, с шагом в секунду
	f.created = f.created.Add(time.Second)
	alert := &model.RareAlert{
		ID:        uuid.New(),
		RequestID: f.request.ID,
		DonorID:   donor.ID,
		Status:    model.AlertStatusPending,
		CreatedAt: f.created,
	}
	require.NoError(t, f.store.Alerts.Create(ctx, alert))
	return alert
}

func (f *fixture) status(t *testing.T, id uuid.UUID) model.AlertStatus {
	t.Helper()
	a, err := f.store.Alerts.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a.Status
}

func TestDispatchSendsAndMarksAlerts(t *testing.T) {
	f := newFixture(t)
	chatID := int64(4242)
	withChat := f.addAlert(t, &chatID)
	withoutChat := f.addAlert(t, nil)

	sender := &recordingSender{}
	d := NewDispatcher(f.store, &channelAwareSender{next: sender}, zap.NewNop(), nil, 10)
	result, err := d.Dispatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.InApp)
	assert.Equal(t, model.AlertStatusSent, f.status(t, withChat.ID))
	assert.Equal(t, model.AlertStatusSent, f.status(t, withoutChat.ID))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, withChat.ID, msg.AlertID)
	assert.Equal(t, model.BloodTypeABNeg, msg.BloodType)
	assert.Equal(t, "Pune", msg.City)
	assert.NotContains(t, msg.Text(), f.request.RequesterID.String())

	// Повторный проход ничего не отправляет
	result, err = d.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, result)
}

// channelAwareSender ведёт себя как TelegramSender без обращения к сети
type channelAwareSender struct {
	next Sender
}

func (s *channelAwareSender) Send(ctx context.Context, msg Message) error {
	if msg.ChatID == nil {
		return ErrNoChannel
	}
	return s.next.Send(ctx, msg)
}

func TestDispatchKeepsFailedAlertsPending(t *testing.T) {
	f := newFixture(t)
	chatID := int64(1)
	alert := f.addAlert(t, &chatID)

	d := NewDispatcher(f.store, &recordingSender{err: errors.New("telegram is down")}, zap.NewNop(), nil, 10)
	result, err := d.Dispatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, model.AlertStatusPending, f.status(t, alert.ID))

	got, err := f.store.Alerts.GetByID(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, got.NextAttemptAt.After(time.Now()))
}

type senderFunc func(ctx context.Context, msg Message) error

func (f senderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// blockedChat отклоняет доставку в один чат, как Telegram для заблокировавшего бота донора
func blockedChat(chatID int64, delivered *[]uuid.UUID) Sender {
	return senderFunc(func(_ context.Context, msg Message) error {
		if msg.ChatID != nil && *msg.ChatID == chatID {
			return errors.New("forbidden: bot was blocked by the user")
		}
		*delivered = append(*delivered, msg.AlertID)
		return nil
	})
}

func TestDispatchFailingAlertsDoNotStarveQueue(t *testing.T) {
	f := newFixture(t)
	blocked, good := int64(403), int64(200)
	failing := []*model.RareAlert{f.addAlert(t, &blocked), f.addAlert(t, &blocked)}
	fresh := f.addAlert(t, &good)

	var delivered []uuid.UUID
	now := f.created.Add(time.Minute)
	d := NewDispatcher(f.store, blockedChat(blocked, &delivered), zap.NewNop(), nil, 2,
		WithDispatchClock(func() time.Time { return now }),
	)

	for range 10 {
		_, err := d.Dispatch(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, model.AlertStatusSent, f.status(t, fresh.ID))
	assert.Equal(t, []uuid.UUID{fresh.ID}, delivered)
	for _, a := range failing {
		assert.Equal(t, model.AlertStatusPending, f.status(t, a.ID))
	}
}

func TestDispatchRetriesWithBackoffThenGivesUp(t *testing.T) {
	f := newFixture(t)
	blocked := int64(403)
	alert := f.addAlert(t, &blocked)

	var delivered []uuid.UUID
	now := f.created.Add(time.Second)
	d := NewDispatcher(f.store, blockedChat(blocked, &delivered), zap.NewNop(), nil, 10,
		WithDispatchClock(func() time.Time { return now }),
		WithMaxAttempts(3),
		WithRetryDelay(time.Minute, 90*time.Second),
	)

	result, err := d.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	// До истечения задержки оповещение не берётся
	now = now.Add(59 * time.Second)
	result, err = d.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, result)

	now = now.Add(time.Second)
	result, err = d.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	got, err := f.store.Alerts.GetByID(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)
	// Вторая задержка удвоилась бы, но ограничена пределом
	assert.Equal(t, now.Add(90*time.Second), got.NextAttemptAt)

	now = now.Add(90 * time.Second)
	result, err = d.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, model.AlertStatusSent, f.status(t, alert.ID))
	assert.Empty(t, delivered)
}

func TestDispatchDoesNotOverwriteResponse(t *testing.T) {
	f := newFixture(t)
	chatID := int64(7)
	alert := f.addAlert(t, &chatID)

	// Донор отвечает, пока сообщение уходит
	sender := &recordingSender{onSend: func(msg Message) {
		now := time.Now().UTC()
		err := f.store.Alerts.Update(context.Background(), &model.RareAlert{
			ID:          msg.AlertID,
			Status:      model.AlertStatusAcknowledged,
			RespondedAt: &now,
		})
		require.NoError(t, err)
	}}

	d := NewDispatcher(f.store, sender, zap.NewNop(), nil, 10)
	result, err := d.Dispatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, model.AlertStatusAcknowledged, f.status(t, alert.ID))
}

func TestDispatchRespectsBatchSize(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		chatID := int64(100 + i)
		f.addAlert(t, &chatID)
	}

	sender := &recordingSender{}
	d := NewDispatcher(f.store, sender, zap.NewNop(), nil, 2)

	result, err := d.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)

	pending, err := f.store.Alerts.ListPending(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestAlertCallbackData(t *testing.T) {
	id := uuid.New()

	action, parsed, err := ParseAlertCallback(AlertCallbackData(model.AlertActionDecline, id))
	require.NoError(t, err)
	assert.Equal(t, model.AlertActionDecline, action)
	assert.Equal(t, id, parsed)

	for _, data := range []string{
		"noop",
		"alert:ACCEPT",
		"alert:ACCEPT:not-a-uuid",
		"alert:MAYBE:" + id.String(),
	} {
		_, _, err := ParseAlertCallback(data)
		assert.ErrorIs(t, err, model.ErrInvalidRequest, data)
	}

	kb := AlertKeyboard(id)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "alert:ACCEPT:"+id.String(), kb.InlineKeyboard[0][0].CallbackData)
	// Telegram ограничивает callback data 64 байтами
	assert.LessOrEqual(t, len(kb.InlineKeyboard[0][1].CallbackData), 64)
}
