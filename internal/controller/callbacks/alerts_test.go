package callbacks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/notify"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/memory"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// telegramStub запоминает вызванные методы Bot API
type telegramStub struct {
	mu    sync.Mutex
	calls []string
	*httptest.Server
}

func newTelegramStub(t *testing.T) *telegramStub {
	t.Helper()
	stub := &telegramStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		stub.mu.Lock()
		stub.calls = append(stub.calls, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	t.Cleanup(stub.Close)
	return stub
}

func (s *telegramStub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func TestHandleCallbackQuery_AlertResponse(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore().Repositories()

	donors := service.NewDonorService(store, logger)
	rare := service.NewRareDonorService(store, logger)

	chatID := int64(777)
	donor := model.Donor{ID: uuid.New()}
	_, err := donors.RegisterDonor(ctx, donor, service.RegisterDonorInput{
		Name:           "Asha",
		BloodType:      model.BloodTypeABNeg,
		TelegramChatID: &chatID,
	})
	require.NoError(t, err)

	alert := &model.RareAlert{
		ID:        uuid.New(),
		RequestID: uuid.New(),
		DonorID:   donor.ID,
		Status:    model.AlertStatusSent,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Alerts.Create(ctx, alert))

	stub := newTelegramStub(t)
	b, err := bot.New("test-token", bot.WithSkipGetMe(), bot.WithServerURL(stub.URL))
	require.NoError(t, err)

	h := NewHandler(donors, rare, logger)

	press := func(data string, fromID int64) {
		h.HandleCallbackQuery(ctx, b, &models.Update{
			CallbackQuery: &models.CallbackQuery{
				ID:   uuid.NewString(),
				From: models.User{ID: fromID},
				Data: data,
			},
		})
	}

	// Чужой чат не может ответить на оповещение
	press(notify.AlertCallbackData(model.AlertActionAccept, alert.ID), 1)
	got, err := store.Alerts.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusSent, got.Status)

	press(notify.AlertCallbackData(model.AlertActionAccept, alert.ID), chatID)
	got, err = store.Alerts.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusAcknowledged, got.Status)

	press(notify.AlertCallbackData(model.AlertActionDecline, alert.ID), chatID)
	got, err = store.Alerts.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusAcknowledged, got.Status)

	press("alert:MAYBE:broken", chatID)
	press(Noop, chatID)

	calls := stub.Calls()
	assert.Len(t, calls, 5)
	for _, c := range calls {
		assert.Equal(t, "answerCallbackQuery", c)
	}
}
