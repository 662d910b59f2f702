package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/google/uuid"
)

// ErrDuplicate возвращается при нарушении уникальности (повторная запись, повторное оповещение)
var ErrDuplicate = errors.New("duplicate record")

// Все Get-методы возвращают nil, nil если запись не найдена.
// ForUpdate-методы внутри транзакции блокируют строку до её завершения.

// TxManager выполняет fn в одной транзакции. Транзакция передаётся через ctx,
// все хранилища, вызванные с этим ctx, работают внутри неё.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SlotFilter struct {
	BloodBankID     *uuid.UUID
	Date            *time.Time
	IncludeInactive bool
}

type SlotStore interface {
	Create(ctx context.Context, slot *model.DonationSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.DonationSlot, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DonationSlot, error)
	Update(ctx context.Context, slot *model.DonationSlot) error
	List(ctx context.Context, filter SlotFilter) ([]*model.DonationSlot, error)
	Exists(ctx context.Context, bankID uuid.UUID, date time.Time, startTime, endTime string) (bool, error)
}

type RecurringScheduleStore interface {
	Create(ctx context.Context, schedule *model.RecurringSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringSchedule, error)
	GetByBloodBankID(ctx context.Context, bankID uuid.UUID) ([]*model.RecurringSchedule, error)
	GetAllActive(ctx context.Context) ([]*model.RecurringSchedule, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type AppointmentFilter struct {
	DonorID     *uuid.UUID
	BloodBankID *uuid.UUID
	Status      *model.AppointmentStatus
}

type AppointmentStore interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	GetByToken(ctx context.Context, token string) (*model.Appointment, error)
	Update(ctx context.Context, appt *model.Appointment) error
	HasActiveForSlot(ctx context.Context, donorID, slotID uuid.UUID) (bool, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*model.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]*model.Appointment, error)
}

type DonorStore interface {
	Upsert(ctx context.Context, donor *model.DonorProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.DonorProfile, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DonorProfile, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.DonorProfile, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.DonorProfile, error)
	Update(ctx context.Context, donor *model.DonorProfile) error
}

type InventoryStore interface {
	// Credit прибавляет units, создавая запись при отсутствии
	Credit(ctx context.Context, bankID uuid.UUID, bloodType model.BloodType, units int, at time.Time) (*model.InventoryItem, error)
	// Set выставляет абсолютное значение, создавая запись при отсутствии
	Set(ctx context.Context, bankID uuid.UUID, bloodType model.BloodType, units int, at time.Time) (*model.InventoryItem, error)
	List(ctx context.Context, bankID *uuid.UUID) ([]*model.InventoryItem, error)
}

type RareProfileStore interface {
	Create(ctx context.Context, profile *model.RareDonorProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RareDonorProfile, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RareDonorProfile, error)
	GetByDonorIDForUpdate(ctx context.Context, donorID uuid.UUID) (*model.RareDonorProfile, error)
	GetByDonorID(ctx context.Context, donorID uuid.UUID) (*model.RareDonorProfile, error)
	Update(ctx context.Context, profile *model.RareDonorProfile) error
	// ListCandidates возвращает активные верифицированные профили указанной группы
	ListCandidates(ctx context.Context, bloodType model.BloodType) ([]*model.RareDonorProfile, error)
	List(ctx context.Context, status *model.VerificationStatus) ([]*model.RareDonorProfile, error)
}

type RareRequestStore interface {
	Create(ctx context.Context, req *model.RareDonorRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RareDonorRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*model.RareDonorRequest, error)
}

type AlertStore interface {
	// Create возвращает ErrDuplicate, если для пары (запрос, донор) оповещение уже есть
	Create(ctx context.Context, alert *model.RareAlert) error
	Exists(ctx context.Context, requestID, donorID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RareAlert, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RareAlert, error)
	Update(ctx context.Context, alert *model.RareAlert) error
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]*model.RareAlert, error)
	// ListPending возвращает PENDING оповещения, срок попытки которых наступил к now
	ListPending(ctx context.Context, now time.Time, limit int) ([]*model.RareAlert, error)
	// RecordFailure увеличивает счётчик попыток и откладывает следующую
	RecordFailure(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time) error
	// MarkSent переводит PENDING -> SENT, false если статус уже другой
	MarkSent(ctx context.Context, id uuid.UUID) (bool, error)
}

type AuditLogStore interface {
	Append(ctx context.Context, entry *model.AuditLogEntry) error
	List(ctx context.Context, limit int) ([]*model.AuditLogEntry, error)
}

// Store набор хранилищ одного бэкенда
type Store struct {
	Tx           TxManager
	Slots        SlotStore
	Schedules    RecurringScheduleStore
	Appointments AppointmentStore
	Donors       DonorStore
	Inventory    InventoryStore
	RareProfiles RareProfileStore
	RareRequests RareRequestStore
	Alerts       AlertStore
	AuditLog     AuditLogStore
}
