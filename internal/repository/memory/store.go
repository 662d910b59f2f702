// Package memory реализует хранилища в памяти процесса. Используется в тестах
// и для локального запуска без PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
)

type inventoryKey struct {
	bankID    uuid.UUID
	bloodType model.BloodType
}

type state struct {
	slots        map[uuid.UUID]model.DonationSlot
	schedules    map[uuid.UUID]model.RecurringSchedule
	appointments map[uuid.UUID]model.Appointment
	donors       map[uuid.UUID]model.DonorProfile
	inventory    map[inventoryKey]model.InventoryItem
	profiles     map[uuid.UUID]model.RareDonorProfile
	requests     map[uuid.UUID]model.RareDonorRequest
	alerts       map[uuid.UUID]model.RareAlert
	audit        []model.AuditLogEntry
}

func newState() *state {
	return &state{
		slots:        make(map[uuid.UUID]model.DonationSlot),
		schedules:    make(map[uuid.UUID]model.RecurringSchedule),
		appointments: make(map[uuid.UUID]model.Appointment),
		donors:       make(map[uuid.UUID]model.DonorProfile),
		inventory:    make(map[inventoryKey]model.InventoryItem),
		profiles:     make(map[uuid.UUID]model.RareDonorProfile),
		requests:     make(map[uuid.UUID]model.RareDonorRequest),
		alerts:       make(map[uuid.UUID]model.RareAlert),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone копирует состояние. Значения хранятся по значению, указатели внутри
// (время, строки) никогда не изменяются на месте.
func (s *state) clone() *state {
	return &state{
		slots:        cloneMap(s.slots),
		schedules:    cloneMap(s.schedules),
		appointments: cloneMap(s.appointments),
		donors:       cloneMap(s.donors),
		inventory:    cloneMap(s.inventory),
		profiles:     cloneMap(s.profiles),
		requests:     cloneMap(s.requests),
		alerts:       cloneMap(s.alerts),
		audit:        append([]model.AuditLogEntry(nil), s.audit...),
	}
}

type txKey struct{}

type txState struct {
	store *Store
	st    *state
}

// Store хранит все сущности под одним мьютексом. Транзакция держит мьютекс
// до конца и работает с копией, которая подменяет состояние только при успехе.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// Repositories возвращает набор хранилищ поверх этого Store
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Tx:           s,
		Slots:        &slotStore{s},
		Schedules:    &scheduleStore{s},
		Appointments: &appointmentStore{s},
		Donors:       &donorStore{s},
		Inventory:    &inventoryStore{s},
		RareProfiles: &rareProfileStore{s},
		RareRequests: &rareRequestStore{s},
		Alerts:       &alertStore{s},
		AuditLog:     &auditLogStore{s},
	}
}

// WithinTx выполняет fn атомарно. Вложенный вызов работает в той же транзакции.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.store == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, &txState{store: s, st: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

// run выполняет fn над состоянием транзакции из ctx или под мьютексом
func (s *Store) run(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.store == s {
		return fn(tx.st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}
