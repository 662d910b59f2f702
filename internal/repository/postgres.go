package repository

import (
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresStore собирает хранилища поверх одного пула
func NewPostgresStore(pool *pgxpool.Pool) Store {
	db := base.NewRepository(pool)
	return Store{
		Tx:           db,
		Slots:        NewSlotRepository(db),
		Schedules:    NewRecurringScheduleRepository(db),
		Appointments: NewAppointmentRepository(db),
		Donors:       NewDonorRepository(db),
		Inventory:    NewInventoryRepository(db),
		RareProfiles: NewRareProfileRepository(db),
		RareRequests: NewRareRequestRepository(db),
		Alerts:       NewAlertRepository(db),
		AuditLog:     NewAuditLogRepository(db),
	}
}
