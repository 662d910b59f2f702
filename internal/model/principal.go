package model

import (
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDonor     Role = "donor"
	RoleBloodBank Role = "blood_bank"
	RoleHospital  Role = "hospital"
	RoleAdmin     Role = "admin"
)

// Principal аутентифицированный вызывающий. Набор реализаций закрыт.
type Principal interface {
	PrincipalID() uuid.UUID
	Role() Role
	principal()
}

// Requester может создавать запросы на редких доноров
type Requester interface {
	Principal
	RequesterType() RequesterType
}

// AppointmentActor может отменять запись: её донор или её банк
type AppointmentActor interface {
	Principal
	appointmentActor()
}

type Donor struct{ ID uuid.UUID }

type BloodBank struct{ ID uuid.UUID }

type Hospital struct{ ID uuid.UUID }

type Admin struct{ ID uuid.UUID }

func (d Donor) PrincipalID() uuid.UUID { return d.ID }
func (Donor) Role() Role { return RoleDonor }
func (Donor) principal() {}
func (Donor) appointmentActor() {}

func (b BloodBank) PrincipalID() uuid.UUID { return b.ID }
func (BloodBank) Role() Role { return RoleBloodBank }
func (BloodBank) principal() {}
func (BloodBank) appointmentActor() {}
func (BloodBank) RequesterType() RequesterType { return RequesterBloodBank }

func (h Hospital) PrincipalID() uuid.UUID { return h.ID }
func (Hospital) Role() Role { return RoleHospital }
func (Hospital) principal() {}
func (Hospital) RequesterType() RequesterType { return RequesterHospital }

func (a Admin) PrincipalID() uuid.UUID { return a.ID }
func (Admin) Role() Role { return RoleAdmin }
func (Admin) principal() {}

// PrincipalFromRole строит вариант вызывающего по роли из доверенного заголовка
func PrincipalFromRole(role Role, id uuid.UUID) (Principal, error) {
	switch role {
	case RoleDonor:
		return Donor{ID: id}, nil
	case RoleBloodBank:
		return BloodBank{ID: id}, nil
	case RoleHospital:
		return Hospital{ID: id}, nil
	case RoleAdmin:
		return Admin{ID: id}, nil
	}
	return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
}
