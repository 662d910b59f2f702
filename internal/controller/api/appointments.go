package api

import (
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/google/uuid"
)

type bookSlotRequest struct {
	SlotID      uuid.UUID `json:"slot_id"`
	BloodBankID uuid.UUID `json:"blood_bank_id"`
}

func (h *Handler) bookSlot(w http.ResponseWriter, r *http.Request) {
	donor, ok := requireRole[model.Donor](w, r)
	if !ok {
		return
	}

	var req bookSlotRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	appt, err := h.svc.Bookings.BookSlot(r.Context(), donor, req.SlotID, req.BloodBankID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole[model.AppointmentActor](w, r)
	if !ok {
		return
	}

	var status *model.AppointmentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.AppointmentStatus(raw)
		if !s.IsValid() {
			h.writeError(w, r, invalid("unknown status %q", raw))
			return
		}
		status = &s
	}

	views, err := h.svc.Bookings.ListAppointments(r.Context(), actor, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole[model.AppointmentActor](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	appt, err := h.svc.Bookings.CancelAppointment(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	appt, err := h.svc.Bookings.CheckIn(r.Context(), bank, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type completeRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req completeRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	appt, err := h.svc.Bookings.Complete(r.Context(), bank, id, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type scanRequest struct {
	Token string `json:"token"`
}

func (h *Handler) scanToken(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}

	var req scanRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	result, err := h.svc.Bookings.ScanToken(r.Context(), bank, req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
