package api

import (
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
)

// decode читает тело или отвечает 400
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := decodeJSON(w, r, dst, optional); err != nil {
		h.writeError(w, r, invalid("malformed body: %v", err))
		return false
	}
	return true
}

type createSlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  *int   `json:"capacity,omitempty"`
}

func (h *Handler) createSlot(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}

	var req createSlotRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	capacity := model.DefaultSlotCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	slot, err := h.svc.Slots.CreateSlot(r.Context(), bank, service.CreateSlotInput{
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  capacity,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	bankID, err := queryUUID(r, "bank_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	includeInactive, err := queryBool(r, "include_inactive")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slots, err := h.svc.Slots.ListSlots(r.Context(), service.SlotQuery{
		BloodBankID:     bankID,
		Date:            date,
		IncludeInactive: includeInactive,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handler) getSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	slot, err := h.svc.Slots.GetSlot(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *Handler) updateSlot(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var in service.UpdateSlotInput
	if !h.decode(w, r, &in, false) {
		return
	}

	slot, err := h.svc.Slots.UpdateSlot(r.Context(), bank, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *Handler) deleteSlot(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	cancelled, err := h.svc.Slots.DeleteSlot(r.Context(), bank, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cancelled_appointments": cancelled})
}

type recurringScheduleResponse struct {
	Schedule     *model.RecurringSchedule `json:"schedule"`
	SlotsCreated int                      `json:"slots_created"`
}

func (h *Handler) createRecurringSchedule(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}

	var in service.RecurringScheduleInput
	if !h.decode(w, r, &in, false) {
		return
	}
	if in.Capacity == 0 {
		in.Capacity = model.DefaultSlotCapacity
	}

	schedule, created, err := h.svc.Slots.CreateRecurringSchedule(r.Context(), bank, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recurringScheduleResponse{Schedule: schedule, SlotsCreated: created})
}

func (h *Handler) listRecurringSchedules(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}
	schedules, err := h.svc.Slots.ListRecurringSchedules(r.Context(), bank)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (h *Handler) deactivateRecurringSchedule(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Slots.DeactivateRecurringSchedule(r.Context(), bank, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
