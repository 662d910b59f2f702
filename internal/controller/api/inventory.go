package api

import (
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
)

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	bankID, err := queryUUID(r, "bank_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.svc.Inventory.ListInventory(r.Context(), bankID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	bank, ok := requireRole[model.BloodBank](w, r)
	if !ok {
		return
	}

	var in service.AdjustInventoryInput
	if !h.decode(w, r, &in, false) {
		return
	}

	item, err := h.svc.Inventory.AdjustInventory(r.Context(), bank, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) getDonor(w http.ResponseWriter, r *http.Request) {
	donor, ok := requireRole[model.Donor](w, r)
	if !ok {
		return
	}
	profile, err := h.svc.Donors.GetDonor(r.Context(), donor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) registerDonor(w http.ResponseWriter, r *http.Request) {
	donor, ok := requireRole[model.Donor](w, r)
	if !ok {
		return
	}

	var in service.RegisterDonorInput
	if !h.decode(w, r, &in, false) {
		return
	}

	profile, err := h.svc.Donors.RegisterDonor(r.Context(), donor, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
