package api

import (
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
)

func (h *Handler) optIn(w http.ResponseWriter, r *http.Request) {
	donor, ok := requireRole[model.Donor](w, r)
	if !ok {
		return
	}

	var in service.OptInInput
	if !h.decode(w, r, &in, true) {
		return
	}

	profile, err := h.svc.Rare.OptIn(r.Context(), donor, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) getRareProfile(w http.ResponseWriter, r *http.Request) {
	donor, ok := requireRole[model.Donor](w, r)
	if !ok {
		return
	}
	profile, err := h.svc.Rare.GetProfile(r.Context(), donor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) submitRareRequest(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRole[model.Requester](w, r)
	if !ok {
		return
	}

	var in service.SubmitRequestInput
	if !h.decode(w, r, &in, false) {
		return
	}

	result, err := h.svc.Rare.Submit(r.Context(), requester, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) listRareRequests(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRole[model.Requester](w, r)
	if !ok {
		return
	}
	requests, err := h.svc.Rare.ListRequests(r.Context(), requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	donor, ok := requireRole[model.Donor](w, r)
	if !ok {
		return
	}
	alerts, err := h.svc.Rare.ListAlerts(r.Context(), donor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

type respondRequest struct {
	Action model.AlertAction `json:"action"`
}

func (h *Handler) respondToAlert(w http.ResponseWriter, r *http.Request) {
	donor, ok := requireRole[model.Donor](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req respondRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	alert, err := h.svc.Rare.RespondToAlert(r.Context(), donor, id, req.Action)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}
