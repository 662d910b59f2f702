package api

import (
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
)

func (h *Handler) listRareProfiles(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireRole[model.Admin](w, r)
	if !ok {
		return
	}

	var status *model.VerificationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.VerificationStatus(raw)
		status = &s
	}

	profiles, err := h.svc.Verification.ListProfiles(r.Context(), admin, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *Handler) verifyProfile(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireRole[model.Admin](w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var in service.VerifyInput
	if !h.decode(w, r, &in, false) {
		return
	}

	profile, err := h.svc.Verification.Verify(r.Context(), admin, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireRole[model.Admin](w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultAuditLogLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries, err := h.svc.Verification.ListAuditLogs(r.Context(), admin, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
