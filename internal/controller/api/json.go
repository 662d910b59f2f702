package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus сопоставляет ошибку ядра HTTP статусу и коду
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, model.ErrSlotFull):
		return http.StatusConflict, "slot_full"
	case errors.Is(err, model.ErrDuplicateBooking):
		return http.StatusConflict, "duplicate_booking"
	case errors.Is(err, model.ErrCooldownActive):
		return http.StatusConflict, "cooldown_active"
	case errors.Is(err, model.ErrNotEligible):
		return http.StatusUnprocessableEntity, "not_eligible"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError пишет ошибку ядра. Внутренние ошибки логируются и не раскрываются клиенту.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	resp := errorResponse{Error: err.Error(), Code: code}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		resp.Error = "internal error"
	}

	var cooldown *model.CooldownError
	if errors.As(err, &cooldown) {
		days := cooldown.DaysRemaining
		resp.DaysRemaining = &days
	}

	writeJSON(w, status, resp)
}

func writeStatus(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// decodeJSON читает тело запроса. Пустое тело допустимо, если optional.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
