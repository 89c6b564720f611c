package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ewaste/internal/models"
	"ewaste/internal/otp"
	"ewaste/internal/store"
)

func (h *Handler) handleAssignedRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RolePickupPerson)
	if !ok {
		return
	}

	requests, err := h.store.ListAssignedRequests(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) handlePickupActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/pickup/request/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	requestID := parts[0]
	switch parts[1] {
	case "initiate-verification":
		h.handleInitiateVerification(w, r, requestID)
	case "verify-complete":
		h.handleVerifyComplete(w, r, requestID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleInitiateVerification emails a fresh code to the requesting user and
// moves a SCHEDULED request to ON_THE_WAY. Re-initiating from ON_THE_WAY
// reissues the code without another transition.
func (h *Handler) handleInitiateVerification(w http.ResponseWriter, r *http.Request, requestID string) {
	claims, ok := requireRole(w, r, models.RolePickupPerson)
	if !ok {
		return
	}

	request, err := h.store.GetRequest(r.Context(), requestID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if request.PickupPersonID == nil || *request.PickupPersonID != claims.UserID {
		writeError(w, http.StatusForbidden, "access_denied", "request is not assigned to you")
		return
	}
	if request.Status != models.StatusScheduled && request.Status != models.StatusOnTheWay {
		writeError(w, http.StatusConflict, "invalid_state", "request state does not allow verification")
		return
	}

	code, err := otp.GenerateCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if err := h.otp.Issue(r.Context(), requestID, code); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if err := h.notifier.PickupOTP(r.Context(), request, code); err != nil {
		writeError(w, http.StatusBadGateway, "otp_delivery_failed", "could not deliver verification code")
		return
	}

	if request.Status == models.StatusScheduled {
		request, err = h.store.UpdateStatus(r.Context(), store.UpdateStatusInput{
			RequestID:  requestID,
			Action:     "depart",
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		h.publish(request)
	}

	writeJSON(w, http.StatusOK, request)
}

func (h *Handler) handleVerifyComplete(w http.ResponseWriter, r *http.Request, requestID string) {
	claims, ok := requireRole(w, r, models.RolePickupPerson)
	if !ok {
		return
	}

	code, err := otp.NormalizeCode(r.URL.Query().Get("otp"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_otp", "otp must be 6 digits")
		return
	}

	request, err := h.store.GetRequest(r.Context(), requestID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if request.PickupPersonID == nil || *request.PickupPersonID != claims.UserID {
		writeError(w, http.StatusForbidden, "access_denied", "request is not assigned to you")
		return
	}

	if err := h.otp.Verify(r.Context(), requestID, code); err != nil {
		switch {
		case errors.Is(err, otp.ErrMismatch):
			writeError(w, http.StatusBadRequest, "invalid_otp", "verification code does not match")
		case errors.Is(err, otp.ErrLockedOut):
			writeError(w, http.StatusTooManyRequests, "otp_locked", "too many failed attempts, re-initiate verification")
		case errors.Is(err, otp.ErrNotIssued):
			writeError(w, http.StatusConflict, "otp_not_issued", "no verification code issued for this request")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	request, err = h.store.UpdateStatus(r.Context(), store.UpdateStatusInput{
		RequestID:  requestID,
		Action:     "complete",
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.publish(request)
	writeJSON(w, http.StatusOK, request)
}
