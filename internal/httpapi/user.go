package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"ewaste/internal/auth"
	"ewaste/internal/models"
	"ewaste/internal/report"
	"ewaste/internal/store"
)

func (h *Handler) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RoleUser)
	if !ok {
		return
	}

	requests, err := h.store.ListUserRequests(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleMyStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RoleUser)
	if !ok {
		return
	}

	stats, err := h.store.UserRequestStats(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleReportDownload streams the recycling report PDF for one of the
// caller's completed requests.
func (h *Handler) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RoleUser)
	if !ok {
		return
	}

	requestID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/user/report/"), "/")
	if requestID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	request, err := h.store.GetRequest(r.Context(), requestID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if request.UserID != claims.UserID {
		writeError(w, http.StatusForbidden, "access_denied", "request belongs to another user")
		return
	}

	pdf, err := report.RecyclingReport(request)
	if err != nil {
		writeError(w, http.StatusConflict, "report_unavailable", "report is only available for completed requests")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=recycling-report-"+requestID+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RoleUser)
	if !ok {
		return
	}

	user, err := h.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	completed, err := h.store.CountCompleted(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	pdf, err := report.AppreciationCertificate(user, completed)
	if err != nil {
		writeError(w, http.StatusConflict, "not_qualified",
			"certificate requires "+strconv.Itoa(report.RequiredSubmissions)+" completed submissions")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=certificate.pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

type profileRequest struct {
	Name            string `json:"name"`
	PhoneNumber     string `json:"phone_number"`
	Address         string `json:"address"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RoleUser, models.RolePickupPerson, models.RoleAdmin)
	if !ok {
		return
	}

	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var newHash string
	if req.NewPassword != "" {
		if len(req.NewPassword) < 8 {
			writeError(w, http.StatusBadRequest, "invalid_request", "new password must be at least 8 characters")
			return
		}
		currentHash, err := h.store.PasswordHash(r.Context(), claims.UserID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if !auth.CheckPassword(currentHash, req.CurrentPassword) {
			writeError(w, http.StatusForbidden, "invalid_credentials", "current password is incorrect")
			return
		}
		newHash, err = auth.HashPassword(req.NewPassword)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
	}

	user, err := h.store.UpdateProfile(r.Context(), store.UpdateProfileInput{
		UserID:          claims.UserID,
		Name:            strings.TrimSpace(req.Name),
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		Address:         strings.TrimSpace(req.Address),
		NewPasswordHash: newHash,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
