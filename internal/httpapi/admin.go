package httpapi

import (
	"net/http"
	"strings"

	"ewaste/internal/auth"
	"ewaste/internal/models"
	"ewaste/internal/store"
)

func (h *Handler) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleAdminUserStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[1] != "status" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID := parts[0]

	var req userStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.store.UpdateUserStatus(r.Context(), userID, strings.TrimSpace(req.Status)); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "status": req.Status})
}

type onboardPickupPersonRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	PhoneNumber   string `json:"phone_number"`
	VehicleNumber string `json:"vehicle_number"`
	VehicleType   string `json:"vehicle_type"`
}

func (h *Handler) handlePickupPersons(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
			return
		}
		persons, err := h.store.ListPickupPersons(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, persons)
	case http.MethodPost:
		h.handleOnboardPickupPerson(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleOnboardPickupPerson(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	var req onboardPickupPersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.VehicleNumber = strings.TrimSpace(req.VehicleNumber)
	if req.Name == "" || req.Email == "" || req.VehicleNumber == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "invalid_request", "name, email, vehicle_number, and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	person, err := h.store.OnboardPickupPerson(r.Context(), store.OnboardPickupPersonInput{
		RegisterUserInput: store.RegisterUserInput{
			Name:         req.Name,
			Email:        req.Email,
			PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
			PasswordHash: hash,
			Role:         models.RolePickupPerson,
		},
		VehicleNumber: req.VehicleNumber,
		VehicleType:   strings.TrimSpace(req.VehicleType),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *Handler) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	summary, err := h.store.DashboardSummary(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
