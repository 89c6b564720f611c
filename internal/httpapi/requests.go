package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ewaste/internal/models"
	"ewaste/internal/store"
)

const maxUploadBytes = 20 << 20

func (h *Handler) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
			return
		}
		requests, err := h.store.ListRequests(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
	case http.MethodPost:
		h.handleCreateRequest(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireRole(w, r, models.RoleUser)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return
	}

	deviceType := strings.TrimSpace(r.FormValue("deviceType"))
	brand := strings.TrimSpace(r.FormValue("brand"))
	model := strings.TrimSpace(r.FormValue("model"))
	condition := strings.TrimSpace(r.FormValue("condition"))
	pickupAddress := strings.TrimSpace(r.FormValue("pickupAddress"))
	remarks := strings.TrimSpace(r.FormValue("remarks"))

	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil || quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "quantity must be a positive integer")
		return
	}
	if deviceType == "" || brand == "" || condition == "" || pickupAddress == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "deviceType, brand, condition, and pickupAddress are required")
		return
	}

	var imageURLs []string
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "unreadable image upload")
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "unreadable image upload")
				return
			}
			url, err := h.uploader.UploadImage(data, header.Filename, header.Header.Get("Content-Type"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "upload_failed", "image upload failed")
				return
			}
			imageURLs = append(imageURLs, url)
		}
	}

	request, err := h.store.CreateRequest(r.Context(), store.CreateRequestInput{
		UserID:        claims.UserID,
		DeviceType:    deviceType,
		Brand:         brand,
		Model:         model,
		Quantity:      quantity,
		Condition:     condition,
		PickupAddress: pickupAddress,
		Remarks:       remarks,
		ImageURLs:     imageURLs,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (h *Handler) handleRequestActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	requestID := parts[0]
	switch parts[1] {
	case "status":
		h.handleUpdateStatus(w, r, requestID)
	case "schedule":
		h.handleSchedule(w, r, requestID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type statusUpdateRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, requestID string) {
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	var req statusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var action string
	switch req.Status {
	case models.StatusApproved:
		action = "approve"
	case models.StatusRejected:
		action = "reject"
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "status must be APPROVED or REJECTED")
		return
	}

	request, err := h.store.UpdateStatus(r.Context(), store.UpdateStatusInput{
		RequestID:       requestID,
		Action:          action,
		RejectionReason: strings.TrimSpace(req.RejectionReason),
		OccurredAt:      time.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	switch request.Status {
	case models.StatusApproved:
		h.notifier.RequestApproved(r.Context(), request)
	case models.StatusRejected:
		h.notifier.RequestRejected(r.Context(), request)
	}
	h.publish(request)

	writeJSON(w, http.StatusOK, request)
}

type scheduleRequest struct {
	PickupDate     string `json:"pickup_date"`
	PickupPersonID string `json:"pickup_person_id"`
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request, requestID string) {
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.PickupPersonID = strings.TrimSpace(req.PickupPersonID)
	if req.PickupPersonID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "pickup_person_id is required")
		return
	}

	pickupDate, err := time.Parse(time.RFC3339, strings.TrimSpace(req.PickupDate))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "pickup_date must be an RFC3339 timestamp")
		return
	}

	request, err := h.store.SchedulePickup(r.Context(), store.ScheduleInput{
		RequestID:      requestID,
		PickupDate:     pickupDate,
		PickupPersonID: req.PickupPersonID,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.publish(request)
	writeJSON(w, http.StatusOK, request)
}
