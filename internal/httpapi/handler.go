package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ewaste/internal/auth"
	"ewaste/internal/models"
	"ewaste/internal/notify"
	"ewaste/internal/store"
)

// ImageUploader is the slice of the storage layer the create-request handler
// needs; satisfied by storage.Uploader.
type ImageUploader interface {
	UploadImage(data []byte, filename, contentType string) (string, error)
}

// OTPStore is the slice of the otp package the pickup handlers need;
// satisfied by otp.Store.
type OTPStore interface {
	Issue(ctx context.Context, requestID, code string) error
	Verify(ctx context.Context, requestID, code string) error
}

// Publisher receives a request snapshot after every successful lifecycle
// mutation; satisfied by realtime.Hub. Optional.
type Publisher interface {
	RequestUpdated(request models.Request)
}

type Handler struct {
	store     store.Store
	tokens    *auth.Manager
	otp       OTPStore
	notifier  *notify.Notifier
	uploader  ImageUploader
	publisher Publisher
}

type Options struct {
	Store     store.Store
	Tokens    *auth.Manager
	OTP       OTPStore
	Notifier  *notify.Notifier
	Uploader  ImageUploader
	Publisher Publisher
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		store:     opts.Store,
		tokens:    opts.Tokens,
		otp:       opts.OTP,
		notifier:  opts.Notifier,
		uploader:  opts.Uploader,
		publisher: opts.Publisher,
	}
}

func (h *Handler) publish(request models.Request) {
	if h.publisher != nil {
		h.publisher.RequestUpdated(request)
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)

	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/register", h.handleRegister)

	mux.HandleFunc("/api/requests", h.handleRequests)
	mux.HandleFunc("/api/requests/", h.handleRequestActions)

	mux.HandleFunc("/api/user/my-requests", h.handleMyRequests)
	mux.HandleFunc("/api/user/my-stats/requests-by-status", h.handleMyStats)
	mux.HandleFunc("/api/user/report/", h.handleReportDownload)
	mux.HandleFunc("/api/user/certificate", h.handleCertificate)
	mux.HandleFunc("/api/user/profile", h.handleProfile)

	mux.HandleFunc("/api/pickup/my-assigned-requests", h.handleAssignedRequests)
	mux.HandleFunc("/api/pickup/request/", h.handlePickupActions)

	mux.HandleFunc("/api/admin/users", h.handleAdminUsers)
	mux.HandleFunc("/api/admin/users/", h.handleAdminUserStatus)
	mux.HandleFunc("/api/admin/pickup-persons", h.handlePickupPersons)
	mux.HandleFunc("/api/admin/dashboard-summary", h.handleDashboardSummary)

	mux.HandleFunc("/api/support/my-tickets", h.handleMyTickets)
	mux.HandleFunc("/api/support/create", h.handleCreateTicket)
	mux.HandleFunc("/api/support/admin/all", h.handleAllTickets)
	mux.HandleFunc("/api/support/admin/", h.handleTicketReply)

	return h.authMiddleware(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrRequestNotFound):
		return http.StatusNotFound, "request_not_found", "request not found"
	case errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found", "user not found"
	case errors.Is(err, store.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found", "ticket not found"
	case errors.Is(err, store.ErrPickupPersonNotFound):
		return http.StatusNotFound, "pickup_person_not_found", "pickup person not found"
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "request state does not allow this action"
	case errors.Is(err, store.ErrTicketResolved):
		return http.StatusConflict, "ticket_resolved", "ticket is already resolved"
	case errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict, "email_taken", "email already registered"
	case errors.Is(err, store.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid_request", "invalid status value"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	status, code, msg := mapError(err)
	writeError(w, status, code, msg)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}
