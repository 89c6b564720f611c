package httpapi

import (
	"net/http"
	"strings"
	"time"

	"ewaste/internal/models"
	"ewaste/internal/store"
)

func (h *Handler) handleMyTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RoleUser)
	if !ok {
		return
	}

	tickets, err := h.store.ListUserTickets(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

type createTicketRequest struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

func (h *Handler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims, ok := requireRole(w, r, models.RoleUser)
	if !ok {
		return
	}

	var req createTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Subject == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "subject and message are required")
		return
	}

	ticket, err := h.store.CreateTicket(r.Context(), store.CreateTicketInput{
		UserID:   claims.UserID,
		Subject:  req.Subject,
		Message:  req.Message,
		Category: strings.TrimSpace(req.Category),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleAllTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	tickets, err := h.store.ListTickets(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

type ticketReplyRequest struct {
	Reply string `json:"reply"`
}

func (h *Handler) handleTicketReply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/support/admin/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[1] != "reply" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	ticketID := parts[0]

	var req ticketReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Reply = strings.TrimSpace(req.Reply)
	if req.Reply == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "reply is required")
		return
	}

	ticket, err := h.store.ReplyTicket(r.Context(), ticketID, req.Reply, time.Now().UTC())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}
