package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ewaste/internal/models"
)

var (
	ErrUnauthorized   = errors.New("client: unauthorized")
	ErrForbidden      = errors.New("client: forbidden")
	ErrNotLoggedIn    = errors.New("client: not logged in")
	ErrVerifyInFlight = errors.New("client: verification already in progress")
)

// APIError carries the server's structured error body for statuses the
// sentinel errors do not cover.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Client is a typed wrapper over the REST surface. It holds the bearer token
// for the logged-in account and optionally persists it through a Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session

	mu       sync.Mutex
	token    string
	user     models.User
	verifyMu sync.Mutex
	verifyIn bool
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Session    *Session
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		session:    opts.Session,
	}
	if c.session != nil {
		if state, ok := c.session.Load(); ok {
			c.token = state.Token
			c.user = state.User
		}
	}
	return c, nil
}

// User returns the account from the last login or hydrated session.
func (c *Client) User() (models.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user, c.token != ""
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return models.User{}, err
	}

	c.mu.Lock()
	c.token = result.Token
	c.user = result.User
	c.mu.Unlock()

	if c.session != nil {
		if err := c.session.Save(State{Token: result.Token, User: result.User}); err != nil {
			return result.User, err
		}
	}
	return result.User, nil
}

type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
}

func (c *Client) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", input, &result); err != nil {
		return models.User{}, err
	}

	c.mu.Lock()
	c.token = result.Token
	c.user = result.User
	c.mu.Unlock()

	if c.session != nil {
		if err := c.session.Save(State{Token: result.Token, User: result.User}); err != nil {
			return result.User, err
		}
	}
	return result.User, nil
}

// Logout drops the in-memory token and clears the persisted session.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.token = ""
	c.user = models.User{}
	c.mu.Unlock()

	if c.session != nil {
		return c.session.Clear()
	}
	return nil
}

type CreateRequestInput struct {
	DeviceType    string
	Brand         string
	Model         string
	Quantity      int
	Condition     string
	PickupAddress string
	Remarks       string
	Images        []Image
}

type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (c *Client) CreateRequest(ctx context.Context, input CreateRequestInput) (models.Request, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"deviceType":    input.DeviceType,
		"brand":         input.Brand,
		"model":         input.Model,
		"quantity":      fmt.Sprintf("%d", input.Quantity),
		"condition":     input.Condition,
		"pickupAddress": input.PickupAddress,
		"remarks":       input.Remarks,
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return models.Request{}, err
		}
	}
	for _, image := range input.Images {
		part, err := form.CreateFormFile("images", image.Filename)
		if err != nil {
			return models.Request{}, err
		}
		if _, err := part.Write(image.Data); err != nil {
			return models.Request{}, err
		}
	}
	if err := form.Close(); err != nil {
		return models.Request{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/requests", &buf)
	if err != nil {
		return models.Request{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var request models.Request
	if err := c.send(req, &request); err != nil {
		return models.Request{}, err
	}
	return request, nil
}

func (c *Client) MyRequests(ctx context.Context) ([]models.Request, error) {
	var requests []models.Request
	if err := c.do(ctx, http.MethodGet, "/api/user/my-requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) MyStats(ctx context.Context) (models.RequestStats, error) {
	var stats models.RequestStats
	if err := c.do(ctx, http.MethodGet, "/api/user/my-stats/requests-by-status", nil, &stats); err != nil {
		return models.RequestStats{}, err
	}
	return stats, nil
}

// DownloadReport fetches the recycling report PDF for a completed request.
func (c *Client) DownloadReport(ctx context.Context, requestID string) ([]byte, error) {
	return c.download(ctx, "/api/user/report/"+url.PathEscape(requestID))
}

func (c *Client) DownloadCertificate(ctx context.Context) ([]byte, error) {
	return c.download(ctx, "/api/user/certificate")
}

type UpdateProfileInput struct {
	Name            string `json:"name,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	Address         string `json:"address,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, input UpdateProfileInput) (models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/api/user/profile", input, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (c *Client) AssignedRequests(ctx context.Context) ([]models.Request, error) {
	var requests []models.Request
	if err := c.do(ctx, http.MethodGet, "/api/pickup/my-assigned-requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) InitiateVerification(ctx context.Context, requestID string) (models.Request, error) {
	var request models.Request
	path := "/api/pickup/request/" + url.PathEscape(requestID) + "/initiate-verification"
	if err := c.do(ctx, http.MethodPost, path, nil, &request); err != nil {
		return models.Request{}, err
	}
	return request, nil
}

// VerifyComplete submits the pickup code. Only one verification call may be
// in flight at a time; a second concurrent call fails with ErrVerifyInFlight
// instead of double-submitting.
func (c *Client) VerifyComplete(ctx context.Context, requestID, code string) (models.Request, error) {
	c.verifyMu.Lock()
	if c.verifyIn {
		c.verifyMu.Unlock()
		return models.Request{}, ErrVerifyInFlight
	}
	c.verifyIn = true
	c.verifyMu.Unlock()
	defer func() {
		c.verifyMu.Lock()
		c.verifyIn = false
		c.verifyMu.Unlock()
	}()

	var request models.Request
	path := "/api/pickup/request/" + url.PathEscape(requestID) + "/verify-complete?otp=" + url.QueryEscape(code)
	if err := c.do(ctx, http.MethodPost, path, nil, &request); err != nil {
		return models.Request{}, err
	}
	return request, nil
}

func (c *Client) ListRequests(ctx context.Context) ([]models.Request, error) {
	var requests []models.Request
	if err := c.do(ctx, http.MethodGet, "/api/requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) Approve(ctx context.Context, requestID string) (models.Request, error) {
	return c.updateStatus(ctx, requestID, models.StatusApproved, "")
}

func (c *Client) Reject(ctx context.Context, requestID, reason string) (models.Request, error) {
	return c.updateStatus(ctx, requestID, models.StatusRejected, reason)
}

func (c *Client) updateStatus(ctx context.Context, requestID, status, reason string) (models.Request, error) {
	var request models.Request
	path := "/api/requests/" + url.PathEscape(requestID) + "/status"
	err := c.do(ctx, http.MethodPut, path, map[string]string{
		"status":           status,
		"rejection_reason": reason,
	}, &request)
	if err != nil {
		return models.Request{}, err
	}
	return request, nil
}

func (c *Client) Schedule(ctx context.Context, requestID string, pickupDate time.Time, pickupPersonID string) (models.Request, error) {
	var request models.Request
	path := "/api/requests/" + url.PathEscape(requestID) + "/schedule"
	err := c.do(ctx, http.MethodPut, path, map[string]string{
		"pickup_date":      pickupDate.Format(time.RFC3339),
		"pickup_person_id": pickupPersonID,
	}, &request)
	if err != nil {
		return models.Request{}, err
	}
	return request, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SetUserStatus(ctx context.Context, userID, status string) error {
	path := "/api/admin/users/" + url.PathEscape(userID) + "/status"
	return c.do(ctx, http.MethodPut, path, map[string]string{"status": status}, nil)
}

func (c *Client) ListPickupPersons(ctx context.Context) ([]models.PickupPerson, error) {
	var persons []models.PickupPerson
	if err := c.do(ctx, http.MethodGet, "/api/admin/pickup-persons", nil, &persons); err != nil {
		return nil, err
	}
	return persons, nil
}

type OnboardPickupPersonInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	VehicleNumber string `json:"vehicle_number"`
	VehicleType   string `json:"vehicle_type,omitempty"`
}

func (c *Client) OnboardPickupPerson(ctx context.Context, input OnboardPickupPersonInput) (models.PickupPerson, error) {
	var person models.PickupPerson
	if err := c.do(ctx, http.MethodPost, "/api/admin/pickup-persons", input, &person); err != nil {
		return models.PickupPerson{}, err
	}
	return person, nil
}

func (c *Client) DashboardSummary(ctx context.Context) (models.DashboardSummary, error) {
	var summary models.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/api/admin/dashboard-summary", nil, &summary); err != nil {
		return models.DashboardSummary{}, err
	}
	return summary, nil
}

func (c *Client) MyTickets(ctx context.Context) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	if err := c.do(ctx, http.MethodGet, "/api/support/my-tickets", nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

type CreateTicketInput struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
}

func (c *Client) CreateTicket(ctx context.Context, input CreateTicketInput) (models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := c.do(ctx, http.MethodPost, "/api/support/create", input, &ticket); err != nil {
		return models.SupportTicket{}, err
	}
	return ticket, nil
}

func (c *Client) AllTickets(ctx context.Context) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	if err := c.do(ctx, http.MethodGet, "/api/support/admin/all", nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) ReplyTicket(ctx context.Context, ticketID, reply string) (models.SupportTicket, error) {
	var ticket models.SupportTicket
	path := "/api/support/admin/" + url.PathEscape(ticketID) + "/reply"
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"reply": reply}, &ticket); err != nil {
		return models.SupportTicket{}, err
	}
	return ticket, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, target)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, target interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	return &APIError{Status: resp.StatusCode, Code: payload.Error.Code, Message: payload.Error.Message}
}
