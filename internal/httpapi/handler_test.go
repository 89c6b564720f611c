package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ewaste/internal/auth"
	"ewaste/internal/models"
	"ewaste/internal/notify"
	"ewaste/internal/otp"
	"ewaste/internal/store"
)

type fakeStore struct {
	createRequestFn   func(ctx context.Context, input store.CreateRequestInput) (models.Request, error)
	getRequestFn      func(ctx context.Context, requestID string) (models.Request, error)
	listRequestsFn    func(ctx context.Context) ([]models.Request, error)
	listUserFn        func(ctx context.Context, userID string) ([]models.Request, error)
	listAssignedFn    func(ctx context.Context, pickupPersonID string) ([]models.Request, error)
	updateStatusFn    func(ctx context.Context, input store.UpdateStatusInput) (models.Request, error)
	scheduleFn        func(ctx context.Context, input store.ScheduleInput) (models.Request, error)
	statsFn           func(ctx context.Context, userID string) (models.RequestStats, error)
	countCompletedFn  func(ctx context.Context, userID string) (int, error)
	registerFn        func(ctx context.Context, input store.RegisterUserInput) (models.User, error)
	getUserByEmailFn  func(ctx context.Context, email string) (models.User, string, error)
	getUserFn         func(ctx context.Context, userID string) (models.User, error)
	listUsersFn       func(ctx context.Context) ([]models.User, error)
	updateUserStatFn  func(ctx context.Context, userID, status string) error
	updateProfileFn   func(ctx context.Context, input store.UpdateProfileInput) (models.User, error)
	passwordHashFn    func(ctx context.Context, userID string) (string, error)
	listPickupFn      func(ctx context.Context) ([]models.PickupPerson, error)
	onboardFn         func(ctx context.Context, input store.OnboardPickupPersonInput) (models.PickupPerson, error)
	dashboardFn       func(ctx context.Context) (models.DashboardSummary, error)
	createTicketFn    func(ctx context.Context, input store.CreateTicketInput) (models.SupportTicket, error)
	listUserTicketsFn func(ctx context.Context, userID string) ([]models.SupportTicket, error)
	listTicketsFn     func(ctx context.Context) ([]models.SupportTicket, error)
	replyTicketFn     func(ctx context.Context, ticketID, reply string, resolvedAt time.Time) (models.SupportTicket, error)
}

func (f fakeStore) CreateRequest(ctx context.Context, input store.CreateRequestInput) (models.Request, error) {
	if f.createRequestFn == nil {
		return models.Request{}, nil
	}
	return f.createRequestFn(ctx, input)
}

func (f fakeStore) GetRequest(ctx context.Context, requestID string) (models.Request, error) {
	if f.getRequestFn == nil {
		return models.Request{}, nil
	}
	return f.getRequestFn(ctx, requestID)
}

func (f fakeStore) ListRequests(ctx context.Context) ([]models.Request, error) {
	if f.listRequestsFn == nil {
		return nil, nil
	}
	return f.listRequestsFn(ctx)
}

func (f fakeStore) ListUserRequests(ctx context.Context, userID string) ([]models.Request, error) {
	if f.listUserFn == nil {
		return nil, nil
	}
	return f.listUserFn(ctx, userID)
}

func (f fakeStore) ListAssignedRequests(ctx context.Context, pickupPersonID string) ([]models.Request, error) {
	if f.listAssignedFn == nil {
		return nil, nil
	}
	return f.listAssignedFn(ctx, pickupPersonID)
}

func (f fakeStore) UpdateStatus(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
	if f.updateStatusFn == nil {
		return models.Request{}, nil
	}
	return f.updateStatusFn(ctx, input)
}

func (f fakeStore) SchedulePickup(ctx context.Context, input store.ScheduleInput) (models.Request, error) {
	if f.scheduleFn == nil {
		return models.Request{}, nil
	}
	return f.scheduleFn(ctx, input)
}

func (f fakeStore) UserRequestStats(ctx context.Context, userID string) (models.RequestStats, error) {
	if f.statsFn == nil {
		return models.RequestStats{}, nil
	}
	return f.statsFn(ctx, userID)
}

func (f fakeStore) CountCompleted(ctx context.Context, userID string) (int, error) {
	if f.countCompletedFn == nil {
		return 0, nil
	}
	return f.countCompletedFn(ctx, userID)
}

func (f fakeStore) RegisterUser(ctx context.Context, input store.RegisterUserInput) (models.User, error) {
	if f.registerFn == nil {
		return models.User{}, nil
	}
	return f.registerFn(ctx, input)
}

func (f fakeStore) GetUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	if f.getUserByEmailFn == nil {
		return models.User{}, "", store.ErrUserNotFound
	}
	return f.getUserByEmailFn(ctx, email)
}

func (f fakeStore) GetUser(ctx context.Context, userID string) (models.User, error) {
	if f.getUserFn == nil {
		return models.User{}, nil
	}
	return f.getUserFn(ctx, userID)
}

func (f fakeStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if f.listUsersFn == nil {
		return nil, nil
	}
	return f.listUsersFn(ctx)
}

func (f fakeStore) UpdateUserStatus(ctx context.Context, userID, status string) error {
	if f.updateUserStatFn == nil {
		return nil
	}
	return f.updateUserStatFn(ctx, userID, status)
}

func (f fakeStore) UpdateProfile(ctx context.Context, input store.UpdateProfileInput) (models.User, error) {
	if f.updateProfileFn == nil {
		return models.User{}, nil
	}
	return f.updateProfileFn(ctx, input)
}

func (f fakeStore) PasswordHash(ctx context.Context, userID string) (string, error) {
	if f.passwordHashFn == nil {
		return "", store.ErrUserNotFound
	}
	return f.passwordHashFn(ctx, userID)
}

func (f fakeStore) ListPickupPersons(ctx context.Context) ([]models.PickupPerson, error) {
	if f.listPickupFn == nil {
		return nil, nil
	}
	return f.listPickupFn(ctx)
}

func (f fakeStore) OnboardPickupPerson(ctx context.Context, input store.OnboardPickupPersonInput) (models.PickupPerson, error) {
	if f.onboardFn == nil {
		return models.PickupPerson{}, nil
	}
	return f.onboardFn(ctx, input)
}

func (f fakeStore) DashboardSummary(ctx context.Context) (models.DashboardSummary, error) {
	if f.dashboardFn == nil {
		return models.DashboardSummary{}, nil
	}
	return f.dashboardFn(ctx)
}

func (f fakeStore) CreateTicket(ctx context.Context, input store.CreateTicketInput) (models.SupportTicket, error) {
	if f.createTicketFn == nil {
		return models.SupportTicket{}, nil
	}
	return f.createTicketFn(ctx, input)
}

func (f fakeStore) ListUserTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	if f.listUserTicketsFn == nil {
		return nil, nil
	}
	return f.listUserTicketsFn(ctx, userID)
}

func (f fakeStore) ListTickets(ctx context.Context) ([]models.SupportTicket, error) {
	if f.listTicketsFn == nil {
		return nil, nil
	}
	return f.listTicketsFn(ctx)
}

func (f fakeStore) ReplyTicket(ctx context.Context, ticketID, reply string, resolvedAt time.Time) (models.SupportTicket, error) {
	if f.replyTicketFn == nil {
		return models.SupportTicket{}, nil
	}
	return f.replyTicketFn(ctx, ticketID, reply, resolvedAt)
}

type fakeOTP struct {
	issueFn  func(ctx context.Context, requestID, code string) error
	verifyFn func(ctx context.Context, requestID, code string) error
}

func (f fakeOTP) Issue(ctx context.Context, requestID, code string) error {
	if f.issueFn == nil {
		return nil
	}
	return f.issueFn(ctx, requestID, code)
}

func (f fakeOTP) Verify(ctx context.Context, requestID, code string) error {
	if f.verifyFn == nil {
		return nil
	}
	return f.verifyFn(ctx, requestID, code)
}

type fakeUploader struct {
	uploadFn func(data []byte, filename, contentType string) (string, error)
}

func (f fakeUploader) UploadImage(data []byte, filename, contentType string) (string, error) {
	if f.uploadFn == nil {
		return "https://bucket.example.com/" + filename, nil
	}
	return f.uploadFn(data, filename, contentType)
}

type providerFunc func(ctx context.Context, subject, message, recipient string) error

func (f providerFunc) Send(ctx context.Context, subject, message, recipient string) error {
	return f(ctx, subject, message, recipient)
}

func newTestHandler(t *testing.T, st fakeStore, opts Options) (*Handler, *auth.Manager) {
	t.Helper()
	tokens, err := auth.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	opts.Store = st
	opts.Tokens = tokens
	if opts.OTP == nil {
		opts.OTP = fakeOTP{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.New(providerFunc(func(ctx context.Context, subject, message, recipient string) error {
			return nil
		}))
	}
	if opts.Uploader == nil {
		opts.Uploader = fakeUploader{}
	}
	return NewHandler(opts), tokens
}

func bearer(t *testing.T, tokens *auth.Manager, userID, role string) string {
	t.Helper()
	token, err := tokens.Issue(userID, userID+"@example.com", role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + token
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	st := fakeStore{
		getUserByEmailFn: func(ctx context.Context, email string) (models.User, string, error) {
			return models.User{
				UserID: "user-1",
				Name:   "Asha",
				Email:  email,
				Role:   models.RoleUser,
				Status: models.UserActive,
			}, hash, nil
		},
	}
	h, _ := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{"email": "asha@example.com", "password": "correct-horse"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Token == "" || payload.User.UserID != "user-1" {
		t.Fatalf("unexpected login response: %+v", payload)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	hash, _ := auth.HashPassword("correct-horse")
	st := fakeStore{
		getUserByEmailFn: func(ctx context.Context, email string) (models.User, string, error) {
			return models.User{UserID: "user-1", Email: email, Role: models.RoleUser, Status: models.UserInactive}, hash, nil
		},
	}
	h, _ := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{"email": "asha@example.com", "password": "correct-horse"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := auth.HashPassword("correct-horse")
	st := fakeStore{
		getUserByEmailFn: func(ctx context.Context, email string) (models.User, string, error) {
			return models.User{UserID: "user-1", Email: email, Role: models.RoleUser, Status: models.UserActive}, hash, nil
		},
	}
	h, _ := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{"email": "asha@example.com", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	st := fakeStore{
		registerFn: func(ctx context.Context, input store.RegisterUserInput) (models.User, error) {
			return models.User{}, store.ErrEmailTaken
		},
	}
	h, _ := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{
		"name":     "Asha",
		"email":    "asha@example.com",
		"password": "longenough",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if errResp.Error.Code != "email_taken" {
		t.Fatalf("expected error code email_taken, got %s", errResp.Error.Code)
	}
}

func TestMissingTokenUnauthorized(t *testing.T) {
	h, _ := newTestHandler(t, fakeStore{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestListRequestsRequiresAdmin(t *testing.T) {
	h, tokens := newTestHandler(t, fakeStore{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set("Authorization", bearer(t, tokens, "user-1", models.RoleUser))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestCreateRequestSuccess(t *testing.T) {
	var uploaded []string
	st := fakeStore{
		createRequestFn: func(ctx context.Context, input store.CreateRequestInput) (models.Request, error) {
			if input.UserID != "user-1" || input.DeviceType != "Laptop" || input.Quantity != 2 {
				t.Fatalf("unexpected create input: %+v", input)
			}
			return models.Request{
				RequestID:  "req-1",
				UserID:     input.UserID,
				DeviceType: input.DeviceType,
				Status:     models.StatusPending,
				ImageURLs:  input.ImageURLs,
			}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{
		Uploader: fakeUploader{uploadFn: func(data []byte, filename, contentType string) (string, error) {
			uploaded = append(uploaded, filename)
			return "https://bucket.example.com/requests/" + filename, nil
		}},
	})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("deviceType", "Laptop")
	_ = form.WriteField("brand", "Dell")
	_ = form.WriteField("model", "XPS 13")
	_ = form.WriteField("quantity", "2")
	_ = form.WriteField("condition", "Not Working")
	_ = form.WriteField("pickupAddress", "12 MG Road")
	part, _ := form.CreateFormFile("images", "front.jpg")
	_, _ = part.Write([]byte("jpeg-bytes"))
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/requests", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, tokens, "user-1", models.RoleUser))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(uploaded) != 1 || uploaded[0] != "front.jpg" {
		t.Fatalf("expected one uploaded image, got %v", uploaded)
	}

	var request models.Request
	if err := json.NewDecoder(resp.Body).Decode(&request); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if request.Status != models.StatusPending {
		t.Fatalf("new request should be PENDING, got %s", request.Status)
	}
}

func TestCreateRequestBadQuantity(t *testing.T) {
	h, tokens := newTestHandler(t, fakeStore{}, Options{})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("deviceType", "Laptop")
	_ = form.WriteField("brand", "Dell")
	_ = form.WriteField("quantity", "zero")
	_ = form.WriteField("condition", "Not Working")
	_ = form.WriteField("pickupAddress", "12 MG Road")
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/requests", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, tokens, "user-1", models.RoleUser))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestApproveRequest(t *testing.T) {
	var gotAction string
	st := fakeStore{
		updateStatusFn: func(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
			gotAction = input.Action
			return models.Request{RequestID: input.RequestID, Status: models.StatusApproved}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{"status": models.StatusApproved})
	req := httptest.NewRequest(http.MethodPut, "/api/requests/req-1/status", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, tokens, "admin-1", models.RoleAdmin))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotAction != "approve" {
		t.Fatalf("expected approve action, got %q", gotAction)
	}
}

func TestUpdateStatusRejectsDirectTransition(t *testing.T) {
	h, tokens := newTestHandler(t, fakeStore{}, Options{})

	body, _ := json.Marshal(map[string]string{"status": models.StatusCompleted})
	req := httptest.NewRequest(http.MethodPut, "/api/requests/req-1/status", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, tokens, "admin-1", models.RoleAdmin))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestApproveNonPendingConflict(t *testing.T) {
	st := fakeStore{
		updateStatusFn: func(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
			return models.Request{}, store.ErrInvalidState
		},
	}
	h, tokens := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{"status": models.StatusApproved})
	req := httptest.NewRequest(http.MethodPut, "/api/requests/req-1/status", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, tokens, "admin-1", models.RoleAdmin))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if errResp.Error.Code != "invalid_state" {
		t.Fatalf("expected error code invalid_state, got %s", errResp.Error.Code)
	}
}

func TestScheduleMissingPickupPerson(t *testing.T) {
	h, tokens := newTestHandler(t, fakeStore{}, Options{})

	body, _ := json.Marshal(map[string]string{"pickup_date": time.Now().Format(time.RFC3339)})
	req := httptest.NewRequest(http.MethodPut, "/api/requests/req-1/schedule", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, tokens, "admin-1", models.RoleAdmin))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestMyRequests(t *testing.T) {
	st := fakeStore{
		listUserFn: func(ctx context.Context, userID string) ([]models.Request, error) {
			if userID != "user-1" {
				t.Fatalf("expected list for user-1, got %s", userID)
			}
			return []models.Request{{RequestID: "req-1", UserID: userID}}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/user/my-requests", nil)
	req.Header.Set("Authorization", bearer(t, tokens, "user-1", models.RoleUser))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var requests []models.Request
	if err := json.NewDecoder(resp.Body).Decode(&requests); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(requests) != 1 || requests[0].RequestID != "req-1" {
		t.Fatalf("unexpected list response: %+v", requests)
	}
}

func TestInitiateVerificationDeparts(t *testing.T) {
	pickupID := "pickup-1"
	var issued bool
	var sent bool
	var gotAction string
	st := fakeStore{
		getRequestFn: func(ctx context.Context, requestID string) (models.Request, error) {
			return models.Request{
				RequestID:      requestID,
				UserEmail:      "asha@example.com",
				Status:         models.StatusScheduled,
				PickupPersonID: &pickupID,
			}, nil
		},
		updateStatusFn: func(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
			gotAction = input.Action
			return models.Request{RequestID: input.RequestID, Status: models.StatusOnTheWay}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{
		OTP: fakeOTP{issueFn: func(ctx context.Context, requestID, code string) error {
			if len(code) != otp.CodeLength {
				t.Fatalf("expected %d-digit code, got %q", otp.CodeLength, code)
			}
			issued = true
			return nil
		}},
		Notifier: notify.New(providerFunc(func(ctx context.Context, subject, message, recipient string) error {
			sent = true
			return nil
		})),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/pickup/request/req-1/initiate-verification", nil)
	req.Header.Set("Authorization", bearer(t, tokens, pickupID, models.RolePickupPerson))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !issued || !sent {
		t.Fatalf("expected code issued and sent, got issued=%v sent=%v", issued, sent)
	}
	if gotAction != "depart" {
		t.Fatalf("expected depart action, got %q", gotAction)
	}
}

func TestInitiateVerificationNotAssigned(t *testing.T) {
	otherID := "pickup-2"
	st := fakeStore{
		getRequestFn: func(ctx context.Context, requestID string) (models.Request, error) {
			return models.Request{RequestID: requestID, Status: models.StatusScheduled, PickupPersonID: &otherID}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/pickup/request/req-1/initiate-verification", nil)
	req.Header.Set("Authorization", bearer(t, tokens, "pickup-1", models.RolePickupPerson))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestInitiateVerificationDeliveryFailure(t *testing.T) {
	pickupID := "pickup-1"
	st := fakeStore{
		getRequestFn: func(ctx context.Context, requestID string) (models.Request, error) {
			return models.Request{RequestID: requestID, Status: models.StatusScheduled, PickupPersonID: &pickupID}, nil
		},
		updateStatusFn: func(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
			t.Fatal("status must not change when delivery fails")
			return models.Request{}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{
		Notifier: notify.New(providerFunc(func(ctx context.Context, subject, message, recipient string) error {
			return errors.New("smtp down")
		})),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/pickup/request/req-1/initiate-verification", nil)
	req.Header.Set("Authorization", bearer(t, tokens, pickupID, models.RolePickupPerson))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
}

func TestVerifyCompleteSuccess(t *testing.T) {
	pickupID := "pickup-1"
	var gotAction string
	st := fakeStore{
		getRequestFn: func(ctx context.Context, requestID string) (models.Request, error) {
			return models.Request{RequestID: requestID, Status: models.StatusOnTheWay, PickupPersonID: &pickupID}, nil
		},
		updateStatusFn: func(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
			gotAction = input.Action
			return models.Request{RequestID: input.RequestID, Status: models.StatusCompleted}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{
		OTP: fakeOTP{verifyFn: func(ctx context.Context, requestID, code string) error {
			if code != "123456" {
				return otp.ErrMismatch
			}
			return nil
		}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/pickup/request/req-1/verify-complete?otp=12-34-56", nil)
	req.Header.Set("Authorization", bearer(t, tokens, pickupID, models.RolePickupPerson))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotAction != "complete" {
		t.Fatalf("expected complete action, got %q", gotAction)
	}
}

func TestVerifyCompleteWrongCode(t *testing.T) {
	pickupID := "pickup-1"
	st := fakeStore{
		getRequestFn: func(ctx context.Context, requestID string) (models.Request, error) {
			return models.Request{RequestID: requestID, Status: models.StatusOnTheWay, PickupPersonID: &pickupID}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{
		OTP: fakeOTP{verifyFn: func(ctx context.Context, requestID, code string) error {
			return otp.ErrMismatch
		}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/pickup/request/req-1/verify-complete?otp=999999", nil)
	req.Header.Set("Authorization", bearer(t, tokens, pickupID, models.RolePickupPerson))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if errResp.Error.Code != "invalid_otp" {
		t.Fatalf("expected error code invalid_otp, got %s", errResp.Error.Code)
	}
}

func TestVerifyCompleteLockout(t *testing.T) {
	pickupID := "pickup-1"
	st := fakeStore{
		getRequestFn: func(ctx context.Context, requestID string) (models.Request, error) {
			return models.Request{RequestID: requestID, Status: models.StatusOnTheWay, PickupPersonID: &pickupID}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{
		OTP: fakeOTP{verifyFn: func(ctx context.Context, requestID, code string) error {
			return otp.ErrLockedOut
		}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/pickup/request/req-1/verify-complete?otp=999999", nil)
	req.Header.Set("Authorization", bearer(t, tokens, pickupID, models.RolePickupPerson))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", resp.Code)
	}
}

func TestVerifyCompleteShortCode(t *testing.T) {
	h, tokens := newTestHandler(t, fakeStore{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/pickup/request/req-1/verify-complete?otp=123", nil)
	req.Header.Set("Authorization", bearer(t, tokens, "pickup-1", models.RolePickupPerson))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestDashboardSummary(t *testing.T) {
	st := fakeStore{
		dashboardFn: func(ctx context.Context) (models.DashboardSummary, error) {
			return models.DashboardSummary{
				TotalUsers:    4,
				TotalRequests: 9,
				StatusStats:   map[string]int{models.StatusPending: 3},
			}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard-summary", nil)
	req.Header.Set("Authorization", bearer(t, tokens, "admin-1", models.RoleAdmin))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var summary models.DashboardSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.TotalRequests != 9 || summary.StatusStats[models.StatusPending] != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestTicketReplyResolvedConflict(t *testing.T) {
	st := fakeStore{
		replyTicketFn: func(ctx context.Context, ticketID, reply string, resolvedAt time.Time) (models.SupportTicket, error) {
			return models.SupportTicket{}, store.ErrTicketResolved
		},
	}
	h, tokens := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{"reply": "done"})
	req := httptest.NewRequest(http.MethodPut, "/api/support/admin/ticket-1/reply", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, tokens, "admin-1", models.RoleAdmin))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestCreateTicket(t *testing.T) {
	st := fakeStore{
		createTicketFn: func(ctx context.Context, input store.CreateTicketInput) (models.SupportTicket, error) {
			return models.SupportTicket{
				TicketID: "ticket-1",
				UserID:   input.UserID,
				Subject:  input.Subject,
				Status:   models.TicketOpen,
			}, nil
		},
	}
	h, tokens := newTestHandler(t, st, Options{})

	body, _ := json.Marshal(map[string]string{"subject": "Pickup delayed", "message": "No one came on the scheduled date."})
	req := httptest.NewRequest(http.MethodPost, "/api/support/create", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, tokens, "user-1", models.RoleUser))
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var ticket models.SupportTicket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ticket.Status != models.TicketOpen {
		t.Fatalf("new ticket should be OPEN, got %s", ticket.Status)
	}
}

func TestRateLimiterThrottles(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{IPPerMinute: 1, IPBurst: 2})
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:4321"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		last = resp.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after burst, got %d", last)
	}
}
