package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/transport"
	"go.uber.org/zap"
)

func TestRecipientHandlerRegister(t *testing.T) {
	t.Parallel()

	svc := &stubDirectoryService{
		registerFn: func(ctx context.Context, externalID int64) (*domain.Recipient, error) {
			if externalID != 12345 {
				t.Fatalf("externalID = %d, want 12345", externalID)
			}
			return &domain.Recipient{ID: "r1", ExternalID: externalID, AllowDues: true, AllowVPN: true}, nil
		},
	}

	app := newRecipientTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/v1/recipients", `{"externalId":12345}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", resp.StatusCode, string(body))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["id"] != "r1" {
		t.Fatalf("id = %v, want r1", parsed["id"])
	}
	if parsed["active"] != false {
		t.Fatalf("active = %v, new recipients start inactive", parsed["active"])
	}
}

func TestRecipientHandlerRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := &stubDirectoryService{
		registerFn: func(ctx context.Context, externalID int64) (*domain.Recipient, error) {
			return nil, domain.ErrValidation
		},
	}

	app := newRecipientTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/recipients", `{"externalId":0}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/recipients", `{not json`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed body", resp.StatusCode)
	}
}

func TestRecipientHandlerActivate(t *testing.T) {
	t.Parallel()

	svc := &stubDirectoryService{
		activateFn: func(ctx context.Context, externalID int64) (*domain.Recipient, error) {
			return &domain.Recipient{ID: "r1", ExternalID: externalID, Active: true}, nil
		},
	}

	app := newRecipientTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/v1/recipients/12345/activate", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/recipients/abc/activate", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad external id", resp.StatusCode)
	}
}

func TestRecipientHandlerActivateNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubDirectoryService{
		activateFn: func(ctx context.Context, externalID int64) (*domain.Recipient, error) {
			return nil, domain.ErrNotFound
		},
	}

	app := newRecipientTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/recipients/12345/activate", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRecipientHandlerSetPreference(t *testing.T) {
	t.Parallel()

	var gotType domain.ReminderType
	var gotEnabled bool
	svc := &stubDirectoryService{
		setPreferenceFn: func(ctx context.Context, externalID int64, rt domain.ReminderType, enabled bool) (*domain.Recipient, error) {
			gotType = rt
			gotEnabled = enabled
			return &domain.Recipient{ID: "r1", ExternalID: externalID}, nil
		},
	}

	app := newRecipientTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPut, "/v1/recipients/12345/preferences/vpn", `{"enabled":false}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}
	if gotType != domain.ReminderVPN || gotEnabled {
		t.Fatalf("got type=%s enabled=%v, want vpn/false", gotType, gotEnabled)
	}

	resp, _ = performRequest(t, app, http.MethodPut, "/v1/recipients/12345/preferences/electricity", `{"enabled":true}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown reminder type", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodPut, "/v1/recipients/12345/preferences/dues", `{}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing enabled", resp.StatusCode)
	}
}

func TestRecipientHandlerSetVisibility(t *testing.T) {
	t.Parallel()

	svc := &stubDirectoryService{
		setVisibilityFn: func(ctx context.Context, externalID int64, c domain.VisibilityComponent, visible bool) (*domain.Recipient, error) {
			if c != domain.VisibilitySavings {
				t.Fatalf("component = %s, want savings", c)
			}
			return &domain.Recipient{ID: "r1", ExternalID: externalID}, nil
		},
	}

	app := newRecipientTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPut, "/v1/recipients/12345/visibility/savings", `{"visible":false}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodPut, "/v1/recipients/12345/visibility/unknown", `{"visible":true}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown component", resp.StatusCode)
	}
}

func TestRecipientHandlerListActive(t *testing.T) {
	t.Parallel()

	svc := &stubDirectoryService{
		listActiveFn: func(ctx context.Context) ([]domain.Recipient, error) {
			return []domain.Recipient{
				{ID: "r1", ExternalID: 101, Active: true},
				{ID: "r2", ExternalID: 102, Active: true},
			}, nil
		},
	}

	app := newRecipientTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/recipients", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var parsed listRecipientsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.Total != 2 || len(parsed.Data) != 2 {
		t.Fatalf("total = %d, data len = %d, want 2/2", parsed.Total, len(parsed.Data))
	}
}

func newRecipientTestApp(t *testing.T, svc DirectoryService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterRecipientRoutes(app, svc); err != nil {
		t.Fatalf("RegisterRecipientRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

type stubDirectoryService struct {
	registerFn      func(ctx context.Context, externalID int64) (*domain.Recipient, error)
	getFn           func(ctx context.Context, externalID int64) (*domain.Recipient, error)
	activateFn      func(ctx context.Context, externalID int64) (*domain.Recipient, error)
	setPreferenceFn func(ctx context.Context, externalID int64, t domain.ReminderType, enabled bool) (*domain.Recipient, error)
	setVisibilityFn func(ctx context.Context, externalID int64, c domain.VisibilityComponent, visible bool) (*domain.Recipient, error)
	listActiveFn    func(ctx context.Context) ([]domain.Recipient, error)
}

func (s *stubDirectoryService) Register(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, externalID)
	}
	return &domain.Recipient{ID: "stub", ExternalID: externalID}, nil
}

func (s *stubDirectoryService) Get(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	if s.getFn != nil {
		return s.getFn(ctx, externalID)
	}
	return &domain.Recipient{ID: "stub", ExternalID: externalID}, nil
}

func (s *stubDirectoryService) Activate(ctx context.Context, externalID int64) (*domain.Recipient, error) {
	if s.activateFn != nil {
		return s.activateFn(ctx, externalID)
	}
	return &domain.Recipient{ID: "stub", ExternalID: externalID, Active: true}, nil
}

func (s *stubDirectoryService) SetNotificationPreference(ctx context.Context, externalID int64, rt domain.ReminderType, enabled bool) (*domain.Recipient, error) {
	if s.setPreferenceFn != nil {
		return s.setPreferenceFn(ctx, externalID, rt, enabled)
	}
	return &domain.Recipient{ID: "stub", ExternalID: externalID}, nil
}

func (s *stubDirectoryService) SetVisibility(ctx context.Context, externalID int64, c domain.VisibilityComponent, visible bool) (*domain.Recipient, error) {
	if s.setVisibilityFn != nil {
		return s.setVisibilityFn(ctx, externalID, c, visible)
	}
	return &domain.Recipient{ID: "stub", ExternalID: externalID}, nil
}

func (s *stubDirectoryService) ListActive(ctx context.Context) ([]domain.Recipient, error) {
	if s.listActiveFn != nil {
		return s.listActiveFn(ctx)
	}
	return nil, nil
}
