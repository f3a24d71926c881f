package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"github.com/kursadbilgin/club-notifier/internal/service"
	"github.com/kursadbilgin/club-notifier/internal/transport"
	"go.uber.org/zap"
)

func TestBatchHandlerSendBatch(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		sendBatchFn: func(ctx context.Context, text string, externalIDs []int64) (*service.BatchResult, error) {
			if text != "meeting tonight" {
				t.Fatalf("text = %q", text)
			}
			if len(externalIDs) != 2 {
				t.Fatalf("externalIDs = %v, want 2 entries", externalIDs)
			}
			return &service.BatchResult{BatchID: "b1", Attempted: 2, Delivered: 2}, nil
		},
	}

	app := newBatchTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/v1/batches", `{"text":"meeting tonight","recipients":[101,102]}`)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", resp.StatusCode, string(body))
	}

	var parsed batchResultResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.BatchID != "b1" || parsed.Delivered != 2 {
		t.Fatalf("parsed = %+v", parsed)
	}
}

func TestBatchHandlerSendBatchValidation(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		sendBatchFn: func(ctx context.Context, text string, externalIDs []int64) (*service.BatchResult, error) {
			return nil, domain.ErrValidation
		},
	}

	app := newBatchTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/batches", `{"text":""}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBatchHandlerResend(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		resendFn: func(ctx context.Context, batchID string) (*service.BatchResult, error) {
			if batchID != "b1" {
				t.Fatalf("batchID = %q, want b1", batchID)
			}
			return &service.BatchResult{BatchID: batchID, Attempted: 3, Delivered: 2, Failed: 1}, nil
		},
	}

	app := newBatchTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/v1/batches/b1/resend", "")
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", resp.StatusCode, string(body))
	}

	var parsed batchResultResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.Attempted != 3 || parsed.Failed != 1 {
		t.Fatalf("parsed = %+v", parsed)
	}
}

func TestBatchHandlerResendUnknownBatch(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		resendFn: func(ctx context.Context, batchID string) (*service.BatchResult, error) {
			return nil, domain.ErrNotFound
		},
	}

	app := newBatchTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/batches/missing/resend", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestBatchHandlerGetSummary(t *testing.T) {
	t.Parallel()

	sentAt := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	svc := &stubBatchService{
		summaryFn: func(ctx context.Context, batchID string) (*repository.BatchSummary, error) {
			return &repository.BatchSummary{
				BatchID:      batchID,
				Content:      "meeting tonight",
				SentAt:       sentAt,
				Total:        10,
				Acknowledged: 4,
			}, nil
		},
	}

	app := newBatchTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/batches/b1", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var parsed batchSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.Total != 10 || parsed.Acknowledged != 4 {
		t.Fatalf("parsed = %+v", parsed)
	}
	if parsed.Content != "meeting tonight" {
		t.Fatalf("content = %q", parsed.Content)
	}
}

func TestBatchHandlerListBatches(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		listFn: func(ctx context.Context, page int, pageSize int) (*repository.BatchListPage, error) {
			if page != 2 || pageSize != 5 {
				t.Fatalf("page=%d pageSize=%d, want 2/5", page, pageSize)
			}
			return &repository.BatchListPage{
				Summaries:    []repository.BatchSummary{{BatchID: "b1", Total: 3}},
				Page:         2,
				PageSize:     5,
				TotalPages:   4,
				TotalBatches: 17,
			}, nil
		},
	}

	app := newBatchTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/batches?page=2&pageSize=5", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var parsed listBatchesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.Meta.Total != 17 || parsed.Meta.TotalPages != 4 {
		t.Fatalf("meta = %+v", parsed.Meta)
	}
	if len(parsed.Data) != 1 || parsed.Data[0].BatchID != "b1" {
		t.Fatalf("data = %+v", parsed.Data)
	}
}

func newBatchTestApp(t *testing.T, svc BatchService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterBatchRoutes(app, svc); err != nil {
		t.Fatalf("RegisterBatchRoutes() error = %v", err)
	}

	return app
}

type stubBatchService struct {
	sendBatchFn func(ctx context.Context, text string, externalIDs []int64) (*service.BatchResult, error)
	resendFn    func(ctx context.Context, batchID string) (*service.BatchResult, error)
	summaryFn   func(ctx context.Context, batchID string) (*repository.BatchSummary, error)
	listFn      func(ctx context.Context, page int, pageSize int) (*repository.BatchListPage, error)
}

func (s *stubBatchService) SendBatch(ctx context.Context, text string, externalIDs []int64) (*service.BatchResult, error) {
	if s.sendBatchFn != nil {
		return s.sendBatchFn(ctx, text, externalIDs)
	}
	return &service.BatchResult{BatchID: "stub"}, nil
}

func (s *stubBatchService) ResendUnacknowledged(ctx context.Context, batchID string) (*service.BatchResult, error) {
	if s.resendFn != nil {
		return s.resendFn(ctx, batchID)
	}
	return &service.BatchResult{BatchID: batchID}, nil
}

func (s *stubBatchService) GetBatchSummary(ctx context.Context, batchID string) (*repository.BatchSummary, error) {
	if s.summaryFn != nil {
		return s.summaryFn(ctx, batchID)
	}
	return &repository.BatchSummary{BatchID: batchID}, nil
}

func (s *stubBatchService) ListBatches(ctx context.Context, page int, pageSize int) (*repository.BatchListPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, page, pageSize)
	}
	return &repository.BatchListPage{Page: 1, PageSize: pageSize, TotalPages: 1}, nil
}
