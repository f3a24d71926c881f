package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kursadbilgin/club-notifier/internal/domain"
	"github.com/kursadbilgin/club-notifier/internal/provider"
	"go.uber.org/zap"
)

func TestSweepServiceRunDeliversAndRecords(t *testing.T) {
	t.Parallel()

	dueByType := map[domain.ReminderType][]domain.Recipient{
		domain.ReminderDues: {
			{ID: "r1", ExternalID: 101},
			{ID: "r2", ExternalID: 102},
		},
		domain.ReminderVPN: {
			{ID: "r1", ExternalID: 101},
		},
	}

	var mu sync.Mutex
	recorded := map[string]int{}
	reminderRepo := &fakeReminderRepo{
		recipientsDueFn: func(ctx context.Context, rt domain.ReminderType) ([]domain.Recipient, error) {
			return dueByType[rt], nil
		},
		recordSentFn: func(ctx context.Context, recipientID string, rt domain.ReminderType, sentAt time.Time) error {
			mu.Lock()
			recorded[recipientID+"/"+rt.String()]++
			mu.Unlock()
			return nil
		},
	}

	sentTexts := map[string]string{}
	providerClient := &fakeProvider{
		sendFn: func(ctx context.Context, externalID int64, text string, ackToken string) (*provider.SendResponse, error) {
			mu.Lock()
			sentTexts[ackToken] = text
			mu.Unlock()
			return &provider.SendResponse{StatusCode: 202}, nil
		},
	}

	svc := newTestSweepService(t, reminderRepo, providerClient, &fakeRateLimiter{})

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(recorded) != 3 {
		t.Fatalf("recorded rows = %d, want 3 (%v)", len(recorded), recorded)
	}
	if recorded["r1/dues"] != 1 || recorded["r2/dues"] != 1 || recorded["r1/vpn"] != 1 {
		t.Fatalf("unexpected recorded set: %v", recorded)
	}

	duesText := sentTexts[domain.ReminderAckToken(domain.ReminderDues)]
	if !strings.Contains(duesText, "500") {
		t.Fatalf("dues text %q should mention the amount", duesText)
	}
	vpnText := sentTexts[domain.ReminderAckToken(domain.ReminderVPN)]
	if !strings.Contains(vpnText, "200") {
		t.Fatalf("vpn text %q should mention the amount", vpnText)
	}
}

func TestSweepServiceRecordsSentOnDeliveryFailure(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var recordedCount int
	reminderRepo := &fakeReminderRepo{
		recipientsDueFn: func(ctx context.Context, rt domain.ReminderType) ([]domain.Recipient, error) {
			if rt != domain.ReminderDues {
				return nil, nil
			}
			return []domain.Recipient{{ID: "r1", ExternalID: 101}}, nil
		},
		recordSentFn: func(ctx context.Context, recipientID string, rt domain.ReminderType, sentAt time.Time) error {
			mu.Lock()
			recordedCount++
			mu.Unlock()
			return nil
		},
	}
	providerClient := &fakeProvider{
		sendFn: func(ctx context.Context, externalID int64, text string, ackToken string) (*provider.SendResponse, error) {
			return nil, &provider.DeliveryError{StatusCode: 503, Transient: true}
		},
	}

	svc := newTestSweepService(t, reminderRepo, providerClient, &fakeRateLimiter{})

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if recordedCount != 1 {
		t.Fatalf("recorded = %d, want 1; the tracker row must reopen even on failure", recordedCount)
	}
}

func TestSweepServiceTypeFailureIsolation(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var vpnSwept bool
	reminderRepo := &fakeReminderRepo{
		recipientsDueFn: func(ctx context.Context, rt domain.ReminderType) ([]domain.Recipient, error) {
			if rt == domain.ReminderDues {
				return nil, fmt.Errorf("dues query exploded")
			}
			mu.Lock()
			vpnSwept = true
			mu.Unlock()
			return []domain.Recipient{{ID: "r1", ExternalID: 101}}, nil
		},
	}

	svc := newTestSweepService(t, reminderRepo, &fakeProvider{}, &fakeRateLimiter{})

	err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should surface the dues failure")
	}
	if !strings.Contains(err.Error(), "dues") {
		t.Fatalf("error %q should name the failed type", err)
	}
	if !vpnSwept {
		t.Fatal("vpn sweep must still run after the dues failure")
	}
}

func newTestSweepService(
	t *testing.T,
	reminderRepo *fakeReminderRepo,
	providerClient *fakeProvider,
	limiter *fakeRateLimiter,
) *SweepService {
	t.Helper()

	reminders, err := NewReminderService(reminderRepo, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReminderService() error = %v", err)
	}

	svc, err := NewSweepService(reminders, providerClient, limiter, 500, 200, 2, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSweepService() error = %v", err)
	}
	return svc
}
