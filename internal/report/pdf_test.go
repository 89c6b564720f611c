package report

import (
	"errors"
	"testing"
	"time"

	"ewaste/internal/models"
)

func TestRecyclingReportRequiresCompleted(t *testing.T) {
	_, err := RecyclingReport(models.Request{Status: models.StatusPending})
	if !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}
}

func TestRecyclingReportRenders(t *testing.T) {
	completedAt := time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)
	pdf, err := RecyclingReport(models.Request{
		RequestID:   "req-1",
		UserName:    "Asha",
		DeviceType:  "Laptop",
		Brand:       "Dell",
		Quantity:    1,
		Condition:   models.ConditionDead,
		Status:      models.StatusCompleted,
		CreatedAt:   completedAt.AddDate(0, 0, -7),
		CompletedAt: &completedAt,
	})
	if err != nil {
		t.Fatalf("render report: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("expected non-empty PDF")
	}
}

func TestCertificateThreshold(t *testing.T) {
	user := models.User{Name: "Asha"}

	if _, err := AppreciationCertificate(user, RequiredSubmissions-1); !errors.Is(err, ErrNotQualified) {
		t.Fatalf("expected ErrNotQualified, got %v", err)
	}

	pdf, err := AppreciationCertificate(user, RequiredSubmissions)
	if err != nil {
		t.Fatalf("render certificate: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("expected non-empty PDF")
	}
}
