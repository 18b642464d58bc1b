package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/blufield/blufmsgo/internal/models"
)

func TestGenerateInstallationReport(t *testing.T) {
	now := time.Now()
	view := &models.SetupDetailedView{
		ID:             "setup-1",
		OrderID:        "order-1",
		OrderNumber:    "ORD20250615-ABCD",
		TechnicianName: "Carlos Souza",
		Status:         "approved",
		Region:         "Curitiba",
		CompletedAt:    &now,
		ApprovedAt:     &now,
		ClientName:     "Acme Telecom",
		Address:        "Rua das Flores, 100 - Curitiba/PR",
		OrderType:      models.OrderTypeInstall,
		PhotosCount:    3,
		AssetSerials:   []string{"SN-0001", "SN-0002"},
	}
	speed := &models.SpeedTest{DownloadMbps: 50, UploadMbps: 20, PingMs: 15}

	pdf, err := GenerateInstallationReport(view, speed, "João Silva")
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("Report should not be empty")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("Report should be a PDF document")
	}
}

func TestGenerateReportWithoutOptionalSections(t *testing.T) {
	view := &models.SetupDetailedView{
		ID:          "setup-2",
		OrderID:     "order-2",
		OrderNumber: "ORD20250616-EFGH",
		ClientName:  "Beta Fibra",
		Address:     "Av. Central, 12 - Recife/PE",
		OrderType:   models.OrderTypeUninstall,
	}

	pdf, err := GenerateInstallationReport(view, nil, "")
	if err != nil {
		t.Fatalf("Failed to generate minimal report: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("Report should not be empty")
	}
}
