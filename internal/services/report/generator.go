package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/blufield/blufmsgo/internal/models"
	"github.com/blufield/blufmsgo/internal/utils"
)

// GenerateInstallationReport renders the approval report PDF for a
// setup: order and client details, evidence summary and the order QR
// code for paper filing.
func GenerateInstallationReport(view *models.SetupDetailedView, speed *models.SpeedTest, signerName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Installation Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	line := func(label, value string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}

	line("Order", view.OrderNumber)
	line("Client", view.ClientName)
	line("Address", view.Address)
	line("Type", string(view.OrderType))
	line("Technician", view.TechnicianName)
	line("Region", view.Region)
	if view.CompletedAt != nil {
		line("Completed", view.CompletedAt.Format(time.RFC1123))
	}
	if view.ApprovedAt != nil {
		line("Approved", view.ApprovedAt.Format(time.RFC1123))
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Evidence", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	line("Photos", fmt.Sprintf("%d", view.PhotosCount))
	if speed != nil {
		line("Download", fmt.Sprintf("%.1f Mbps", speed.DownloadMbps))
		line("Upload", fmt.Sprintf("%.1f Mbps", speed.UploadMbps))
		line("Ping", fmt.Sprintf("%.0f ms", speed.PingMs))
	}
	if signerName != "" {
		line("Signed by", signerName)
	}
	if len(view.AssetSerials) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Installed equipment", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, serial := range view.AssetSerials {
			pdf.CellFormat(0, 6, serial, "", 1, "L", false, 0, "")
		}
	}

	// Order QR in the bottom-right corner
	qrPng, err := utils.RenderQRPNG(utils.OrderQRCode(view.OrderID), 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("order_qr", opts, bytes.NewReader(qrPng))
	pdf.ImageOptions("order_qr", 160, 245, 35, 35, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
