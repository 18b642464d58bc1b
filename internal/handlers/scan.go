package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/blufield/blufmsgo/internal/models"
	"github.com/blufield/blufmsgo/internal/utils"
)

// ScanRequest represents the payload from a scanner
type ScanRequest struct {
	Code string `json:"code"`
}

// ScanResponse standardizes the scan result
type ScanResponse struct {
	Kind    string      `json:"kind"`           // order, asset
	Message string      `json:"message"`        // Human readable status
	Data    interface{} `json:"data,omitempty"` // The resulting object
}

// handleScan is the entry point for all QR scans. A malformed code
// fails here and no state transition is ever attempted from it.
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) {
	var body ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code := strings.TrimSpace(body.Code)
	if code == "" {
		respondError(w, http.StatusBadRequest, "Empty code")
		return
	}

	ref, err := utils.ParseQRCode(code)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp ScanResponse
	switch ref.Kind {
	case utils.CodeKindOrder:
		resp, err = r.resolveOrderScan(ref.ID)
	case utils.CodeKindAsset:
		resp, err = r.resolveAssetScan(ref.ID)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(w, http.StatusNotFound, "Scanned target not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Scan lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// resolveOrderScan loads the order a technician scanned, with client
// and associated equipment for the summary step
func (r *Router) resolveOrderScan(id string) (ScanResponse, error) {
	var order models.Order
	err := r.db.Preload("Client").Preload("Assets").First(&order, "id = ?", id).Error
	if err != nil {
		return ScanResponse{}, err
	}
	return ScanResponse{Kind: "order", Message: "Order found", Data: order}, nil
}

// resolveAssetScan confirms a piece of equipment is known
func (r *Router) resolveAssetScan(id string) (ScanResponse, error) {
	var asset models.Asset
	if err := r.db.First(&asset, "id = ?", id).Error; err != nil {
		return ScanResponse{}, err
	}
	return ScanResponse{Kind: "asset", Message: asset.SerialNumber, Data: asset}, nil
}

// renderQR serves the printable QR PNG for an order or asset
func (r *Router) renderQR(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var code string
	switch vars["kind"] {
	case "order":
		code = utils.OrderQRCode(vars["id"])
	case "asset":
		code = utils.AssetQRCode(vars["id"])
	default:
		respondError(w, http.StatusBadRequest, "Unknown code kind")
		return
	}

	png, err := utils.RenderQRPNG(code, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate QR")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
