package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blufield/blufmsgo/internal/middleware"
	"github.com/blufield/blufmsgo/internal/models"
	"github.com/blufield/blufmsgo/internal/services/report"
	"github.com/blufield/blufmsgo/internal/setup"
	"github.com/blufield/blufmsgo/internal/utils"
	"github.com/blufield/blufmsgo/internal/websocket"
)

// RejectRequest carries the supervisor's rejection reason
type RejectRequest struct {
	Reason string `json:"reason"`
}

// requireSupervisor is the policy gate for state-mutating supervision calls
func (r *Router) requireSupervisor(w http.ResponseWriter, req *http.Request) bool {
	if !setup.Allow(middleware.RoleFromContext(req.Context()), setup.RoleSupervisor) {
		respondError(w, http.StatusForbidden, "Supervisor role required")
		return false
	}
	return true
}

// approveSetup moves a completed setup to approved
func (r *Router) approveSetup(w http.ResponseWriter, req *http.Request) {
	if !r.requireSupervisor(w, req) {
		return
	}
	setupID := mux.Vars(req)["id"]

	if err := r.setups.Approve(req.Context(), setupID); err != nil {
		respondSetupError(w, err)
		return
	}

	r.publishSetupEvent(req, setupID, "setup_approved")
	respondJSON(w, http.StatusOK, map[string]string{"status": string(setup.StatusApproved)})
}

// rejectSetup moves a completed setup to rejected with a reason
func (r *Router) rejectSetup(w http.ResponseWriter, req *http.Request) {
	if !r.requireSupervisor(w, req) {
		return
	}
	setupID := mux.Vars(req)["id"]

	var body RejectRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := r.setups.Reject(req.Context(), setupID, body.Reason); err != nil {
		respondSetupError(w, err)
		return
	}

	r.publishSetupEvent(req, setupID, "setup_rejected")
	respondJSON(w, http.StatusOK, map[string]string{"status": string(setup.StatusRejected)})
}

// listPending returns completed setups awaiting a decision plus the
// display-only approval rate for the same scope
func (r *Router) listPending(w http.ResponseWriter, req *http.Request) {
	if !r.requireSupervisor(w, req) {
		return
	}

	q := req.URL.Query()
	views, err := r.setups.ListPending(req.Context(), q.Get("q"), q.Get("region"))
	if err != nil {
		respondSetupError(w, err)
		return
	}

	approved, rejected, err := r.setups.ApprovalStats(req.Context(), q.Get("region"))
	if err != nil {
		respondSetupError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"setups":         views,
		"approved_count": approved,
		"rejected_count": rejected,
		"approval_rate":  setup.ApprovalRate(approved, rejected),
	})
}

// setupReport renders the installation report PDF for an approved setup
func (r *Router) setupReport(w http.ResponseWriter, req *http.Request) {
	setupID := mux.Vars(req)["id"]

	view, err := r.setups.Get(req.Context(), setupID)
	if err != nil {
		respondSetupError(w, err)
		return
	}
	if view.Status != string(setup.StatusApproved) {
		respondError(w, http.StatusConflict, "Report is only available for approved setups")
		return
	}

	var speed models.SpeedTest
	var speedPtr *models.SpeedTest
	if err := r.db.Where("setup_id = ?", setupID).Order("measured_at DESC").First(&speed).Error; err == nil {
		speedPtr = &speed
	}

	var signerName string
	var sig models.SetupSignature
	if err := r.db.Where("setup_id = ?", setupID).First(&sig).Error; err == nil {
		signerName = sig.SignerName
	}

	pdf, err := report.GenerateInstallationReport(view, speedPtr, signerName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(pdf)
}

// setupPhoto streams one decrypted evidence photo to a supervisor
func (r *Router) setupPhoto(w http.ResponseWriter, req *http.Request) {
	if !r.requireSupervisor(w, req) {
		return
	}
	vars := mux.Vars(req)

	var photo models.SetupPhoto
	err := r.db.First(&photo, "id = ? AND setup_id = ?", vars["photoId"], vars["id"]).Error
	if err != nil {
		respondError(w, http.StatusNotFound, "Photo not found")
		return
	}

	data, err := r.blobs.Get(photo.StoragePath, photo.EncKey, photo.EncIV)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read photo")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// supervisionFeed upgrades to a websocket pushing setup status events.
// The token travels in the query string because browsers cannot attach
// headers to websocket dials.
func (r *Router) supervisionFeed(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	claims, err := utils.ValidateToken(token, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	role, _ := claims["role"].(string)
	if !setup.Allow(role, setup.RoleSupervisor) {
		respondError(w, http.StatusForbidden, "Supervisor role required")
		return
	}

	websocket.ServeWS(r.hub, w, req)
}
