package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/blufield/blufmsgo/internal/middleware"
	"github.com/blufield/blufmsgo/internal/notify"
	"github.com/blufield/blufmsgo/internal/setup"
	"github.com/blufield/blufmsgo/internal/websocket"
)

// StartSetupRequest starts work against an order. TechnicianID defaults
// to the authenticated caller.
type StartSetupRequest struct {
	OrderID      string `json:"order_id"`
	TechnicianID string `json:"technician_id,omitempty"`
}

// CompleteSetupRequest carries the evidence form collected by the stepper
type CompleteSetupRequest struct {
	Photos    []PhotoPayload `json:"photos"`
	SpeedTest SpeedPayload   `json:"speed_test"`
	Signature SignPayload    `json:"signature"`
}

// PhotoPayload is one captured photo, base64 encoded
type PhotoPayload struct {
	DataBase64 string     `json:"data_base64"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

// SpeedPayload is the speed test reading
type SpeedPayload struct {
	DownloadMbps float64         `json:"download_mbps"`
	UploadMbps   float64         `json:"upload_mbps"`
	PingMs       float64         `json:"ping_ms"`
	Raw          json.RawMessage `json:"raw,omitempty"`
	MeasuredAt   *time.Time      `json:"measured_at,omitempty"`
}

// SignPayload is the customer sign-off
type SignPayload struct {
	ImageBase64 string `json:"image_base64"`
	SignerName  string `json:"signer_name"`
}

// startSetup creates a setup for an order and moves it to in_progress
func (r *Router) startSetup(w http.ResponseWriter, req *http.Request) {
	var body StartSetupRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	technicianID := body.TechnicianID
	if technicianID == "" {
		technicianID = middleware.UserIDFromContext(req.Context())
	}

	st, err := r.setups.Start(req.Context(), body.OrderID, technicianID)
	if err != nil {
		respondSetupError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"setup_id": st.ID,
		"status":   st.Status,
	})
}

// completeSetup flushes the evidence form and flips the setup to completed
func (r *Router) completeSetup(w http.ResponseWriter, req *http.Request) {
	setupID := mux.Vars(req)["id"]

	var body CompleteSetupRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	form, err := buildFormData(&body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.setups.Complete(req.Context(), setupID, form); err != nil {
		respondSetupError(w, err)
		return
	}

	r.publishSetupEvent(req, setupID, "setup_completed")
	respondJSON(w, http.StatusOK, map[string]string{"status": string(setup.StatusCompleted)})
}

// buildFormData decodes the base64 payloads into the service form
func buildFormData(body *CompleteSetupRequest) (*setup.FormData, error) {
	form := &setup.FormData{SignerName: body.Signature.SignerName}

	for _, p := range body.Photos {
		data, err := base64.StdEncoding.DecodeString(p.DataBase64)
		if err != nil {
			return nil, err
		}
		capturedAt := time.Now()
		if p.CapturedAt != nil {
			capturedAt = *p.CapturedAt
		}
		form.Photos = append(form.Photos, setup.PhotoCapture{Data: data, CapturedAt: capturedAt})
	}

	measuredAt := time.Now()
	if body.SpeedTest.MeasuredAt != nil {
		measuredAt = *body.SpeedTest.MeasuredAt
	}
	form.Speed = &setup.SpeedReading{
		DownloadMbps: body.SpeedTest.DownloadMbps,
		UploadMbps:   body.SpeedTest.UploadMbps,
		PingMs:       body.SpeedTest.PingMs,
		Raw:          body.SpeedTest.Raw,
		MeasuredAt:   measuredAt,
	}

	sig, err := base64.StdEncoding.DecodeString(body.Signature.ImageBase64)
	if err != nil {
		return nil, err
	}
	form.Signature = sig

	return form, nil
}

// getSetup returns the detailed view of one setup
func (r *Router) getSetup(w http.ResponseWriter, req *http.Request) {
	view, err := r.setups.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondSetupError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// listSetups returns the technician's setups, filtered and newest first
func (r *Router) listSetups(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	technicianID := q.Get("technician_id")
	if technicianID == "" {
		technicianID = middleware.UserIDFromContext(req.Context())
	}

	filters := setup.ListFilters{Status: setup.Status(q.Get("status"))}
	if filters.Status != "" && !filters.Status.IsValid() {
		respondError(w, http.StatusBadRequest, "Unknown status filter")
		return
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' timestamp")
			return
		}
		filters.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' timestamp")
			return
		}
		filters.To = &t
	}

	views, err := r.setups.ListForTechnician(req.Context(), technicianID, filters)
	if err != nil {
		respondSetupError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// publishSetupEvent pushes the status change to the supervision feed
// and the webhook. Both are side channels: failures are logged, never
// surfaced to the technician.
func (r *Router) publishSetupEvent(req *http.Request, setupID, eventType string) {
	view, err := r.setups.Get(req.Context(), setupID)
	if err != nil {
		return
	}

	r.hub.Broadcast(websocket.SetupEvent{
		Type:    eventType,
		SetupID: view.ID,
		OrderID: view.OrderID,
		Status:  view.Status,
		Region:  view.Region,
	})

	event := notify.Event{
		Type:       eventType,
		SetupID:    view.ID,
		OrderID:    view.OrderID,
		Status:     view.Status,
		Region:     view.Region,
		OccurredAt: time.Now(),
	}
	if view.RejectedReason != nil {
		event.RejectedReason = *view.RejectedReason
	}
	r.notifier.SendAsync(event)
}
