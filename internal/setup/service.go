package setup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/blufield/blufmsgo/internal/models"
	"github.com/blufield/blufmsgo/internal/storage"
)

// Service orchestrates the setup state machine. It is the only code
// path allowed to write status, completed_at, approved_at and
// rejected_reason on setup rows.
type Service struct {
	db    *gorm.DB
	blobs *storage.Store
}

// NewService creates a setup service
func NewService(db *gorm.DB, blobs *storage.Store) *Service {
	return &Service{db: db, blobs: blobs}
}

// ListFilters narrows technician setup listings
type ListFilters struct {
	Status Status
	From   *time.Time
	To     *time.Time
}

// Start creates a setup for an order and moves it to in_progress.
// Fails if any setup already exists for the order, rejected ones
// included; re-attempts go through a fresh order.
func (s *Service) Start(ctx context.Context, orderID, technicianID string) (*models.Setup, error) {
	if technicianID == "" {
		return nil, fmt.Errorf("technician id is required")
	}

	var created models.Setup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrOrderNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Setup{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSetupExists
		}

		now := time.Now()
		created = models.Setup{
			OrderID:      orderID,
			TechnicianID: technicianID,
			Status:       string(StatusInProgress),
			Region:       order.City,
			DeliveredAt:  &now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create setup: %w", err)
		}

		// Mirror the externally-owned order status for list screens
		return tx.Model(&order).Update("status", models.OrderStatusInProgress).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Complete flushes the evidence form and moves the setup to completed.
// The whole flush is one transaction: either all evidence rows land and
// the status flips, or nothing is written. Evidence preconditions are
// re-validated here regardless of what the client checked.
func (s *Service) Complete(ctx context.Context, setupID string, form *FormData) error {
	if err := form.Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st models.Setup
		if err := tx.First(&st, "id = ?", setupID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrSetupNotFound
			}
			return err
		}
		if !CanTransition(Status(st.Status), StatusCompleted) {
			return ErrInvalidTransition
		}

		// Blob writes are not transactional; an aborted completion
		// leaves orphan files only, never orphan rows.
		for _, p := range form.Photos {
			path, key, iv, err := s.blobs.Put(st.ID, p.Data)
			if err != nil {
				return fmt.Errorf("failed to store photo: %w", err)
			}
			photo := models.SetupPhoto{
				SetupID:     st.ID,
				StoragePath: path,
				EncKey:      key,
				EncIV:       iv,
				CapturedAt:  p.CapturedAt,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return fmt.Errorf("failed to save photo record: %w", err)
			}
		}

		speed := models.SpeedTest{
			SetupID:      st.ID,
			DownloadMbps: form.Speed.DownloadMbps,
			UploadMbps:   form.Speed.UploadMbps,
			PingMs:       form.Speed.PingMs,
			Raw:          datatypes.JSON(form.Speed.Raw),
			MeasuredAt:   form.Speed.MeasuredAt,
		}
		if err := tx.Create(&speed).Error; err != nil {
			return fmt.Errorf("failed to save speed test: %w", err)
		}

		sigPath, sigKey, sigIV, err := s.blobs.Put(st.ID, form.Signature)
		if err != nil {
			return fmt.Errorf("failed to store signature: %w", err)
		}
		sig := models.SetupSignature{
			SetupID:     st.ID,
			SignerName:  strings.TrimSpace(form.SignerName),
			StoragePath: sigPath,
			EncKey:      sigKey,
			EncIV:       sigIV,
			CapturedAt:  time.Now(),
		}
		if err := tx.Create(&sig).Error; err != nil {
			return fmt.Errorf("failed to save signature record: %w", err)
		}

		now := time.Now()
		res := tx.Model(&models.Setup{}).
			Where("id = ? AND status = ?", st.ID, string(StatusInProgress)).
			Updates(map[string]interface{}{
				"status":       string(StatusCompleted),
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		return tx.Model(&models.Order{}).
			Where("id = ?", st.OrderID).
			Update("status", models.OrderStatusCompleted).Error
	})
}

// Approve moves a completed setup to approved. Retrying approve on an
// already-terminal setup fails instead of silently succeeding, so
// downstream notifications cannot double-fire.
func (s *Service) Approve(ctx context.Context, setupID string) error {
	return s.transition(ctx, setupID, StatusApproved, func(updates map[string]interface{}) {
		updates["approved_at"] = time.Now()
	})
}

// Reject moves a completed setup to rejected with a non-empty reason
func (s *Service) Reject(ctx context.Context, setupID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	return s.transition(ctx, setupID, StatusRejected, func(updates map[string]interface{}) {
		updates["rejected_reason"] = reason
	})
}

// transition applies one supervision transition under a status guard so
// a lost race leaves the row unchanged
func (s *Service) transition(ctx context.Context, setupID string, to Status, stamp func(map[string]interface{})) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st models.Setup
		if err := tx.First(&st, "id = ?", setupID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrSetupNotFound
			}
			return err
		}
		from := Status(st.Status)
		if !CanTransition(from, to) {
			return ErrInvalidTransition
		}

		updates := map[string]interface{}{"status": string(to)}
		stamp(updates)

		res := tx.Model(&models.Setup{}).
			Where("id = ? AND status = ?", st.ID, string(from)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
}

// Get returns the detailed view of one setup
func (s *Service) Get(ctx context.Context, setupID string) (*models.SetupDetailedView, error) {
	db := s.db.WithContext(ctx)

	var st models.Setup
	err := db.Preload("Order").Preload("Order.Client").Preload("Technician").
		First(&st, "id = ?", setupID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSetupNotFound
		}
		return nil, err
	}

	view, err := s.buildView(db, &st)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListForTechnician returns the technician's setups, newest first
func (s *Service) ListForTechnician(ctx context.Context, technicianID string, f ListFilters) ([]models.SetupDetailedView, error) {
	db := s.db.WithContext(ctx)

	q := db.Preload("Order").Preload("Order.Client").Preload("Technician").
		Where("technician_id = ?", technicianID)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var setups []models.Setup
	if err := q.Order("created_at DESC").Find(&setups).Error; err != nil {
		return nil, err
	}
	return s.buildViews(db, setups)
}

// ListPending returns completed setups awaiting supervision, optionally
// narrowed by region and a free-text query over client name, technician
// name and setup id
func (s *Service) ListPending(ctx context.Context, query, region string) ([]models.SetupDetailedView, error) {
	db := s.db.WithContext(ctx)

	q := db.Preload("Order").Preload("Order.Client").Preload("Technician").
		Where("status = ?", string(StatusCompleted))
	if region != "" {
		q = q.Where("region = ?", region)
	}

	var setups []models.Setup
	if err := q.Order("created_at DESC").Find(&setups).Error; err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query != "" {
		filtered := setups[:0]
		for _, st := range setups {
			if matchesQuery(&st, query) {
				filtered = append(filtered, st)
			}
		}
		setups = filtered
	}
	return s.buildViews(db, setups)
}

// matchesQuery does the free-text match for the supervision list
func matchesQuery(st *models.Setup, query string) bool {
	if strings.Contains(strings.ToLower(st.ID), query) {
		return true
	}
	if st.Technician != nil && strings.Contains(strings.ToLower(st.Technician.Name), query) {
		return true
	}
	if st.Order != nil && st.Order.Client != nil &&
		strings.Contains(strings.ToLower(st.Order.Client.Name), query) {
		return true
	}
	return false
}

// ApprovalStats counts decided setups, optionally per region
func (s *Service) ApprovalStats(ctx context.Context, region string) (approved, rejected int64, err error) {
	db := s.db.WithContext(ctx).Model(&models.Setup{})
	if region != "" {
		db = db.Where("region = ?", region)
	}
	if err = db.Session(&gorm.Session{}).Where("status = ?", string(StatusApproved)).Count(&approved).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Session(&gorm.Session{}).Where("status = ?", string(StatusRejected)).Count(&rejected).Error; err != nil {
		return 0, 0, err
	}
	return approved, rejected, nil
}

// ApprovalRate computes approved / (approved + rejected) for display.
// Never persisted; recomputed on every load.
func ApprovalRate(approved, rejected int64) float64 {
	total := approved + rejected
	if total == 0 {
		return 0
	}
	return float64(approved) / float64(total)
}

// buildViews assembles detailed views for a batch of setups
func (s *Service) buildViews(db *gorm.DB, setups []models.Setup) ([]models.SetupDetailedView, error) {
	views := make([]models.SetupDetailedView, 0, len(setups))
	for i := range setups {
		view, err := s.buildView(db, &setups[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// buildView joins one setup with its order and evidence counts
func (s *Service) buildView(db *gorm.DB, st *models.Setup) (*models.SetupDetailedView, error) {
	view := models.SetupDetailedView{
		ID:             st.ID,
		OrderID:        st.OrderID,
		TechnicianID:   st.TechnicianID,
		Status:         st.Status,
		Region:         st.Region,
		CompletedAt:    st.CompletedAt,
		ApprovedAt:     st.ApprovedAt,
		RejectedReason: st.RejectedReason,
		AssetSerials:   []string{},
	}

	if st.Technician != nil {
		view.TechnicianName = st.Technician.Name
	}
	if st.Order != nil {
		view.OrderNumber = st.Order.OrderNumber
		view.ClientID = st.Order.ClientID
		view.Address = st.Order.Address()
		view.OrderType = st.Order.OrderType
		view.OrderScheduledAt = st.Order.ScheduledAt
		if st.Order.Client != nil {
			view.ClientName = st.Order.Client.Name
		}
	}

	if err := db.Model(&models.SetupPhoto{}).Where("setup_id = ?", st.ID).Count(&view.PhotosCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.SpeedTest{}).Where("setup_id = ?", st.ID).Count(&view.SpeedTestsCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.SetupSignature{}).Where("setup_id = ?", st.ID).Count(&view.SignaturesCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Asset{}).Where("order_id = ?", st.OrderID).
		Pluck("serial_number", &view.AssetSerials).Error; err != nil {
		return nil, err
	}
	return &view, nil
}
