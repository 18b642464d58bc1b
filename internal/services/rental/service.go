package rental

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/blufield/blufmsgo/internal/models"
)

// Service recomputes the derived rented_days field on in-use assets on
// a fixed interval. A failed pass just logs and retries on the next
// tick; nothing downstream depends on it synchronously.
type Service struct {
	db       *gorm.DB
	interval time.Duration
	stop     chan struct{}
}

// NewService creates the rental recompute worker
func NewService(db *gorm.DB, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		db:       db,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the background recompute loop
func (s *Service) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if err := s.Recompute(ctx); err != nil {
					log.Printf("Rental Worker Error: %v", err)
				}
				cancel()
			case <-s.stop:
				return
			}
		}
	}()
	log.Println("✅ Rental: rented_days recompute worker started")
}

// Stop shuts the worker down
func (s *Service) Stop() {
	close(s.stop)
}

// Recompute updates rented_days for every in-use asset with a rental start
func (s *Service) Recompute(ctx context.Context) error {
	var assets []models.Asset
	err := s.db.WithContext(ctx).
		Where("status = ? AND rented_since IS NOT NULL", models.AssetStatusInUse).
		Find(&assets).Error
	if err != nil {
		return err
	}

	now := time.Now()
	for _, asset := range assets {
		days := DaysSince(*asset.RentedSince, now)
		if days == asset.RentedDays {
			continue
		}
		err := s.db.WithContext(ctx).Model(&models.Asset{}).
			Where("id = ?", asset.ID).
			Update("rented_days", days).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DaysSince counts whole days elapsed between since and now, never negative
func DaysSince(since, now time.Time) int {
	if now.Before(since) {
		return 0
	}
	return int(now.Sub(since).Hours() / 24)
}
