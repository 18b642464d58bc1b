package setup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blufield/blufmsgo/internal/models"
	"github.com/blufield/blufmsgo/internal/storage"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.UserAuth{},
		&models.Client{},
		&models.Order{},
		&models.Asset{},
		&models.Setup{},
		&models.SetupPhoto{},
		&models.SpeedTest{},
		&models.SetupSignature{},
	))

	blobs, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	return NewService(db, blobs), db
}

func seedOrder(t *testing.T, db *gorm.DB) (*models.Order, *models.UserAuth) {
	t.Helper()

	client := models.Client{Name: "Acme Telecom", Document: "12345678000100"}
	require.NoError(t, db.Create(&client).Error)

	tech := models.UserAuth{
		Username: "tech1",
		Password: "x",
		Email:    "tech1@example.com",
		Name:     "Carlos Souza",
		Role:     RoleTechnician,
	}
	require.NoError(t, db.Create(&tech).Error)

	order := models.Order{
		ClientID:  client.ID,
		OrderType: models.OrderTypeInstall,
		Street:    "Rua das Flores",
		Number:    "100",
		City:      "Curitiba",
		State:     "PR",
	}
	require.NoError(t, db.Create(&order).Error)

	asset := models.Asset{
		SerialNumber: "SN-0001",
		Model:        "RT-500",
		Status:       models.AssetStatusInUse,
		OrderID:      &order.ID,
	}
	require.NoError(t, db.Create(&asset).Error)

	return &order, &tech
}

func validForm() *FormData {
	return &FormData{
		Photos:     []PhotoCapture{{Data: []byte("jpeg-bytes"), CapturedAt: time.Now()}},
		Speed:      &SpeedReading{DownloadMbps: 50, UploadMbps: 20, PingMs: 15, MeasuredAt: time.Now()},
		Signature:  []byte("png-bytes"),
		SignerName: "João Silva",
	}
}

func TestStartSetup(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusInProgress), st.Status)
	assert.Equal(t, order.ID, st.OrderID)
	assert.Equal(t, "Curitiba", st.Region)
	assert.NotNil(t, st.DeliveredAt)

	// order status mirrors the started setup
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusInProgress, reloaded.Status)

	// a second start against the same order is refused
	_, err = svc.Start(ctx, order.ID, tech.ID)
	assert.ErrorIs(t, err, ErrSetupExists)
}

func TestStartUnknownOrder(t *testing.T) {
	svc, db := newTestService(t)
	_, tech := seedOrder(t, db)

	_, err := svc.Start(context.Background(), "11111111-1111-1111-1111-111111111111", tech.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCompleteOnlyFromInProgress(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, st.ID, validForm()))

	// completing again must fail and leave state unchanged
	err = svc.Complete(ctx, st.ID, validForm())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var reloaded models.Setup
	require.NoError(t, db.First(&reloaded, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusCompleted), reloaded.Status)

	var speedCount int64
	db.Model(&models.SpeedTest{}).Where("setup_id = ?", st.ID).Count(&speedCount)
	assert.Equal(t, int64(1), speedCount, "retry must not duplicate evidence")
}

func TestCompleteRejectsMissingEvidence(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)

	form := validForm()
	form.Photos = nil
	err = svc.Complete(ctx, st.ID, form)
	assert.ErrorIs(t, err, ErrMissingEvidence)

	// nothing was written
	var reloaded models.Setup
	require.NoError(t, db.First(&reloaded, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusInProgress), reloaded.Status)
	assert.Nil(t, reloaded.CompletedAt)

	var count int64
	db.Model(&models.SpeedTest{}).Where("setup_id = ?", st.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.SetupSignature{}).Where("setup_id = ?", st.ID).Count(&count)
	assert.Zero(t, count)
}

func TestApproveRequiresCompleted(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Approve(ctx, st.ID), ErrInvalidTransition)
	assert.ErrorIs(t, svc.Reject(ctx, st.ID, "too early"), ErrInvalidTransition)

	var reloaded models.Setup
	require.NoError(t, db.First(&reloaded, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusInProgress), reloaded.Status)
	assert.Nil(t, reloaded.ApprovedAt)
	assert.Nil(t, reloaded.RejectedReason)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, st.ID, validForm()))

	assert.ErrorIs(t, svc.Reject(ctx, st.ID, "   "), ErrEmptyReason)

	var reloaded models.Setup
	require.NoError(t, db.First(&reloaded, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusCompleted), reloaded.Status)
}

func TestEndToEndApprove(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusInProgress), st.Status)

	require.NoError(t, svc.Complete(ctx, st.ID, validForm()))

	var speed models.SpeedTest
	require.NoError(t, db.First(&speed, "setup_id = ?", st.ID).Error)
	assert.Equal(t, 50.0, speed.DownloadMbps)
	assert.Equal(t, 20.0, speed.UploadMbps)
	assert.Equal(t, 15.0, speed.PingMs)

	var completed models.Setup
	require.NoError(t, db.First(&completed, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusCompleted), completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	require.NoError(t, svc.Approve(ctx, st.ID))

	var approved models.Setup
	require.NoError(t, db.First(&approved, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusApproved), approved.Status)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Nil(t, approved.RejectedReason)

	// terminal: a second approve fails, nothing silently succeeds
	assert.ErrorIs(t, svc.Approve(ctx, st.ID), ErrInvalidTransition)

	view, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.PhotosCount)
	assert.Equal(t, int64(1), view.SpeedTestsCount)
	assert.Equal(t, int64(1), view.SignaturesCount)
	assert.Equal(t, []string{"SN-0001"}, view.AssetSerials)
	assert.Equal(t, "Acme Telecom", view.ClientName)
}

func TestEndToEndReject(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, st.ID, validForm()))

	require.NoError(t, svc.Reject(ctx, st.ID, "missing photos"))

	var rejected models.Setup
	require.NoError(t, db.First(&rejected, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusRejected), rejected.Status)
	require.NotNil(t, rejected.RejectedReason)
	assert.Equal(t, "missing photos", *rejected.RejectedReason)
	assert.NotNil(t, rejected.CompletedAt)
	assert.Nil(t, rejected.ApprovedAt)

	// terminal: approve after reject fails
	assert.ErrorIs(t, svc.Approve(ctx, st.ID), ErrInvalidTransition)

	// even a rejected setup blocks a second start on the same order
	_, err = svc.Start(ctx, order.ID, tech.ID)
	assert.ErrorIs(t, err, ErrSetupExists)
}

// rejected_reason is non-null exactly when status is rejected
func TestRejectedReasonInvariant(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, st.ID, validForm()))
	require.NoError(t, svc.Reject(ctx, st.ID, "bad signal"))

	var all []models.Setup
	require.NoError(t, db.Find(&all).Error)
	for _, s := range all {
		if s.Status == string(StatusRejected) {
			assert.NotNil(t, s.RejectedReason, "rejected setup must carry a reason")
		} else {
			assert.Nil(t, s.RejectedReason, "non-rejected setup must not carry a reason")
		}
	}
}

func TestStepperDrivesCompletion(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)

	s := NewStepper()
	require.NoError(t, s.Next()) // scan -> summary
	require.NoError(t, s.Next()) // summary -> photos
	s.AddPhoto([]byte("jpeg"), time.Now())
	require.NoError(t, s.Next())
	s.RecordSpeed(SpeedReading{DownloadMbps: 80, UploadMbps: 40, PingMs: 10})
	require.NoError(t, s.Next())
	s.Sign([]byte("png"), "Maria Santos")
	require.NoError(t, s.Next())

	// confirmation cannot be left before Confirm succeeds
	require.ErrorIs(t, s.Next(), ErrNotConfirmed)

	require.NoError(t, s.Confirm(ctx, svc, st.ID))
	assert.True(t, s.Confirmed())
	require.NoError(t, s.Next())

	var reloaded models.Setup
	require.NoError(t, db.First(&reloaded, "id = ?", st.ID).Error)
	assert.Equal(t, string(StatusCompleted), reloaded.Status)

	// a second confirm must not re-fire the transition
	assert.ErrorIs(t, s.Confirm(ctx, svc, st.ID), ErrInvalidTransition)
}

func TestListForTechnicianFilters(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)

	views, err := svc.ListForTechnician(ctx, tech.ID, ListFilters{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, st.ID, views[0].ID)

	views, err = svc.ListForTechnician(ctx, tech.ID, ListFilters{Status: StatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, views)

	future := time.Now().Add(time.Hour)
	views, err = svc.ListForTechnician(ctx, tech.ID, ListFilters{From: &future})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListPendingAndApprovalRate(t *testing.T) {
	svc, db := newTestService(t)
	order, tech := seedOrder(t, db)
	ctx := context.Background()

	st, err := svc.Start(ctx, order.ID, tech.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, st.ID, validForm()))

	views, err := svc.ListPending(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, views, 1)

	// free-text search matches client name, misses on garbage
	views, err = svc.ListPending(ctx, "acme", "")
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, err = svc.ListPending(ctx, "nomatch-xyz", "")
	require.NoError(t, err)
	assert.Empty(t, views)

	// region filter
	views, err = svc.ListPending(ctx, "", "Curitiba")
	require.NoError(t, err)
	assert.Len(t, views, 1)
	views, err = svc.ListPending(ctx, "", "Recife")
	require.NoError(t, err)
	assert.Empty(t, views)

	require.NoError(t, svc.Approve(ctx, st.ID))
	approved, rejected, err := svc.ApprovalStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), approved)
	assert.Equal(t, int64(0), rejected)
	assert.Equal(t, 1.0, ApprovalRate(approved, rejected))
}

func TestApprovalRate(t *testing.T) {
	assert.Equal(t, 0.0, ApprovalRate(0, 0))
	assert.Equal(t, 1.0, ApprovalRate(5, 0))
	assert.Equal(t, 0.0, ApprovalRate(0, 3))
	assert.Equal(t, 0.75, ApprovalRate(3, 1))
}
