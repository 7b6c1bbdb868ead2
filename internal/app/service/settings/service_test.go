package settings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/warungpay/qrispay/internal/models"
)

func setupSettingsTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:settings_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BankAccountSettings{}))
	return New(db, zap.NewNop().Sugar()), db
}

func testSettings(bankID string, active bool) *models.BankAccountSettings {
	return &models.BankAccountSettings{
		BankAccountID:   bankID,
		BankAccountName: "PT Warung Sejahtera",
		AccountNumber:   "1234567890",
		BankType:        "bca",
		AccessToken:     "tok-" + bankID,
		SecretToken:     "secret-" + bankID,
		UniqueCodeStart: 1,
		UniqueCodeEnd:   500,
		IsActive:        active,
	}
}

func TestActive_NoRowsIsNotConfigured(t *testing.T) {
	svc, _ := setupSettingsTest(t)
	_, err := svc.Active(context.Background())
	require.True(t, errors.Is(err, ErrNotConfigured))
}

func TestSave_ActiveRowDeactivatesSiblings(t *testing.T) {
	svc, db := setupSettingsTest(t)
	ctx := context.Background()

	first := testSettings("bank-1", true)
	require.NoError(t, svc.Save(ctx, first))
	second := testSettings("bank-2", true)
	require.NoError(t, svc.Save(ctx, second))

	var activeCount int64
	require.NoError(t, db.Model(&models.BankAccountSettings{}).Where("is_active = ?", true).Count(&activeCount).Error)
	require.Equal(t, int64(1), activeCount)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, "bank-2", active.BankAccountID)
}

func TestSave_RejectsInvalidCodeRange(t *testing.T) {
	svc, _ := setupSettingsTest(t)
	bad := testSettings("bank-1", true)
	bad.UniqueCodeStart = 100
	bad.UniqueCodeEnd = 1
	err := svc.Save(context.Background(), bad)
	require.True(t, errors.Is(err, ErrInvalidCodeRange))

	negative := testSettings("bank-2", true)
	negative.UniqueCodeStart = -1
	require.True(t, errors.Is(svc.Save(context.Background(), negative), ErrInvalidCodeRange))
}

func TestActivate_SwitchesExclusively(t *testing.T) {
	svc, _ := setupSettingsTest(t)
	ctx := context.Background()

	first := testSettings("bank-1", true)
	require.NoError(t, svc.Save(ctx, first))
	second := testSettings("bank-2", false)
	require.NoError(t, svc.Save(ctx, second))

	require.NoError(t, svc.Activate(ctx, second.ID))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestActivate_UnknownIDFails(t *testing.T) {
	svc, _ := setupSettingsTest(t)
	require.Error(t, svc.Activate(context.Background(), "missing"))
}
