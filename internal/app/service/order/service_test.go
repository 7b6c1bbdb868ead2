package order

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

	"github.com/warungpay/qrispay/internal/app/service/settings"
	"github.com/warungpay/qrispay/internal/models"
	"github.com/warungpay/qrispay/pkg/types"
)

func setupOrderTest(t *testing.T, codeStart, codeEnd int) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BankAccountSettings{}, &models.PaymentOrder{}))

	log := zap.NewNop().Sugar()
	settingsSvc := settings.New(db, log)
	require.NoError(t, settingsSvc.Save(context.Background(), &models.BankAccountSettings{
		BankAccountID:   "bank-1",
		BankAccountName: "PT Warung Sejahtera",
		AccountNumber:   "1234567890",
		BankType:        "bca",
		AccessToken:     "tok-1",
		SecretToken:     "hook-secret",
		UniqueCodeStart: codeStart,
		UniqueCodeEnd:   codeEnd,
		IsActive:        true,
	}))
	return New(db, log, settingsSvc), db
}

func createTestOrder(t *testing.T, svc *Service, amount int64) *models.PaymentOrder {
	t.Helper()
	row, err := svc.Create(context.Background(), &CreateRequest{
		CustomerName:  "Budi Santoso",
		CustomerPhone: "+628123456789",
		Amount:        amount,
	})
	require.NoError(t, err)
	return row
}

func TestCreate_PopulatesDerivedFields(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	before := time.Now()

	row := createTestOrder(t, svc, 50000)

	require.Equal(t, models.PaymentOrderStatusPending, row.Status)
	require.GreaterOrEqual(t, row.UniqueCode, 1)
	require.LessOrEqual(t, row.UniqueCode, 500)
	require.Equal(t, row.Amount+int64(row.UniqueCode), row.TotalAmount)
	require.Equal(t, "bank-1", row.BankAccountID)
	require.Equal(t, before.Format(models.IssuedDateLayout), row.IssuedDate)
	require.WithinDuration(t, before.Add(ExpiryWindow), row.ExpiresAt, 5*time.Second)
	require.NotEmpty(t, row.OrderID)
}

func TestCreate_NoActiveSettings(t *testing.T) {
	svc, db := setupOrderTest(t, 1, 500)
	require.NoError(t, db.Model(&models.BankAccountSettings{}).Where("1=1").Update("is_active", false).Error)

	_, err := svc.Create(context.Background(), &CreateRequest{CustomerName: "Budi", Amount: 1000})
	require.True(t, errors.Is(err, settings.ErrNotConfigured))
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	for _, amount := range []int64{0, -100} {
		_, err := svc.Create(context.Background(), &CreateRequest{CustomerName: "Budi", Amount: amount})
		require.True(t, errors.Is(err, ErrInvalidAmount))
	}
}

func TestCreate_DuplicateOrderID(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()
	_, err := svc.Create(ctx, &CreateRequest{OrderID: "ord-1", CustomerName: "Budi", Amount: 1000})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateRequest{OrderID: "ord-1", CustomerName: "Budi", Amount: 2000})
	require.True(t, errors.Is(err, ErrDuplicateOrder))
}

func TestCreate_ExhaustsCodeRange(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 3)
	ctx := context.Background()

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		row, err := svc.Create(ctx, &CreateRequest{CustomerName: "Budi", Amount: 50000})
		require.NoError(t, err)
		require.False(t, seen[row.UniqueCode], "unique code %d issued twice", row.UniqueCode)
		seen[row.UniqueCode] = true
	}
	require.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)

	_, err := svc.Create(ctx, &CreateRequest{CustomerName: "Budi", Amount: 50000})
	require.True(t, errors.Is(err, ErrRangeExhausted))
}

func TestCreate_SanitizesCustomerInput(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	row, err := svc.Create(context.Background(), &CreateRequest{
		CustomerName:  "  Budi\x00Santoso\n ",
		CustomerPhone: "\t+62812\r",
		Amount:        1000,
	})
	require.NoError(t, err)
	require.Equal(t, "BudiSantoso", row.CustomerName)
	require.Equal(t, "+62812", row.CustomerPhone)
}

func TestTransition_PaidIsIdempotent(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()
	row := createTestOrder(t, svc, 50000)

	require.NoError(t, svc.Transition(ctx, row.OrderID, models.PaymentOrderStatusChecking, nil))

	m1 := "mut-1"
	require.NoError(t, svc.Transition(ctx, row.OrderID, models.PaymentOrderStatusPaid, &m1))

	paid, err := svc.Get(ctx, row.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentOrderStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.Equal(t, "mut-1", *paid.MutationID)

	m2 := "mut-2"
	err = svc.Transition(ctx, row.OrderID, models.PaymentOrderStatusPaid, &m2)
	require.True(t, errors.Is(err, ErrInvalidTransition))

	again, err := svc.Get(ctx, row.OrderID)
	require.NoError(t, err)
	require.Equal(t, "mut-1", *again.MutationID)
	require.Equal(t, paid.PaidAt.Unix(), again.PaidAt.Unix())
}

func TestTransition_NeverLeavesTerminalStates(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()
	row := createTestOrder(t, svc, 50000)

	_, err := svc.Cancel(ctx, row.OrderID)
	require.NoError(t, err)

	for _, target := range []models.PaymentOrderStatus{
		models.PaymentOrderStatusChecking,
		models.PaymentOrderStatusPaid,
		models.PaymentOrderStatusExpired,
	} {
		err := svc.Transition(ctx, row.OrderID, target, nil)
		require.True(t, errors.Is(err, ErrInvalidTransition), "transition into %s out of cancelled", target)
	}
}

func TestTransition_UnknownOrder(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	err := svc.Transition(context.Background(), "missing", models.PaymentOrderStatusChecking, nil)
	require.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestGet_LazilyExpiresStaleOrder(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()
	row := createTestOrder(t, svc, 50000)

	svc.now = func() time.Time { return time.Now().Add(ExpiryWindow + time.Hour) }

	got, err := svc.Get(ctx, row.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentOrderStatusExpired, got.Status)
}

func TestConfirmTransfer_PendingToChecking(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()
	row := createTestOrder(t, svc, 50000)

	got, err := svc.ConfirmTransfer(ctx, row.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentOrderStatusChecking, got.Status)

	// confirming again is a no-op
	got, err = svc.ConfirmTransfer(ctx, row.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentOrderStatusChecking, got.Status)
}

func TestConfirmTransfer_ExpiredOrder(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()
	row := createTestOrder(t, svc, 50000)

	svc.now = func() time.Time { return time.Now().Add(ExpiryWindow + time.Hour) }

	_, err := svc.ConfirmTransfer(ctx, row.OrderID)
	require.True(t, errors.Is(err, ErrOrderExpired))
}

func TestExpireStale_BulkSweep(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()

	stale := createTestOrder(t, svc, 10000)
	checking := createTestOrder(t, svc, 20000)
	require.NoError(t, svc.Transition(ctx, checking.OrderID, models.PaymentOrderStatusChecking, nil))
	paid := createTestOrder(t, svc, 30000)
	require.NoError(t, svc.Transition(ctx, paid.OrderID, models.PaymentOrderStatusChecking, nil))
	m := "mut-9"
	require.NoError(t, svc.Transition(ctx, paid.OrderID, models.PaymentOrderStatusPaid, &m))

	svc.now = func() time.Time { return time.Now().Add(ExpiryWindow + time.Hour) }

	n, err := svc.ExpireStale(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	for _, id := range []string{stale.OrderID, checking.OrderID} {
		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, models.PaymentOrderStatusExpired, got.Status)
	}
	stillPaid, err := svc.Get(ctx, paid.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentOrderStatusPaid, stillPaid.Status)
}

func TestOldestMatchable_PrefersOldestNonTerminal(t *testing.T) {
	svc, db := setupOrderTest(t, 1, 500)
	ctx := context.Background()

	first := createTestOrder(t, svc, 50000)
	second := createTestOrder(t, svc, 60000)

	// force identical totals and distinct creation times
	require.NoError(t, db.Model(&models.PaymentOrder{}).Where("order_id = ?", first.OrderID).
		Updates(map[string]any{"total_amount": 50123, "created_at": time.Now().Add(-2 * time.Hour)}).Error)
	require.NoError(t, db.Model(&models.PaymentOrder{}).Where("order_id = ?", second.OrderID).
		Updates(map[string]any{"total_amount": 50123, "created_at": time.Now().Add(-1 * time.Hour)}).Error)

	got, err := svc.OldestMatchable(ctx, "bank-1", 50123)
	require.NoError(t, err)
	require.Equal(t, first.OrderID, got.OrderID)

	_, err = svc.Cancel(ctx, first.OrderID)
	require.NoError(t, err)

	got, err = svc.OldestMatchable(ctx, "bank-1", 50123)
	require.NoError(t, err)
	require.Equal(t, second.OrderID, got.OrderID)

	got, err = svc.OldestMatchable(ctx, "bank-1", 99999)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMutationBound(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()
	row := createTestOrder(t, svc, 50000)
	require.NoError(t, svc.Transition(ctx, row.OrderID, models.PaymentOrderStatusChecking, nil))
	m := "mut-1"
	require.NoError(t, svc.Transition(ctx, row.OrderID, models.PaymentOrderStatusPaid, &m))

	bound, err := svc.MutationBound(ctx, "mut-1", "some-other-order")
	require.NoError(t, err)
	require.True(t, bound)

	bound, err = svc.MutationBound(ctx, "mut-1", row.OrderID)
	require.NoError(t, err)
	require.False(t, bound)

	bound, err = svc.MutationBound(ctx, "mut-2", "any")
	require.NoError(t, err)
	require.False(t, bound)
}

func TestScan_FiltersByStatus(t *testing.T) {
	svc, _ := setupOrderTest(t, 1, 500)
	ctx := context.Background()

	createTestOrder(t, svc, 10000)
	cancelled := createTestOrder(t, svc, 20000)
	_, err := svc.Cancel(ctx, cancelled.OrderID)
	require.NoError(t, err)

	res, err := svc.Scan(ctx, &ScanOrdersRequest{
		Filters: []*types.CommonFilter{{
			Field:    "status",
			Operator: types.CommonFilterOperatorEq,
			Values:   []any{string(models.PaymentOrderStatusCancelled)},
		}},
		Size: 10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	require.Len(t, res.Items, 1)
	require.Equal(t, cancelled.OrderID, res.Items[0].OrderID)
}
