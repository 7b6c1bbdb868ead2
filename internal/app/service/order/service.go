package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/warungpay/qrispay/internal/app/service/settings"
	"github.com/warungpay/qrispay/internal/models"
	"github.com/warungpay/qrispay/pkg/logctx"
	"github.com/warungpay/qrispay/pkg/tool"
)

// ExpiryWindow is the fixed payment window granted to every order.
const ExpiryWindow = 24 * time.Hour

// createRetries bounds re-allocation after a unique-code constraint race.
const createRetries = 3

// Service is the payment order lifecycle manager. All status transitions,
// from both the poll and the webhook reconciliation paths, go through
// Transition so the conditional-update guard is applied uniformly.
type Service struct {
	db          *gorm.DB
	log         *zap.SugaredLogger
	settingsSvc *settings.Service
	now         func() time.Time
}

func New(db *gorm.DB, log *zap.SugaredLogger, settingsSvc *settings.Service) *Service {
	return &Service{db: db, log: log, settingsSvc: settingsSvc, now: time.Now}
}

type CreateRequest struct {
	OrderID       string `json:"order_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
}

// Create issues a new payment order against the active bank account
// settings. The unique code makes the expected transfer amount
// distinguishable from every other order issued the same day.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.PaymentOrder, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAmount, req.Amount)
	}

	st, err := s.settingsSvc.Active(ctx)
	if err != nil {
		return nil, err
	}

	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		orderID = tool.GenerateUUIDV7()
	}

	now := s.now()
	issuedDate := now.Format(models.IssuedDateLayout)

	var created *models.PaymentOrder
	for attempt := 0; ; attempt++ {
		code, err := s.allocateUniqueCode(ctx, st, issuedDate)
		if err != nil {
			return nil, err
		}

		row := &models.PaymentOrder{
			ID:            tool.GenerateUUIDV7(),
			OrderID:       orderID,
			CustomerName:  sanitizeText(req.CustomerName, 128),
			CustomerPhone: sanitizeText(req.CustomerPhone, 32),
			Description:   sanitizeText(req.Description, 255),
			Amount:        req.Amount,
			UniqueCode:    code,
			TotalAmount:   req.Amount + int64(code),
			Status:        models.PaymentOrderStatusPending,
			BankAccountID: st.BankAccountID,
			IssuedDate:    issuedDate,
			ExpiresAt:     now.Add(ExpiryWindow),
		}
		err = s.db.WithContext(ctx).Create(row).Error
		if err == nil {
			created = row
			break
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert order: %w", err)
		}
		if taken, lookupErr := s.orderIDExists(ctx, orderID); lookupErr == nil && taken {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, orderID)
		}
		// lost the unique-code race to a concurrent create; re-draw
		if attempt >= createRetries {
			return nil, fmt.Errorf("%w: gave up after %d allocation races", ErrRangeExhausted, attempt+1)
		}
	}

	logctx.FromCtx(ctx, s.log).Infow("order_created",
		"order_id", created.OrderID,
		"bank_account_id", created.BankAccountID,
		"amount", created.Amount,
		"unique_code", created.UniqueCode,
		"total_amount", created.TotalAmount,
		"expires_at", created.ExpiresAt,
	)
	return created, nil
}

// Get loads an order by its external id, lazily expiring it when the payment
// window has elapsed.
func (s *Service) Get(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	row, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !row.Status.IsTerminal() && row.IsExpired(s.now()) {
		if err := s.Transition(ctx, orderID, models.PaymentOrderStatusExpired, nil); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return s.load(ctx, orderID)
	}
	return row, nil
}

// ConfirmTransfer moves a pending order to checking after the customer
// reports having sent the transfer.
func (s *Service) ConfirmTransfer(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	row, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch row.Status {
	case models.PaymentOrderStatusExpired:
		return nil, fmt.Errorf("%w: %s", ErrOrderExpired, orderID)
	case models.PaymentOrderStatusChecking:
		return row, nil
	case models.PaymentOrderStatusPending:
		if err := s.Transition(ctx, orderID, models.PaymentOrderStatusChecking, nil); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return s.load(ctx, orderID)
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, orderID, row.Status)
	}
}

// Cancel is an explicit operator action on a non-terminal order.
func (s *Service) Cancel(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	if err := s.Transition(ctx, orderID, models.PaymentOrderStatusCancelled, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

// legalSources lists which current statuses each transition may start from.
// Terminal states appear in no source list, so nothing ever leaves them.
var legalSources = map[models.PaymentOrderStatus][]models.PaymentOrderStatus{
	models.PaymentOrderStatusChecking:  {models.PaymentOrderStatusPending},
	models.PaymentOrderStatusPaid:      {models.PaymentOrderStatusPending, models.PaymentOrderStatusChecking},
	models.PaymentOrderStatusExpired:   {models.PaymentOrderStatusPending, models.PaymentOrderStatusChecking},
	models.PaymentOrderStatusCancelled: {models.PaymentOrderStatusPending, models.PaymentOrderStatusChecking},
}

// Transition applies a guarded status change: a conditional UPDATE whose
// WHERE clause restricts the current status to the legal sources for the
// target. Concurrent poll and webhook reconciliation can both attempt
// checking→paid; exactly one UPDATE matches, the other sees zero rows and
// gets ErrInvalidTransition. paid additionally stamps paid_at and the
// matched mutation id, once. total_amount and unique_code are never touched.
func (s *Service) Transition(ctx context.Context, orderID string, to models.PaymentOrderStatus, mutationID *string) error {
	sources, ok := legalSources[to]
	if !ok {
		return fmt.Errorf("%w: cannot transition into %s", ErrInvalidTransition, to)
	}

	updates := map[string]any{"status": to}
	if to == models.PaymentOrderStatusPaid {
		updates["paid_at"] = lo.ToPtr(s.now())
		if mutationID != nil {
			updates["mutation_id"] = *mutationID
		}
	}

	res := s.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("order_id = ?", orderID).
		Where("status IN ?", statusStrings(sources)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		if exists, err := s.orderIDExists(ctx, orderID); err == nil && !exists {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		logctx.FromCtx(ctx, s.log).Warnw("order_transition_rejected",
			"order_id", orderID,
			"target_status", to,
		)
		return fmt.Errorf("%w: %s into %s", ErrInvalidTransition, orderID, to)
	}

	logctx.FromCtx(ctx, s.log).Infow("order_transitioned",
		"order_id", orderID,
		"status", to,
		"mutation_id", mutationID,
	)
	return nil
}

// ExpireStale bulk-expires orders whose payment window elapsed. Used by the
// periodic sweeper; reads apply the same policy lazily.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("status IN ?", statusStrings(legalSources[models.PaymentOrderStatusExpired])).
		Where("expires_at < ?", s.now()).
		Update("status", models.PaymentOrderStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire stale orders: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// OldestMatchable returns the oldest non-terminal order on the account whose
// total amount equals the mutation amount, or nil when none matches.
func (s *Service) OldestMatchable(ctx context.Context, bankAccountID string, totalAmount int64) (*models.PaymentOrder, error) {
	var row models.PaymentOrder
	q := s.db.WithContext(ctx).
		Where("total_amount = ?", totalAmount).
		Where("status IN ?", []string{
			string(models.PaymentOrderStatusPending),
			string(models.PaymentOrderStatusChecking),
		}).
		Order("created_at ASC")
	if bankAccountID != "" {
		q = q.Where("bank_account_id = ?", bankAccountID)
	}
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find matchable order: %w", err)
	}
	return &row, nil
}

// MutationBound reports whether a bank mutation id is already attached to
// some order other than the given one. A mutation settles at most one order.
func (s *Service) MutationBound(ctx context.Context, mutationID, excludeOrderID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("mutation_id = ?", mutationID).
		Where("order_id <> ?", excludeOrderID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check mutation binding: %w", err)
	}
	return count > 0, nil
}

func (s *Service) load(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	var row models.PaymentOrder
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	return &row, nil
}

func (s *Service) orderIDExists(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func statusStrings(statuses []models.PaymentOrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, string(st))
	}
	return out
}

// sanitizeText trims whitespace, strips control characters, and caps length.
func sanitizeText(in string, max int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(in))
	if len(cleaned) > max {
		cleaned = cleaned[:max]
	}
	return cleaned
}

// isUniqueViolation matches duplicate-key failures across postgres and the
// sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
