package reconcile

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/warungpay/qrispay/internal/app/service/order"
	"github.com/warungpay/qrispay/internal/app/service/settings"
	"github.com/warungpay/qrispay/internal/models"
	"github.com/warungpay/qrispay/internal/platform/bankfeed"
	"github.com/warungpay/qrispay/pkg/logctx"
)

// Feed is the slice of the banking-aggregator client the engine needs.
type Feed interface {
	Refresh(ctx context.Context, token, bankAccountID string) error
	SearchMutations(ctx context.Context, token, bankAccountID string, amount int64) ([]bankfeed.Mutation, error)
}

// Service matches externally reported bank mutations to pending orders.
// Both the client-driven poll path and the webhook push path converge on
// order.Service.Transition, whose conditional update makes a double match a
// no-op rather than a double side-effect.
type Service struct {
	orderSvc    *order.Service
	settingsSvc *settings.Service
	feed        Feed
	log         *zap.SugaredLogger
}

func New(orderSvc *order.Service, settingsSvc *settings.Service, feed Feed, log *zap.SugaredLogger) *Service {
	return &Service{orderSvc: orderSvc, settingsSvc: settingsSvc, feed: feed, log: log}
}

type CheckResult struct {
	Paid     bool                 `json:"paid"`
	Order    *models.PaymentOrder `json:"order"`
	Mutation *bankfeed.Mutation   `json:"mutation,omitempty"`
}

// CheckPayment is the pull path: the customer's status poll. Transient
// aggregator failures are logged and swallowed; the caller's polling cadence
// is the retry loop.
func (s *Service) CheckPayment(ctx context.Context, orderID string) (*CheckResult, error) {
	log := logctx.FromCtx(ctx, s.log).With("order_id", orderID)

	row, err := s.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if row.Status == models.PaymentOrderStatusPaid {
		return &CheckResult{Paid: true, Order: row}, nil
	}
	if row.Status.IsTerminal() {
		return &CheckResult{Paid: false, Order: row}, nil
	}

	if row.Status == models.PaymentOrderStatusPending {
		if err := s.orderSvc.Transition(ctx, orderID, models.PaymentOrderStatusChecking, nil); err != nil && !errors.Is(err, order.ErrInvalidTransition) {
			return nil, err
		}
	}

	st, err := s.settingsSvc.ByBankAccountID(ctx, row.BankAccountID)
	if err != nil {
		return nil, err
	}

	if err := s.feed.Refresh(ctx, st.AccessToken, st.BankAccountID); err != nil {
		log.Warnw("mutation_refresh_failed", "bank_account_id", st.BankAccountID, "error", err.Error())
	}

	muts, err := s.feed.SearchMutations(ctx, st.AccessToken, st.BankAccountID, row.TotalAmount)
	if err != nil {
		// not paid yet as far as we can tell; the next poll retries
		log.Warnw("mutation_search_failed", "bank_account_id", st.BankAccountID, "error", err.Error())
		return &CheckResult{Paid: false, Order: row}, nil
	}

	match, err := s.pickMutation(ctx, row, muts)
	if err != nil {
		return nil, err
	}
	if match == nil {
		reloaded, err := s.orderSvc.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return &CheckResult{Paid: reloaded.Status == models.PaymentOrderStatusPaid, Order: reloaded}, nil
	}

	err = s.orderSvc.Transition(ctx, orderID, models.PaymentOrderStatusPaid, &match.MutationID)
	if err != nil && !errors.Is(err, order.ErrInvalidTransition) {
		return nil, err
	}
	if err == nil {
		matchesTotal.WithLabelValues("pull").Inc()
		log.Infow("order_paid",
			"mutation_id", match.MutationID,
			"amount", match.Amount,
			"path", "pull",
		)
	}

	reloaded, err := s.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	res := &CheckResult{Paid: reloaded.Status == models.PaymentOrderStatusPaid, Order: reloaded}
	if res.Paid {
		res.Mutation = match
	}
	return res, nil
}

// pickMutation selects the first credit mutation with the exact total amount
// arriving at or after order creation, skipping mutations already bound to
// another order. A single bank mutation settles at most one order.
func (s *Service) pickMutation(ctx context.Context, row *models.PaymentOrder, muts []bankfeed.Mutation) (*bankfeed.Mutation, error) {
	for i := range muts {
		m := &muts[i]
		if !m.IsCredit() || m.Amount != row.TotalAmount || m.OccurredAt.Before(row.CreatedAt) {
			continue
		}
		bound, err := s.orderSvc.MutationBound(ctx, m.MutationID, row.OrderID)
		if err != nil {
			return nil, err
		}
		if bound {
			continue
		}
		return m, nil
	}
	return nil, nil
}

type WebhookResult struct {
	Processed []string `json:"processed"`
	Errors    []string `json:"errors"`
}

// HandleWebhook is the push path. The shared secret is verified against the
// active settings before anything is touched; per-mutation failures are
// isolated so one bad record never aborts the batch.
func (s *Service) HandleWebhook(ctx context.Context, mutations []bankfeed.Mutation, secret string) (*WebhookResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	st, err := s.settingsSvc.Active(ctx)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(st.SecretToken)) != 1 {
		webhookRejectedTotal.Inc()
		log.Errorw("webhook_signature_rejected", "bank_account_id", st.BankAccountID)
		return nil, ErrInvalidSignature
	}

	res := &WebhookResult{Processed: []string{}, Errors: []string{}}
	for i := range mutations {
		m := &mutations[i]
		if !m.IsCredit() {
			webhookMutationsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		bankID := m.BankAccountID
		if bankID == "" {
			bankID = st.BankAccountID
		}

		matched, err := s.matchOne(ctx, m, bankID)
		if err != nil {
			webhookMutationsTotal.WithLabelValues("error").Inc()
			log.Errorw("webhook_mutation_failed",
				"mutation_id", m.MutationID,
				"amount", m.Amount,
				"error", err.Error(),
			)
			res.Errors = append(res.Errors, fmt.Sprintf("mutation %s: %v", m.MutationID, err))
			continue
		}
		if matched == "" {
			webhookMutationsTotal.WithLabelValues("unmatched").Inc()
			continue
		}
		webhookMutationsTotal.WithLabelValues("matched").Inc()
		matchesTotal.WithLabelValues("push").Inc()
		log.Infow("order_paid",
			"order_id", matched,
			"mutation_id", m.MutationID,
			"amount", m.Amount,
			"path", "push",
		)
		res.Processed = append(res.Processed, matched)
	}
	return res, nil
}

// matchOne settles a single credit mutation against the oldest open order
// with the same total. Returns the matched order id, or "" when nothing
// matches (including replayed mutations and orders already paid by the pull
// path, both of which are safe no-ops).
func (s *Service) matchOne(ctx context.Context, m *bankfeed.Mutation, bankAccountID string) (string, error) {
	bound, err := s.orderSvc.MutationBound(ctx, m.MutationID, "")
	if err != nil {
		return "", err
	}
	if bound {
		return "", nil
	}

	row, err := s.orderSvc.OldestMatchable(ctx, bankAccountID, m.Amount)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", nil
	}

	err = s.orderSvc.Transition(ctx, row.OrderID, models.PaymentOrderStatusPaid, &m.MutationID)
	if errors.Is(err, order.ErrInvalidTransition) {
		// lost the race to the poll path; already settled
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.OrderID, nil
}
