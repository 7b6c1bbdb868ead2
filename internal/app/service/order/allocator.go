package order

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/warungpay/qrispay/internal/models"
)

// allocateUniqueCode picks a collision-free code within the configured range
// for the given calendar day. Codes are drawn uniformly from the unused part
// of the range so the expected transfer amount stays unpredictable, while
// allocation still succeeds whenever any code remains free.
//
// The read-check here is only a first line of defense: two concurrent
// creates can pick the same code before either row lands. The composite
// unique index on (bank_account_id, issued_date, unique_code) closes that
// window; Create retries allocation when the insert trips it.
func (s *Service) allocateUniqueCode(ctx context.Context, st *models.BankAccountSettings, issuedDate string) (int, error) {
	size := st.CodeRangeSize()
	if size <= 0 {
		return 0, fmt.Errorf("%w: empty range [%d, %d]", ErrRangeExhausted, st.UniqueCodeStart, st.UniqueCodeEnd)
	}

	var used []int
	err := s.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("bank_account_id = ? AND issued_date = ?", st.BankAccountID, issuedDate).
		Pluck("unique_code", &used).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load used unique codes: %w", err)
	}

	taken := make(map[int]struct{}, len(used))
	for _, c := range used {
		taken[c] = struct{}{}
	}

	free := make([]int, 0, size-len(taken))
	for code := st.UniqueCodeStart; code <= st.UniqueCodeEnd; code++ {
		if _, ok := taken[code]; !ok {
			free = append(free, code)
		}
	}
	if len(free) == 0 {
		return 0, fmt.Errorf("%w: range [%d, %d], bank %s, day %s",
			ErrRangeExhausted, st.UniqueCodeStart, st.UniqueCodeEnd, st.BankAccountID, issuedDate)
	}
	return free[rand.IntN(len(free))], nil
}
