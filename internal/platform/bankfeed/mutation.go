package bankfeed

import (
	"strings"
	"time"
)

type MutationType string

const (
	MutationTypeCredit MutationType = "credit"
	MutationTypeDebit  MutationType = "debit"
)

// Mutation is a single bank account transaction reported by the aggregator.
// It carries no reference to any internal order; the transfer amount is the
// only correlation key.
type Mutation struct {
	MutationID    string       `json:"mutation_id"`
	BankAccountID string       `json:"bank_account_id"`
	Amount        int64        `json:"amount"`
	Type          MutationType `json:"type"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// IsCredit matches the type case-insensitively; aggregators report both
// "CREDIT" and "credit" depending on the bank adapter.
func (m *Mutation) IsCredit() bool {
	return m != nil && strings.EqualFold(string(m.Type), string(MutationTypeCredit))
}

// Account is the aggregator's view of a connected bank account.
type Account struct {
	BankAccountID string `json:"bank_account_id"`
	Label         string `json:"label"`
	AccountNumber string `json:"account_number"`
	BankType      string `json:"bank_type"`
	Balance       int64  `json:"balance"`
}

// MutationQuery filters the generic /mutation listing endpoint.
type MutationQuery struct {
	BankAccountID string
	Type          MutationType
	Amount        int64
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}
