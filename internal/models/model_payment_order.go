package models

import (
	"time"
)

type PaymentOrderStatus string

const (
	PaymentOrderStatusPending   PaymentOrderStatus = "pending"
	PaymentOrderStatusChecking  PaymentOrderStatus = "checking"
	PaymentOrderStatusPaid      PaymentOrderStatus = "paid"
	PaymentOrderStatusExpired   PaymentOrderStatus = "expired"
	PaymentOrderStatusCancelled PaymentOrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s PaymentOrderStatus) IsTerminal() bool {
	switch s {
	case PaymentOrderStatusPaid, PaymentOrderStatusExpired, PaymentOrderStatusCancelled:
		return true
	}
	return false
}

// IssuedDateLayout is the calendar-day key used by the unique-code index.
// Codes recycle daily, so uniqueness is scoped to (bank account, day).
const IssuedDateLayout = "2006-01-02"

// PaymentOrder 银行转账支付订单
type PaymentOrder struct {
	ID            string             `gorm:"column:id;primary_key;type:uuid" json:"id"`
	OrderID       string             `gorm:"column:order_id;type:varchar(64);not null;uniqueIndex" json:"order_id"`
	CustomerName  string             `gorm:"column:customer_name;type:varchar(128);not null" json:"customer_name"`
	CustomerPhone string             `gorm:"column:customer_phone;type:varchar(32);not null" json:"customer_phone"`
	Description   string             `gorm:"column:description;type:varchar(255)" json:"description"`
	Amount        int64              `gorm:"column:amount;type:bigint;not null" json:"amount"`
	UniqueCode    int                `gorm:"column:unique_code;not null;uniqueIndex:unique_bank_day_code,priority:3" json:"unique_code"`
	// TotalAmount = Amount + UniqueCode, computed once at creation and never
	// recomputed afterwards. It is the sole correlation key against bank
	// mutations.
	TotalAmount   int64              `gorm:"column:total_amount;type:bigint;not null;index" json:"total_amount"`
	Status        PaymentOrderStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	BankAccountID string             `gorm:"column:bank_account_id;type:varchar(64);not null;uniqueIndex:unique_bank_day_code,priority:1" json:"bank_account_id"`
	IssuedDate    string             `gorm:"column:issued_date;type:varchar(10);not null;uniqueIndex:unique_bank_day_code,priority:2" json:"issued_date"`
	MutationID    *string            `gorm:"column:mutation_id;type:varchar(64)" json:"mutation_id"`
	ExpiresAt     time.Time          `gorm:"column:expires_at;not null" json:"expires_at"`
	PaidAt        *time.Time         `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (PaymentOrder) TableName() string { return "payment_order" }

// IsExpired reports whether the order's payment window has elapsed.
func (o *PaymentOrder) IsExpired(now time.Time) bool {
	if o == nil {
		return false
	}
	return now.After(o.ExpiresAt)
}
