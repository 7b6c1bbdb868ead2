package models

import "time"

// BankAccountSettings 收款银行账户配置
//
// At most one row is active at a time; activating a row deactivates its
// siblings (enforced by the settings service in one transaction).
type BankAccountSettings struct {
	ID              string    `gorm:"column:id;primary_key;type:uuid" json:"id"`
	BankAccountID   string    `gorm:"column:bank_account_id;type:varchar(64);not null;index" json:"bank_account_id"`
	BankAccountName string    `gorm:"column:bank_account_name;type:varchar(128);not null" json:"bank_account_name"`
	AccountNumber   string    `gorm:"column:account_number;type:varchar(64);not null" json:"account_number"`
	BankType        string    `gorm:"column:bank_type;type:varchar(32);not null" json:"bank_type"`
	AccessToken     string    `gorm:"column:access_token;type:varchar(255);not null" json:"-"`
	SecretToken     string    `gorm:"column:secret_token;type:varchar(255);not null" json:"-"`
	UniqueCodeStart int       `gorm:"column:unique_code_start;not null" json:"unique_code_start"`
	UniqueCodeEnd   int       `gorm:"column:unique_code_end;not null" json:"unique_code_end"`
	IsActive        bool      `gorm:"column:is_active;not null;index" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (BankAccountSettings) TableName() string { return "bank_account_settings" }

// CodeRangeSize is the number of unique codes available per day.
func (s *BankAccountSettings) CodeRangeSize() int {
	if s == nil || s.UniqueCodeEnd < s.UniqueCodeStart {
		return 0
	}
	return s.UniqueCodeEnd - s.UniqueCodeStart + 1
}
