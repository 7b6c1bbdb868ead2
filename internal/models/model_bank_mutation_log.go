package models

import (
	"time"

	"gorm.io/datatypes"
)

type BankMutationLogStatus string

const (
	BankMutationLogStatusReceived     BankMutationLogStatus = "received"
	BankMutationLogStatusHandled      BankMutationLogStatus = "handled"
	BankMutationLogStatusHandleFailed BankMutationLogStatus = "handle_failed"
)

// BankMutationLog records every inbound webhook batch for audit, mirroring
// the raw payload next to the processing result.
type BankMutationLog struct {
	ID            string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	BankAccountID string                `gorm:"column:bank_account_id;type:varchar(64)" json:"bank_account_id"`
	TraceID       string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	MutationCount int                   `gorm:"column:mutation_count;not null" json:"mutation_count"`
	Data          datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result        *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status        BankMutationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	ReceivedAt    time.Time             `gorm:"column:received_at" json:"received_at"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func (BankMutationLog) TableName() string { return "bank_mutation_log" }
