package settings

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/warungpay/qrispay/internal/models"
	"github.com/warungpay/qrispay/pkg/logctx"
	"github.com/warungpay/qrispay/pkg/tool"
)

// Service owns bank account settings rows, including the "at most one
// active" exclusivity rule: activating a configuration deactivates all
// siblings inside the same transaction.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Active returns the settings row currently governing new order issuance.
func (s *Service) Active(ctx context.Context) (*models.BankAccountSettings, error) {
	var row models.BankAccountSettings
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("failed to load active settings: %w", err)
	}
	return &row, nil
}

// ByBankAccountID returns the most recent settings row for a specific bank
// account, active or not. Reconciliation uses it to resolve tokens for
// orders issued under a configuration that has since been swapped out.
func (s *Service) ByBankAccountID(ctx context.Context, bankAccountID string) (*models.BankAccountSettings, error) {
	var row models.BankAccountSettings
	err := s.db.WithContext(ctx).
		Where("bank_account_id = ?", bankAccountID).
		Order("updated_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("failed to load settings for bank %s: %w", bankAccountID, err)
	}
	return &row, nil
}

// Save validates and persists a settings row. When the row is marked active,
// every other row is deactivated first.
func (s *Service) Save(ctx context.Context, row *models.BankAccountSettings) error {
	if row == nil {
		return fmt.Errorf("nil settings")
	}
	if row.UniqueCodeStart < 0 || row.UniqueCodeEnd < row.UniqueCodeStart {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidCodeRange, row.UniqueCodeStart, row.UniqueCodeEnd)
	}
	if row.ID == "" {
		row.ID = tool.GenerateUUIDV7()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.IsActive {
			if err := tx.Model(&models.BankAccountSettings{}).
				Where("id <> ?", row.ID).
				Where("is_active = ?", true).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("bank_settings_saved",
		"settings_id", row.ID,
		"bank_account_id", row.BankAccountID,
		"is_active", row.IsActive,
	)
	return nil
}

// Activate marks one settings row active and deactivates the rest.
func (s *Service) Activate(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.BankAccountSettings
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.BankAccountSettings{}).
			Where("id <> ?", id).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&row).Update("is_active", true).Error
	})
	if err != nil {
		return fmt.Errorf("failed to activate settings %s: %w", id, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("bank_settings_activated", "settings_id", id)
	return nil
}

// List returns all configured bank accounts, newest first.
func (s *Service) List(ctx context.Context) ([]*models.BankAccountSettings, error) {
	var rows []*models.BankAccountSettings
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return rows, nil
}
