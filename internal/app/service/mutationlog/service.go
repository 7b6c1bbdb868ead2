package mutationlog

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/warungpay/qrispay/internal/models"
	"github.com/warungpay/qrispay/pkg/logctx"
	"github.com/warungpay/qrispay/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a bank mutation webhook log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.BankMutationLog) {
	go func() {
		if log == nil {
			return
		}
		if log.ID == "" {
			log.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save mutation log: %v", err)
		}
	}()
}
