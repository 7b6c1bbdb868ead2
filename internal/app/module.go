package app

import (
	"time"

	"github.com/warungpay/qrispay/internal/app/api/server"
	"github.com/warungpay/qrispay/internal/app/service/mutationlog"
	"github.com/warungpay/qrispay/internal/app/service/order"
	"github.com/warungpay/qrispay/internal/app/service/reconcile"
	"github.com/warungpay/qrispay/internal/app/service/settings"
	"github.com/warungpay/qrispay/internal/app/service/sweeper"
	"github.com/warungpay/qrispay/internal/platform/bankfeed"
	"github.com/warungpay/qrispay/internal/platform/db"
	"github.com/warungpay/qrispay/pkg/config"
	"github.com/warungpay/qrispay/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	bankfeed.Module,
	server.Module,
	settings.Module,
	order.Module,
	mutationlog.Module,
	reconcile.Module,
	sweeper.Module,
)
