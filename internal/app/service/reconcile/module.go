package reconcile

import (
	"go.uber.org/fx"

	"github.com/warungpay/qrispay/internal/platform/bankfeed"
)

// Module exposes the reconciliation engine via Fx.
var Module = fx.Options(
	fx.Provide(func(c *bankfeed.Client) Feed { return c }),
	fx.Provide(New),
)
