package order

import "go.uber.org/fx"

// Module exposes the payment order lifecycle service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
