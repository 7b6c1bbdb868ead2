package settings

import "go.uber.org/fx"

// Module exposes the bank account settings service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
