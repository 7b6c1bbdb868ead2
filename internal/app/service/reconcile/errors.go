package reconcile

import "errors"

// ErrInvalidSignature indicates the webhook secret did not match the
// configured settings. The whole batch is rejected and nothing is processed.
var ErrInvalidSignature = errors.New("webhook signature mismatch")
