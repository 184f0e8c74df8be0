package billing

import "context"

// Charger attempts to collect payment for an invoice. A nil error means the
// charge succeeded. Payment gateways plug in behind this interface; the repo
// ships a logged no-op implementation for installs without a gateway.
type Charger interface {
	Charge(ctx context.Context, invoice *Invoice) error
}
