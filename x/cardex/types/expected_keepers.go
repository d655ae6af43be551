package types

import (
	"cosmossdk.io/math"
)

// BankKeeper is the external token collaborator. The engine never inspects
// balances; it only instructs transfers and relies on the collaborator to
// fail them. Implementations must return ErrTransferFailed-compatible errors
// on insufficient balance or allowance and ErrSupplyCapExceeded when a mint
// would push the paired token past its supply ceiling.
type BankKeeper interface {
	// TransferIn moves amount of token from the holder into engine custody.
	TransferIn(token, from string, amount math.Int) error
	// TransferOut moves amount of token from engine custody to the holder.
	TransferOut(token, to string, amount math.Int) error
	// MintPaired mints amount of the paired protocol token to the holder,
	// subject to the collaborator's maximum-supply policy.
	MintPaired(to string, amount math.Int) error
	// BurnPaired burns amount of the paired protocol token from the holder.
	BurnPaired(from string, amount math.Int) error
}

// EventPublisher receives the engine's notifications. Emissions are
// observational only and never feed back into engine logic.
// *EventBus.Bus from github.com/asaskevich/EventBus satisfies this.
type EventPublisher interface {
	Publish(topic string, args ...interface{})
}
