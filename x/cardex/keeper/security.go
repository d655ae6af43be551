package keeper

import (
	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// engineLockKey is held by every mutating operation. All mutating entry
// points share the global accumulator, so any overlap of two mutating calls
// is a serialization violation, not just overlaps on the same pool.
const engineLockKey = "engine"

// acquireLocks marks the engine and the involved assets as mid-operation and
// returns the release function. A second mutating call arriving while the
// marks are held -- typically a reentrant invocation from an external token
// hook -- fails fast with ErrReentrantCall instead of observing half-updated
// state. The engine never blocks waiting for a lock: serialized submission is
// the caller's contract.
func (k *Keeper) acquireLocks(operation string, assets ...string) (func(), error) {
	k.guardMu.Lock()
	defer k.guardMu.Unlock()

	if holder, ok := k.locks[engineLockKey]; ok {
		k.rejectReentrant(operation)
		return nil, types.ErrReentrantCall.Wrapf(
			"operation %s rejected: %s is mid-flight", operation, holder)
	}
	for _, asset := range assets {
		if holder, ok := k.locks[asset]; ok {
			k.rejectReentrant(operation)
			return nil, types.ErrReentrantCall.Wrapf(
				"operation %s rejected: %s holds %s", operation, holder, asset)
		}
	}

	k.locks[engineLockKey] = operation
	for _, asset := range assets {
		k.locks[asset] = operation
	}

	keys := append([]string{engineLockKey}, assets...)
	return func() {
		k.guardMu.Lock()
		defer k.guardMu.Unlock()
		for _, key := range keys {
			delete(k.locks, key)
		}
	}, nil
}

func (k *Keeper) rejectReentrant(operation string) {
	if k.metrics != nil {
		k.metrics.ReentrancyRejections.WithLabelValues(operation).Inc()
	}
}
