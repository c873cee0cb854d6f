// SPDX-License-Identifier: BSD-3-Clause

package state

import "time"

// Asset configuration lifecycle states (see NewAssetConfigStateMachine).
const (
	StateNew         = "STATE_NEW"
	StateConfiguring = "STATE_CONFIGURING"
	StateConfigured  = "STATE_CONFIGURED"
	StateDeleting    = "STATE_DELETING"
)

// Asset configuration lifecycle triggers.
const (
	TriggerDiscover      = "discover"
	TriggerConfigureOK   = "configure_ok"
	TriggerConfigureFail = "configure_fail"
	TriggerDelete        = "delete"
	TriggerDeleted       = "deleted"
)

// NewStateMachine creates a basic state machine with the provided configuration.
func NewStateMachine(opts ...Option) (*FSM, error) {
	config := NewConfig(opts...)
	return New(config)
}

// NewAssetConfigStateMachine creates the per-asset configuration lifecycle
// state machine: STATE_NEW (discovery pending) -> STATE_CONFIGURING (applying
// a candidate) -> STATE_CONFIGURED (driver running), with STATE_DELETING
// reachable from any state once the asset leaves the catalog.
func NewAssetConfigStateMachine(assetName string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(assetName),
		WithDescription("Asset configuration lifecycle"),
		WithInitialState(StateNew),
		WithStates(StateNew, StateConfiguring, StateConfigured, StateDeleting),
		WithTransition(StateNew, StateConfiguring, TriggerDiscover),
		WithTransition(StateConfiguring, StateConfigured, TriggerConfigureOK),
		WithTransition(StateConfiguring, StateConfiguring, TriggerConfigureFail),
		WithTransition(StateNew, StateDeleting, TriggerDelete),
		WithTransition(StateConfiguring, StateDeleting, TriggerDelete),
		WithTransition(StateConfigured, StateDeleting, TriggerDelete),
		WithStateTimeout(60 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NextWakeup returns the scheduler deadline for an asset currently in state,
// per the timeout model of the event ingress scheduler (C10): a new asset
// with a verbatim configuration block is picked up almost immediately, one
// without waits for the first discovery tick; a failed configuration attempt
// is retried after a longer cooldown; a configured asset needs no wake-up of
// its own (it rides the nominal polling interval); a deleting asset is
// reaped quickly.
func NextWakeup(currentState string, hasVerbatim bool) (time.Duration, bool) {
	switch currentState {
	case StateNew:
		if hasVerbatim {
			return 100 * time.Millisecond, true
		}
		return 5 * time.Second, true
	case StateConfiguring:
		return 60 * time.Second, true
	case StateDeleting:
		return 100 * time.Millisecond, true
	default:
		return 0, false
	}
}
