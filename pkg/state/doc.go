// SPDX-License-Identifier: BSD-3-Clause

// Package state provides a thread-safe finite state machine wrapper around
// github.com/qmuntal/stateless, adding persistence callbacks, broadcast
// notifications, tracing and bounded transition timeouts.
//
// # Core Concepts
//
// State Machine: a computational model consisting of a finite number of
// states, transitions between those states, and actions. At any given time
// the machine is in exactly one state.
//
// Trigger: an event that can cause a state transition. Triggers are only
// valid for specific states and their associated transitions.
//
// Guard: a boolean condition that must hold for a transition to occur.
//
// Action: code executed during a transition, or on entering/exiting any
// state via Config.OnStateEntry / Config.OnStateExit.
//
// # Basic Usage
//
//	cfg := NewConfig(
//		WithName("asset-x"),
//		WithDescription("asset configuration lifecycle"),
//		WithInitialState(StateNew),
//		WithStates(StateNew, StateConfiguring, StateConfigured, StateDeleting),
//		WithTransition(StateNew, StateConfiguring, TriggerDiscover),
//		WithGuardedTransition(StateConfiguring, StateConfigured, TriggerConfigureOK, func() bool {
//			return true
//		}),
//		WithStateTimeout(60*time.Second),
//	)
//
//	sm, err := New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sm.SetPersistenceCallback(func(ctx context.Context, machineName, state string) error {
//		return saveStateToStorage(ctx, machineName, state)
//	})
//
//	if err := sm.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	if err := sm.Fire(ctx, TriggerDiscover, nil); err != nil {
//		log.Printf("transition failed: %v", err)
//	}
//
// NewAssetConfigStateMachine and NewStateMachine in builders.go are the
// constructors actually used by this module's services; NewConfig and New
// above are the lower-level building blocks they are built from.
//
// # State Persistence And Broadcast
//
// Persistence and broadcast callbacks must be set before Start; once the
// machine has started, SetPersistenceCallback and SetBroadcastCallback
// return ErrStateMachineAlreadyStarted.
//
// # Multi-State Machine Management
//
// Manager tracks any number of named FSM instances:
//
//	manager := NewManager()
//	manager.AddStateMachine(sm)
//	found, err := manager.GetStateMachine("asset-x")
//
// # Thread Safety
//
// All FSM and Manager operations are safe for concurrent use; a read-write
// mutex allows concurrent state queries while serializing transitions.
package state
