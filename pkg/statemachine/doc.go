// Package statemachine provides a small, thread-safe transition table for
// entity lifecycles stored outside the process.
//
// Unlike a classic FSM instance, a Machine holds no current state: callers
// pass the entity's current state to Fire and persist the returned state
// themselves. One Machine therefore serves any number of entities
// concurrently, which is the usual shape when the states live in database
// rows.
//
//	m := statemachine.New()
//	m.AddTransition("pending", "active", "activate", nil, nil)
//
//	next, err := m.Fire(ctx, "pending", "activate", row)
//
// Transitions support guards (vetoes) and actions (side effects that run
// before the new state is reported; an action error aborts the transition).
package statemachine
