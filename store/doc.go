// Package store provides the state-container collaborator of an engine.
//
// A [Store] folds every payload that reaches a dispatcher into a state
// value through a reducer, and exposes the current state as a snapshot.
// It is the read side of the orchestration core: use cases dispatch
// payloads, stores reduce them, and UI or application code reads the
// resulting state.
//
//	counter := store.New("counter", 0, func(n int, p payload.Payload, _ payload.Meta) int {
//	    if p.Type() == "counter.incremented" {
//	        return n + 1
//	    }
//	    return n
//	})
//
//	ctx, _ := engine.New(engine.WithStore(counter))
//
// A [Group] combines several named stores; its snapshot maps each store
// name to that store's state.
package store
