// Package likes holds the current user's like state.
//
// A Store answers IsLiked synchronously from memory. Toggle applies the new
// state at once and rolls it back if the remote write fails; toggles of the
// same image run one after another. Reconcile replaces the state of a set of
// ids with the server's answer, in chunks that succeed or fail on their own.
//
// Every server change carries a version. The store keeps, per image, the
// newest version it has applied, so a toggle response and a realtime event
// for the same image converge on whichever change the server made last.
//
// A Reconciler subscribes to the realtime stream for the signed-in user and
// feeds each event to Store.Apply in delivery order. Both follow session
// changes: the store clears itself and the reconciler resubscribes.
package likes
