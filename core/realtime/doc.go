// Package realtime provides the push channel for like edge changes.
//
// The Hub is an in-process stand-in for a server-pushed change feed: the
// gallery store publishes an Event after every committed like or unlike,
// and subscribers receive the events matching their Filter in the order
// they were published.
//
// # Usage
//
//	hub := realtime.NewHub(logger)
//	sub := hub.Subscribe(realtime.Filter{UserID: uid}, func(e realtime.Event) {
//	    store.Apply(e)
//	})
//	defer sub.Unsubscribe()
package realtime
