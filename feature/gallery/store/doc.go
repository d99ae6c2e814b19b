// Package store is the relational side of the remote store collaborator.
//
// It keeps image records and like edges in MySQL (or SQLite) through GORM
// and publishes a realtime event after every committed like or unlike.
// Every change carries a version taken from a process-wide sequence so
// that clients can order server confirmations against pushed events.
package store
