// Package account exposes the session over HTTP: sign in, sign out and the
// current user. Signing in as another user or signing out notifies every
// session listener, which clears per-user state such as likes.
package account
