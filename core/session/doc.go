// Package session holds the identity of the signed-in user and notifies
// interested components when it changes.
//
// Credential issuance is out of scope: the HTTP layer or a CLI flag hands
// the user id to SignIn. The like state store and the realtime reconciler
// listen through OnChange to clear and re-scope their state.
package session
