// Package server holds the HTTP server configuration and builds the Fiber
// application shared by every feature.
//
// NewApp installs the global middleware in order: ray id assignment, request
// logging through zap, and API key authentication. Features mount their
// routes on the returned app through the loader.
package server
