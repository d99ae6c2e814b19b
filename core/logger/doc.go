// Package logger builds the zap logger shared by the gallery engine.
//
// Each engine component logs through a named child (feed, likes, urls,
// realtime, http) so entries carry a "component" field. HTTP handlers add
// the request ray id with WithRayID.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json (server) or console (CLI)
//   - Service: static field on every entry
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	feedLog := logger.Named(log, logger.ComponentFeed)
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
