// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header.
//   - rayid: a unique request id for every request, stored in the fiber
//     locals for logger.WithRayID and echoed in the X-Ray-ID header.
package middleware
