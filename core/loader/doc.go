// Package loader provides the feature loading system.
//
// Each feature implements the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager registers features and mounts the enabled ones with LoadAll,
// in registration order. The gallery registers 'feed', 'likes', 'session'
// and 'integrity'.
package loader
