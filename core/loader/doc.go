// Package loader registers console features and mounts their routes.
//
// A feature is any type with a name, an enabled flag and a Load hook:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps features in registration order. LoadAll rejects two features
// with the same name, skips disabled ones and stops at the first Load error, naming
// the feature that failed. The console registers account, inventory and integrity.
package loader
