package loader

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"

	"github.com/sirupsen/logrus"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithGeometryOptions is an option builder that appends options to every mesh the Loader creates.
//
// Parameters:
//   - options: geometry options such as hint, tangent policy or logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the geometry options to a loader
func WithGeometryOptions(options ...geometry.StaticGeometryBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.geometryOptions = append(l.geometryOptions, options...)
	}
}

// WithMeshes is an option builder that pre-populates the cache.
//
// Parameters:
//   - key: the cache key
//   - meshes: the meshes to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache entry to a loader
func WithMeshes(key string, meshes []geometry.StaticGeometry) LoaderBuilderOption {
	return func(l *loader) {
		l.meshCache[key] = meshes
	}
}

// WithLogger is an option builder that sets the logger used by the Loader.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger logrus.FieldLogger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
