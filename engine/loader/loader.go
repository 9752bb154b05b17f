// Package loader imports triangle meshes from model files into StaticGeometry values and
// caches them by path or name.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logging"

	"github.com/sirupsen/logrus"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	meshCache map[string][]geometry.StaticGeometry

	backend         loaderBackend
	geometryOptions []geometry.StaticGeometryBuilderOption
	logger          logrus.FieldLogger
}

// Loader imports model files into StaticGeometry meshes, one per triangle primitive, and
// keeps them cached under the path or name they were loaded with.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the path is already cached, the cached meshes are returned.
	// The backend is selected based on the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - []geometry.StaticGeometry: one mesh per primitive, in document order
	//   - error: error if loading fails
	Load(path string) ([]geometry.StaticGeometry, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded meshes
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - []geometry.StaticGeometry: one mesh per primitive, in document order
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) ([]geometry.StaticGeometry, error)

	// Get retrieves cached meshes by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - []geometry.StaticGeometry: the cached meshes or nil
	Get(name string) []geometry.StaticGeometry

	// Meshes returns a copy of the full cache.
	//
	// Returns:
	//   - map[string][]geometry.StaticGeometry: all cached meshes keyed by name
	Meshes() map[string][]geometry.StaticGeometry

	// Evict drops a cache entry and disposes its meshes' buffers on each given device.
	//
	// Parameters:
	//   - name: the cache key to drop
	//   - devs: the devices whose buffer chunks should be freed
	//
	// Returns:
	//   - bool: true if the entry existed
	Evict(name string, devs ...device.Device) bool
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		meshCache: make(map[string][]geometry.StaticGeometry),
		logger:    logging.Component("loader"),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) ([]geometry.StaticGeometry, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	imported, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(path, imported), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) ([]geometry.StaticGeometry, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, fmt.Errorf("loader has no backend")
	}

	imported, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, imported), nil
}

func (l *loader) Get(name string) []geometry.StaticGeometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshCache[name]
}

func (l *loader) Meshes() map[string][]geometry.StaticGeometry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string][]geometry.StaticGeometry, len(l.meshCache))
	for k, v := range l.meshCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string, devs ...device.Device) bool {
	l.mu.Lock()
	meshes, ok := l.meshCache[name]
	delete(l.meshCache, name)
	l.mu.Unlock()

	for _, g := range meshes {
		for _, dev := range devs {
			g.Dispose(dev)
		}
	}
	return ok
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend == nil {
			return nil, fmt.Errorf("loader has no backend for %s", ext)
		}
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}

// store turns imported primitives into StaticGeometry meshes and caches them under key.
// A concurrent load of the same key that finished first wins.
func (l *loader) store(key string, imported []importedMesh) []geometry.StaticGeometry {
	meshes := make([]geometry.StaticGeometry, len(imported))
	for i, m := range imported {
		meshes[i] = l.toGeometry(m)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.meshCache[key]; ok {
		return existing
	}
	l.meshCache[key] = meshes

	l.logger.WithFields(logrus.Fields{"source": key, "meshes": len(meshes)}).Info("[Loader] imported model")
	return meshes
}

// toGeometry builds a StaticGeometry from one imported primitive. Loader-wide geometry
// options are applied after the imported data so they can override the label or hint.
func (l *loader) toGeometry(m importedMesh) geometry.StaticGeometry {
	box := common.BoundingBoxFromPositions(m.attributes[geometry.AttributePosition])
	opts := []geometry.StaticGeometryBuilderOption{
		geometry.WithLabel(m.name),
		geometry.WithBoundingBox(&box),
	}
	for _, name := range geometry.AttributeNames() {
		if values, ok := m.attributes[name]; ok {
			opts = append(opts, geometry.WithAttribute(name, values))
		}
	}
	if m.faces != nil {
		opts = append(opts, geometry.WithFaces(m.faces))
	}
	return geometry.NewStaticGeometry(append(opts, l.geometryOptions...)...)
}
